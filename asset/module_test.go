// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset_test

import (
	"crypto/ecdsa"
	"encoding/json"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinyuchan/platform/asset"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
	"github.com/chinyuchan/platform/zk"
)

const chainTag byte = 0xa4

// memState is a throwaway module.State.
type memState map[string][]byte

func (s memState) Get(key []byte) ([]byte, bool, error) {
	v, ok := s[string(key)]
	return v, ok, nil
}
func (s memState) Put(key, val []byte) { s[string(key)] = val }
func (s memState) Delete(key []byte)   { delete(s, string(key)) }

// owner is a key pair spending and receiving outputs.
type owner struct {
	priv *secp256k1.PrivateKey
	pub  platform.PubKey
}

func newOwner(t *testing.T) *owner {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub, err := platform.BytesToPubKey(priv.PubKey().SerializeCompressed())
	require.NoError(t, err)
	return &owner{priv: priv, pub: pub}
}

func (o *owner) spendSig(t *testing.T, hash platform.Bytes32) []byte {
	sig, err := schnorr.Sign(o.priv, hash.Bytes())
	require.NoError(t, err)
	return sig.Serialize()
}

func originKey(t *testing.T) *ecdsa.PrivateKey {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return priv
}

// build signs ops into a delivered envelope.
func build(t *testing.T, origin *ecdsa.PrivateKey, nonce, fee uint64, ops ...asset.Op) *tx.Transaction {
	payload, err := asset.EncodePayload(ops)
	require.NoError(t, err)
	env := tx.NewBuilder(tx.KindAsset).
		ChainTag(chainTag).
		Nonce(nonce).
		Fee(fee).
		Payload(payload).
		Build()
	return tx.MustSign(env, origin)
}

func newTestModule(t *testing.T) (*asset.Module, memState) {
	m := asset.New(zk.NewPedersenVerifier(), 0)
	st := memState{}
	return m, st
}

// seed runs genesis with one allocation per given owner.
func seed(t *testing.T, m *asset.Module, st memState, amounts map[*owner]uint64, owners ...*owner) map[*owner]platform.Bytes32 {
	cfg := map[string]interface{}{
		"native":      map[string]interface{}{},
		"allocations": []map[string]interface{}{},
	}
	allocs := make([]map[string]interface{}, 0, len(owners))
	for _, o := range owners {
		allocs = append(allocs, map[string]interface{}{
			"owner":  o.pub.String(),
			"amount": amounts[o],
		})
	}
	cfg["allocations"] = allocs
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Genesis(json.RawMessage(raw), st))

	utxos := make(map[*owner]platform.Bytes32)
	for i, o := range owners {
		utxos[o] = asset.GenesisUTXOID(uint32(i))
	}
	return utxos
}

// transfer builds a signed clear transfer of the full input.
func transfer(t *testing.T, origin *ecdsa.PrivateKey, from *owner, utxoID platform.Bytes32, declared asset.UTXO, to *owner, amount, fee uint64, nonce uint64) *tx.Transaction {
	out := asset.Output{Asset: declared.Asset, Owner: to.pub, Amount: asset.ClearRecord(amount)}
	op := &asset.TransferAsset{
		Inputs:  []asset.Input{{UTXO: utxoID, Declared: declared}},
		Outputs: []asset.Output{out},
	}
	hash, err := asset.SpendHash(chainTag, nonce, fee, []asset.Op{op})
	require.NoError(t, err)
	op.Inputs[0].Sigs = [][]byte{from.spendSig(t, hash)}
	return build(t, origin, nonce, fee, op)
}

func deliver(t *testing.T, m *asset.Module, st memState, env *tx.Transaction) error {
	ctx := &module.BlockContext{Height: 1}
	if err := m.Validate(ctx, env, st); err != nil {
		return err
	}
	_, err := m.Apply(ctx, env, st)
	require.NoError(t, err)
	return nil
}

func nativeUTXO(o *owner, amount uint64) asset.UTXO {
	return asset.UTXO{Asset: asset.NativeAsset, Owner: o.pub, Amount: asset.ClearRecord(amount)}
}

func TestClearTransfer(t *testing.T) {
	m, st := newTestModule(t)
	alice, bob := newOwner(t), newOwner(t)
	utxos := seed(t, m, st, map[*owner]uint64{alice: 100}, alice)

	env := transfer(t, originKey(t), alice, utxos[alice], nativeUTXO(alice, 100), bob, 95, 5, 1)
	require.NoError(t, deliver(t, m, st, env))

	// the input is spent now
	env2 := transfer(t, originKey(t), alice, utxos[alice], nativeUTXO(alice, 100), bob, 95, 5, 2)
	err := deliver(t, m, st, env2)
	assert.Equal(t, tx.CodeDoubleSpend, module.CodeOf(err))

	// bob received output 0 of the first tx
	outID := asset.UTXOID(env.ID(), 0)
	_, ok, err := st.Get(append([]byte("u/"), outID.Bytes()...))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnknownInput(t *testing.T) {
	m, st := newTestModule(t)
	alice, bob := newOwner(t), newOwner(t)
	seed(t, m, st, map[*owner]uint64{alice: 100}, alice)

	bogus := platform.Blake2b([]byte("no such utxo"))
	env := transfer(t, originKey(t), alice, bogus, nativeUTXO(alice, 100), bob, 100, 0, 1)
	err := deliver(t, m, st, env)
	assert.Equal(t, tx.CodeUnknownInput, module.CodeOf(err))
}

func TestOwnerMismatch(t *testing.T) {
	m, st := newTestModule(t)
	alice, bob, mallory := newOwner(t), newOwner(t), newOwner(t)
	utxos := seed(t, m, st, map[*owner]uint64{alice: 100}, alice)

	// mallory signs for alice's output
	env := transfer(t, originKey(t), mallory, utxos[alice], nativeUTXO(alice, 100), bob, 100, 0, 1)
	err := m.Prevalidate(env)
	assert.Equal(t, tx.CodeOwnerMismatch, module.CodeOf(err))

	// declaring mallory as owner fails against the ledger instead
	declared := nativeUTXO(mallory, 100)
	env = transfer(t, originKey(t), mallory, utxos[alice], declared, bob, 100, 0, 1)
	err = deliver(t, m, st, env)
	assert.Equal(t, tx.CodeOwnerMismatch, module.CodeOf(err))
}

func TestConservation(t *testing.T) {
	m, st := newTestModule(t)
	alice, bob := newOwner(t), newOwner(t)
	utxos := seed(t, m, st, map[*owner]uint64{alice: 100}, alice)

	// outputs + fee != inputs
	env := transfer(t, originKey(t), alice, utxos[alice], nativeUTXO(alice, 100), bob, 95, 4, 1)
	err := m.Prevalidate(env)
	assert.Equal(t, tx.CodeAmountMismatch, module.CodeOf(err))

	// minting is a mismatch, not an issuance
	env = transfer(t, originKey(t), alice, utxos[alice], nativeUTXO(alice, 100), bob, 101, 0, 1)
	err = m.Prevalidate(env)
	assert.Equal(t, tx.CodeAmountMismatch, module.CodeOf(err))
}

func TestIntraTxDoubleSpend(t *testing.T) {
	m, st := newTestModule(t)
	alice, bob := newOwner(t), newOwner(t)
	utxos := seed(t, m, st, map[*owner]uint64{alice: 100}, alice)

	op := &asset.TransferAsset{
		Inputs: []asset.Input{
			{UTXO: utxos[alice], Declared: nativeUTXO(alice, 100)},
			{UTXO: utxos[alice], Declared: nativeUTXO(alice, 100)},
		},
		Outputs: []asset.Output{{Asset: asset.NativeAsset, Owner: bob.pub, Amount: asset.ClearRecord(200)}},
	}
	hash, err := asset.SpendHash(chainTag, 1, 0, []asset.Op{op})
	require.NoError(t, err)
	sig := alice.spendSig(t, hash)
	op.Inputs[0].Sigs = [][]byte{sig}
	op.Inputs[1].Sigs = [][]byte{sig}

	err = m.Prevalidate(build(t, originKey(t), 1, 0, op))
	assert.Equal(t, tx.CodeDoubleSpend, module.CodeOf(err))
}

func TestDefineAndIssue(t *testing.T) {
	m, st := newTestModule(t)
	issuerOrigin := originKey(t)
	holder := newOwner(t)

	// the issuer key must belong to the envelope origin
	issuerPub, err := platform.BytesToPubKey(crypto.CompressPubkey(&issuerOrigin.PublicKey))
	require.NoError(t, err)

	seed(t, m, st, nil)

	define := &asset.DefineAsset{
		Issuer: issuerPub,
		Salt:   platform.Blake2b([]byte("X")),
		Cap:    1000,
		Flags:  asset.FlagTransferable,
		Memo:   []byte("asset X"),
	}
	id := define.ID()

	issue := &asset.IssueAsset{
		Asset: id,
		Seq:   1,
		Outputs: []asset.Output{{
			Asset:  id,
			Owner:  holder.pub,
			Amount: asset.ClearRecord(1000),
		}},
	}
	require.NoError(t, deliver(t, m, st, build(t, issuerOrigin, 1, 0, define, issue)))

	// a wrong origin cannot issue
	issue2 := &asset.IssueAsset{
		Asset:   id,
		Seq:     2,
		Outputs: []asset.Output{{Asset: id, Owner: holder.pub, Amount: asset.ClearRecord(1)}},
	}
	err = deliver(t, m, st, build(t, originKey(t), 1, 0, issue2))
	assert.Equal(t, tx.CodeOwnerMismatch, module.CodeOf(err))

	// the cap is exhausted
	err = deliver(t, m, st, build(t, issuerOrigin, 2, 0, issue2))
	assert.Equal(t, tx.CodeCapExceeded, module.CodeOf(err))

	// a replayed sequence is stale
	err = deliver(t, m, st, build(t, issuerOrigin, 3, 0, &asset.IssueAsset{
		Asset:   id,
		Seq:     1,
		Outputs: []asset.Output{{Asset: id, Owner: holder.pub, Amount: asset.ClearRecord(1)}},
	}))
	assert.Equal(t, tx.CodeStaleIssuance, module.CodeOf(err))

	// defining the same asset twice fails
	err = deliver(t, m, st, build(t, issuerOrigin, 4, 0, define))
	assert.Equal(t, tx.CodeAssetExists, module.CodeOf(err))

	// finalize sweeps the cap invariant without error
	_, err = m.Finalize(&module.BlockContext{Height: 1}, st)
	assert.NoError(t, err)
}

func TestNotTransferable(t *testing.T) {
	m, st := newTestModule(t)
	issuerOrigin := originKey(t)
	holder, other := newOwner(t), newOwner(t)

	issuerPub, err := platform.BytesToPubKey(crypto.CompressPubkey(&issuerOrigin.PublicKey))
	require.NoError(t, err)

	seed(t, m, st, nil)

	define := &asset.DefineAsset{Issuer: issuerPub, Salt: platform.Bytes32{1}}
	id := define.ID()
	issue := &asset.IssueAsset{
		Asset:   id,
		Seq:     1,
		Outputs: []asset.Output{{Asset: id, Owner: holder.pub, Amount: asset.ClearRecord(10)}},
	}
	env := build(t, issuerOrigin, 1, 0, define, issue)
	require.NoError(t, deliver(t, m, st, env))

	utxoID := asset.UTXOID(env.ID(), 0)
	declared := asset.UTXO{Asset: id, Owner: holder.pub, Amount: asset.ClearRecord(10)}
	moveTx := transfer(t, originKey(t), holder, utxoID, declared, other, 10, 0, 9)
	err = deliver(t, m, st, moveTx)
	assert.Equal(t, tx.CodeNotTransferable, module.CodeOf(err))
}

func TestConfidentialTransfer(t *testing.T) {
	m, st := newTestModule(t)
	alice, bob := newOwner(t), newOwner(t)
	utxos := seed(t, m, st, map[*owner]uint64{alice: 100}, alice)

	// alice converts her clear 100 into a confidential output for bob,
	// paying a clear fee of 2
	outOpening := zk.Opening{Amount: 98}
	blinding, err := zk.RandomBlinding()
	require.NoError(t, err)
	outOpening.Blinding = blinding

	set, err := zk.ProveTransfer([]zk.Opening{{Amount: 100}}, []zk.Opening{outOpening}, 2)
	require.NoError(t, err)

	op := &asset.TransferAsset{
		Inputs: []asset.Input{{UTXO: utxos[alice], Declared: nativeUTXO(alice, 100)}},
		Outputs: []asset.Output{{
			Asset:  asset.NativeAsset,
			Owner:  bob.pub,
			Amount: asset.ConfidentialRecord(set.Outputs[0]),
		}},
		Proof: set.Proof,
	}
	hash, err := asset.SpendHash(chainTag, 1, 2, []asset.Op{op})
	require.NoError(t, err)
	op.Inputs[0].Sigs = [][]byte{alice.spendSig(t, hash)}

	env := build(t, originKey(t), 1, 2, op)
	require.NoError(t, deliver(t, m, st, env))

	// a tampered proof is rejected before any state is read
	bad := *op
	bad.Proof = append([]byte(nil), op.Proof...)
	bad.Proof[0] ^= 1
	hash, err = asset.SpendHash(chainTag, 2, 2, []asset.Op{&bad})
	require.NoError(t, err)
	bad.Inputs = []asset.Input{{UTXO: utxos[alice], Declared: nativeUTXO(alice, 100), Sigs: [][]byte{alice.spendSig(t, hash)}}}
	err = m.Prevalidate(build(t, originKey(t), 2, 2, &bad))
	assert.Equal(t, tx.CodeProofInvalid, module.CodeOf(err))
}

func TestPolicySpend(t *testing.T) {
	m, st := newTestModule(t)
	k1, k2, k3, dest := newOwner(t), newOwner(t), newOwner(t), newOwner(t)
	alice := newOwner(t)
	utxos := seed(t, m, st, map[*owner]uint64{alice: 50}, alice)

	policy := &asset.Policy{Threshold: 2, Keys: []platform.PubKey{k1.pub, k2.pub, k3.pub}}

	// alice pays into a 2-of-3 policy output
	op := &asset.TransferAsset{
		Inputs: []asset.Input{{UTXO: utxos[alice], Declared: nativeUTXO(alice, 50)}},
		Outputs: []asset.Output{{
			Asset:  asset.NativeAsset,
			Owner:  k1.pub,
			Amount: asset.ClearRecord(50),
			Policy: policy,
		}},
	}
	hash, err := asset.SpendHash(chainTag, 1, 0, []asset.Op{op})
	require.NoError(t, err)
	op.Inputs[0].Sigs = [][]byte{alice.spendSig(t, hash)}
	env := build(t, originKey(t), 1, 0, op)
	require.NoError(t, deliver(t, m, st, env))

	policyUTXO := asset.UTXO{Asset: asset.NativeAsset, Owner: k1.pub, Amount: asset.ClearRecord(50), Policy: policy}
	utxoID := asset.UTXOID(env.ID(), 0)

	spendWith := func(nonce uint64, signers ...*owner) error {
		op := &asset.TransferAsset{
			Inputs:  []asset.Input{{UTXO: utxoID, Declared: policyUTXO}},
			Outputs: []asset.Output{{Asset: asset.NativeAsset, Owner: dest.pub, Amount: asset.ClearRecord(50)}},
		}
		hash, err := asset.SpendHash(chainTag, nonce, 0, []asset.Op{op})
		require.NoError(t, err)
		sigs := make([][]byte, len(policy.Keys))
		keyIndex := map[*owner]int{k1: 0, k2: 1, k3: 2}
		for _, s := range signers {
			sigs[keyIndex[s]] = s.spendSig(t, hash)
		}
		op.Inputs[0].Sigs = sigs
		return m.Prevalidate(build(t, originKey(t), nonce, 0, op))
	}

	// one signature is below the threshold
	err = spendWith(2, k1)
	assert.Equal(t, tx.CodePolicyViolation, module.CodeOf(err))

	// any two clear it
	assert.NoError(t, spendWith(3, k1, k3))
	assert.NoError(t, spendWith(4, k2, k3))
}
