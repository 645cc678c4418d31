// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"math"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"

	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
	"github.com/chinyuchan/platform/zk"
)

// NewUTXO is one output the effect creates.
type NewUTXO struct {
	ID   platform.Bytes32
	UTXO UTXO
}

// Issuance is one issue op with its clear amount extracted.
type Issuance struct {
	Op          *IssueAsset
	ClearAmount uint64
}

// Effect is what an asset envelope does, computed without ledger state.
// Everything checkable from the envelope alone is already checked: op
// decoding, signatures, clear conservation and confidential proofs.
// Validate then only confirms the declared facts against the ledger.
type Effect struct {
	TxID    platform.Bytes32
	Origin  platform.Address
	Inputs  []*Input
	Defines []*DefineAsset
	Issues  []*Issuance
	Outputs []NewUTXO
}

// ComputeEffect is the stateless phase of admitting an asset envelope.
func (m *Module) ComputeEffect(env *tx.Transaction) (*Effect, error) {
	origin, err := env.Origin()
	if err != nil {
		return nil, module.NewReason(tx.CodeBadSignature, "unrecoverable origin")
	}
	ops, err := DecodePayload(env.Payload())
	if err != nil {
		return nil, module.NewReason(tx.CodeMalformed, err.Error())
	}

	effect := &Effect{TxID: env.ID(), Origin: origin}
	spendHash, err := SpendHash(env.ChainTag(), env.Nonce(), env.Fee(), ops)
	if err != nil {
		return nil, module.NewReason(tx.CodeMalformed, err.Error())
	}

	var (
		outIndex    uint32
		seenInputs  = make(map[platform.Bytes32]bool)
		seenDefines = make(map[ID]bool)
		// net clear movement per asset over all clear transfer records
		clearIn  = make(map[ID]uint64)
		clearOut = make(map[ID]uint64)
		// confidential sets, at most one touching the native asset
		sets          []*zk.TransferSet
		setAssets     []ID
		nativeSetSeen bool
	)

	addOutput := func(o *Output) error {
		if err := o.wellFormed(); err != nil {
			return module.NewReason(tx.CodeMalformed, err.Error())
		}
		effect.Outputs = append(effect.Outputs, NewUTXO{
			ID:   UTXOID(effect.TxID, outIndex),
			UTXO: o.utxo(),
		})
		outIndex++
		return nil
	}

	for _, op := range ops {
		switch op := op.(type) {
		case *DefineAsset:
			if op.Issuer.IsZero() {
				return nil, module.NewReason(tx.CodeMalformed, "zero issuer")
			}
			if len(op.Memo) > MaxMemoLength {
				return nil, module.NewReason(tx.CodeMalformed, "memo too long")
			}
			issuerAddr, err := op.Issuer.Address()
			if err != nil {
				return nil, module.NewReason(tx.CodeMalformed, "bad issuer key")
			}
			if issuerAddr != origin {
				return nil, module.NewReason(tx.CodeOwnerMismatch, "issuer key does not belong to origin")
			}
			id := op.ID()
			if seenDefines[id] {
				return nil, module.Reasonf(tx.CodeAssetExists, "asset %v defined twice", id)
			}
			seenDefines[id] = true
			effect.Defines = append(effect.Defines, op)

		case *IssueAsset:
			if len(op.Outputs) == 0 {
				return nil, module.NewReason(tx.CodeMalformed, "issuance without outputs")
			}
			var clearAmount uint64
			for i := range op.Outputs {
				o := &op.Outputs[i]
				if o.Asset != op.Asset {
					return nil, module.NewReason(tx.CodeMalformed, "issuance output of foreign asset")
				}
				if !o.Amount.Confidential() {
					sum, ok := addU64(clearAmount, o.Amount.Amount)
					if !ok {
						return nil, module.NewReason(tx.CodeAmountMismatch, "issuance overflow")
					}
					clearAmount = sum
				}
				if err := addOutput(o); err != nil {
					return nil, err
				}
			}
			effect.Issues = append(effect.Issues, &Issuance{Op: op, ClearAmount: clearAmount})

		case *TransferAsset:
			if len(op.Inputs) == 0 {
				return nil, module.NewReason(tx.CodeMalformed, "transfer without inputs")
			}
			confidential := false
			opAsset := op.Inputs[0].Declared.Asset
			singleAsset := true

			for i := range op.Inputs {
				in := &op.Inputs[i]
				if seenInputs[in.UTXO] {
					return nil, module.Reasonf(tx.CodeDoubleSpend, "input %v spent twice in tx", in.UTXO)
				}
				seenInputs[in.UTXO] = true
				if err := in.Declared.Amount.wellFormed(); err != nil {
					return nil, module.NewReason(tx.CodeMalformed, err.Error())
				}
				if err := verifySpend(in, spendHash); err != nil {
					return nil, err
				}
				if in.Declared.Amount.Confidential() {
					confidential = true
				}
				if in.Declared.Asset != opAsset {
					singleAsset = false
				}
				effect.Inputs = append(effect.Inputs, in)
			}
			for i := range op.Outputs {
				o := &op.Outputs[i]
				if o.Amount.Confidential() {
					confidential = true
				}
				if o.Asset != opAsset {
					singleAsset = false
				}
				if err := addOutput(o); err != nil {
					return nil, err
				}
			}

			if confidential {
				// a confidential op must stay within one asset: the
				// conservation proof cannot separate types
				if !singleAsset {
					return nil, module.NewReason(tx.CodeMalformed, "confidential transfer mixes assets")
				}
				set := &zk.TransferSet{Proof: op.Proof}
				for i := range op.Inputs {
					c, err := op.Inputs[i].Declared.Amount.commitment()
					if err != nil {
						return nil, module.NewReason(tx.CodeMalformed, err.Error())
					}
					set.Inputs = append(set.Inputs, c)
				}
				for i := range op.Outputs {
					c, err := op.Outputs[i].Amount.commitment()
					if err != nil {
						return nil, module.NewReason(tx.CodeMalformed, err.Error())
					}
					set.Outputs = append(set.Outputs, c)
				}
				if opAsset == NativeAsset {
					if nativeSetSeen {
						return nil, module.NewReason(tx.CodeMalformed, "multiple confidential native transfers")
					}
					nativeSetSeen = true
				}
				sets = append(sets, set)
				setAssets = append(setAssets, opAsset)
			} else {
				if len(op.Proof) != 0 {
					return nil, module.NewReason(tx.CodeMalformed, "proof on clear transfer")
				}
				for i := range op.Inputs {
					in := &op.Inputs[i]
					sum, ok := addU64(clearIn[in.Declared.Asset], in.Declared.Amount.Amount)
					if !ok {
						return nil, module.NewReason(tx.CodeAmountMismatch, "input overflow")
					}
					clearIn[in.Declared.Asset] = sum
				}
				for i := range op.Outputs {
					o := &op.Outputs[i]
					sum, ok := addU64(clearOut[o.Asset], o.Amount.Amount)
					if !ok {
						return nil, module.NewReason(tx.CodeAmountMismatch, "output overflow")
					}
					clearOut[o.Asset] = sum
				}
			}

		default:
			return nil, module.NewReason(tx.CodeMalformed, "unknown op")
		}
	}

	if err := checkConservation(clearIn, clearOut, env.Fee(), nativeSetSeen); err != nil {
		return nil, err
	}

	for i, set := range sets {
		if setAssets[i] == NativeAsset {
			// the confidential native set absorbs whatever fee the clear
			// records did not cover
			set.Fee = env.Fee() - clearNativeNet(clearIn, clearOut)
		}
		if err := m.verifier.VerifyTransfer(set); err != nil {
			return nil, module.NewReason(tx.CodeProofInvalid, err.Error())
		}
	}
	return effect, nil
}

// checkConservation enforces per-asset clear balance. The native asset may
// run a surplus up to the fee; with a confidential native set in the
// envelope the surplus must not exceed the fee, otherwise it must equal it.
func checkConservation(clearIn, clearOut map[ID]uint64, fee uint64, nativeSet bool) error {
	assets := make(map[ID]bool, len(clearIn)+len(clearOut))
	for id := range clearIn {
		assets[id] = true
	}
	for id := range clearOut {
		assets[id] = true
	}
	nativeSeen := false
	for id := range assets {
		in, out := clearIn[id], clearOut[id]
		if id == NativeAsset {
			nativeSeen = true
			if in < out {
				return module.NewReason(tx.CodeAmountMismatch, "native transfer mints")
			}
			surplus := in - out
			if nativeSet {
				if surplus > fee {
					return module.NewReason(tx.CodeAmountMismatch, "native surplus exceeds fee")
				}
			} else if surplus != fee {
				return module.Reasonf(tx.CodeAmountMismatch, "native surplus %d != fee %d", surplus, fee)
			}
			continue
		}
		if in != out {
			return module.Reasonf(tx.CodeAmountMismatch, "asset %v unbalanced", id)
		}
	}
	if fee > 0 && !nativeSeen && !nativeSet {
		return module.NewReason(tx.CodeAmountMismatch, "fee not covered")
	}
	return nil
}

func clearNativeNet(clearIn, clearOut map[ID]uint64) uint64 {
	return clearIn[NativeAsset] - clearOut[NativeAsset]
}

// verifySpend checks the input signatures over the spend hash against the
// declared owner or policy.
func verifySpend(in *Input, spendHash platform.Bytes32) error {
	if policy := in.Declared.Policy; policy != nil {
		if err := policy.wellFormed(); err != nil {
			return module.NewReason(tx.CodeMalformed, err.Error())
		}
		if len(in.Sigs) != len(policy.Keys) {
			return module.NewReason(tx.CodePolicyViolation, "one signature slot per policy key")
		}
		var valid uint8
		for i, sig := range in.Sigs {
			if len(sig) == 0 {
				continue
			}
			if !verifySchnorr(sig, spendHash, policy.Keys[i]) {
				return module.Reasonf(tx.CodePolicyViolation, "bad signature for policy key %d", i)
			}
			valid++
		}
		if valid < policy.Threshold {
			return module.Reasonf(tx.CodePolicyViolation, "%d of %d required signatures", valid, policy.Threshold)
		}
		return nil
	}

	if len(in.Sigs) != 1 || len(in.Sigs[0]) == 0 {
		return module.NewReason(tx.CodeOwnerMismatch, "exactly one owner signature required")
	}
	if !verifySchnorr(in.Sigs[0], spendHash, in.Declared.Owner) {
		return module.Reasonf(tx.CodeOwnerMismatch, "input %v owner signature invalid", in.UTXO)
	}
	return nil
}

func verifySchnorr(sig []byte, hash platform.Bytes32, key platform.PubKey) bool {
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	pub, err := secp256k1.ParsePubKey(key.Bytes())
	if err != nil {
		return false
	}
	return parsed.Verify(hash.Bytes(), pub)
}

func addU64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}
