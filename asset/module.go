// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/log"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
	"github.com/chinyuchan/platform/zk"
)

var logger = log.WithContext("pkg", "asset")

const effectCacheLen = 8192

// genesisSeed keys the pseudo transaction genesis allocations hang off.
var genesisSeed = platform.Blake2b([]byte("platform:genesis:asset"))

// Module is the native asset ledger module.
type Module struct {
	verifier zk.Verifier
	minFee   uint64

	effects *lru.Cache // tx id -> *Effect

	// assets with issuance activity in the open block, swept by Finalize.
	// Delivery is serial within a block, so no locking.
	touched map[ID]struct{}
}

// New creates the module. minFee is the admission floor for the declared
// envelope fee.
func New(verifier zk.Verifier, minFee uint64) *Module {
	cache, err := lru.New(effectCacheLen)
	if err != nil {
		panic(err)
	}
	return &Module{
		verifier: verifier,
		minFee:   minFee,
		effects:  cache,
		touched:  make(map[ID]struct{}),
	}
}

// Kind implements module.Module.
func (m *Module) Kind() tx.Kind { return tx.KindAsset }

// Name implements module.Module.
func (m *Module) Name() string { return "asset" }

// effectOf computes the effect, reusing a cached one. Computation is a
// pure function of the envelope, so a hit never changes the outcome.
func (m *Module) effectOf(env *tx.Transaction) (*Effect, error) {
	id := env.ID()
	if !id.IsZero() {
		if cached, ok := m.effects.Get(id); ok {
			return cached.(*Effect), nil
		}
	}
	effect, err := m.ComputeEffect(env)
	if err != nil {
		return nil, err
	}
	if !id.IsZero() {
		m.effects.Add(id, effect)
	}
	return effect, nil
}

// Prevalidate implements module.Prevalidator. It runs the stateless phase
// ahead of delivery so signature and proof verification can parallelize.
func (m *Module) Prevalidate(env *tx.Transaction) error {
	_, err := m.effectOf(env)
	return err
}

// Check implements module.Module. It admits an envelope against the last
// committed view: effects must compute, the fee must reach the floor and
// the inputs must still be unspent.
func (m *Module) Check(env *tx.Transaction, view module.StateReader) error {
	if env.Fee() < m.minFee {
		return module.Reasonf(tx.CodeInsufficientFee, "fee %d below floor %d", env.Fee(), m.minFee)
	}
	effect, err := m.effectOf(env)
	if err != nil {
		return err
	}
	for _, in := range effect.Inputs {
		if _, err := m.loadInput(view, in); err != nil {
			return err
		}
	}
	return nil
}

// Validate implements module.Module: the declared effect is confirmed
// against the open block's state.
func (m *Module) Validate(ctx *module.BlockContext, env *tx.Transaction, st module.State) error {
	effect, err := m.effectOf(env)
	if err != nil {
		return err
	}

	for _, op := range effect.Defines {
		if _, ok, err := m.getType(st, op.ID()); err != nil {
			return err
		} else if ok {
			return module.Reasonf(tx.CodeAssetExists, "asset %v already defined", op.ID())
		}
	}

	// asset types staged by this envelope, visible to later checks
	staged := make(map[ID]*Type)
	for _, op := range effect.Defines {
		staged[op.ID()] = &Type{
			Issuer: op.Issuer,
			Cap:    op.Cap,
			Flags:  op.Flags,
			Memo:   op.Memo,
		}
	}
	typeOf := func(id ID) (*Type, error) {
		if t, ok := staged[id]; ok {
			return t, nil
		}
		t, ok, err := m.getType(st, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, module.Reasonf(tx.CodeUnknownAsset, "asset %v", id)
		}
		staged[id] = t
		return t, nil
	}

	for _, in := range effect.Inputs {
		stored, err := m.loadInput(st, in)
		if err != nil {
			return err
		}
		if ctx.Height < stored.NotBefore || (stored.NotAfter != 0 && ctx.Height > stored.NotAfter) {
			return module.Reasonf(tx.CodeWindowViolation, "input %v valid in [%d, %d]", in.UTXO, stored.NotBefore, stored.NotAfter)
		}
		t, err := typeOf(stored.Asset)
		if err != nil {
			return err
		}
		if !t.Flags.Has(FlagTransferable) {
			issuerAddr, addrErr := t.Issuer.Address()
			if addrErr != nil || issuerAddr != effect.Origin {
				return module.Reasonf(tx.CodeNotTransferable, "asset %v", stored.Asset)
			}
		}
	}

	for _, out := range effect.Outputs {
		t, err := typeOf(out.UTXO.Asset)
		if err != nil {
			return err
		}
		if out.UTXO.Amount.Confidential() && !t.Flags.Has(FlagConfidential) {
			return module.Reasonf(tx.CodePolicyViolation, "asset %v does not permit confidential amounts", out.UTXO.Asset)
		}
	}

	for _, iss := range effect.Issues {
		t, err := typeOf(iss.Op.Asset)
		if err != nil {
			return err
		}
		issuerAddr, err := t.Issuer.Address()
		if err != nil || issuerAddr != effect.Origin {
			return module.Reasonf(tx.CodeOwnerMismatch, "origin is not the issuer of %v", iss.Op.Asset)
		}
		if iss.Op.Seq <= t.Seq {
			return module.Reasonf(tx.CodeStaleIssuance, "seq %d not above %d", iss.Op.Seq, t.Seq)
		}
		if t.Cap != 0 {
			issued, ok := addU64(t.Issued, iss.ClearAmount)
			if !ok || issued > t.Cap {
				return module.Reasonf(tx.CodeCapExceeded, "asset %v cap %d", iss.Op.Asset, t.Cap)
			}
			t.Issued = issued
		} else {
			t.Issued += iss.ClearAmount
		}
		t.Seq = iss.Op.Seq
	}
	return nil
}

// Apply implements module.Module. It assumes Validate passed on the same
// state; failures here are internal.
func (m *Module) Apply(_ *module.BlockContext, env *tx.Transaction, st module.State) (*tx.Receipt, error) {
	effect, err := m.effectOf(env)
	if err != nil {
		return nil, err
	}

	var events tx.Events

	for _, in := range effect.Inputs {
		st.Delete(keyUTXO(in.UTXO))
		st.Put(keySpent(in.UTXO), effect.TxID.Bytes())
	}
	if len(effect.Inputs) > 0 {
		events = append(events, tx.Event{
			Type: "asset.transfer",
			Attributes: []tx.Attribute{
				{Key: "tx", Value: effect.TxID.String()},
				{Key: "inputs", Value: strconv.Itoa(len(effect.Inputs))},
			},
		})
	}

	for _, op := range effect.Defines {
		id := op.ID()
		if err := m.putType(st, id, &Type{
			Issuer: op.Issuer,
			Cap:    op.Cap,
			Flags:  op.Flags,
			Memo:   op.Memo,
		}); err != nil {
			return nil, err
		}
		events = append(events, tx.Event{
			Type: "asset.define",
			Attributes: []tx.Attribute{
				{Key: "asset", Value: id.String()},
				{Key: "issuer", Value: op.Issuer.String()},
			},
		})
	}

	for _, iss := range effect.Issues {
		t, ok, err := m.getType(st, iss.Op.Asset)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Errorf("issuance of unvalidated asset %v", iss.Op.Asset)
		}
		t.Issued += iss.ClearAmount
		t.Seq = iss.Op.Seq
		if err := m.putType(st, iss.Op.Asset, t); err != nil {
			return nil, err
		}
		m.touched[iss.Op.Asset] = struct{}{}
		events = append(events, tx.Event{
			Type: "asset.issue",
			Attributes: []tx.Attribute{
				{Key: "asset", Value: iss.Op.Asset.String()},
				{Key: "seq", Value: strconv.FormatUint(iss.Op.Seq, 10)},
				{Key: "amount", Value: strconv.FormatUint(iss.ClearAmount, 10)},
			},
		})
	}

	for _, out := range effect.Outputs {
		data, err := rlp.EncodeToBytes(&out.UTXO)
		if err != nil {
			return nil, err
		}
		st.Put(keyUTXO(out.ID), data)
	}

	return &tx.Receipt{ID: effect.TxID, Code: tx.CodeOK, Events: events}, nil
}

// Finalize implements module.Module. It sweeps the cap invariant over the
// assets this block issued; a violation means a bug in validation, which
// no node may commit over.
func (m *Module) Finalize(_ *module.BlockContext, st module.State) (tx.Events, error) {
	defer func() { m.touched = make(map[ID]struct{}) }()

	for id := range m.touched {
		t, ok, err := m.getType(st, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Errorf("issued asset %v missing", id)
		}
		if t.Cap != 0 && t.Issued > t.Cap {
			return nil, errors.Errorf("asset %v issued %d beyond cap %d", id, t.Issued, t.Cap)
		}
	}
	return nil, nil
}

// Resources implements module.Accessor. Spent inputs are consumable:
// exactly one envelope per block may take each.
func (m *Module) Resources(env *tx.Transaction) (reads, writes, consumes []module.Resource, err error) {
	effect, err := m.effectOf(env)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, in := range effect.Inputs {
		consumes = append(consumes, module.Resource("utxo:"+in.UTXO.String()))
		reads = append(reads, module.Resource("asset:"+in.Declared.Asset.String()))
	}
	for _, op := range effect.Defines {
		writes = append(writes, module.Resource("asset:"+op.ID().String()))
	}
	for _, iss := range effect.Issues {
		writes = append(writes, module.Resource("asset:"+iss.Op.Asset.String()))
	}
	return reads, writes, consumes, nil
}

// genesisAlloc is one genesis allocation of the native asset.
type genesisAlloc struct {
	Owner  platform.PubKey `json:"owner"`
	Amount uint64          `json:"amount"`
}

// genesisConfig is the module's genesis section.
type genesisConfig struct {
	Native struct {
		Issuer platform.PubKey `json:"issuer"`
		Cap    uint64          `json:"cap"`
		Memo   string          `json:"memo"`
	} `json:"native"`
	Allocations []genesisAlloc `json:"allocations"`
}

// Genesis implements module.Module: it defines the native asset and
// creates the allocated outputs.
func (m *Module) Genesis(raw json.RawMessage, st module.State) error {
	var cfg genesisConfig
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return errors.WithMessage(err, "asset genesis")
	}

	var issued uint64
	for _, alloc := range cfg.Allocations {
		if alloc.Owner.IsZero() || alloc.Amount == 0 {
			return errors.New("asset genesis: zero allocation")
		}
		sum, ok := addU64(issued, alloc.Amount)
		if !ok {
			return errors.New("asset genesis: allocation overflow")
		}
		issued = sum
	}
	if cfg.Native.Cap != 0 && issued > cfg.Native.Cap {
		return errors.New("asset genesis: allocations exceed cap")
	}

	if err := m.putType(st, NativeAsset, &Type{
		Issuer: cfg.Native.Issuer,
		Cap:    cfg.Native.Cap,
		Issued: issued,
		Flags:  FlagTransferable | FlagConfidential,
		Memo:   []byte(cfg.Native.Memo),
	}); err != nil {
		return err
	}

	for i, alloc := range cfg.Allocations {
		utxo := UTXO{
			Asset:  NativeAsset,
			Owner:  alloc.Owner,
			Amount: ClearRecord(alloc.Amount),
		}
		data, err := rlp.EncodeToBytes(&utxo)
		if err != nil {
			return err
		}
		st.Put(keyUTXO(UTXOID(genesisSeed, uint32(i))), data)
	}

	logger.Info("seeded native asset", "allocations", len(cfg.Allocations), "issued", issued)
	return nil
}

// GenesisUTXOID returns the id of the i-th genesis allocation.
func GenesisUTXOID(i uint32) platform.Bytes32 {
	return UTXOID(genesisSeed, i)
}

type reader interface {
	Get(key []byte) ([]byte, bool, error)
}

// loadInput resolves a referenced input and confirms the declared record
// matches the stored one.
func (m *Module) loadInput(r reader, in *Input) (*UTXO, error) {
	data, ok, err := r.Get(keyUTXO(in.UTXO))
	if err != nil {
		return nil, err
	}
	if !ok {
		spender, spent, err := r.Get(keySpent(in.UTXO))
		if err != nil {
			return nil, err
		}
		if spent {
			return nil, module.Reasonf(tx.CodeDoubleSpend, "input %v spent by %v", in.UTXO, platform.BytesToBytes32(spender))
		}
		return nil, module.Reasonf(tx.CodeUnknownInput, "input %v", in.UTXO)
	}
	var stored UTXO
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, errors.WithMessagef(err, "decode utxo %v", in.UTXO)
	}

	declared, err := rlp.EncodeToBytes(&in.Declared)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(declared, data) {
		if stored.Owner != in.Declared.Owner {
			return nil, module.Reasonf(tx.CodeOwnerMismatch, "input %v owner differs from ledger", in.UTXO)
		}
		return nil, module.Reasonf(tx.CodeAmountMismatch, "input %v record differs from ledger", in.UTXO)
	}
	return &stored, nil
}

func (m *Module) getType(r reader, id ID) (*Type, bool, error) {
	data, ok, err := r.Get(keyAsset(id))
	if err != nil || !ok {
		return nil, false, err
	}
	var t Type
	if err := rlp.DecodeBytes(data, &t); err != nil {
		return nil, false, errors.WithMessagef(err, "decode asset %v", id)
	}
	return &t, true, nil
}

func (m *Module) putType(st module.State, id ID, t *Type) error {
	data, err := rlp.EncodeToBytes(t)
	if err != nil {
		return err
	}
	st.Put(keyAsset(id), data)
	return nil
}

func keyUTXO(id platform.Bytes32) []byte {
	return append([]byte("u/"), id.Bytes()...)
}

func keySpent(id platform.Bytes32) []byte {
	return append([]byte("s/"), id.Bytes()...)
}

func keyAsset(id ID) []byte {
	return append([]byte("a/"), id.Bytes()...)
}

