// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vm

import (
	"bytes"
	"encoding/json"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/log"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
)

var logger = log.WithContext("pkg", "vm")

// Module is the EVM execution module.
type Module struct {
	engine        Engine
	blockGasLimit uint64
}

// New creates the module around the engine.
func New(engine Engine, blockGasLimit uint64) *Module {
	return &Module{engine: engine, blockGasLimit: blockGasLimit}
}

// Kind implements module.Module.
func (m *Module) Kind() tx.Kind { return tx.KindEVM }

// Name implements module.Module.
func (m *Module) Name() string { return "evm" }

// Check implements module.Module. The mempool path tolerates a nonce gap
// so out-of-order arrival does not evict the later transaction.
func (m *Module) Check(env *tx.Transaction, view module.StateReader) error {
	msg, acc, err := m.admit(env, view)
	if err != nil {
		return err
	}
	if env.Nonce() < acc.Nonce {
		return module.Reasonf(tx.CodeStaleNonce, "nonce %d below %d", env.Nonce(), acc.Nonce)
	}
	return checkBalance(msg, acc)
}

// Validate implements module.Module. Delivery is strict: a nonce gap is
// rejected rather than executed out of order.
func (m *Module) Validate(_ *module.BlockContext, env *tx.Transaction, st module.State) error {
	msg, acc, err := m.admit(env, st)
	if err != nil {
		return err
	}
	switch {
	case env.Nonce() < acc.Nonce:
		return module.Reasonf(tx.CodeStaleNonce, "nonce %d below %d", env.Nonce(), acc.Nonce)
	case env.Nonce() > acc.Nonce:
		return module.Reasonf(tx.CodeNonceGap, "nonce %d above %d", env.Nonce(), acc.Nonce)
	}
	return checkBalance(msg, acc)
}

// admit runs the checks shared by Check and Validate.
func (m *Module) admit(env *tx.Transaction, r reader) (*Message, *Account, error) {
	origin, err := env.Origin()
	if err != nil {
		return nil, nil, module.NewReason(tx.CodeBadSignature, "unrecoverable origin")
	}
	msg, err := DecodeMessage(env.Payload())
	if err != nil {
		return nil, nil, module.NewReason(tx.CodeMalformed, err.Error())
	}
	intrinsic, err := IntrinsicGas(msg)
	if err != nil {
		return nil, nil, module.NewReason(tx.CodeMalformed, err.Error())
	}
	if msg.Gas < intrinsic {
		return nil, nil, module.Reasonf(tx.CodeOutOfGas, "gas %d below intrinsic %d", msg.Gas, intrinsic)
	}
	if msg.Gas > m.blockGasLimit {
		return nil, nil, module.Reasonf(tx.CodeMalformed, "gas %d above block limit %d", msg.Gas, m.blockGasLimit)
	}
	acc, err := getAccount(r, origin)
	if err != nil {
		return nil, nil, err
	}
	return msg, acc, nil
}

func checkBalance(msg *Message, acc *Account) error {
	cost := gasCost(msg)
	cost.Add(cost, msg.Value)
	if acc.Balance.Lt(cost) {
		return module.Reasonf(tx.CodeInsufficientBalance, "balance %v below cost %v", acc.Balance, cost)
	}
	return nil
}

func gasCost(msg *Message) *uint256.Int {
	cost := uint256.NewInt(msg.Gas)
	return cost.Mul(cost, uint256.NewInt(msg.GasPrice))
}

// Apply implements module.Module. The nonce increments and gas is bought
// before execution; both stand even when the bytecode reverts, so a
// reverted call cannot be replayed. Only an engine-internal failure makes
// the ledger discard the whole transaction.
func (m *Module) Apply(ctx *module.BlockContext, env *tx.Transaction, st module.State) (*tx.Receipt, error) {
	origin, err := env.Origin()
	if err != nil {
		return nil, errors.New("unvalidated envelope")
	}
	msg, err := DecodeMessage(env.Payload())
	if err != nil {
		return nil, errors.New("unvalidated payload")
	}

	acc, err := getAccount(st, origin)
	if err != nil {
		return nil, err
	}
	creationNonce := acc.Nonce
	acc.Nonce++
	acc.Balance.Sub(acc.Balance, gasCost(msg))
	if err := putAccount(st, origin, acc); err != nil {
		return nil, err
	}

	receipt := &tx.Receipt{ID: env.ID()}

	if msg.To == nil {
		created := CreateAddress(origin, creationNonce)
		existing, err := getAccount(st, created)
		if err != nil {
			return nil, err
		}
		if !existing.IsEmpty() {
			// all supplied gas is burned on a collision
			receipt.Code = tx.CodeCreateCollision
			receipt.GasUsed = msg.Gas
			receipt.Log = "create collision at " + created.String()
			return m.settle(st, ctx, origin, msg, receipt)
		}
	}

	out, err := m.engine.Execute(&Context{
		Height:   ctx.Height,
		Time:     ctx.Time,
		Origin:   origin,
		Proposer: ctx.Proposer,
		Host:     &host{st: st},
	}, msg)
	if err != nil {
		return nil, errors.WithMessage(err, "engine")
	}
	if out.UsedGas > msg.Gas {
		return nil, errors.Errorf("engine used %d of %d gas", out.UsedGas, msg.Gas)
	}
	receipt.GasUsed = out.UsedGas

	if out.Reverted {
		receipt.Code = tx.CodeReverted
		receipt.Log = out.VMErr
		return m.settle(st, ctx, origin, msg, receipt)
	}

	for i := range out.Writes {
		if err := applyWrite(st, &out.Writes[i]); err != nil {
			return nil, errors.WithMessagef(err, "apply write %d", i)
		}
	}
	receipt.Events = out.Logs
	return m.settle(st, ctx, origin, msg, receipt)
}

// settle refunds unused gas to the origin and accrues the charge to the
// proposer.
func (m *Module) settle(st module.State, ctx *module.BlockContext, origin platform.Address, msg *Message, receipt *tx.Receipt) (*tx.Receipt, error) {
	if unused := msg.Gas - receipt.GasUsed; unused > 0 {
		refund := uint256.NewInt(unused)
		refund.Mul(refund, uint256.NewInt(msg.GasPrice))
		acc, err := getAccount(st, origin)
		if err != nil {
			return nil, err
		}
		acc.Balance.Add(acc.Balance, refund)
		if err := putAccount(st, origin, acc); err != nil {
			return nil, err
		}
	}
	charged := uint256.NewInt(receipt.GasUsed)
	charged.Mul(charged, uint256.NewInt(msg.GasPrice))
	if !charged.IsZero() {
		proposer, err := getAccount(st, ctx.Proposer)
		if err != nil {
			return nil, err
		}
		proposer.Balance.Add(proposer.Balance, charged)
		if err := putAccount(st, ctx.Proposer, proposer); err != nil {
			return nil, err
		}
	}
	return receipt, nil
}

// Finalize implements module.Module.
func (m *Module) Finalize(*module.BlockContext, module.State) (tx.Events, error) {
	return nil, nil
}

// Resources implements module.Accessor. The sender's nonce slot is the
// write that orders transactions from one account.
func (m *Module) Resources(env *tx.Transaction) (reads, writes, consumes []module.Resource, err error) {
	origin, err := env.Origin()
	if err != nil {
		return nil, nil, nil, module.NewReason(tx.CodeBadSignature, "unrecoverable origin")
	}
	msg, err := DecodeMessage(env.Payload())
	if err != nil {
		return nil, nil, nil, module.NewReason(tx.CodeMalformed, err.Error())
	}
	writes = append(writes, module.Resource("acct:"+origin.String()))
	if msg.To != nil {
		reads = append(reads, module.Resource("acct:"+msg.To.String()))
	}
	return reads, writes, nil, nil
}

// genesisAccount is one seeded account.
type genesisAccount struct {
	Address platform.Address `json:"address"`
	Balance string           `json:"balance"` // decimal
}

type genesisConfig struct {
	Accounts []genesisAccount `json:"accounts"`
}

// Genesis implements module.Module.
func (m *Module) Genesis(raw json.RawMessage, st module.State) error {
	var cfg genesisConfig
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return errors.WithMessage(err, "evm genesis")
	}
	for _, ga := range cfg.Accounts {
		balance, err := uint256.FromDecimal(ga.Balance)
		if err != nil {
			return errors.WithMessagef(err, "evm genesis: balance of %v", ga.Address)
		}
		if err := putAccount(st, ga.Address, &Account{Balance: balance}); err != nil {
			return err
		}
	}
	logger.Info("seeded evm accounts", "count", len(cfg.Accounts))
	return nil
}

type reader interface {
	Get(key []byte) ([]byte, bool, error)
}

func getAccount(r reader, addr platform.Address) (*Account, error) {
	data, ok, err := r.Get(keyAccount(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return emptyAccount(), nil
	}
	var acc Account
	if err := rlp.DecodeBytes(data, &acc); err != nil {
		return nil, errors.WithMessagef(err, "decode account %v", addr)
	}
	if acc.Balance == nil {
		acc.Balance = new(uint256.Int)
	}
	return &acc, nil
}

func putAccount(st module.State, addr platform.Address, acc *Account) error {
	data, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return err
	}
	st.Put(keyAccount(addr), data)
	return nil
}

// host adapts the module state to the engine's read surface.
type host struct {
	st module.State
}

func (h *host) Account(addr platform.Address) (*Account, error) {
	return getAccount(h.st, addr)
}

func (h *host) Code(codeHash []byte) ([]byte, error) {
	code, _, err := h.st.Get(keyCode(codeHash))
	return code, err
}

func (h *host) Storage(addr platform.Address, slot platform.Bytes32) (platform.Bytes32, error) {
	data, ok, err := h.st.Get(keyStorage(addr, slot))
	if err != nil || !ok {
		return platform.Bytes32{}, err
	}
	return platform.BytesToBytes32(data), nil
}

// applyWrite applies one diff entry.
func applyWrite(st module.State, w *StateWrite) error {
	switch w.Kind {
	case WriteSetBalance, WriteAddBalance, WriteSubBalance:
		acc, err := getAccount(st, w.Addr)
		if err != nil {
			return err
		}
		switch w.Kind {
		case WriteSetBalance:
			acc.Balance.Set(w.Value)
		case WriteAddBalance:
			acc.Balance.Add(acc.Balance, w.Value)
		case WriteSubBalance:
			if acc.Balance.Lt(w.Value) {
				return errors.Errorf("balance of %v below debit", w.Addr)
			}
			acc.Balance.Sub(acc.Balance, w.Value)
		}
		return putAccount(st, w.Addr, acc)

	case WriteSetNonce:
		acc, err := getAccount(st, w.Addr)
		if err != nil {
			return err
		}
		acc.Nonce = w.Value.Uint64()
		return putAccount(st, w.Addr, acc)

	case WriteSetCode:
		if len(w.Data) > maxCodeSize {
			return errors.New("code too large")
		}
		codeHash := platform.Keccak256(w.Data)
		st.Put(keyCode(codeHash.Bytes()), w.Data)
		acc, err := getAccount(st, w.Addr)
		if err != nil {
			return err
		}
		acc.CodeHash = codeHash.Bytes()
		return putAccount(st, w.Addr, acc)

	case WriteSetStorage:
		if w.Slot.IsZero() && w.Value == nil && len(w.Data) == 0 {
			return errors.New("empty storage write")
		}
		if len(w.Data) == 0 {
			st.Delete(keyStorage(w.Addr, w.Slot))
		} else {
			st.Put(keyStorage(w.Addr, w.Slot), w.Data)
		}
		return nil

	default:
		return errors.Errorf("unknown write kind %d", w.Kind)
	}
}
