// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vm implements the EVM execution module: Ethereum-style accounts
// and nonces over the shared state store, with bytecode interpretation
// delegated to an external engine.
package vm

import (
	"github.com/holiman/uint256"

	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
)

// Host is the read surface an engine sees during execution.
type Host interface {
	// Account returns the account, a fresh empty one if absent.
	Account(addr platform.Address) (*Account, error)
	// Code resolves a code hash.
	Code(codeHash []byte) ([]byte, error)
	// Storage reads one storage slot.
	Storage(addr platform.Address, slot platform.Bytes32) (platform.Bytes32, error)
}

// Context is the block and transaction environment of one execution.
type Context struct {
	Height   uint64
	Time     uint64
	Origin   platform.Address
	Proposer platform.Address
	Host     Host
}

// WriteKind tags the state diff operations an engine may emit.
type WriteKind uint8

const (
	WriteSetBalance WriteKind = iota
	WriteAddBalance
	WriteSubBalance
	WriteSetNonce
	WriteSetCode
	WriteSetStorage
)

// StateWrite is one entry of an execution's state diff, applied in order.
type StateWrite struct {
	Kind  WriteKind
	Addr  platform.Address
	Slot  platform.Bytes32
	Value *uint256.Int
	Data  []byte
}

// Output is the result of one execution.
type Output struct {
	UsedGas  uint64
	Ret      []byte
	Reverted bool
	VMErr    string
	Writes   []StateWrite
	Logs     tx.Events
}

// Engine executes bytecode. Implementations must be deterministic and
// must not touch state directly: all effects travel through the returned
// diff. An error return means an internal engine failure, never a
// bytecode-level revert.
type Engine interface {
	Execute(ctx *Context, msg *Message) (*Output, error)
}
