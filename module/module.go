// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package module defines the capability surface ledger modules implement,
// and the static registry routing envelopes to them.
package module

import (
	"encoding/json"

	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
)

// StateReader is a read-only view of a module's state partition.
type StateReader interface {
	// Get returns the value for the key, and whether it exists.
	Get(key []byte) ([]byte, bool, error)
}

// State is the writable view of a module's partition inside an open block.
// Writes are journaled; nothing is persisted until the block commits.
type State interface {
	StateReader
	Put(key, val []byte)
	Delete(key []byte)
}

// BlockContext carries the consensus-provided facts about the open block.
type BlockContext struct {
	Height         uint64
	Time           uint64
	Proposer       platform.Address
	PrevCommitment platform.Bytes32
}

// Module is one transaction family of the ledger. Implementations must be
// deterministic: the same envelope against the same state yields the same
// outcome on every node.
type Module interface {
	// Kind is the envelope tag this module owns.
	Kind() tx.Kind

	// Name returns the human readable module name.
	Name() string

	// Check performs light admission against last-committed state. It is
	// called concurrently and must not mutate anything.
	Check(env *tx.Transaction, view StateReader) error

	// Validate checks the envelope against the open block's state. It must
	// be a necessary precondition of Apply: if Validate passes, Apply may
	// only fail for internal reasons.
	Validate(ctx *BlockContext, env *tx.Transaction, st State) error

	// Apply executes the envelope against the open block's state and
	// returns the receipt. The caller discards all writes when an error is
	// returned; a receipt keeps its writes even when its code is a
	// failure, so state charges like a nonce bump survive a revert.
	Apply(ctx *BlockContext, env *tx.Transaction, st State) (*tx.Receipt, error)

	// Genesis seeds the module's partition from its genesis section.
	Genesis(raw json.RawMessage, st State) error

	// Finalize runs the module's end-of-block hook.
	Finalize(ctx *BlockContext, st State) (tx.Events, error)
}

// Resource names a piece of state an envelope reads or writes, used for
// intra-block conflict analysis. Modules choose their own naming; the
// analyzer scopes resources per module.
type Resource string

// Accessor is implemented by modules that can declare the resources an
// envelope touches without executing it.
type Accessor interface {
	// Resources returns the resource sets of the envelope. consumes are
	// spend-exactly-once resources: the first consumer in a block wins and
	// any later one fails with a double-spend reason. writes may legally
	// repeat within a block and only force submission order.
	Resources(env *tx.Transaction) (reads, writes, consumes []Resource, err error)
}

// Prevalidator is implemented by modules whose stateless validation is
// expensive enough to run ahead of delivery, possibly concurrently. The
// outcome must be cached by the module so delivery does not repeat the
// work, and must be identical to the one delivery would compute.
type Prevalidator interface {
	Prevalidate(env *tx.Transaction) error
}
