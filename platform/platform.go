// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package platform defines the basic value types and hashing primitives
// shared by every component of the ledger.
package platform

// Constants of the ledger protocol.
const (
	// MaxTxSize is the upper bound of encoded transaction size.
	MaxTxSize = 64 * 1024

	// MaxBlockTxs is the upper bound of transactions within one block.
	MaxBlockTxs = 4096
)

// InitialCommitment is the state commitment before the genesis block.
var InitialCommitment = Bytes32{}
