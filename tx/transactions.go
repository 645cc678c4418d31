// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import "github.com/chinyuchan/platform/platform"

// Transactions is a slice of transactions.
type Transactions []*Transaction

// RootHash computes the merkle root over the transaction ids.
func (txs Transactions) RootHash() platform.Bytes32 {
	leaves := make([]platform.Bytes32, len(txs))
	for i, t := range txs {
		leaves[i] = t.ID()
	}
	return platform.MerkleRoot(leaves)
}
