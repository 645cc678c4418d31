// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platform

// MerkleRoot computes the root of a binary merkle tree over the given
// leaves. An odd node at any level is promoted unchanged. The root of no
// leaves is the zero value.
func MerkleRoot(leaves []Bytes32) Bytes32 {
	if len(leaves) == 0 {
		return Bytes32{}
	}
	level := append([]Bytes32(nil), leaves...)
	for len(level) > 1 {
		next := make([]Bytes32, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
			} else {
				next = append(next, Blake2b(level[i][:], level[i+1][:]))
			}
		}
		level = next
	}
	return level[0]
}
