// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/binary"
	"io"

	"github.com/chinyuchan/platform/platform"
)

// Receipt is the result of admitting or applying one envelope.
type Receipt struct {
	// ID of the envelope, zero when the signature was unrecoverable.
	ID platform.Bytes32
	// Code is the outcome classification.
	Code Code
	// GasUsed is the gas consumed, EVM envelopes only.
	GasUsed uint64
	// Events emitted by the module. Empty unless the envelope succeeded.
	Events Events
	// Log is a human readable note, set on failures.
	Log string
}

// Failed reports whether the envelope was rejected or its effects reverted.
func (r *Receipt) Failed() bool {
	return !r.Code.OK()
}

// Digest folds the receipt into one hash.
func (r *Receipt) Digest() platform.Bytes32 {
	return platform.Blake2bFn(func(w io.Writer) {
		w.Write(r.ID.Bytes())
		writeUint64(w, uint64(r.Code))
		writeUint64(w, r.GasUsed)
		digest := r.Events.Digest()
		w.Write(digest.Bytes())
	})
}

// Receipts is a slice of receipts.
type Receipts []*Receipt

// RootHash computes the merkle root of the receipts.
func (rs Receipts) RootHash() platform.Bytes32 {
	leaves := make([]platform.Bytes32, len(rs))
	for i, r := range rs {
		leaves[i] = r.Digest()
	}
	return platform.MerkleRoot(leaves)
}

// Event is emitted by a module during Apply.
type Event struct {
	Type       string
	Attributes []Attribute
}

// Attribute is one key/value of an event.
type Attribute struct {
	Key   string
	Value string
}

// Events is a slice of events.
type Events []Event

// Digest folds the events into one hash.
func (es Events) Digest() platform.Bytes32 {
	if len(es) == 0 {
		return platform.Bytes32{}
	}
	return platform.Blake2bFn(func(w io.Writer) {
		for _, e := range es {
			writeString(w, e.Type)
			for _, a := range e.Attributes {
				writeString(w, a.Key)
				writeString(w, a.Value)
			}
		}
	})
}

func writeUint64(w io.Writer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}

func writeString(w io.Writer, s string) {
	writeUint64(w, uint64(len(s)))
	w.Write([]byte(s))
}
