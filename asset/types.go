// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package asset implements the native confidential-asset ledger module: a
// UTXO ledger with issuer-defined asset types, per-asset issuance
// sequencing and Pedersen-committed amounts.
package asset

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/zk"
)

// ID identifies an asset type.
type ID platform.Bytes32

// NativeAsset is the id of the built-in fee asset.
var NativeAsset = NewID(platform.PubKey{}, platform.Blake2b([]byte("platform:native")))

// NewID derives an asset id from the issuer key and a salt.
func NewID(issuer platform.PubKey, salt platform.Bytes32) ID {
	return ID(platform.Blake2b(issuer.Bytes(), salt.Bytes()))
}

// String implements stringer
func (id ID) String() string {
	return platform.Bytes32(id).String()
}

// Bytes returns byte slice form of the id.
func (id ID) Bytes() []byte {
	return id[:]
}

// Flags are the policy bits of an asset type, immutable after definition.
type Flags uint8

const (
	// FlagTransferable permits transfers beyond the issuer.
	FlagTransferable Flags = 1 << iota
	// FlagConfidential permits confidential amounts.
	FlagConfidential
)

// Has reports whether all given bits are set.
func (f Flags) Has(bits Flags) bool {
	return f&bits == bits
}

// MaxMemoLength bounds the definition memo.
const MaxMemoLength = 256

// Type is one asset type record. Everything but Issued and Seq is fixed
// at definition time.
type Type struct {
	Issuer platform.PubKey
	Cap    uint64 // 0 = uncapped
	Issued uint64 // clear units issued so far
	Seq    uint64 // last accepted issuance sequence
	Flags  Flags
	Memo   []byte
}

// RecordKind tags the two amount representations.
type RecordKind uint8

const (
	// RecordClear is a plain amount.
	RecordClear RecordKind = 0
	// RecordConfidential is a Pedersen commitment to the amount.
	RecordConfidential RecordKind = 1
)

// Record is an amount, clear or committed.
type Record struct {
	Kind       RecordKind
	Amount     uint64
	Commitment []byte
}

// ClearRecord makes a clear record.
func ClearRecord(amount uint64) Record {
	return Record{Kind: RecordClear, Amount: amount}
}

// ConfidentialRecord makes a committed record.
func ConfidentialRecord(c zk.Commitment) Record {
	return Record{Kind: RecordConfidential, Commitment: c.Bytes()}
}

// Confidential reports whether the amount is committed.
func (r *Record) Confidential() bool {
	return r.Kind == RecordConfidential
}

// wellFormed checks the representation invariants of the record.
func (r *Record) wellFormed() error {
	switch r.Kind {
	case RecordClear:
		if len(r.Commitment) != 0 {
			return errors.New("clear record carries a commitment")
		}
	case RecordConfidential:
		if r.Amount != 0 {
			return errors.New("confidential record carries a clear amount")
		}
		if len(r.Commitment) != zk.CommitmentLength {
			return errors.New("bad commitment length")
		}
	default:
		return errors.New("unknown record kind")
	}
	return nil
}

// commitment maps the record into the conservation set, clear amounts as
// zero-blinding commitments.
func (r *Record) commitment() (zk.Commitment, error) {
	if r.Kind == RecordClear {
		return zk.ClearCommitment(r.Amount), nil
	}
	return zk.BytesToCommitment(r.Commitment)
}

// Policy is an m-of-n spend predicate. A nil policy means the single
// owner key spends.
type Policy struct {
	Threshold uint8
	Keys      []platform.PubKey
}

func (p *Policy) wellFormed() error {
	if p.Threshold == 0 || int(p.Threshold) > len(p.Keys) {
		return errors.New("threshold out of range")
	}
	for _, k := range p.Keys {
		if k.IsZero() {
			return errors.New("zero policy key")
		}
	}
	return nil
}

// UTXO is one unspent output as stored. The id is not part of the stored
// value; it keys the record.
type UTXO struct {
	Asset     ID
	Owner     platform.PubKey
	Amount    Record
	Policy    *Policy `rlp:"nil"`
	NotBefore uint64
	NotAfter  uint64 // 0 = no expiry
}

// UTXOID derives the id of the output at the given index of the
// transaction.
func UTXOID(txID platform.Bytes32, index uint32) platform.Bytes32 {
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], index)
	return platform.Blake2b(txID.Bytes(), be[:])
}
