// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platform

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// PubKeyLength length of a compressed secp256k1 public key in bytes.
	PubKeyLength = 33
)

// PubKey is a compressed secp256k1 public key. It identifies owners of
// ledger records directly, without the address indirection.
type PubKey [PubKeyLength]byte

var (
	_ json.Marshaler   = (*PubKey)(nil)
	_ json.Unmarshaler = (*PubKey)(nil)
)

// String implements stringer
func (p PubKey) String() string {
	return "0x" + hex.EncodeToString(p[:])
}

// Bytes returns byte slice form of the public key.
func (p PubKey) Bytes() []byte {
	return p[:]
}

// IsZero returns if the public key has all zero bytes.
func (p PubKey) IsZero() bool {
	return p == PubKey{}
}

// Address derives the account address of the public key.
func (p PubKey) Address() (Address, error) {
	pub, err := secp256k1.ParsePubKey(p[:])
	if err != nil {
		return Address{}, err
	}
	return Address(crypto.PubkeyToAddress(*pub.ToECDSA())), nil
}

// MarshalJSON implements json.Marshaler.
func (p *PubKey) MarshalJSON() ([]byte, error) {
	if p == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PubKey) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err != nil {
		return err
	}
	parsed, err := ParsePubKey(hex)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePubKey convert string presented into PubKey type.
func ParsePubKey(s string) (PubKey, error) {
	if len(s) == PubKeyLength*2 {
	} else if len(s) == PubKeyLength*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return PubKey{}, errors.New("invalid prefix")
		}
		s = s[2:]
	} else {
		return PubKey{}, errors.New("invalid length")
	}

	var p PubKey
	if _, err := hex.Decode(p[:], []byte(s)); err != nil {
		return PubKey{}, err
	}
	if _, err := secp256k1.ParsePubKey(p[:]); err != nil {
		return PubKey{}, err
	}
	return p, nil
}

// MustParsePubKey convert string presented into PubKey type, panic on error.
func MustParsePubKey(s string) PubKey {
	p, err := ParsePubKey(s)
	if err != nil {
		panic(err)
	}
	return p
}

// BytesToPubKey converts a byte slice into PubKey. The slice must hold a
// valid compressed secp256k1 point.
func BytesToPubKey(b []byte) (PubKey, error) {
	if len(b) != PubKeyLength {
		return PubKey{}, errors.New("invalid length")
	}
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return PubKey{}, err
	}
	var p PubKey
	copy(p[:], b)
	return p, nil
}
