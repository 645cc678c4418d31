// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vm

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/platform"
)

// Account is one EVM account as stored.
type Account struct {
	Balance  *uint256.Int
	Nonce    uint64
	CodeHash []byte
}

func emptyAccount() *Account {
	return &Account{Balance: new(uint256.Int)}
}

// IsEmpty reports whether the account holds nothing and never acted.
func (a *Account) IsEmpty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && len(a.CodeHash) == 0
}

// DecodeAccount decodes a stored account.
func DecodeAccount(data []byte) (*Account, error) {
	var acc Account
	if err := rlp.DecodeBytes(data, &acc); err != nil {
		return nil, errors.WithMessage(err, "decode account")
	}
	if acc.Balance == nil {
		acc.Balance = new(uint256.Int)
	}
	return &acc, nil
}

// Message is the payload of an EVM envelope.
type Message struct {
	To       *platform.Address `rlp:"nil"` // nil = contract creation
	Value    *uint256.Int
	Gas      uint64
	GasPrice uint64
	Data     []byte
}

// DecodeMessage decodes an EVM payload.
func DecodeMessage(payload []byte) (*Message, error) {
	var msg Message
	if err := rlp.DecodeBytes(payload, &msg); err != nil {
		return nil, errors.WithMessage(err, "decode message")
	}
	if msg.Value == nil {
		msg.Value = new(uint256.Int)
	}
	return &msg, nil
}

// EncodeMessage encodes an EVM payload.
func EncodeMessage(msg *Message) ([]byte, error) {
	if msg.Value == nil {
		msg = &Message{To: msg.To, Value: new(uint256.Int), Gas: msg.Gas, GasPrice: msg.GasPrice, Data: msg.Data}
	}
	return rlp.EncodeToBytes(msg)
}

// gas schedule of the module boundary
const (
	txGas             = 21_000
	txDataZeroGas     = 4
	txDataNonZeroGas  = 68
	createGas         = 32_000
	maxCodeSize       = 24_576
	storageSlotLength = 20 + 32
)

// IntrinsicGas computes the gas an envelope costs before execution.
func IntrinsicGas(msg *Message) (uint64, error) {
	gas := uint64(txGas)
	if msg.To == nil {
		gas += createGas
	}
	var nonZero uint64
	for _, b := range msg.Data {
		if b != 0 {
			nonZero++
		}
	}
	zero := uint64(len(msg.Data)) - nonZero
	gas += nonZero * txDataNonZeroGas
	gas += zero * txDataZeroGas
	return gas, nil
}

// CreateAddress derives the address of a contract created by origin at
// the given nonce.
func CreateAddress(origin platform.Address, nonce uint64) platform.Address {
	data, err := rlp.EncodeToBytes([]interface{}{origin, nonce})
	if err != nil {
		panic(err)
	}
	hash := platform.Keccak256(data)
	return platform.BytesToAddress(hash.Bytes()[12:])
}

func keyAccount(addr platform.Address) []byte {
	return append([]byte("a/"), addr.Bytes()...)
}

func keyCode(codeHash []byte) []byte {
	return append([]byte("c/"), codeHash...)
}

func keyStorage(addr platform.Address, slot platform.Bytes32) []byte {
	key := make([]byte, 0, 2+storageSlotLength)
	key = append(key, 's', '/')
	key = append(key, addr.Bytes()...)
	return append(key, slot.Bytes()...)
}
