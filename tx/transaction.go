// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tx defines the transaction envelope shared by all ledger modules,
// and the receipts produced by executing it.
package tx

import (
	"crypto/ecdsa"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/platform"
)

// Kind routes an envelope to the module that understands its payload.
type Kind uint8

const (
	// KindAsset is the native asset ledger module.
	KindAsset Kind = 0x01
	// KindEVM is the EVM execution module.
	KindEVM Kind = 0x02
)

func (k Kind) String() string {
	switch k {
	case KindAsset:
		return "asset"
	case KindEVM:
		return "evm"
	default:
		return "unknown"
	}
}

// Transaction is an immutable transaction envelope. The payload is opaque
// here; the module named by Kind owns its encoding.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Pointer[platform.Bytes32]
		origin      atomic.Pointer[platform.Address]
		id          atomic.Pointer[platform.Bytes32]
	}
}

// body describes details of the envelope.
type body struct {
	ChainTag  byte
	Kind      Kind
	Nonce     uint64
	Fee       uint64
	Payload   []byte
	Signature []byte
}

// ChainTag returns the chain tag the envelope is bound to.
func (t *Transaction) ChainTag() byte {
	return t.body.ChainTag
}

// Kind returns the module tag.
func (t *Transaction) Kind() Kind {
	return t.body.Kind
}

// Nonce returns the envelope nonce. The EVM module reads it as the account
// sequence; the asset module treats it as a uniqueness salt.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// Fee returns the declared fee in base units of the native asset.
func (t *Transaction) Fee() uint64 {
	return t.body.Fee
}

// Payload returns the module-specific payload.
func (t *Transaction) Payload() []byte {
	return append([]byte(nil), t.body.Payload...)
}

// Signature returns a copy of the signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// SigningHash returns the hash of the envelope without its signature.
func (t *Transaction) SigningHash() platform.Bytes32 {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return *cached
	}

	hash := platform.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []interface{}{
			t.body.ChainTag,
			t.body.Kind,
			t.body.Nonce,
			t.body.Fee,
			t.body.Payload,
		})
	})
	t.cache.signingHash.Store(&hash)
	return hash
}

// Origin recovers the signer address from the envelope signature.
func (t *Transaction) Origin() (platform.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return *cached, nil
	}

	if len(t.body.Signature) != 65 {
		return platform.Address{}, errors.New("invalid signature length")
	}
	signingHash := t.SigningHash()
	pub, err := crypto.SigToPub(signingHash.Bytes(), t.body.Signature)
	if err != nil {
		return platform.Address{}, errors.WithMessage(err, "recover origin")
	}
	origin := platform.Address(crypto.PubkeyToAddress(*pub))
	t.cache.origin.Store(&origin)
	return origin, nil
}

// ID returns the unique id of the envelope.
// ID = Blake2b(signingHash, origin).
// It returns the zero value if the origin is not recoverable.
func (t *Transaction) ID() (id platform.Bytes32) {
	if cached := t.cache.id.Load(); cached != nil {
		return *cached
	}

	origin, err := t.Origin()
	if err != nil {
		return
	}
	signingHash := t.SigningHash()
	id = platform.Blake2b(signingHash.Bytes(), origin.Bytes())
	t.cache.id.Store(&id)
	return id
}

// WithSignature returns a new envelope with the signature set. The cached
// values of the receiver are not carried over.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{body: t.body}
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	_, size, err := s.Kind()
	if err != nil {
		return err
	}
	if size > platform.MaxTxSize {
		return errors.New("tx too large")
	}

	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}

// Encode returns the RLP encoding of the envelope.
func (t *Transaction) Encode() []byte {
	data, err := rlp.EncodeToBytes(t)
	if err != nil {
		// body contains no unencodable type
		panic(err)
	}
	return data
}

// Decode decodes one envelope, rejecting oversize and trailing input.
func Decode(raw []byte) (*Transaction, error) {
	if len(raw) > platform.MaxTxSize {
		return nil, errors.New("tx too large")
	}
	var t Transaction
	if err := rlp.DecodeBytes(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Sign signs the envelope with the given private key.
func Sign(t *Transaction, pk *ecdsa.PrivateKey) (*Transaction, error) {
	signingHash := t.SigningHash()
	sig, err := crypto.Sign(signingHash.Bytes(), pk)
	if err != nil {
		return nil, errors.WithMessage(err, "sign tx")
	}
	return t.WithSignature(sig), nil
}

// MustSign signs the envelope, panicking on error.
func MustSign(t *Transaction, pk *ecdsa.PrivateKey) *Transaction {
	signed, err := Sign(t, pk)
	if err != nil {
		panic(err)
	}
	return signed
}
