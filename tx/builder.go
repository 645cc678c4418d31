// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

// Builder to make it easy to build an envelope.
type Builder struct {
	body body
}

// NewBuilder creates a builder for the given module kind.
func NewBuilder(kind Kind) *Builder {
	return &Builder{body: body{Kind: kind}}
}

// ChainTag sets the chain tag.
func (b *Builder) ChainTag(tag byte) *Builder {
	b.body.ChainTag = tag
	return b
}

// Nonce sets the nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Fee sets the declared fee.
func (b *Builder) Fee(fee uint64) *Builder {
	b.body.Fee = fee
	return b
}

// Payload sets the module payload.
func (b *Builder) Payload(payload []byte) *Builder {
	b.body.Payload = append([]byte(nil), payload...)
	return b
}

// Build builds the unsigned envelope.
func (b *Builder) Build() *Transaction {
	return &Transaction{body: b.body}
}
