// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
)

func TestTransactionFields(t *testing.T) {
	trx := tx.NewBuilder(tx.KindAsset).
		ChainTag(0x4a).
		Nonce(12345).
		Fee(100).
		Payload([]byte("payload")).
		Build()

	assert.Equal(t, byte(0x4a), trx.ChainTag())
	assert.Equal(t, tx.KindAsset, trx.Kind())
	assert.Equal(t, uint64(12345), trx.Nonce())
	assert.Equal(t, uint64(100), trx.Fee())
	assert.Equal(t, []byte("payload"), trx.Payload())
	assert.Empty(t, trx.Signature())
}

func TestSignAndOrigin(t *testing.T) {
	key := randKey()
	want := platform.Address(crypto.PubkeyToAddress(key.PublicKey))

	trx := tx.MustSign(
		tx.NewBuilder(tx.KindEVM).ChainTag(1).Nonce(7).Build(),
		key,
	)

	origin, err := trx.Origin()
	require.NoError(t, err)
	assert.Equal(t, want, origin)

	// ID binds signing hash and origin.
	signingHash := trx.SigningHash()
	assert.Equal(t, platform.Blake2b(signingHash.Bytes(), origin.Bytes()), trx.ID())

	// Unsigned tx has no recoverable origin and a zero ID.
	unsigned := tx.NewBuilder(tx.KindEVM).ChainTag(1).Nonce(7).Build()
	_, err = unsigned.Origin()
	assert.Error(t, err)
	assert.True(t, unsigned.ID().IsZero())
}

func TestEncodeDecode(t *testing.T) {
	trx := tx.MustSign(
		tx.NewBuilder(tx.KindAsset).
			ChainTag(0x4a).
			Nonce(randUint64()).
			Fee(42).
			Payload(randBytes(64)).
			Build(),
		randKey(),
	)

	decoded, err := tx.Decode(trx.Encode())
	require.NoError(t, err)

	assert.Equal(t, trx.ID(), decoded.ID())
	assert.Equal(t, trx.SigningHash(), decoded.SigningHash())
	assert.Equal(t, trx.Payload(), decoded.Payload())
	assert.Equal(t, trx.Fee(), decoded.Fee())
}

func TestDecodeRejectsBadInput(t *testing.T) {
	// Trailing bytes.
	raw := tx.NewBuilder(tx.KindAsset).Build().Encode()
	_, err := tx.Decode(append(raw, 0x00))
	assert.Error(t, err)

	// Garbage.
	_, err = tx.Decode([]byte{0xff, 0xfe, 0xfd})
	assert.Error(t, err)

	// Oversize.
	_, err = tx.Decode(make([]byte, platform.MaxTxSize+1))
	assert.Error(t, err)
}

func TestSigningHashExcludesSignature(t *testing.T) {
	unsigned := tx.NewBuilder(tx.KindEVM).ChainTag(3).Nonce(9).Build()
	signed := tx.MustSign(unsigned, randKey())

	assert.Equal(t, unsigned.SigningHash(), signed.SigningHash())

	// Different field, different hash.
	other := tx.NewBuilder(tx.KindEVM).ChainTag(3).Nonce(10).Build()
	assert.NotEqual(t, unsigned.SigningHash(), other.SigningHash())
}

func TestTransactionsRootHash(t *testing.T) {
	key := randKey()
	var txs tx.Transactions
	for i := range 5 {
		txs = append(txs, tx.MustSign(
			tx.NewBuilder(tx.KindAsset).ChainTag(1).Nonce(uint64(i)).Build(),
			key,
		))
	}

	root := txs.RootHash()
	assert.False(t, root.IsZero())
	assert.Equal(t, root, txs.RootHash())

	// Order matters.
	reversed := tx.Transactions{txs[4], txs[3], txs[2], txs[1], txs[0]}
	assert.NotEqual(t, root, reversed.RootHash())
}

func TestCodecFuzz(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(0, 128)
	key := randKey()

	for range 50 {
		var seed struct {
			Tag     byte
			Nonce   uint64
			Fee     uint64
			Payload []byte
		}
		f.Fuzz(&seed)

		trx := tx.MustSign(
			tx.NewBuilder(tx.KindAsset).
				ChainTag(seed.Tag).
				Nonce(seed.Nonce).
				Fee(seed.Fee).
				Payload(seed.Payload).
				Build(),
			key,
		)

		decoded, err := tx.Decode(trx.Encode())
		require.NoError(t, err)
		require.Equal(t, trx.ID(), decoded.ID())
		require.Equal(t, trx.Payload(), decoded.Payload())
	}
}
