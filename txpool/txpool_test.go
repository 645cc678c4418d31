// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinyuchan/platform/asset"
	"github.com/chinyuchan/platform/genesis"
	"github.com/chinyuchan/platform/kv"
	"github.com/chinyuchan/platform/ledger"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/store"
	"github.com/chinyuchan/platform/tx"
	"github.com/chinyuchan/platform/txpool"
	"github.com/chinyuchan/platform/vm"
	"github.com/chinyuchan/platform/zk"
)

func newPool(t *testing.T, limit int) (*txpool.TxPool, *ledger.Ledger) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	st, err := store.Open(db)
	require.NoError(t, err)
	reg := module.NewRegistry().
		Register(asset.New(zk.NewPedersenVerifier(), 0)).
		Register(vm.New(vm.NopEngine{}, 10_000_000))
	l := ledger.New(st, reg)
	require.NoError(t, l.InitChain(genesis.Devnet()))
	return txpool.New(l, limit), l
}

func evmTx(t *testing.T, sender int, nonce uint64) *tx.Transaction {
	to := genesis.DevAccounts()[(sender+1)%len(genesis.DevAccounts())].Address
	payload, err := vm.EncodeMessage(&vm.Message{
		To:       &to,
		Value:    uint256.NewInt(1),
		Gas:      21_000,
		GasPrice: 1,
	})
	require.NoError(t, err)
	env := tx.NewBuilder(tx.KindEVM).
		ChainTag(genesis.DevnetChainTag).
		Nonce(nonce).
		Payload(payload).
		Build()
	return tx.MustSign(env, genesis.DevAccounts()[sender].PrivateKey)
}

func TestAddAndOrder(t *testing.T) {
	pool, _ := newPool(t, 0)

	first, second := evmTx(t, 0, 0), evmTx(t, 1, 0)
	require.NoError(t, pool.Add(first))
	require.NoError(t, pool.Add(second))
	assert.Equal(t, 2, pool.Len())

	execs := pool.Executables(0)
	require.Len(t, execs, 2)
	assert.Equal(t, first.ID(), execs[0].ID())
	assert.Equal(t, second.ID(), execs[1].ID())

	// a max cap truncates but keeps order
	execs = pool.Executables(1)
	require.Len(t, execs, 1)
	assert.Equal(t, first.ID(), execs[0].ID())
}

func TestRejections(t *testing.T) {
	pool, _ := newPool(t, 1)

	env := evmTx(t, 0, 0)
	require.NoError(t, pool.Add(env))

	// duplicate, reported as such even though the pool is at capacity
	err := pool.Add(env)
	code, ok := txpool.Rejection(err)
	require.True(t, ok)
	assert.Equal(t, tx.CodeDuplicateTx, code)

	// full
	err = pool.Add(evmTx(t, 1, 0))
	code, ok = txpool.Rejection(err)
	require.True(t, ok)
	assert.Equal(t, tx.CodePoolFull, code)

	// admission failure surfaces the check code
	pool2, _ := newPool(t, 0)
	broke, err := crypto.GenerateKey()
	require.NoError(t, err)
	to := genesis.DevAccounts()[0].Address
	payload, err := vm.EncodeMessage(&vm.Message{To: &to, Value: uint256.NewInt(1), Gas: 21_000, GasPrice: 1})
	require.NoError(t, err)
	unfunded := tx.MustSign(tx.NewBuilder(tx.KindEVM).
		ChainTag(genesis.DevnetChainTag).
		Nonce(0).
		Payload(payload).
		Build(), broke)
	err = pool2.Add(unfunded)
	code, ok = txpool.Rejection(err)
	require.True(t, ok)
	assert.Equal(t, tx.CodeInsufficientBalance, code)

	bad := tx.NewBuilder(tx.KindEVM).
		ChainTag(genesis.DevnetChainTag + 1).
		Nonce(0).
		Build()
	err = pool2.AddRaw(tx.MustSign(bad, genesis.DevAccounts()[0].PrivateKey).Encode())
	code, ok = txpool.Rejection(err)
	require.True(t, ok)
	assert.Equal(t, tx.CodeChainTagMismatch, code)
}

func TestWash(t *testing.T) {
	pool, _ := newPool(t, 0)
	first, second := evmTx(t, 0, 0), evmTx(t, 1, 0)
	require.NoError(t, pool.Add(first))
	require.NoError(t, pool.Add(second))

	pool.Wash([]platform.Bytes32{first.ID()})
	assert.Equal(t, 1, pool.Len())
	execs := pool.Executables(0)
	require.Len(t, execs, 1)
	assert.Equal(t, second.ID(), execs[0].ID())

	// washed ids stay known
	err := pool.Add(first)
	code, ok := txpool.Rejection(err)
	require.True(t, ok)
	assert.Equal(t, tx.CodeDuplicateTx, code)
}

func TestWaiter(t *testing.T) {
	pool, _ := newPool(t, 0)
	waiter := pool.NewWaiter()

	select {
	case <-waiter.C():
		t.Fatal("no signal expected on an idle pool")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, pool.Add(evmTx(t, 0, 0)))
	select {
	case <-waiter.C():
	case <-time.After(time.Second):
		t.Fatal("missed the queue signal")
	}
}
