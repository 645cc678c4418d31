// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinyuchan/platform/api"
	"github.com/chinyuchan/platform/asset"
	"github.com/chinyuchan/platform/genesis"
	"github.com/chinyuchan/platform/kv"
	"github.com/chinyuchan/platform/ledger"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/solo"
	"github.com/chinyuchan/platform/store"
	"github.com/chinyuchan/platform/tx"
	"github.com/chinyuchan/platform/txpool"
	"github.com/chinyuchan/platform/vm"
	"github.com/chinyuchan/platform/zk"
)

func newTestAPI(t *testing.T) (*httptest.Server, *solo.Solo, *txpool.TxPool) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	st, err := store.Open(db)
	require.NoError(t, err)
	reg := module.NewRegistry().
		Register(asset.New(zk.NewPedersenVerifier(), 0)).
		Register(vm.New(vm.NopEngine{}, 10_000_000))
	l := ledger.New(st, reg)
	require.NoError(t, l.InitChain(genesis.Devnet()))
	pool := txpool.New(l, 0)
	s := solo.New(l, pool, solo.Options{OnDemand: true, Proposer: genesis.DevAccounts()[0].Address})

	srv := httptest.NewServer(api.New(l, pool).HTTPHandler())
	t.Cleanup(srv.Close)
	return srv, s, pool
}

func evmTransfer(t *testing.T, nonce uint64) *tx.Transaction {
	to := genesis.DevAccounts()[1].Address
	payload, err := vm.EncodeMessage(&vm.Message{
		To:       &to,
		Value:    uint256.NewInt(7),
		Gas:      21_000,
		GasPrice: 1,
	})
	require.NoError(t, err)
	return tx.MustSign(tx.NewBuilder(tx.KindEVM).
		ChainTag(genesis.DevnetChainTag).
		Nonce(nonce).
		Payload(payload).
		Build(), genesis.DevAccounts()[0].PrivateKey)
}

func getJSON(t *testing.T, url string, out any) int {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func postJSON(t *testing.T, url string, body, out any) int {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestNode(t *testing.T) {
	srv, s, _ := newTestAPI(t)

	var node struct {
		ChainTag   uint8  `json:"chainTag"`
		Height     uint64 `json:"height"`
		Commitment string `json:"commitment"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/node", &node))
	assert.Equal(t, genesis.DevnetChainTag, node.ChainTag)
	assert.Equal(t, uint64(0), node.Height)
	assert.NotEmpty(t, node.Commitment)

	_, err := s.Produce()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/node", &node))
	assert.Equal(t, uint64(1), node.Height)
}

func TestSubmitAndReceipt(t *testing.T) {
	srv, s, pool := newTestAPI(t)

	env := evmTransfer(t, 0)
	var submitted struct {
		ID string `json:"id"`
	}
	status := postJSON(t, srv.URL+"/transactions",
		map[string]string{"raw": hexutil.Encode(env.Encode())}, &submitted)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, env.ID().String(), submitted.ID)
	assert.Equal(t, 1, pool.Len())

	// not delivered yet
	assert.Equal(t, http.StatusNotFound,
		getJSON(t, srv.URL+"/transactions/"+submitted.ID+"/receipt", nil))

	_, err := s.Produce()
	require.NoError(t, err)

	var receipt struct {
		ID      string `json:"id"`
		Height  uint64 `json:"height"`
		Code    uint32 `json:"code"`
		Status  string `json:"status"`
		GasUsed uint64 `json:"gasUsed"`
	}
	require.Equal(t, http.StatusOK,
		getJSON(t, srv.URL+"/transactions/"+submitted.ID+"/receipt", &receipt))
	assert.Equal(t, submitted.ID, receipt.ID)
	assert.Equal(t, uint64(1), receipt.Height)
	assert.Equal(t, uint32(tx.CodeOK), receipt.Code)
	assert.Equal(t, uint64(21_000), receipt.GasUsed)

	var blockReceipts []json.RawMessage
	require.Equal(t, http.StatusOK,
		getJSON(t, fmt.Sprintf("%s/blocks/%d/receipts", srv.URL, 1), &blockReceipts))
	assert.Len(t, blockReceipts, 1)

	assert.Equal(t, http.StatusNotFound,
		getJSON(t, fmt.Sprintf("%s/blocks/%d/receipts", srv.URL, 99), nil))
}

func TestSubmitRejections(t *testing.T) {
	srv, _, _ := newTestAPI(t)

	// malformed hex
	assert.Equal(t, http.StatusBadRequest,
		postJSON(t, srv.URL+"/transactions", map[string]string{"raw": "zz"}, nil))

	// wrong chain tag is rejected with the admission code
	bad := tx.MustSign(tx.NewBuilder(tx.KindEVM).
		ChainTag(genesis.DevnetChainTag+1).
		Nonce(0).
		Build(), genesis.DevAccounts()[0].PrivateKey)
	assert.Equal(t, http.StatusUnprocessableEntity,
		postJSON(t, srv.URL+"/transactions", map[string]string{"raw": hexutil.Encode(bad.Encode())}, nil))
}
