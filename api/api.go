// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the node's public HTTP surface: envelope submission
// into the pool and read access to receipts and the chain version.
package api

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/co"
	"github.com/chinyuchan/platform/ledger"
	"github.com/chinyuchan/platform/txpool"
)

// API serves the public node endpoints.
type API struct {
	ledger *ledger.Ledger
	pool   *txpool.TxPool
}

// New creates the API over the ledger and the transaction pool.
func New(l *ledger.Ledger, pool *txpool.TxPool) *API {
	return &API{ledger: l, pool: pool}
}

// HTTPHandler routes the public endpoints.
func (a *API) HTTPHandler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/node", a.handleNode).Methods(http.MethodGet)
	router.HandleFunc("/transactions", a.handleSubmit).Methods(http.MethodPost)
	router.HandleFunc("/transactions/{id}/receipt", a.handleReceipt).Methods(http.MethodGet)
	router.HandleFunc("/blocks/{height}/receipts", a.handleBlockReceipts).Methods(http.MethodGet)
	return handlers.CompressHandler(router)
}

// StartServer serves the public API on addr. The returned closer shuts the
// server down.
func StartServer(addr string, a *API) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}

	srv := &http.Server{
		Handler:           a.HTTPHandler(),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String(), func() {
		srv.Close()
		goes.Wait()
	}, nil
}
