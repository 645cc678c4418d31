// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin exposes the node's operational surface: runtime log level
// and a health probe reporting the committed chain version.
package admin

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/co"
	"github.com/chinyuchan/platform/platform"
)

// Chain is the read surface the health probe needs.
type Chain interface {
	Version() (height uint64, commitment platform.Bytes32, ok bool)
}

// HTTPHandler routes the admin endpoints.
func HTTPHandler(chain Chain) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/admin/loglevel", logLevelHandler())
	router.HandleFunc("/admin/health", healthHandler(chain))
	return handlers.CompressHandler(router)
}

// StartServer serves the admin API on addr. The returned closer shuts the
// server down.
func StartServer(addr string, chain Chain) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{
		Handler:           HTTPHandler(chain),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
