// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/co"
	"github.com/chinyuchan/platform/genesis"
	"github.com/chinyuchan/platform/kv"
	"github.com/chinyuchan/platform/metrics"
	"github.com/chinyuchan/platform/platform"
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".platform")
}

// selectGenesis resolves the network setting into a genesis document.
func selectGenesis(cfg *Config) (*genesis.Genesis, error) {
	if cfg.Network == "devnet" {
		return genesis.Devnet(), nil
	}
	gene, err := genesis.Load(cfg.Network)
	if err != nil {
		return nil, errors.Wrapf(err, "load genesis file [%v]", cfg.Network)
	}
	return gene, nil
}

// openDB opens the chain database: on disk under a per-chain instance
// directory when persisting, otherwise in memory.
func openDB(cfg *Config, gene *genesis.Genesis) (*kv.DB, string, error) {
	if !cfg.Persist {
		db, err := kv.NewMem()
		return db, "memory", err
	}
	dir := filepath.Join(cfg.DataDir, fmt.Sprintf("instance-%02x", gene.ChainTag()))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", errors.Wrapf(err, "create instance dir [%v]", dir)
	}
	db, err := kv.New(dir, kv.Options{CacheSize: cfg.Cache})
	if err != nil {
		return nil, "", err
	}
	return db, dir, nil
}

// selectProposer resolves the fee collector address.
func selectProposer(cfg *Config) (platform.Address, error) {
	if cfg.Proposer == "" {
		return genesis.DevAccounts()[0].Address, nil
	}
	addr, err := platform.ParseAddress(cfg.Proposer)
	if err != nil {
		return platform.Address{}, errors.Wrap(err, "parse proposer address")
	}
	return addr, nil
}

// startMetricsServer serves the telemetry endpoint, plus pprof when
// enabled. The returned closer shuts the server down.
func startMetricsServer(addr string, withPprof bool) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.Path("/metrics").Handler(metrics.HTTPHandler())
	if withPprof {
		router.PathPrefix("/debug/pprof/cmdline").HandlerFunc(pprof.Cmdline)
		router.PathPrefix("/debug/pprof/profile").HandlerFunc(pprof.Profile)
		router.PathPrefix("/debug/pprof/symbol").HandlerFunc(pprof.Symbol)
		router.PathPrefix("/debug/pprof/trace").HandlerFunc(pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	srv := &http.Server{
		Handler:           handlers.CompressHandler(router),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

// handleExitSignal returns a context cancelled on SIGINT or SIGTERM.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exit := make(chan os.Signal, 1)
		signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
		sig := <-exit
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
