// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML config file, flags override its values",
	}
	networkFlag = cli.StringFlag{
		Name:  "network",
		Value: "devnet",
		Usage: "the network to run (devnet) or the path to a genesis file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the chain database",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "persist the chain on disk, otherwise run in memory",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address, empty to disable",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address, empty to disable",
	}
	onDemandFlag = cli.BoolFlag{
		Name:  "on-demand",
		Usage: "produce a block only when transactions are pending",
	}
	blockIntervalFlag = cli.Uint64Flag{
		Name:  "block-interval",
		Value: 10,
		Usage: "seconds between blocks in interval mode",
	}
	maxBlockTxsFlag = cli.IntFlag{
		Name:  "max-block-txs",
		Usage: "cap transactions per block, 0 for the chain limit",
	}
	gasLimitFlag = cli.Uint64Flag{
		Name:  "gas-limit",
		Value: 10_000_000,
		Usage: "block gas limit of the EVM module",
	}
	minFeeFlag = cli.Uint64Flag{
		Name:  "min-fee",
		Value: 0,
		Usage: "minimum fee of asset transfers",
	}
	disableProofsFlag = cli.BoolFlag{
		Name:  "disable-proofs",
		Usage: "skip confidential proof verification, dev chains only",
	}
	poolLimitFlag = cli.IntFlag{
		Name:  "pool-limit",
		Usage: "cap of pending pool transactions, 0 for the default",
	}
	proposerFlag = cli.StringFlag{
		Name:  "proposer",
		Usage: "address collecting block fees, defaults to the first devnet account",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Value: "info",
		Usage: "log verbosity (trace|debug|info|warn|error)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "force JSON log output",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "expose pprof endpoints on the metrics address",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 256,
		Usage: "database cache size in MiB",
	}
)
