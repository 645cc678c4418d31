// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/chinyuchan/platform/admin"
	"github.com/chinyuchan/platform/api"
	"github.com/chinyuchan/platform/asset"
	"github.com/chinyuchan/platform/ledger"
	"github.com/chinyuchan/platform/log"
	"github.com/chinyuchan/platform/metrics"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/solo"
	"github.com/chinyuchan/platform/store"
	"github.com/chinyuchan/platform/txpool"
	"github.com/chinyuchan/platform/vm"
	"github.com/chinyuchan/platform/zk"
)

var (
	version   string
	gitCommit string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	if version == "" {
		version = "dev"
	}
	if gitCommit == "" {
		return version
	}
	return fmt.Sprintf("%s-%.8s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "platform",
		Usage:     "Node of the Platform ledger",
		Copyright: "2026 The Platform developers",
		Flags: []cli.Flag{
			configFlag,
			networkFlag,
			dataDirFlag,
			persistFlag,
			apiAddrFlag,
			metricsAddrFlag,
			adminAddrFlag,
			onDemandFlag,
			blockIntervalFlag,
			maxBlockTxsFlag,
			gasLimitFlag,
			minFeeFlag,
			disableProofsFlag,
			poolLimitFlag,
			proposerFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			cacheFlag,
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := log.Setup(cfg.Verbosity, cfg.JSONLogs); err != nil {
		return err
	}

	gene, err := selectGenesis(cfg)
	if err != nil {
		return err
	}
	proposer, err := selectProposer(cfg)
	if err != nil {
		return err
	}

	db, instance, err := openDB(cfg, gene)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing chain database..."); db.Close() }()

	st, err := store.Open(db)
	if err != nil {
		return err
	}

	var verifier zk.Verifier = zk.NewPedersenVerifier()
	if cfg.DisableProofs {
		logger.Warn("confidential proof verification disabled")
		verifier = zk.NopVerifier{}
	}
	reg := module.NewRegistry().
		Register(asset.New(verifier, cfg.MinFee)).
		Register(vm.New(vm.NopEngine{}, cfg.GasLimit))
	l := ledger.New(st, reg)

	if err := l.Resume(); err != nil {
		if !errors.Is(err, ledger.ErrNotInitialized) {
			return err
		}
		if err := l.InitChain(gene); err != nil {
			return err
		}
	} else if l.ChainTag() != gene.ChainTag() {
		return errors.Errorf("database holds chain 0x%02x, genesis is 0x%02x",
			l.ChainTag(), gene.ChainTag())
	}

	pool := txpool.New(l, cfg.PoolLimit)

	apiURL, apiClose, err := api.StartServer(cfg.APIAddr, api.New(l, pool))
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); apiClose() }()

	var metricsURL string
	if cfg.MetricsAddr != "" {
		metrics.InitializePrometheusMetrics()
		url, stop, err := startMetricsServer(cfg.MetricsAddr, cfg.Pprof)
		if err != nil {
			return err
		}
		metricsURL = url
		defer func() { logger.Info("stopping metrics server..."); stop() }()
	}

	var adminURL string
	if cfg.AdminAddr != "" {
		url, stop, err := admin.StartServer(cfg.AdminAddr, l)
		if err != nil {
			return err
		}
		adminURL = url
		defer func() { logger.Info("stopping admin server..."); stop() }()
	}

	height, commitment, _ := l.Version()
	logger.Info("starting node",
		"version", fullVersion(),
		"chain", fmt.Sprintf("0x%02x", l.ChainTag()),
		"height", height,
		"commitment", commitment.AbbrevString(),
		"instance", instance,
		"api", apiURL,
		"metrics", metricsURL,
		"admin", adminURL,
	)

	producer := solo.New(l, pool, solo.Options{
		BlockInterval: cfg.BlockInterval,
		OnDemand:      cfg.OnDemand,
		MaxBlockTxs:   cfg.MaxBlockTxs,
		Proposer:      proposer,
	})

	group, groupCtx := errgroup.WithContext(handleExitSignal())
	group.Go(func() error { return producer.Run(groupCtx) })
	return group.Wait()
}
