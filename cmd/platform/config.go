// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"
)

// Config collects every node setting. A YAML file sets the base values
// and command line flags override them.
type Config struct {
	Network     string `yaml:"network"`
	DataDir     string `yaml:"dataDir"`
	Persist     bool   `yaml:"persist"`
	APIAddr     string `yaml:"apiAddr"`
	MetricsAddr string `yaml:"metricsAddr"`
	AdminAddr   string `yaml:"adminAddr"`

	OnDemand      bool   `yaml:"onDemand"`
	BlockInterval uint64 `yaml:"blockInterval"`
	MaxBlockTxs   int    `yaml:"maxBlockTxs"`
	GasLimit      uint64 `yaml:"gasLimit"`
	MinFee        uint64 `yaml:"minFee"`
	DisableProofs bool   `yaml:"disableProofs"`
	PoolLimit     int    `yaml:"poolLimit"`
	Proposer      string `yaml:"proposer"`

	Verbosity string `yaml:"verbosity"`
	JSONLogs  bool   `yaml:"jsonLogs"`
	Pprof     bool   `yaml:"pprof"`
	Cache     int    `yaml:"cache"`
}

// loadConfig builds the effective config: flag defaults, then the YAML
// file named by --config, then explicitly set flags.
func loadConfig(ctx *cli.Context) (*Config, error) {
	cfg := &Config{
		Network:       ctx.String(networkFlag.Name),
		DataDir:       ctx.String(dataDirFlag.Name),
		APIAddr:       ctx.String(apiAddrFlag.Name),
		MetricsAddr:   ctx.String(metricsAddrFlag.Name),
		AdminAddr:     ctx.String(adminAddrFlag.Name),
		BlockInterval: ctx.Uint64(blockIntervalFlag.Name),
		GasLimit:      ctx.Uint64(gasLimitFlag.Name),
		MinFee:        ctx.Uint64(minFeeFlag.Name),
		Verbosity:     ctx.String(verbosityFlag.Name),
		Cache:         ctx.Int(cacheFlag.Name),
	}

	if path := ctx.String(configFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
	}

	// explicitly set flags win over file values
	for _, set := range []struct {
		name  string
		apply func(name string)
	}{
		{networkFlag.Name, func(n string) { cfg.Network = ctx.String(n) }},
		{dataDirFlag.Name, func(n string) { cfg.DataDir = ctx.String(n) }},
		{persistFlag.Name, func(n string) { cfg.Persist = ctx.Bool(n) }},
		{apiAddrFlag.Name, func(n string) { cfg.APIAddr = ctx.String(n) }},
		{metricsAddrFlag.Name, func(n string) { cfg.MetricsAddr = ctx.String(n) }},
		{adminAddrFlag.Name, func(n string) { cfg.AdminAddr = ctx.String(n) }},
		{onDemandFlag.Name, func(n string) { cfg.OnDemand = ctx.Bool(n) }},
		{blockIntervalFlag.Name, func(n string) { cfg.BlockInterval = ctx.Uint64(n) }},
		{maxBlockTxsFlag.Name, func(n string) { cfg.MaxBlockTxs = ctx.Int(n) }},
		{gasLimitFlag.Name, func(n string) { cfg.GasLimit = ctx.Uint64(n) }},
		{minFeeFlag.Name, func(n string) { cfg.MinFee = ctx.Uint64(n) }},
		{disableProofsFlag.Name, func(n string) { cfg.DisableProofs = ctx.Bool(n) }},
		{poolLimitFlag.Name, func(n string) { cfg.PoolLimit = ctx.Int(n) }},
		{proposerFlag.Name, func(n string) { cfg.Proposer = ctx.String(n) }},
		{verbosityFlag.Name, func(n string) { cfg.Verbosity = ctx.String(n) }},
		{jsonLogsFlag.Name, func(n string) { cfg.JSONLogs = ctx.Bool(n) }},
		{pprofFlag.Name, func(n string) { cfg.Pprof = ctx.Bool(n) }},
		{cacheFlag.Name, func(n string) { cfg.Cache = ctx.Int(n) }},
	} {
		if ctx.IsSet(set.name) {
			set.apply(set.name)
		}
	}

	if cfg.Network == "" {
		return nil, errors.New("network not set")
	}
	return cfg, nil
}
