// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinyuchan/platform/genesis"
)

func TestParseRoundTrip(t *testing.T) {
	gene := genesis.Devnet()
	data, err := gene.Encode()
	require.NoError(t, err)

	parsed, err := genesis.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, gene.ChainTag(), parsed.ChainTag())
	assert.Equal(t, gene.LaunchTime(), parsed.LaunchTime())
	assert.JSONEq(t, string(gene.Section("asset")), string(parsed.Section("asset")))
	assert.JSONEq(t, string(gene.Section("evm")), string(parsed.Section("evm")))
	assert.Nil(t, parsed.Section("nope"))
}

func TestParseStrict(t *testing.T) {
	_, err := genesis.Parse([]byte(`{"chainTag":1,"launchTime":0,"modules":{},"extra":true}`))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = genesis.Parse([]byte(`{"chainTag":0,"launchTime":0,"modules":{}}`))
	assert.Error(t, err, "zero chain tag is rejected")
}

func TestLoad(t *testing.T) {
	data, err := genesis.Devnet().Encode()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	gene, err := genesis.Load(path)
	require.NoError(t, err)
	assert.Equal(t, genesis.DevnetChainTag, gene.ChainTag())

	_, err = genesis.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDevAccountsStable(t *testing.T) {
	a, b := genesis.DevAccounts(), genesis.DevAccounts()
	require.Len(t, a, 10)
	assert.Equal(t, a[0].Address, b[0].Address)

	owners := genesis.DevAssetAccounts()
	require.Len(t, owners, 4)
	assert.False(t, owners[0].PubKey.IsZero())
}
