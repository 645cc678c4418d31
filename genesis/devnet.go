// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chinyuchan/platform/platform"
)

// DevnetChainTag is the chain tag of the compiled-in devnet.
const DevnetChainTag byte = 0xa4

// devnetLaunchTime is 'Thu Jan 01 2026 00:00:00 GMT+0000'.
const devnetLaunchTime = uint64(1767225600)

// devnetBalance funds each dev EVM account.
const devnetBalance = "1000000000000000000000000000"

// devnetAllocation funds each dev asset account with native units.
const devnetAllocation = uint64(1_000_000_000)

// DevAccount is a funded EVM account for development.
type DevAccount struct {
	Address    platform.Address
	PrivateKey *ecdsa.PrivateKey
}

// DevAssetAccount is a funded asset owner for development.
type DevAssetAccount struct {
	PubKey     platform.PubKey
	PrivateKey *secp256k1.PrivateKey
}

var (
	devAccounts      atomic.Value
	devAssetAccounts atomic.Value
)

// DevAccounts returns the pre-allocated EVM accounts of the devnet. The
// keys are fixed so solo nodes and tests agree on them.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	privKeys := []string{
		"58dee294363a1a5354b24a7d888e14217a56eafbb71dd5c8c40ee851a15f5195",
		"f2fdf1d3b06f6f124e9416b4e65f23c8e91ed975b85fc568844643b74085bdee",
		"c12c47a158f1b84f0851061cb4423fcea619bd9e7247cd6cc832eaf6008f8b4a",
		"3b7c0592d06c603682c959da8b4aa3e1b96243ea73179a29eb88c8eb92d8abdd",
		"e24c078f1e6ec2927b5d105559841c70aec31954385d6c552119a4c1f2c0534a",
		"ceebbe3e7252ff7130d1d1428cf6cd47d02dedb33b1d6015e0ddb6039dac6fbf",
		"f043a8fe9571a754afcfe624ea8e10a59565a2cc9c35a92e483c718c65e2c994",
		"623d19700a3610c2bba36b5e6a3f71b938a5345a056fb6d8789c419fcd23b55e",
		"02ab8de38d86aa2b3c119039b830d206afd5f218aec171951ab5e74bf3634fb6",
		"e8b1060ba16b2bc0a5d94c1a691b243e80f801be8b5f59e02547b8982b2832e9",
	}
	var accs []DevAccount
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := platform.Address(crypto.PubkeyToAddress(pk.PublicKey))
		accs = append(accs, DevAccount{addr, pk})
	}
	devAccounts.Store(accs)
	return accs
}

// DevAssetAccounts returns the pre-allocated asset owners of the devnet.
// The first one is the native asset's issuer.
func DevAssetAccounts() []DevAssetAccount {
	if accs := devAssetAccounts.Load(); accs != nil {
		return accs.([]DevAssetAccount)
	}

	privKeys := []string{
		"87cd955dfd13e8d894cb90501b5163782c884ffee37cbfad4e93d3bcd3f552df",
		"b7c5849b333fcd78a5885186dbaa1dd786fe802a997dc12d7f35f1c66f0128e0",
		"9d841e660922efd69a367e159a7bc44ca794a6575a56d8df442b402ed351b3f2",
		"7866b1928c76548da253d6ea0e931e42c55a41d2d4a079cb462d441a8ae4c0f7",
	}
	var accs []DevAssetAccount
	for _, str := range privKeys {
		raw, err := hex.DecodeString(str)
		if err != nil {
			panic(err)
		}
		priv := secp256k1.PrivKeyFromBytes(raw)
		pub, err := platform.BytesToPubKey(priv.PubKey().SerializeCompressed())
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAssetAccount{pub, priv})
	}
	devAssetAccounts.Store(accs)
	return accs
}

// Devnet creates the compiled-in genesis for solo mode: every dev account
// funded in both modules, native asset uncapped.
func Devnet() *Genesis {
	type assetAlloc struct {
		Owner  platform.PubKey `json:"owner"`
		Amount uint64          `json:"amount"`
	}
	type assetSection struct {
		Native struct {
			Issuer platform.PubKey `json:"issuer"`
			Cap    uint64          `json:"cap"`
			Memo   string          `json:"memo"`
		} `json:"native"`
		Allocations []assetAlloc `json:"allocations"`
	}
	type evmAccount struct {
		Address platform.Address `json:"address"`
		Balance string           `json:"balance"`
	}
	type evmSection struct {
		Accounts []evmAccount `json:"accounts"`
	}

	var assets assetSection
	assets.Native.Issuer = DevAssetAccounts()[0].PubKey
	assets.Native.Memo = "platform devnet native asset"
	for _, a := range DevAssetAccounts() {
		assets.Allocations = append(assets.Allocations, assetAlloc{Owner: a.PubKey, Amount: devnetAllocation})
	}

	var evm evmSection
	for _, a := range DevAccounts() {
		evm.Accounts = append(evm.Accounts, evmAccount{Address: a.Address, Balance: devnetBalance})
	}

	sections := map[string]json.RawMessage{}
	for name, section := range map[string]interface{}{"asset": &assets, "evm": &evm} {
		data, err := json.Marshal(section)
		if err != nil {
			panic(err)
		}
		sections[name] = data
	}
	return New(DevnetChainTag, devnetLaunchTime, sections)
}
