// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chinyuchan/platform/platform"
)

func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

func randBytes32() platform.Bytes32 {
	return platform.BytesToBytes32(randBytes(32))
}

func randUint64() uint64 {
	return binary.BigEndian.Uint64(randBytes(8))
}

func randKey() *ecdsa.PrivateKey {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return key
}
