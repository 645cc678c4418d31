// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinyuchan/platform/platform"
)

func TestConflictIndexClaims(t *testing.T) {
	index := newConflictIndex()
	a := platform.Blake2b([]byte("a"))
	b := platform.Blake2b([]byte("b"))

	spend := &access{consumes: []string{"asset/utxo:1", "asset/utxo:2"}}
	_, ok := index.claim(spend, a)
	require.True(t, ok)

	// any overlap loses, and loses atomically
	overlap := &access{consumes: []string{"asset/utxo:3", "asset/utxo:2"}}
	holder, ok := index.claim(overlap, b)
	assert.False(t, ok)
	assert.Equal(t, a, holder)
	_, ok = index.claim(&access{consumes: []string{"asset/utxo:3"}}, b)
	assert.True(t, ok, "the losing claim must not register anything")

	// releasing frees the inputs for a later envelope
	index.release(spend, a)
	_, ok = index.claim(&access{consumes: []string{"asset/utxo:1"}}, b)
	assert.True(t, ok)

	// nil access means no declared footprint
	_, ok = index.claim(nil, a)
	assert.True(t, ok)
	index.release(nil, a)
}

func TestDependencyGroups(t *testing.T) {
	accesses := []*access{
		{consumes: []string{"asset/u1"}},
		{writes: []string{"evm/acct:a"}},
		{consumes: []string{"asset/u1"}},          // conflicts with 0
		{reads: []string{"evm/acct:a"}},           // shares with 1
		nil,                                       // undeclarable, its own group
		{consumes: []string{"asset/u9"}},          // independent
		{writes: []string{"evm/acct:a", "x/top"}}, // joins 1 and 3
	}

	groups := dependencyGroups(accesses)
	byMember := make(map[int]int)
	for gi, group := range groups {
		for _, i := range group {
			byMember[i] = gi
		}
	}

	assert.Equal(t, byMember[0], byMember[2])
	assert.Equal(t, byMember[1], byMember[3])
	assert.Equal(t, byMember[1], byMember[6])
	assert.NotEqual(t, byMember[0], byMember[1])
	assert.NotEqual(t, byMember[4], byMember[0])
	assert.NotEqual(t, byMember[4], byMember[1])
	assert.NotEqual(t, byMember[5], byMember[0])

	// submission order survives inside each group
	for _, group := range groups {
		for i := 1; i < len(group); i++ {
			assert.Less(t, group[i-1], group[i])
		}
	}
}

func TestFatal(t *testing.T) {
	assert.Nil(t, Fatal(nil))
	err := Fatalf("store gone: %s", "disk")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "fatal: store gone: disk")
	assert.False(t, IsFatal(assert.AnError))
}
