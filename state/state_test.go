// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinyuchan/platform/state"
	"github.com/chinyuchan/platform/store"
)

type mapReader map[string][]byte

func (m mapReader) Get(p store.Partition, key []byte) ([]byte, bool, error) {
	v, ok := m[string(p)+"/"+string(key)]
	return v, ok, nil
}

func TestStateReadThrough(t *testing.T) {
	st := state.New(mapReader{"asset/a": []byte("committed")})

	v, ok, err := st.Get("asset", []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("committed"), v)

	// overlay wins
	st.Put("asset", []byte("a"), []byte("staged"))
	v, _, _ = st.Get("asset", []byte("a"))
	assert.Equal(t, []byte("staged"), v)

	// partitions do not leak into each other
	_, ok, _ = st.Get("evm", []byte("a"))
	assert.False(t, ok)
}

func TestStateDelete(t *testing.T) {
	st := state.New(mapReader{"asset/a": []byte("committed")})

	st.Delete("asset", []byte("a"))
	_, ok, err := st.Get("asset", []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	cs := st.Changes()
	require.Equal(t, 1, cs.Len())
}

func TestCheckpointRevert(t *testing.T) {
	st := state.New(mapReader{"asset/a": []byte("v0")})

	st.Put("asset", []byte("b"), []byte("kept"))

	cp := st.NewCheckpoint()
	st.Put("asset", []byte("a"), []byte("v1"))
	st.Put("asset", []byte("c"), []byte("dropped"))
	st.RevertTo(cp)

	v, _, _ := st.Get("asset", []byte("a"))
	assert.Equal(t, []byte("v0"), v)
	_, ok, _ := st.Get("asset", []byte("c"))
	assert.False(t, ok)
	v, _, _ = st.Get("asset", []byte("b"))
	assert.Equal(t, []byte("kept"), v)

	// reverted writes leave no trace in the changeset
	cs := st.Changes()
	require.Equal(t, 1, cs.Len())
}

func TestChangesNewestWins(t *testing.T) {
	st := state.New(mapReader{})

	st.Put("asset", []byte("a"), []byte("v1"))
	st.Put("asset", []byte("a"), []byte("v2"))
	st.Put("asset", []byte("b"), []byte("x"))
	st.Delete("asset", []byte("b"))

	cs := st.Changes()
	assert.Equal(t, 2, cs.Len())

	// digest equals a changeset staged directly with the final values
	var want store.Changeset
	want.Stage("asset", []byte("a"), []byte("v2"))
	want.StageDelete("asset", []byte("b"))
	assert.Equal(t, want.Digest(), cs.Digest())
}

func TestView(t *testing.T) {
	st := state.New(mapReader{})
	view := state.NewView(st, "asset")

	view.Put([]byte("k"), []byte("v"))
	v, ok, err := view.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	// the view writes into its own partition only
	v2, ok, _ := st.Get("asset", []byte("k"))
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v2)
	_, ok, _ = st.Get("evm", []byte("k"))
	assert.False(t, ok)

	view.Delete([]byte("k"))
	_, ok, _ = view.Get([]byte("k"))
	assert.False(t, ok)
}
