// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state implements the block changeset: a journaled overlay over
// the last committed store version, with checkpoint/revert at transaction
// granularity.
package state

import (
	"github.com/chinyuchan/platform/stackedmap"
	"github.com/chinyuchan/platform/store"
)

// key addresses one entry of the overlay.
type key struct {
	partition store.Partition
	key       string
}

// slot is the journaled value. deleted marks a staged delete.
type slot struct {
	data    []byte
	deleted bool
}

// Reader is the committed view below the overlay.
type Reader interface {
	Get(p store.Partition, key []byte) ([]byte, bool, error)
}

// State is one block's writable state. Writes stack on the committed view
// and never reach the store until the controller commits the block.
type State struct {
	sm *stackedmap.StackedMap[key, slot]
}

// New creates a state over the committed view. The state owns no
// resources; releasing the underlying snapshot is the caller's concern.
func New(reader Reader) *State {
	sm := stackedmap.New(func(k key) (slot, bool, error) {
		data, ok, err := reader.Get(k.partition, []byte(k.key))
		if err != nil || !ok {
			return slot{}, false, err
		}
		return slot{data: data}, true, nil
	})
	st := &State{sm: sm}
	// base level, never popped
	sm.Push()
	return st
}

// Get returns the newest value for the key.
func (s *State) Get(p store.Partition, k []byte) ([]byte, bool, error) {
	v, ok, err := s.sm.Get(key{p, string(k)})
	if err != nil {
		return nil, false, err
	}
	if !ok || v.deleted {
		return nil, false, nil
	}
	return v.data, true, nil
}

// Put stages a write.
func (s *State) Put(p store.Partition, k, val []byte) {
	s.sm.Put(key{p, string(k)}, slot{data: val})
}

// Delete stages a delete.
func (s *State) Delete(p store.Partition, k []byte) {
	s.sm.Put(key{p, string(k)}, slot{deleted: true})
}

// NewCheckpoint marks the current journal position. RevertTo with the
// returned value undoes everything staged after it.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts to the checkpoint.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Changes walks the journal, newest value per key winning, into a store
// changeset.
func (s *State) Changes() *store.Changeset {
	// replay the journal to find the final value of every touched key
	final := make(map[key]slot)
	order := make([]key, 0, 16)
	s.sm.Journal(func(k key, v slot) bool {
		if _, ok := final[k]; !ok {
			order = append(order, k)
		}
		final[k] = v
		return true
	})

	cs := &store.Changeset{}
	for _, k := range order {
		v := final[k]
		if v.deleted {
			cs.StageDelete(k.partition, []byte(k.key))
		} else {
			cs.Stage(k.partition, []byte(k.key), v.data)
		}
	}
	return cs
}

// View scopes the state to one partition, the surface modules receive.
type View struct {
	st *State
	p  store.Partition
}

// NewView creates a view bound to the partition.
func NewView(st *State, p store.Partition) *View {
	return &View{st: st, p: p}
}

// Get reads a key of the partition.
func (v *View) Get(k []byte) ([]byte, bool, error) {
	return v.st.Get(v.p, k)
}

// Put stages a write to the partition.
func (v *View) Put(k, val []byte) {
	v.st.Put(v.p, k, val)
}

// Delete stages a delete in the partition.
func (v *View) Delete(k []byte) {
	v.st.Delete(v.p, k)
}
