// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap implements a journaled map stack with checkpoint and
// revert semantics.
package stackedmap

// MapGetter is the read-through source of a StackedMap.
type MapGetter[K comparable, V any] func(key K) (value V, exist bool, err error)

// StackedMap maintains maps in a stack. Each map inherits the key/values of
// the maps at lower levels. It acts as a single map with save-restore
// checkpointing.
type StackedMap[K comparable, V any] struct {
	src     MapGetter[K, V]
	levels  []*level[K, V]
	keyRevs map[K]*revStack
}

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []JournalEntry[K, V]
}

// JournalEntry is one recorded Put.
type JournalEntry[K comparable, V any] struct {
	Key   K
	Value V
}

// New creates a StackedMap with src as the data source below the stack.
func New[K comparable, V any](src MapGetter[K, V]) *StackedMap[K, V] {
	return &StackedMap[K, V]{
		src:     src,
		keyRevs: make(map[K]*revStack),
	}
}

// Depth returns the depth of the stack.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.levels)
}

// Push pushes a new map on the stack and returns the stack depth before the
// push, to be passed to PopTo to revert all changes made after this point.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop pops the map at the top of the stack, reverting all Put operations
// since the matching Push.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.keyRevs[key]
		revs.pop()
		if len(*revs) == 0 {
			delete(sm.keyRevs, key)
		}
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops maps until the stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get returns the newest value for the given key, falling through to the
// source when no level holds it.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if revs, ok := sm.keyRevs[key]; ok {
		if v, ok := sm.levels[revs.top()].kvs[key]; ok {
			return v, true, nil
		}
	}
	return sm.src(key)
}

// Put sets the value for the given key in the map at the top of the stack.
// It panics if the stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	top := sm.levels[len(sm.levels)-1]
	top.kvs[key] = value
	top.journal = append(top.journal, JournalEntry[K, V]{Key: key, Value: value})

	// record the key revision for fast access
	rev := len(sm.levels) - 1
	if revs, ok := sm.keyRevs[key]; ok {
		if revs.top() != rev {
			revs.push(rev)
		}
	} else {
		sm.keyRevs[key] = &revStack{rev}
	}
}

// Journal iterates all Put operations in order, oldest first. Returning
// false from the callback stops the iteration.
func (sm *StackedMap[K, V]) Journal(cb func(key K, value V) bool) {
	for _, lvl := range sm.levels {
		for _, e := range lvl.journal {
			if !cb(e.Key, e.Value) {
				return
			}
		}
	}
}

type revStack []int

func (s *revStack) push(rev int) {
	*s = append(*s, rev)
}

func (s *revStack) pop() {
	*s = (*s)[:len(*s)-1]
}

func (s revStack) top() int {
	return s[len(s)-1]
}
