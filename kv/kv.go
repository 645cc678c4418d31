// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store abstraction and its leveldb
// backed implementation.
package kv

// Getter defines methods to read kv.
type Getter interface {
	// Get value for the given key.
	// An error is returned if the key is not found. It can be checked via IsNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter defines methods to write kv.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Snapshot is a point-in-time read view of the store.
type Snapshot interface {
	Getter
	Release()
}

// Batch collects writes to be committed in one atomic step.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Iterator iterates over kv pairs. Ordering follows the byte order of keys.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Range is the key range.
type Range struct {
	Start []byte // start of key range (included)
	Limit []byte // limit of key range (excluded)
}

// Store defines the full functional kv store.
type Store interface {
	Getter
	Putter

	Snapshot() Snapshot
	NewBatch() Batch
	Iterate(r Range) Iterator
}
