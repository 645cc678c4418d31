// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	writeOpt = &opt.WriteOptions{}
	readOpt  = &opt.ReadOptions{}
)

// Options options for creating the leveldb instance.
type Options struct {
	CacheSize              int // in MiB
	OpenFilesCacheCapacity int
}

// DB is the leveldb backed Store with a Close method.
type DB struct {
	db *leveldb.DB
}

var _ Store = (*DB)(nil)

func openDB(stg storage.Storage, opts Options) (*DB, error) {
	if opts.CacheSize < 128 {
		opts.CacheSize = 128
	}
	if opts.OpenFilesCacheCapacity < 64 {
		opts.OpenFilesCacheCapacity = 64
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: opts.OpenFilesCacheCapacity,
		BlockCacheCapacity:     opts.CacheSize / 2 * opt.MiB,
		WriteBuffer:            opts.CacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &DB{db: db}, nil
}

// New opens a persistent DB at the given path.
func New(path string, opts Options) (*DB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db storage")
	}
	return openDB(stg, opts)
}

// NewMem opens an in-memory DB, for tests and throwaway chains.
func NewMem() (*DB, error) {
	return openDB(storage.NewMemStorage(), Options{})
}

func (d *DB) Get(key []byte) ([]byte, error) {
	return d.db.Get(key, readOpt)
}

func (d *DB) Has(key []byte) (bool, error) {
	return d.db.Has(key, readOpt)
}

func (d *DB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (d *DB) Put(key, val []byte) error {
	return d.db.Put(key, val, writeOpt)
}

func (d *DB) Delete(key []byte) error {
	return d.db.Delete(key, writeOpt)
}

// Snapshot takes a point-in-time view of the whole store.
func (d *DB) Snapshot() Snapshot {
	snap, err := d.db.GetSnapshot()
	return &ldbSnapshot{snap: snap, err: err, isNotFound: d.IsNotFound}
}

func (d *DB) NewBatch() Batch {
	return &ldbBatch{db: d.db, batch: &leveldb.Batch{}}
}

func (d *DB) Iterate(r Range) Iterator {
	return d.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, readOpt)
}

func (d *DB) Close() error {
	return d.db.Close()
}

type ldbSnapshot struct {
	snap       *leveldb.Snapshot
	err        error
	isNotFound func(error) bool
}

func (s *ldbSnapshot) Get(key []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap.Get(key, readOpt)
}

func (s *ldbSnapshot) Has(key []byte) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.snap.Has(key, readOpt)
}

func (s *ldbSnapshot) IsNotFound(err error) bool { return s.isNotFound(err) }

func (s *ldbSnapshot) Release() {
	if s.err == nil {
		s.snap.Release()
	}
}

type ldbBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *ldbBatch) Put(key, val []byte) error {
	b.batch.Put(key, val)
	return nil
}

func (b *ldbBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *ldbBatch) Len() int { return b.batch.Len() }

func (b *ldbBatch) Write() error {
	return b.db.Write(b.batch, writeOpt)
}
