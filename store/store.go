// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package store implements the versioned state store. State lives in named
// partitions; every commit atomically applies one block's changeset,
// advances the version and records the state commitment for the height.
package store

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/kv"
	"github.com/chinyuchan/platform/platform"
)

// Partition is a named slice of the key space. Modules only ever see their
// own partition.
type Partition string

// Reserved partitions of the lifecycle controller.
const (
	// PartitionMeta holds the version record.
	PartitionMeta Partition = "meta"
	// PartitionCommit indexes commitments by height.
	PartitionCommit Partition = "commit"
	// PartitionTxLog holds finalized receipts.
	PartitionTxLog Partition = "txlog"
)

var (
	errHeightGap   = errors.New("commit height out of sequence")
	versionKey     = []byte("version")
	commitCacheLen = 1024
)

// Store is the versioned state store.
type Store struct {
	db kv.Store

	mu          sync.RWMutex
	initialized bool
	height      uint64
	commitment  platform.Bytes32

	commitCache *lru.Cache
}

// Open opens the store over the kv database, loading the last committed
// version if present.
func Open(db kv.Store) (*Store, error) {
	cache, err := lru.New(commitCacheLen)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, commitCache: cache}

	data, err := s.bucket(PartitionMeta).Get(versionKey)
	if err != nil {
		if db.IsNotFound(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "load version")
	}
	if len(data) != 8+32 {
		return nil, errors.New("corrupt version record")
	}
	s.initialized = true
	s.height = binary.BigEndian.Uint64(data[:8])
	copy(s.commitment[:], data[8:])
	return s, nil
}

func (s *Store) bucket(p Partition) kv.Store {
	return kv.Bucket(string(p) + "/").NewStore(s.db)
}

// Version returns the last committed height and commitment. ok is false
// for a fresh store that has never committed.
func (s *Store) Version() (height uint64, commitment platform.Bytes32, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height, s.commitment, s.initialized
}

// Snapshot takes a point-in-time read view of the last committed version.
// It must be released.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	height := s.height
	s.mu.RUnlock()
	return &Snapshot{snap: s.db.Snapshot(), height: height, refs: 1}
}

// CommitmentAt returns the commitment recorded for the given height.
func (s *Store) CommitmentAt(height uint64) (platform.Bytes32, error) {
	s.mu.RLock()
	if s.initialized && height == s.height {
		c := s.commitment
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	if cached, ok := s.commitCache.Get(height); ok {
		return cached.(platform.Bytes32), nil
	}

	var key [8]byte
	binary.BigEndian.PutUint64(key[:], height)
	data, err := s.bucket(PartitionCommit).Get(key[:])
	if err != nil {
		if s.db.IsNotFound(err) {
			return platform.Bytes32{}, errors.Errorf("no commitment at height %d", height)
		}
		return platform.Bytes32{}, err
	}
	c := platform.BytesToBytes32(data)
	s.commitCache.Add(height, c)
	return c, nil
}

// Commit atomically applies the changeset, records the commitment at the
// height and advances the version. extra, when non-nil, may add records to
// the same atomic batch through the given putter factory. The first commit
// must be at height 0; afterwards heights are strictly sequential.
func (s *Store) Commit(cs *Changeset, height uint64, commitment platform.Bytes32, extra func(func(Partition) kv.Putter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		if height != s.height+1 {
			return errors.WithMessagef(errHeightGap, "want %d, got %d", s.height+1, height)
		}
	} else if height != 0 {
		return errors.WithMessagef(errHeightGap, "fresh store wants 0, got %d", height)
	}

	started := time.Now()
	batch := s.db.NewBatch()

	bucketPutter := func(p Partition) kv.Putter {
		return kv.Bucket(string(p) + "/").NewPutter(batch)
	}

	if err := cs.apply(bucketPutter); err != nil {
		return errors.Wrap(err, "apply changeset")
	}
	if extra != nil {
		if err := extra(bucketPutter); err != nil {
			return errors.Wrap(err, "apply extra records")
		}
	}

	var heightKey [8]byte
	binary.BigEndian.PutUint64(heightKey[:], height)
	if err := bucketPutter(PartitionCommit).Put(heightKey[:], commitment.Bytes()); err != nil {
		return err
	}

	version := make([]byte, 8+32)
	binary.BigEndian.PutUint64(version[:8], height)
	copy(version[8:], commitment.Bytes())
	if err := bucketPutter(PartitionMeta).Put(versionKey, version); err != nil {
		return err
	}

	size := batch.Len()
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write commit batch")
	}

	s.initialized = true
	s.height = height
	s.commitment = commitment
	s.commitCache.Add(height, commitment)

	metricCommits().Add(1)
	metricCommitSize().Observe(int64(size))
	metricCommitDuration().Observe(time.Since(started).Milliseconds())
	return nil
}

// Snapshot is a read view pinned to one committed version.
type Snapshot struct {
	snap   kv.Snapshot
	height uint64
	refs   int32
}

// Height returns the committed height the snapshot is pinned to.
func (s *Snapshot) Height() uint64 { return s.height }

// Get reads a key from a partition.
func (s *Snapshot) Get(p Partition, key []byte) ([]byte, bool, error) {
	val, err := kv.Bucket(string(p) + "/").NewGetter(s.snap).Get(key)
	if err != nil {
		if s.snap.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Reader returns a StateReader-shaped view of one partition.
func (s *Snapshot) Reader(p Partition) *PartitionReader {
	return &PartitionReader{snap: s, p: p}
}

// Retain adds a reference so a concurrent Release cannot pull the
// snapshot out from under a reader. Every Retain needs a matching
// Release.
func (s *Snapshot) Retain() *Snapshot {
	atomic.AddInt32(&s.refs, 1)
	return s
}

// Release drops one reference; the last one releases the underlying
// snapshot.
func (s *Snapshot) Release() {
	if atomic.AddInt32(&s.refs, -1) == 0 {
		s.snap.Release()
	}
}

// PartitionReader reads one partition of a snapshot.
type PartitionReader struct {
	snap *Snapshot
	p    Partition
}

// Get reads a key.
func (r *PartitionReader) Get(key []byte) ([]byte, bool, error) {
	return r.snap.Get(r.p, key)
}
