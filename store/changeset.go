// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"bytes"
	"io"
	"sort"

	"github.com/chinyuchan/platform/kv"
	"github.com/chinyuchan/platform/metrics"
	"github.com/chinyuchan/platform/platform"
)

var (
	metricCommits        = metrics.LazyLoadCounter("store_commit_count")
	metricCommitSize     = metrics.LazyLoadHistogram("store_commit_batch_size", metrics.BucketTxs)
	metricCommitDuration = metrics.LazyLoadHistogram("store_commit_duration_ms", metrics.BucketCommit)
)

// Entry is one staged write or delete of a changeset.
type Entry struct {
	Partition Partition
	Key       []byte
	Value     []byte
	Deleted   bool
}

// Changeset is the ordered set of writes one block produced. It is built
// by the lifecycle controller from the block journal and consumed exactly
// once by Commit.
type Changeset struct {
	entries []Entry
}

// Stage appends a write.
func (cs *Changeset) Stage(p Partition, key, val []byte) {
	cs.entries = append(cs.entries, Entry{Partition: p, Key: key, Value: val})
}

// StageDelete appends a delete.
func (cs *Changeset) StageDelete(p Partition, key []byte) {
	cs.entries = append(cs.entries, Entry{Partition: p, Key: key, Deleted: true})
}

// Len returns the number of staged entries.
func (cs *Changeset) Len() int {
	return len(cs.entries)
}

// Empty reports whether nothing is staged.
func (cs *Changeset) Empty() bool {
	return len(cs.entries) == 0
}

// sorted returns the entries ordered by (partition, key). Staging order is
// whatever the journal walk produced; the digest and the committed batch
// must not depend on it.
func (cs *Changeset) sorted() []Entry {
	entries := append([]Entry(nil), cs.entries...)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Partition != entries[j].Partition {
			return entries[i].Partition < entries[j].Partition
		}
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
	return entries
}

// Digest folds the changeset into one hash, identical on every node that
// staged the same writes. The digest of an empty changeset is the zero
// hash.
func (cs *Changeset) Digest() platform.Bytes32 {
	if cs.Empty() {
		return platform.Bytes32{}
	}
	return platform.Blake2bFn(func(w io.Writer) {
		for _, e := range cs.sorted() {
			writeBytes(w, []byte(e.Partition))
			writeBytes(w, e.Key)
			if e.Deleted {
				w.Write([]byte{0})
			} else {
				w.Write([]byte{1})
				valueHash := platform.Blake2b(e.Value)
				w.Write(valueHash.Bytes())
			}
		}
	})
}

// apply writes the entries through the per-partition putter factory.
func (cs *Changeset) apply(putter func(Partition) kv.Putter) error {
	for _, e := range cs.sorted() {
		p := putter(e.Partition)
		if e.Deleted {
			if err := p.Delete(e.Key); err != nil {
				return err
			}
		} else if err := p.Put(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func writeBytes(w io.Writer, b []byte) {
	var buf [4]byte
	buf[0] = byte(len(b) >> 24)
	buf[1] = byte(len(b) >> 16)
	buf[2] = byte(len(b) >> 8)
	buf[3] = byte(len(b))
	w.Write(buf[:])
	w.Write(b)
}
