// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides a logical bucket on a kv store by key prefixing.
type Bucket string

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &bucketGetter{b, src}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &bucketPutter{b, src}
}

// NewSnapshot creates a bucket view of the source snapshot.
func (b Bucket) NewSnapshot(src Snapshot) Snapshot {
	return &bucketSnapshot{bucketGetter{b, src}, src.Release}
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{
		bucketGetter{b, src},
		bucketPutter{b, src},
		b,
		src,
	}
}

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) {
	return g.src.Get(g.b.key(key))
}

func (g *bucketGetter) Has(key []byte) (bool, error) {
	return g.src.Has(g.b.key(key))
}

func (g *bucketGetter) IsNotFound(err error) bool { return g.src.IsNotFound(err) }

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p *bucketPutter) Put(key, val []byte) error {
	return p.src.Put(p.b.key(key), val)
}

func (p *bucketPutter) Delete(key []byte) error {
	return p.src.Delete(p.b.key(key))
}

type bucketSnapshot struct {
	bucketGetter
	release func()
}

func (s *bucketSnapshot) Release() { s.release() }

type bucketStore struct {
	bucketGetter
	bucketPutter
	b   Bucket
	src Store
}

func (s *bucketStore) IsNotFound(err error) bool { return s.src.IsNotFound(err) }

func (s *bucketStore) Snapshot() Snapshot {
	return s.b.NewSnapshot(s.src.Snapshot())
}

func (s *bucketStore) NewBatch() Batch {
	batch := s.src.NewBatch()
	return &bucketBatch{bucketPutter{s.b, batch}, batch}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	return &bucketIterator{s.src.Iterate(s.b.rng(r)), len(s.b)}
}

type bucketBatch struct {
	bucketPutter
	src Batch
}

func (b *bucketBatch) Len() int     { return b.src.Len() }
func (b *bucketBatch) Write() error { return b.src.Write() }

type bucketIterator struct {
	Iterator
	skip int
}

// Key strips the bucket prefix.
func (i *bucketIterator) Key() []byte { return i.Iterator.Key()[i.skip:] }

func (b Bucket) key(key []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(key)), b...), key...)
}

func (b Bucket) rng(r Range) Range {
	start := b.key(r.Start)
	var limit []byte
	if len(r.Limit) == 0 {
		limit = util.BytesPrefix([]byte(b)).Limit
	} else {
		limit = b.key(r.Limit)
	}
	return Range{Start: start, Limit: limit}
}
