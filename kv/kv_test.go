// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetPut(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.Put([]byte("key"), []byte("value")))

	val, err := db.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)

	has, err := db.Has([]byte("key"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete([]byte("key")))
	_, err = db.Get([]byte("key"))
	assert.True(t, db.IsNotFound(err))
}

func TestSnapshotIsolation(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Put([]byte("k"), []byte("v1")))

	snap := db.Snapshot()
	defer snap.Release()

	require.NoError(t, db.Put([]byte("k"), []byte("v2")))
	require.NoError(t, db.Put([]byte("new"), []byte("x")))

	// The snapshot still sees the old world.
	val, err := snap.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	_, err = snap.Get([]byte("new"))
	assert.True(t, snap.IsNotFound(err))
}

func TestBatchAtomic(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Put([]byte("old"), []byte("x")))

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	require.NoError(t, batch.Delete([]byte("old")))
	assert.Equal(t, 3, batch.Len())

	// Nothing visible before Write.
	_, err := db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, batch.Write())

	val, err := db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)

	_, err = db.Get([]byte("old"))
	assert.True(t, db.IsNotFound(err))
}

func TestBucket(t *testing.T) {
	db := newTestDB(t)

	b1 := Bucket("b1-").NewStore(db)
	b2 := Bucket("b2-").NewStore(db)

	require.NoError(t, b1.Put([]byte("k"), []byte("from-b1")))
	require.NoError(t, b2.Put([]byte("k"), []byte("from-b2")))

	val, err := b1.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from-b1"), val)

	// Raw store sees prefixed keys.
	val, err = db.Get([]byte("b2-k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from-b2"), val)

	// Bucket snapshot respects the prefix.
	snap := b1.Snapshot()
	defer snap.Release()
	val, err = snap.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from-b1"), val)

	// Bucket batch routes into the prefix too.
	batch := b2.NewBatch()
	require.NoError(t, batch.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, batch.Write())
	has, err := db.Has([]byte("b2-k2"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestBucketIterate(t *testing.T) {
	db := newTestDB(t)

	bucket := Bucket("data-").NewStore(db)
	require.NoError(t, bucket.Put([]byte("a"), []byte("1")))
	require.NoError(t, bucket.Put([]byte("b"), []byte("2")))
	require.NoError(t, bucket.Put([]byte("c"), []byte("3")))
	// Outside the bucket, must not appear.
	require.NoError(t, db.Put([]byte("zzz"), []byte("x")))

	var keys []string
	iter := bucket.Iterate(Range{})
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	iter.Release()
	require.NoError(t, iter.Error())

	assert.Equal(t, []string{"a", "b", "c"}, keys)

	// Bounded range.
	keys = keys[:0]
	iter = bucket.Iterate(Range{Start: []byte("b")})
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	iter.Release()
	assert.Equal(t, []string{"b", "c"}, keys)
}
