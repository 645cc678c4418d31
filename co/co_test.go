// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chinyuchan/platform/co"
)

func TestGoes(t *testing.T) {
	var g co.Goes
	var n atomic.Int32

	for range 10 {
		g.Go(func() { n.Add(1) })
	}
	g.Wait()
	assert.Equal(t, int32(10), n.Load())

	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel never closed")
	}
}

func TestParallel(t *testing.T) {
	var n atomic.Int64
	co.Parallel(func(enqueue co.Enqueue) {
		for i := range 100 {
			enqueue(func() { n.Add(int64(i)) })
		}
	})
	assert.Equal(t, int64(4950), n.Load())
}

func TestSignalWake(t *testing.T) {
	var sig co.Signal

	w := sig.NewWaiter()
	done := make(chan bool, 1)
	go func() {
		v := <-w.C()
		done <- v
	}()

	// Give the waiter time to block.
	time.Sleep(10 * time.Millisecond)
	sig.Signal()

	select {
	case v := <-done:
		assert.True(t, v, "signal delivers true")
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}
}

func TestSignalBroadcast(t *testing.T) {
	var sig co.Signal
	var woke atomic.Int32

	var g co.Goes
	for range 5 {
		w := sig.NewWaiter()
		g.Go(func() {
			<-w.C()
			woke.Add(1)
		})
	}

	time.Sleep(10 * time.Millisecond)
	sig.Broadcast()
	g.Wait()
	assert.Equal(t, int32(5), woke.Load())
}
