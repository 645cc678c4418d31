// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "runtime"

// Enqueue submits one unit of work to the pool.
type Enqueue func(work func())

// Parallel runs a batch of work over a pool of NumCPU workers. It returns
// after cb has returned and all enqueued work has finished.
func Parallel(cb func(Enqueue)) {
	n := runtime.NumCPU()
	ch := make(chan func(), n*2)

	var goes Goes
	for range n {
		goes.Go(func() {
			for work := range ch {
				work()
			}
		})
	}

	cb(func(work func()) { ch <- work })
	close(ch)
	goes.Wait()
}
