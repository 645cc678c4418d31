// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package txpool holds admitted transactions waiting for a block. It is a
// bounded FIFO sized for a solo producer: admission runs the ledger's
// CheckTx against last-committed state, ordering is arrival order, and
// the producer washes included transactions out after each commit.
package txpool

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/co"
	"github.com/chinyuchan/platform/ledger"
	"github.com/chinyuchan/platform/log"
	"github.com/chinyuchan/platform/metrics"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
)

var logger = log.WithContext("pkg", "txpool")

var metricPoolSize = metrics.LazyLoadGauge("txpool_size_gauge")

// knownCacheLen bounds the recently-seen id cache. It outlives the queue
// so a washed transaction is still recognized as a duplicate.
const knownCacheLen = 65536

// DefaultLimit caps the queue when no limit is configured.
const DefaultLimit = 10000

// TxPool is the mempool.
type TxPool struct {
	ledger *ledger.Ledger
	limit  int

	mu    sync.Mutex
	queue []*tx.Transaction
	known *lru.Cache

	signal co.Signal
}

// New creates a pool admitting through the given ledger.
func New(l *ledger.Ledger, limit int) *TxPool {
	if limit <= 0 {
		limit = DefaultLimit
	}
	known, err := lru.New(knownCacheLen)
	if err != nil {
		panic(err)
	}
	return &TxPool{ledger: l, limit: limit, known: known}
}

// Add admits a transaction into the pool. Rejections carry the admission
// receipt's code.
func (p *TxPool) Add(env *tx.Transaction) error {
	id := env.ID()

	// duplicates answer CodeDuplicateTx even when the pool is full
	p.mu.Lock()
	if _, ok := p.known.Get(id); ok {
		p.mu.Unlock()
		return module.Reasonf(tx.CodeDuplicateTx, "tx %v known", id.AbbrevString())
	}
	if len(p.queue) >= p.limit {
		p.mu.Unlock()
		return module.Reasonf(tx.CodePoolFull, "pool holds %d txs", p.limit)
	}
	p.mu.Unlock()

	// admission reads committed state only, so it runs unlocked
	receipt := p.ledger.CheckTx(env.Encode())
	if receipt.Failed() {
		return module.NewReason(receipt.Code, receipt.Log)
	}

	p.mu.Lock()
	if _, ok := p.known.Get(id); ok {
		p.mu.Unlock()
		return module.Reasonf(tx.CodeDuplicateTx, "tx %v known", id.AbbrevString())
	}
	if len(p.queue) >= p.limit {
		p.mu.Unlock()
		return module.Reasonf(tx.CodePoolFull, "pool holds %d txs", p.limit)
	}
	p.known.Add(id, struct{}{})
	p.queue = append(p.queue, env)
	size := len(p.queue)
	p.mu.Unlock()

	metricPoolSize().Set(int64(size))
	logger.Debug("tx queued", "id", id.AbbrevString(), "pool", size)
	p.signal.Broadcast()
	return nil
}

// AddRaw decodes and admits an encoded transaction.
func (p *TxPool) AddRaw(raw []byte) error {
	if len(raw) > platform.MaxTxSize {
		return module.Reasonf(tx.CodeOversize, "%d bytes over limit %d", len(raw), platform.MaxTxSize)
	}
	env, err := tx.Decode(raw)
	if err != nil {
		return module.NewReason(tx.CodeMalformed, err.Error())
	}
	return p.Add(env)
}

// Executables returns up to max queued transactions in arrival order
// without removing them. The producer washes them out after the block
// commits.
func (p *TxPool) Executables(max int) tx.Transactions {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.queue)
	if max > 0 && n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make(tx.Transactions, n)
	copy(out, p.queue[:n])
	return out
}

// Wash drops the given transactions from the queue, typically after they
// were delivered in a committed block.
func (p *TxPool) Wash(ids []platform.Bytes32) {
	drop := make(map[platform.Bytes32]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	p.mu.Lock()
	kept := p.queue[:0]
	for _, env := range p.queue {
		if _, ok := drop[env.ID()]; !ok {
			kept = append(kept, env)
		}
	}
	for i := len(kept); i < len(p.queue); i++ {
		p.queue[i] = nil
	}
	p.queue = kept
	size := len(p.queue)
	p.mu.Unlock()

	metricPoolSize().Set(int64(size))
}

// Len returns the number of queued transactions.
func (p *TxPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// NewWaiter returns a waiter signalled whenever a transaction is queued.
func (p *TxPool) NewWaiter() co.Waiter {
	return p.signal.NewWaiter()
}

// Rejection extracts the admission code of an Add error, or CodeInternal
// for errors that are not pool rejections.
func Rejection(err error) (tx.Code, bool) {
	if err == nil {
		return tx.CodeOK, false
	}
	var reason *module.Reason
	if errors.As(err, &reason) {
		return reason.Code(), true
	}
	return tx.CodeInternal, false
}
