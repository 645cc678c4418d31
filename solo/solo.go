// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solo drives the ledger without a consensus network: one node
// plays proposer, producing a block per interval or on demand whenever
// the pool holds transactions.
package solo

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/ledger"
	"github.com/chinyuchan/platform/log"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
	"github.com/chinyuchan/platform/txpool"
)

var logger = log.WithContext("pkg", "solo")

// Options configure the producer.
type Options struct {
	// BlockInterval is the seconds between blocks in interval mode.
	BlockInterval uint64
	// OnDemand produces a block only when the pool holds transactions.
	OnDemand bool
	// MaxBlockTxs caps transactions per block; 0 means the chain limit.
	MaxBlockTxs int
	// Proposer receives the block's fees.
	Proposer platform.Address
}

// Solo is the standalone block producer.
type Solo struct {
	ledger  *ledger.Ledger
	pool    *txpool.TxPool
	options Options
}

// New creates a producer over an initialized ledger.
func New(l *ledger.Ledger, pool *txpool.TxPool, options Options) *Solo {
	if options.BlockInterval == 0 {
		options.BlockInterval = 10
	}
	if options.MaxBlockTxs <= 0 || options.MaxBlockTxs > platform.MaxBlockTxs {
		options.MaxBlockTxs = platform.MaxBlockTxs
	}
	return &Solo{ledger: l, pool: pool, options: options}
}

// Run produces blocks until the context is done. A fatal ledger error
// stops the loop and is returned; the node must exit.
func (s *Solo) Run(ctx context.Context) error {
	mode := "interval"
	if s.options.OnDemand {
		mode = "on-demand"
	}
	logger.Info("solo producer started", "mode", mode, "interval", s.options.BlockInterval)

	for {
		if s.options.OnDemand {
			if err := s.waitForTxs(ctx); err != nil {
				return nil
			}
		} else {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(s.options.BlockInterval) * time.Second):
			}
		}

		if err := s.produce(); err != nil {
			logger.Error("block production failed", "err", err)
			return err
		}
	}
}

// waitForTxs blocks until the pool is non-empty or the context is done.
func (s *Solo) waitForTxs(ctx context.Context) error {
	waiter := s.pool.NewWaiter()
	for s.pool.Len() == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-waiter.C():
		}
	}
	return nil
}

// produce runs one BeginBlock/DeliverBlock/EndBlock/Commit round and
// washes the included transactions out of the pool.
func (s *Solo) produce() error {
	height, commitment, ok := s.ledger.Version()
	if !ok {
		return errors.New("ledger not initialized")
	}

	blockCtx := module.BlockContext{
		Height:         height + 1,
		Time:           uint64(time.Now().Unix()),
		Proposer:       s.options.Proposer,
		PrevCommitment: commitment,
	}
	if err := s.ledger.BeginBlock(blockCtx); err != nil {
		return errors.WithMessage(err, "begin block")
	}

	txs := s.pool.Executables(s.options.MaxBlockTxs)
	receipts, err := s.ledger.DeliverBlock(txs)
	if err != nil {
		return errors.WithMessage(err, "deliver block")
	}
	if _, err := s.ledger.EndBlock(); err != nil {
		return errors.WithMessage(err, "end block")
	}
	newHeight, newCommitment, err := s.ledger.Commit()
	if err != nil {
		return errors.WithMessage(err, "commit")
	}

	// delivered transactions leave the pool whatever their outcome; a
	// failed one is final, not retryable
	ids := make([]platform.Bytes32, len(txs))
	for i, env := range txs {
		ids[i] = env.ID()
	}
	s.pool.Wash(ids)

	var failed int
	for _, receipt := range receipts {
		if receipt.Failed() {
			failed++
		}
	}
	logger.Info("block packed",
		"height", newHeight,
		"txs", len(receipts),
		"failed", failed,
		"commitment", newCommitment.AbbrevString())
	return nil
}

// Produce packs one block immediately, regardless of mode.
func (s *Solo) Produce() (tx.Receipts, error) {
	height, _, _ := s.ledger.Version()
	if err := s.produce(); err != nil {
		return nil, err
	}
	return s.ledger.BlockReceipts(height + 1)
}
