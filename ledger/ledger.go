// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the block lifecycle controller: the surface an
// external consensus engine drives through InitChain, BeginBlock,
// CheckTx/DeliverTx, EndBlock and Commit. The controller owns the open
// block's changeset; modules only ever see their own partition of it.
package ledger

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/co"
	"github.com/chinyuchan/platform/genesis"
	"github.com/chinyuchan/platform/kv"
	"github.com/chinyuchan/platform/log"
	"github.com/chinyuchan/platform/metrics"
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/state"
	"github.com/chinyuchan/platform/store"
	"github.com/chinyuchan/platform/tx"
)

var logger = log.WithContext("pkg", "ledger")

var (
	metricBlocksCommitted = metrics.LazyLoadCounter("ledger_block_committed_count")
	metricBlockTxs        = metrics.LazyLoadHistogram("ledger_block_txs", metrics.BucketTxs)
	metricTxDelivered     = metrics.LazyLoadCounterVec("ledger_tx_delivered_count", []string{"class"})
)

var (
	// ErrLifecycle is returned when a lifecycle call arrives out of order.
	ErrLifecycle = errors.New("lifecycle violation")
	// ErrChainInitialized is returned by InitChain on a non-empty store.
	ErrChainInitialized = errors.New("chain already initialized")
	// ErrNotInitialized is returned by Resume on a fresh store.
	ErrNotInitialized = errors.New("chain not initialized")
)

// lifecycle states and events
const (
	stateIdle   = "idle"
	stateReady  = "ready"
	stateOpen   = "open"
	stateSealed = "sealed"

	eventInit   = "init"
	eventOpen   = "open"
	eventSeal   = "seal"
	eventCommit = "commit"
)

// chainKey holds the chain tag and launch time in the meta partition.
var chainKey = []byte("chain")

// EndBlockResult carries the block finalization outputs back to the
// consensus caller.
type EndBlockResult struct {
	Events tx.Events
	// ValidatorUpdates stays empty until a module provides a validator
	// set; consensus membership is outside the state machine today.
	ValidatorUpdates []ValidatorUpdate
}

// ValidatorUpdate is one consensus power change.
type ValidatorUpdate struct {
	PubKey platform.PubKey
	Power  int64
}

// openBlock is the controller's per-block working set.
type openBlock struct {
	ctx      module.BlockContext
	st       *state.State
	index    *conflictIndex
	seen     map[platform.Bytes32]struct{}
	ids      []platform.Bytes32
	receipts tx.Receipts
	events   tx.Events
}

// Ledger is the block lifecycle controller.
type Ledger struct {
	store   *store.Store
	reg     *module.Registry
	machine *fsm.FSM

	chainTag byte

	snapMu sync.RWMutex
	snap   *store.Snapshot

	mu   sync.Mutex
	open *openBlock
}

// New creates the controller over a store and a module registry. The
// chain must then be initialized with InitChain or resumed with Resume
// before any other call.
func New(st *store.Store, reg *module.Registry) *Ledger {
	for _, m := range reg.All() {
		switch store.Partition(m.Name()) {
		case store.PartitionMeta, store.PartitionCommit, store.PartitionTxLog:
			panic("module name collides with reserved partition: " + m.Name())
		}
	}
	machine := fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: eventInit, Src: []string{stateIdle}, Dst: stateReady},
			{Name: eventOpen, Src: []string{stateReady}, Dst: stateOpen},
			{Name: eventSeal, Src: []string{stateOpen}, Dst: stateSealed},
			{Name: eventCommit, Src: []string{stateSealed}, Dst: stateReady},
		},
		fsm.Callbacks{},
	)
	return &Ledger{store: st, reg: reg, machine: machine}
}

// step fires a lifecycle event; failures are protocol errors.
func (l *Ledger) step(event string) error {
	if err := l.machine.Event(context.Background(), event); err != nil {
		return errors.WithMessagef(ErrLifecycle, "%s while %s", event, l.machine.Current())
	}
	return nil
}

// ChainTag returns the chain tag envelopes must carry.
func (l *Ledger) ChainTag() byte {
	return l.chainTag
}

// Version returns the last committed height and commitment.
func (l *Ledger) Version() (uint64, platform.Bytes32, bool) {
	return l.store.Version()
}

// CommitmentAt returns the commitment of a committed height.
func (l *Ledger) CommitmentAt(height uint64) (platform.Bytes32, error) {
	return l.store.CommitmentAt(height)
}

// InitChain seeds every module's partition from the genesis definition
// and commits height zero. It fails on a store that has already
// committed.
func (l *Ledger) InitChain(gene *genesis.Genesis) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, _, ok := l.store.Version(); ok {
		return ErrChainInitialized
	}
	if !l.machine.Is(stateIdle) {
		return errors.WithMessage(ErrLifecycle, "init chain")
	}

	snap := l.store.Snapshot()
	defer snap.Release()
	st := state.New(snap)

	for _, m := range l.reg.All() {
		section := gene.Section(m.Name())
		if section == nil {
			continue
		}
		if err := m.Genesis(section, state.NewView(st, store.Partition(m.Name()))); err != nil {
			return errors.WithMessagef(err, "genesis of module %s", m.Name())
		}
	}

	cs := st.Changes()
	digest := cs.Digest()
	commitment := platform.Blake2b(platform.InitialCommitment.Bytes(), digest.Bytes())

	chainRecord := make([]byte, 1+8)
	chainRecord[0] = gene.ChainTag()
	binary.BigEndian.PutUint64(chainRecord[1:], gene.LaunchTime())
	err := l.store.Commit(cs, 0, commitment, func(put func(store.Partition) kv.Putter) error {
		return put(store.PartitionMeta).Put(chainKey, chainRecord)
	})
	if err != nil {
		return Fatal(err)
	}

	l.chainTag = gene.ChainTag()
	l.refreshSnapshot()
	logger.Info("chain initialized", "chainTag", l.chainTag, "commitment", commitment.AbbrevString())
	return l.step(eventInit)
}

// Resume loads the committed version of an already initialized chain,
// typically after a restart.
func (l *Ledger) Resume() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	height, commitment, ok := l.store.Version()
	if !ok {
		return ErrNotInitialized
	}
	if !l.machine.Is(stateIdle) {
		return errors.WithMessage(ErrLifecycle, "resume")
	}

	snap := l.store.Snapshot()
	data, ok, err := snap.Get(store.PartitionMeta, chainKey)
	if err != nil || !ok || len(data) != 1+8 {
		snap.Release()
		if err == nil {
			err = errors.New("missing chain record")
		}
		return Fatal(err)
	}
	l.chainTag = data[0]

	l.snapMu.Lock()
	l.snap = snap
	l.snapMu.Unlock()

	logger.Info("chain resumed", "height", height, "commitment", commitment.AbbrevString())
	return l.step(eventInit)
}

// BeginBlock opens a block. The context must extend the committed
// version exactly; a mismatch is a protocol error, never a tx result.
func (l *Ledger) BeginBlock(ctx module.BlockContext) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.machine.Is(stateReady) {
		return errors.WithMessagef(ErrLifecycle, "begin block while %s", l.machine.Current())
	}
	height, commitment, _ := l.store.Version()
	if ctx.Height != height+1 {
		return errors.Errorf("begin block: height %d does not extend committed %d", ctx.Height, height)
	}
	if ctx.PrevCommitment != commitment {
		return errors.Errorf("begin block: prev commitment %v does not match committed %v",
			ctx.PrevCommitment.AbbrevString(), commitment.AbbrevString())
	}

	l.snapMu.RLock()
	snap := l.snap
	l.snapMu.RUnlock()

	l.open = &openBlock{
		ctx:   ctx,
		st:    state.New(snap),
		index: newConflictIndex(),
		seen:  make(map[platform.Bytes32]struct{}),
	}
	return l.step(eventOpen)
}

// CheckTx runs mempool admission against the last committed state. It is
// safe for concurrent callers and never observes the open block.
func (l *Ledger) CheckTx(raw []byte) *tx.Receipt {
	snap := l.acquireSnapshot()
	if snap == nil {
		return &tx.Receipt{Code: tx.CodeInternal, Log: "chain not initialized"}
	}
	defer snap.Release()

	env, m, err := l.admit(raw, snap)
	if err != nil {
		return failureReceipt(env, err)
	}
	if err := m.Check(env, snap.Reader(store.Partition(m.Name()))); err != nil {
		return failureReceipt(env, err)
	}
	return &tx.Receipt{ID: env.ID()}
}

// DeliverTx delivers one raw envelope into the open block. The receipt
// records the outcome, including failures; a non-nil error is a protocol
// or fatal condition.
func (l *Ledger) DeliverTx(raw []byte) (*tx.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.machine.Is(stateOpen) {
		return nil, errors.WithMessagef(ErrLifecycle, "deliver tx while %s", l.machine.Current())
	}
	env, m, err := l.admit(raw, l.snap)
	if err != nil {
		return l.recordFailure(env, err), nil
	}
	return l.deliver(env, m, accessOf(m, env))
}

// DeliverBlock delivers an ordered batch. Stateless prevalidation of
// independent dependency groups runs on a worker pool; application is
// strictly submission ordered, so results match one-by-one delivery.
func (l *Ledger) DeliverBlock(txs tx.Transactions) (tx.Receipts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.machine.Is(stateOpen) {
		return nil, errors.WithMessagef(ErrLifecycle, "deliver block while %s", l.machine.Current())
	}

	mods := make([]module.Module, len(txs))
	accesses := make([]*access, len(txs))
	for i, env := range txs {
		m, err := l.reg.Resolve(env.Kind())
		if err != nil {
			continue
		}
		mods[i] = m
		accesses[i] = accessOf(m, env)
	}

	groups := dependencyGroups(accesses)
	co.Parallel(func(enqueue co.Enqueue) {
		for _, group := range groups {
			group := group
			enqueue(func() {
				for _, i := range group {
					if pv, ok := mods[i].(module.Prevalidator); ok {
						// warms the module's effect cache; the outcome
						// surfaces again at Validate
						_ = pv.Prevalidate(txs[i])
					}
				}
			})
		}
	})

	receipts := make(tx.Receipts, 0, len(txs))
	for i, env := range txs {
		var (
			receipt *tx.Receipt
			err     error
		)
		if mods[i] == nil {
			receipt = l.recordFailure(env, module.Reasonf(tx.CodeUnknownModule, "kind %d", env.Kind()))
		} else if err = l.admitEnv(env, l.snap); err != nil {
			receipt = l.recordFailure(env, err)
		} else {
			receipt, err = l.deliver(env, mods[i], accesses[i])
			if err != nil {
				return nil, err
			}
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// EndBlock seals the open block after running every module's finalize
// hook in registration order.
func (l *Ledger) EndBlock() (*EndBlockResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.machine.Is(stateOpen) {
		return nil, errors.WithMessagef(ErrLifecycle, "end block while %s", l.machine.Current())
	}
	b := l.open
	for _, m := range l.reg.All() {
		events, err := m.Finalize(&b.ctx, state.NewView(b.st, store.Partition(m.Name())))
		if err != nil {
			return nil, Fatal(errors.WithMessagef(err, "finalize of module %s", m.Name()))
		}
		b.events = append(b.events, events...)
	}
	if err := l.step(eventSeal); err != nil {
		return nil, err
	}
	return &EndBlockResult{Events: b.events}, nil
}

// Commit atomically persists the sealed block and advances the chain. A
// store failure is fatal: the node must halt rather than diverge.
func (l *Ledger) Commit() (uint64, platform.Bytes32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.machine.Is(stateSealed) {
		return 0, platform.Bytes32{}, errors.WithMessagef(ErrLifecycle, "commit while %s", l.machine.Current())
	}
	b := l.open

	cs := b.st.Changes()
	prevHeight, prev, _ := l.store.Version()
	height := prevHeight + 1

	// an empty block advances the height but leaves the content
	// commitment untouched
	commitment := prev
	if !cs.Empty() {
		digest := cs.Digest()
		commitment = platform.Blake2b(prev.Bytes(), digest.Bytes())
	}

	err := l.store.Commit(cs, height, commitment, func(put func(store.Partition) kv.Putter) error {
		return stageTxLog(put(store.PartitionTxLog), height, b.ids, b.receipts, b.events)
	})
	if err != nil {
		return 0, platform.Bytes32{}, Fatal(err)
	}

	metricBlocksCommitted().Add(1)
	metricBlockTxs().Observe(int64(len(b.receipts)))

	l.refreshSnapshot()
	l.open = nil
	logger.Debug("block committed",
		"height", height, "txs", len(b.receipts), "commitment", commitment.AbbrevString())
	return height, commitment, l.step(eventCommit)
}

// admit runs the module-independent admission checks on a raw envelope.
func (l *Ledger) admit(raw []byte, snap *store.Snapshot) (*tx.Transaction, module.Module, error) {
	if len(raw) > platform.MaxTxSize {
		return nil, nil, module.Reasonf(tx.CodeOversize, "%d bytes over limit %d", len(raw), platform.MaxTxSize)
	}
	env, err := tx.Decode(raw)
	if err != nil {
		return nil, nil, module.NewReason(tx.CodeMalformed, err.Error())
	}
	m, err := l.reg.Resolve(env.Kind())
	if err != nil {
		return env, nil, module.Reasonf(tx.CodeUnknownModule, "kind %d", env.Kind())
	}
	if err := l.admitEnv(env, snap); err != nil {
		return env, m, err
	}
	return env, m, nil
}

// admitEnv checks tag, signature and replay of a decoded envelope.
func (l *Ledger) admitEnv(env *tx.Transaction, snap *store.Snapshot) error {
	if env.ChainTag() != l.chainTag {
		return module.Reasonf(tx.CodeChainTagMismatch, "tag %#x, chain %#x", env.ChainTag(), l.chainTag)
	}
	if _, err := env.Origin(); err != nil {
		return module.NewReason(tx.CodeBadSignature, err.Error())
	}
	known, err := l.knownTx(snap, env.ID())
	if err != nil {
		return err
	}
	if known {
		return module.Reasonf(tx.CodeDuplicateTx, "tx %v already committed", env.ID().AbbrevString())
	}
	return nil
}

// deliver runs the delivery core on an admitted envelope. Caller holds
// the lifecycle lock with the machine in the open state.
func (l *Ledger) deliver(env *tx.Transaction, m module.Module, ac *access) (*tx.Receipt, error) {
	b := l.open
	id := env.ID()

	// a full block rejects without recording, or the result set itself
	// would grow past the cap
	if len(b.receipts) >= platform.MaxBlockTxs {
		return failureReceipt(env, module.Reasonf(tx.CodeBlockFull, "block holds %d txs", len(b.receipts))), nil
	}
	if _, dup := b.seen[id]; dup {
		return l.record(failureReceipt(env, module.Reasonf(tx.CodeDuplicateTx, "tx %v already in block", id.AbbrevString()))), nil
	}
	if holder, ok := b.index.claim(ac, id); !ok {
		return l.record(failureReceipt(env, module.Reasonf(tx.CodeDoubleSpend, "input consumed by %v", holder.AbbrevString()))), nil
	}

	checkpoint := b.st.NewCheckpoint()
	view := state.NewView(b.st, store.Partition(m.Name()))

	var receipt *tx.Receipt
	if err := m.Validate(&b.ctx, env, view); err != nil {
		if module.CodeOf(err) == tx.CodeInternal {
			return nil, Fatal(errors.WithMessagef(err, "validate %v", id))
		}
		b.st.RevertTo(checkpoint)
		b.index.release(ac, id)
		receipt = failureReceipt(env, err)
	} else if applied, err := m.Apply(&b.ctx, env, view); err != nil {
		if module.CodeOf(err) == tx.CodeInternal {
			return nil, Fatal(errors.WithMessagef(err, "apply %v", id))
		}
		b.st.RevertTo(checkpoint)
		b.index.release(ac, id)
		receipt = failureReceipt(env, err)
	} else {
		// a failure receipt keeps the writes the module chose to make,
		// but frees the consumed inputs for later envelopes
		receipt = applied
		if receipt.Failed() {
			b.index.release(ac, id)
		}
	}
	b.seen[id] = struct{}{}
	return l.record(receipt), nil
}

// recordFailure appends an admission failure to the block result set,
// unless the block is full: then it rejects without recording, matching
// deliver, so the result set never grows past the cap.
func (l *Ledger) recordFailure(env *tx.Transaction, err error) *tx.Receipt {
	if len(l.open.receipts) >= platform.MaxBlockTxs {
		return failureReceipt(env, module.Reasonf(tx.CodeBlockFull, "block holds %d txs", len(l.open.receipts)))
	}
	return l.record(failureReceipt(env, err))
}

// record appends a delivery outcome to the block result set.
func (l *Ledger) record(receipt *tx.Receipt) *tx.Receipt {
	b := l.open
	b.ids = append(b.ids, receipt.ID)
	b.receipts = append(b.receipts, receipt)
	metricTxDelivered().AddWithLabel(1, map[string]string{"class": receipt.Code.Class()})
	return receipt
}

// acquireSnapshot returns the committed snapshot with a reference held.
// Callers release it when done reading.
func (l *Ledger) acquireSnapshot() *store.Snapshot {
	l.snapMu.RLock()
	defer l.snapMu.RUnlock()
	if l.snap == nil {
		return nil
	}
	return l.snap.Retain()
}

func (l *Ledger) refreshSnapshot() {
	l.snapMu.Lock()
	if l.snap != nil {
		l.snap.Release()
	}
	l.snap = l.store.Snapshot()
	l.snapMu.Unlock()
}

func failureReceipt(env *tx.Transaction, err error) *tx.Receipt {
	receipt := &tx.Receipt{Code: module.CodeOf(err), Log: err.Error()}
	if env != nil {
		receipt.ID = env.ID()
	}
	return receipt
}
