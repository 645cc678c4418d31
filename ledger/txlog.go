// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/chinyuchan/platform/kv"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/store"
	"github.com/chinyuchan/platform/tx"
)

// The transaction log lives in its own reserved partition, written in the
// same batch as the block changeset but excluded from the changeset
// digest: receipts record outcomes, they are not ledger content.

// txRecord is the stored form of one finalized receipt.
type txRecord struct {
	Height  uint64
	Receipt *tx.Receipt
}

// blockRecord is the stored index of one committed block.
type blockRecord struct {
	TxIDs        []platform.Bytes32
	EventsDigest platform.Bytes32
}

func keyTxRecord(id platform.Bytes32) []byte {
	return append([]byte("r/"), id.Bytes()...)
}

// keyAnonTxRecord keys a receipt whose envelope had no recoverable ID.
// Position in the block disambiguates; a shared zero-ID key would let
// later receipts overwrite earlier ones.
func keyAnonTxRecord(height uint64, index int) []byte {
	key := make([]byte, 2, 2+16)
	key[0], key[1] = 'n', '/'
	key = binary.BigEndian.AppendUint64(key, height)
	return binary.BigEndian.AppendUint64(key, uint64(index))
}

func keyBlockRecord(height uint64) []byte {
	key := make([]byte, 2, 2+8)
	key[0], key[1] = 'b', '/'
	return binary.BigEndian.AppendUint64(key, height)
}

// stageTxLog writes the block's receipts and index into the commit batch.
func stageTxLog(put kv.Putter, height uint64, ids []platform.Bytes32, receipts tx.Receipts, events tx.Events) error {
	for i, receipt := range receipts {
		data, err := rlp.EncodeToBytes(&txRecord{Height: height, Receipt: receipt})
		if err != nil {
			return err
		}
		key := keyTxRecord(ids[i])
		if ids[i].IsZero() {
			key = keyAnonTxRecord(height, i)
		}
		if err := put.Put(key, data); err != nil {
			return err
		}
	}
	data, err := rlp.EncodeToBytes(&blockRecord{TxIDs: ids, EventsDigest: events.Digest()})
	if err != nil {
		return err
	}
	return put.Put(keyBlockRecord(height), data)
}

// GetReceipt returns the finalized receipt of a transaction and the
// height it was delivered at. ok is false for an unknown ID.
func (l *Ledger) GetReceipt(id platform.Bytes32) (*tx.Receipt, uint64, bool, error) {
	snap := l.acquireSnapshot()
	if snap == nil {
		return nil, 0, false, errors.New("chain not initialized")
	}
	defer snap.Release()

	data, ok, err := snap.Get(store.PartitionTxLog, keyTxRecord(id))
	if err != nil || !ok {
		return nil, 0, false, err
	}
	var rec txRecord
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return nil, 0, false, errors.Wrap(err, "decode tx record")
	}
	return rec.Receipt, rec.Height, true, nil
}

// BlockReceipts returns the receipts of a committed block in delivery
// order.
func (l *Ledger) BlockReceipts(height uint64) (tx.Receipts, error) {
	snap := l.acquireSnapshot()
	if snap == nil {
		return nil, errors.New("chain not initialized")
	}
	defer snap.Release()

	data, ok, err := snap.Get(store.PartitionTxLog, keyBlockRecord(height))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("no block at height %d", height)
	}
	var block blockRecord
	if err := rlp.DecodeBytes(data, &block); err != nil {
		return nil, errors.Wrap(err, "decode block record")
	}

	receipts := make(tx.Receipts, 0, len(block.TxIDs))
	for i, id := range block.TxIDs {
		key := keyTxRecord(id)
		if id.IsZero() {
			key = keyAnonTxRecord(height, i)
		}
		data, ok, err := snap.Get(store.PartitionTxLog, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Errorf("missing receipt %d of block %d", i, height)
		}
		var rec txRecord
		if err := rlp.DecodeBytes(data, &rec); err != nil {
			return nil, errors.Wrap(err, "decode tx record")
		}
		receipts = append(receipts, rec.Receipt)
	}
	return receipts, nil
}

// knownTx reports whether the transaction was already delivered in a
// committed block.
func (l *Ledger) knownTx(snap *store.Snapshot, id platform.Bytes32) (bool, error) {
	_, ok, err := snap.Get(store.PartitionTxLog, keyTxRecord(id))
	return ok, err
}
