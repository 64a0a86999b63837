package storage

import (
	"encoding/binary"
	"encoding/json"

	"github.com/cockroachdb/pebble"

	"ledgerbook/domain/orderbook"
)

// Batch collects every mutation of one request. It implements
// orderbook.BookStore; the interface has no error returns, so the first
// staging failure is captured and surfaces at Commit.
type Batch struct {
	b      *pebble.Batch
	seq    uint64
	trades uint32
	err    error
}

// NewBatch opens a batch for the request with the given seq. The
// applied-seq marker is staged up front so committing the batch always
// advances it.
func (s *Store) NewBatch(seq uint64) *Batch {
	b := &Batch{b: s.db.NewBatch(), seq: seq}
	b.setUint64(keyAppliedSeq, seq)
	return b
}

func (b *Batch) setUint64(key []byte, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b.set(key, buf[:])
}

func (b *Batch) set(key, val []byte) {
	if b.err != nil {
		return
	}
	b.err = b.b.Set(key, val, nil)
}

func (b *Batch) delete(key []byte) {
	if b.err != nil {
		return
	}
	b.err = b.b.Delete(key, nil)
}

func (b *Batch) SetNextOrderID(id orderbook.OrderID) {
	b.setUint64(keyNextOrderID, uint64(id))
}

func (b *Batch) PutOrder(id orderbook.OrderID, info orderbook.OrderInfo) {
	b.set(orderKey(id), encodeOrderInfo(info))
}

func (b *Batch) DeleteOrder(id orderbook.OrderID) {
	b.delete(orderKey(id))
}

func (b *Batch) PutAccountOrder(account orderbook.AccountID, id orderbook.OrderID) {
	b.set(accountOrderKey(account, id), nil)
}

func (b *Batch) DeleteAccountOrder(account orderbook.AccountID, id orderbook.OrderID) {
	b.delete(accountOrderKey(account, id))
}

func (b *Batch) PutLevelEntry(side orderbook.Side, price orderbook.Price, e orderbook.Entry) {
	b.set(levelEntryKey(side, price, e.OrderID), encodeLevelEntry(e))
}

func (b *Batch) DeleteLevelEntry(side orderbook.Side, price orderbook.Price, id orderbook.OrderID) {
	b.delete(levelEntryKey(side, price, id))
}

// AppendTrade stages the trade into the outbox in StatePending. The
// broadcaster picks it up only after the batch commits, so no trade is
// ever published before the fills that produced it are durable.
func (b *Batch) AppendTrade(t orderbook.Trade) {
	if b.err != nil {
		return
	}
	payload, err := json.Marshal(t)
	if err != nil {
		b.err = err
		return
	}
	b.set(outboxKey(b.seq, b.trades), encodeOutboxRecord(OutboxRecord{
		State:   StatePending,
		Payload: payload,
	}))
	b.trades++
}

// Commit writes the batch with fsync. A staging error aborts the
// commit; the batch is closed either way.
func (b *Batch) Commit() error {
	if b.err != nil {
		_ = b.b.Close()
		return b.err
	}
	return b.b.Commit(pebble.Sync)
}

// Close discards an uncommitted batch.
func (b *Batch) Close() error {
	return b.b.Close()
}
