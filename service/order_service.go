package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ledgerbook/domain/orderbook"
	"ledgerbook/infra/sequence"
	"ledgerbook/infra/storage"
	"ledgerbook/infra/wal"
)

// ErrHalted is returned once a commit failure has left memory ahead of
// disk. The process must restart and recover; accepting more writes
// would fork the two copies of the book.
var ErrHalted = errors.New("service: halted after storage fault, restart required")

// OrderService owns the single write path: validate, assign seq,
// journal, apply to the engine while staging the durable mirror, commit.
// One mutex serializes writers so replay order equals execution order.
type OrderService struct {
	mu    sync.RWMutex
	log   *slog.Logger
	store *storage.Store
	wal   *wal.WAL
	seq   *sequence.Sequencer

	engine      *orderbook.Engine
	lastApplied uint64
	halted      bool
}

// Open loads the persisted book, replays the journal tail past the
// durable applied seq, and returns a service ready for traffic.
func Open(store *storage.Store, walCfg wal.Config, log *slog.Logger) (*OrderService, error) {
	st, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("service: load state: %w", err)
	}

	engine := orderbook.NewEngine()
	engine.Restore(&orderbook.RestoreState{
		NextOrderID: st.NextOrderID,
		Orders:      st.Orders,
		Bids:        st.Bids,
		Asks:        st.Asks,
	})

	s := &OrderService{
		log:         log,
		store:       store,
		engine:      engine,
		lastApplied: st.AppliedSeq,
	}

	lastSeq, err := wal.Replay(walCfg.Dir, s.replayRecord)
	if err != nil {
		return nil, fmt.Errorf("service: replay journal: %w", err)
	}
	if lastSeq < st.AppliedSeq {
		lastSeq = st.AppliedSeq
	}
	s.seq = sequence.New(lastSeq)

	journal, err := wal.Open(walCfg)
	if err != nil {
		return nil, fmt.Errorf("service: open journal: %w", err)
	}
	s.wal = journal

	log.Info("order service recovered",
		"applied_seq", s.lastApplied,
		"journal_seq", lastSeq,
		"open_orders", engine.OrderCount(),
		"next_order_id", engine.NextOrderID())
	return s, nil
}

// replayRecord re-applies one journaled request during recovery.
// Requests at or below the durable applied seq are already in the
// store. Requests that failed validation the first time fail the same
// way again and are skipped, exactly as they were live.
func (s *OrderService) replayRecord(rec *wal.Record) error {
	if rec.Seq <= s.lastApplied {
		return nil
	}

	req, err := decodeRequest(rec)
	if err != nil {
		return err
	}

	batch := s.store.NewBatch(rec.Seq)
	if _, err := s.apply(batch, rec.Type, req); err != nil {
		_ = batch.Close()
		if orderbook.IsUserError(err) {
			s.log.Debug("replay skipped rejected request", "seq", rec.Seq, "err", err)
			return nil
		}
		return err
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	_ = batch.Close()
	s.lastApplied = rec.Seq
	return nil
}

// apply runs one request against the engine with all mutations staged
// into batch. It never commits; the caller decides.
func (s *OrderService) apply(batch *storage.Batch, t wal.RecordType, req Request) (Receipt, error) {
	switch t {
	case wal.RecordPlace:
		id, trades, err := s.engine.Place(batch, req.Account, req.Side, req.Price, req.Amount)
		if err != nil {
			return Receipt{}, err
		}
		return Receipt{OrderID: id, Trades: trades}, nil
	case wal.RecordCancel:
		return Receipt{OrderID: req.OrderID}, s.engine.Cancel(batch, req.Account, req.OrderID)
	case wal.RecordModify:
		return Receipt{OrderID: req.OrderID}, s.engine.Modify(batch, req.Account, req.OrderID, req.NewAmount)
	default:
		return Receipt{}, fmt.Errorf("service: unknown record type %d", t)
	}
}

// execute is the write path shared by place, cancel and modify.
func (s *OrderService) execute(t wal.RecordType, req Request) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return Receipt{}, ErrHalted
	}

	data, err := encodeRequest(req)
	if err != nil {
		return Receipt{}, err
	}

	seq := s.seq.Next()
	if err := s.wal.Append(wal.NewRecord(t, seq, data)); err != nil {
		// The failed append may have left torn bytes in the segment.
		// Appending more records behind them would make replay stop at
		// the tear and silently drop everything after it, so no more
		// writes until a restart reopens the journal and truncates the
		// tear away.
		s.halted = true
		s.log.Error("journal append failed, halting writes", "seq", seq, "err", err)
		return Receipt{}, fmt.Errorf("service: journal append: %w", err)
	}

	batch := s.store.NewBatch(seq)
	receipt, err := s.apply(batch, t, req)
	if err != nil {
		// Validation failures leave the engine untouched.
		_ = batch.Close()
		return Receipt{}, err
	}

	if err := batch.Commit(); err != nil {
		s.halted = true
		s.log.Error("state commit failed, halting writes", "seq", seq, "err", err)
		return Receipt{}, fmt.Errorf("service: commit seq %d: %w", seq, err)
	}
	_ = batch.Close()
	s.lastApplied = seq
	return receipt, nil
}

func (s *OrderService) PlaceOrder(account orderbook.AccountID, side orderbook.Side, price orderbook.Price, amount orderbook.Amount) (Receipt, error) {
	return s.execute(wal.RecordPlace, Request{
		Account: account,
		Side:    side,
		Price:   price,
		Amount:  amount,
	})
}

func (s *OrderService) CancelOrder(account orderbook.AccountID, id orderbook.OrderID) error {
	_, err := s.execute(wal.RecordCancel, Request{Account: account, OrderID: id})
	return err
}

func (s *OrderService) ModifyOrder(account orderbook.AccountID, id orderbook.OrderID, newAmount orderbook.Amount) error {
	_, err := s.execute(wal.RecordModify, Request{
		Account:   account,
		OrderID:   id,
		NewAmount: newAmount,
	})
	return err
}

func (s *OrderService) BestBid() (orderbook.Price, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.BestBid()
}

func (s *OrderService) BestAsk() (orderbook.Price, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.BestAsk()
}

func (s *OrderService) Order(id orderbook.OrderID) (orderbook.OrderInfo, orderbook.Amount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Order(id)
}

func (s *OrderService) OrdersOf(account orderbook.AccountID) []orderbook.OrderID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.OrdersOf(account)
}

func (s *OrderService) Depth(limit int) (bids, asks []orderbook.DepthLevel, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Depth(limit)
}

func (s *OrderService) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.OrderCount()
}

// AppliedSeq is the seq of the last durably committed request.
func (s *OrderService) AppliedSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastApplied
}

// TruncateJournal drops journal segments fully covered by the durable
// state. Run periodically; losing a run only means a longer replay.
func (s *OrderService) TruncateJournal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.TruncateBefore(s.lastApplied)
}

func (s *OrderService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.Close()
}
