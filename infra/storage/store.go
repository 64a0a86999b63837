package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"

	"ledgerbook/domain/orderbook"
)

// Store is the durable mirror of the in-memory book. Every request's
// mutations land in one pebble batch committed with pebble.Sync, so a
// request is either fully on disk or not at all.
type Store struct {
	db *pebble.DB
}

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // we WANT durability
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// State is the full persisted book as read at startup.
type State struct {
	NextOrderID orderbook.OrderID
	AppliedSeq  uint64
	Orders      map[orderbook.OrderID]orderbook.OrderInfo
	Bids        []orderbook.LevelEntry
	Asks        []orderbook.LevelEntry
}

// Load reads everything back. Level entries come out in key order,
// which is best-price-first and FIFO within a level, exactly the order
// Restore expects. The account index mirror is not read here; the
// engine derives its index from the registry.
func (s *Store) Load() (*State, error) {
	st := &State{
		Orders: make(map[orderbook.OrderID]orderbook.OrderInfo),
	}

	var err error
	if st.NextOrderID, err = s.loadOrderID(); err != nil {
		return nil, err
	}
	if st.AppliedSeq, err = s.loadAppliedSeq(); err != nil {
		return nil, err
	}
	if err = s.loadOrders(st.Orders); err != nil {
		return nil, err
	}
	if st.Bids, err = s.loadSide(orderbook.Bid); err != nil {
		return nil, err
	}
	if st.Asks, err = s.loadSide(orderbook.Ask); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) loadOrderID() (orderbook.OrderID, error) {
	v, err := s.getUint64(keyNextOrderID)
	if err != nil {
		return 0, err
	}
	return orderbook.OrderID(v), nil
}

func (s *Store) loadAppliedSeq() (uint64, error) {
	return s.getUint64(keyAppliedSeq)
}

func (s *Store) getUint64(key []byte) (uint64, error) {
	val, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	if len(val) != 8 {
		return 0, fmt.Errorf("storage: malformed counter at %q", key)
	}
	return binary.BigEndian.Uint64(val), nil
}

func (s *Store) loadOrders(out map[orderbook.OrderID]orderbook.OrderInfo) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixOrders,
		UpperBound: prefixEnd(prefixOrders),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := parseOrderKey(iter.Key())
		if err != nil {
			return err
		}
		info, err := decodeOrderInfo(iter.Value())
		if err != nil {
			return err
		}
		out[id] = info
	}
	return iter.Error()
}

// AccountOrders scans the account index mirror for one account's
// resting order ids, in ascending id order. Meant for operational
// inspection; live queries go through the engine.
func (s *Store) AccountOrders(account orderbook.AccountID) ([]orderbook.OrderID, error) {
	prefix := make([]byte, 0, 2+len(account)+1)
	prefix = append(prefix, prefixAccount...)
	prefix = append(prefix, account...)
	prefix = append(prefix, '/')
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []orderbook.OrderID
	for iter.First(); iter.Valid(); iter.Next() {
		k := iter.Key()
		if len(k) < 8 {
			return nil, fmt.Errorf("storage: malformed account index key %q", k)
		}
		out = append(out, orderbook.OrderID(binary.BigEndian.Uint64(k[len(k)-8:])))
	}
	return out, iter.Error()
}

func (s *Store) loadSide(side orderbook.Side) ([]orderbook.LevelEntry, error) {
	prefix := sidePrefix(side)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []orderbook.LevelEntry
	for iter.First(); iter.Valid(); iter.Next() {
		price, id, err := parseLevelEntryKey(side, iter.Key())
		if err != nil {
			return nil, err
		}
		e, err := decodeLevelEntry(id, iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, orderbook.LevelEntry{Price: price, Entry: e})
	}
	return out, iter.Error()
}
