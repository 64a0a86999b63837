package storage

import (
	"encoding/binary"
	"errors"

	"github.com/cockroachdb/pebble"
)

// OutboxState tracks a trade's journey to the broker.
type OutboxState uint8

const (
	StatePending OutboxState = iota
	StateSent
	StateFailed
)

func (s OutboxState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateSent:
		return "SENT"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// OutboxRecord is one staged trade event.
// binary encoding: [state:1][retries:4][payload]
type OutboxRecord struct {
	State   OutboxState
	Retries uint32
	Payload []byte
}

func encodeOutboxRecord(r OutboxRecord) []byte {
	buf := make([]byte, 0, 1+4+len(r.Payload))
	buf = append(buf, byte(r.State))
	buf = binary.BigEndian.AppendUint32(buf, r.Retries)
	buf = append(buf, r.Payload...)
	return buf
}

func decodeOutboxRecord(b []byte) (OutboxRecord, error) {
	if len(b) < 5 {
		return OutboxRecord{}, errors.New("storage: malformed outbox record")
	}
	return OutboxRecord{
		State:   OutboxState(b[0]),
		Retries: binary.BigEndian.Uint32(b[1:5]),
		Payload: append([]byte(nil), b[5:]...),
	}, nil
}

// ScanPending iterates pending trades in commit order. Keys embed the
// request seq, so iteration order is publish order.
func (s *Store) ScanPending(fn func(key []byte, rec OutboxRecord) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixOutbox,
		UpperBound: prefixEnd(prefixOutbox),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeOutboxRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != StatePending {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		if err := fn(key, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// MarkSent flips a record to SENT and is immediately followed by
// DeleteOutbox in the happy path; keeping the intermediate state on
// disk makes a crash between send and cleanup observable.
func (s *Store) MarkSent(key []byte) error {
	return s.updateOutboxState(key, StateSent, false)
}

// MarkFailed bumps the retry counter and leaves the record PENDING so
// the next sweep retries it.
func (s *Store) MarkFailed(key []byte) error {
	return s.updateOutboxState(key, StatePending, true)
}

func (s *Store) updateOutboxState(key []byte, state OutboxState, bumpRetries bool) error {
	val, closer, err := s.db.Get(key)
	if err != nil {
		return err
	}
	rec, err := decodeOutboxRecord(val)
	closer.Close()
	if err != nil {
		return err
	}

	rec.State = state
	if bumpRetries {
		rec.Retries++
	}
	return s.db.Set(key, encodeOutboxRecord(rec), pebble.Sync)
}

// MarkDead parks a record in FAILED so sweeps stop retrying it. Used
// once the retry budget is spent.
func (s *Store) MarkDead(key []byte) error {
	return s.updateOutboxState(key, StateFailed, false)
}

// DeleteOutbox removes a published record.
func (s *Store) DeleteOutbox(key []byte) error {
	return s.db.Delete(key, pebble.Sync)
}
