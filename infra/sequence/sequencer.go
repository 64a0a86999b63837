package sequence

import "sync/atomic"

// Sequencer issues strictly monotonic request sequence numbers. Every
// accepted request gets one before it is journaled, and the last durably
// applied value is persisted with the request's state batch, so replay
// can resume exactly where the store left off.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer that has already issued every value up to and
// including start.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset moves the sequencer to v. Only recovery may call this, after
// replaying the journal.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}
