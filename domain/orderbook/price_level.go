package orderbook

// Level holds all resting orders at one price, oldest first. The
// front-to-back order never changes after insertion: new orders append,
// and cancelling an entry that is not at the front zeroes its amount in
// place instead of shifting the queue. Zeroed entries are dropped lazily
// once they reach the front.
type Level struct {
	entries []Entry
}

// PushBack appends a live entry at the back of the queue.
func (l *Level) PushBack(e Entry) {
	l.entries = append(l.entries, e)
}

// Front returns the oldest entry still in the queue. Callers that need a
// live entry must run DropFrontZeros first.
func (l *Level) Front() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[0], true
}

// ReduceFront decrements the front entry's amount by qty. If the front
// reaches zero it is dropped together with any zeroed entries queued
// behind it; the removed entries are returned so the caller can erase
// their persisted keys. qty must not exceed the front amount.
func (l *Level) ReduceFront(qty Amount) []Entry {
	if len(l.entries) == 0 || qty > l.entries[0].Amount {
		panic("orderbook: ReduceFront beyond front amount")
	}
	l.entries[0].Amount -= qty
	if l.entries[0].Amount == 0 {
		return l.DropFrontZeros()
	}
	return nil
}

// DropFrontZeros removes leading zero-amount entries until the front is
// live or the level is empty, returning what was removed.
func (l *Level) DropFrontZeros() []Entry {
	var dropped []Entry
	for len(l.entries) > 0 && l.entries[0].Amount == 0 {
		dropped = append(dropped, l.entries[0])
		l.entries = l.entries[1:]
	}
	return dropped
}

// SetAmount overwrites the amount of the entry for id, keeping its queue
// position. It returns the updated entry.
func (l *Level) SetAmount(id OrderID, amount Amount) (Entry, bool) {
	for i := range l.entries {
		if l.entries[i].OrderID == id {
			l.entries[i].Amount = amount
			return l.entries[i], true
		}
	}
	return Entry{}, false
}

// Zero marks the entry for id as cancelled. The entry stays in the queue
// unless it is at the front, in which case the caller's DropFrontZeros
// sweep removes it.
func (l *Level) Zero(id OrderID) (Entry, bool) {
	return l.SetAmount(id, 0)
}

// Amount returns the remaining amount of the entry for id.
func (l *Level) Amount(id OrderID) (Amount, bool) {
	for i := range l.entries {
		if l.entries[i].OrderID == id {
			return l.entries[i].Amount, true
		}
	}
	return 0, false
}

// Empty reports whether every entry, live or zeroed, has been consumed.
// An empty level must be removed from its book side.
func (l *Level) Empty() bool {
	return len(l.entries) == 0
}

// Len is the physical queue length, tombstones included.
func (l *Level) Len() int {
	return len(l.entries)
}

// Total sums the live amounts in the level.
func (l *Level) Total() (Amount, error) {
	var total Amount
	var err error
	for i := range l.entries {
		total, err = total.Add(l.entries[i].Amount)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// LiveCount is the number of entries with a non-zero amount.
func (l *Level) LiveCount() int {
	n := 0
	for i := range l.entries {
		if l.entries[i].Amount > 0 {
			n++
		}
	}
	return n
}

// Entries returns a copy of the queue, front first.
func (l *Level) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
