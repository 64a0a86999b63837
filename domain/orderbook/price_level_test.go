package orderbook

import "testing"

func TestLevelFIFO(t *testing.T) {
	lvl := &Level{}
	lvl.PushBack(Entry{Amount: 1, Account: "a", OrderID: 1})
	lvl.PushBack(Entry{Amount: 2, Account: "b", OrderID: 2})

	front, ok := lvl.Front()
	if !ok || front.OrderID != 1 {
		t.Fatalf("expected order 1 at front, got %+v", front)
	}

	lvl.ReduceFront(1)
	front, ok = lvl.Front()
	if !ok || front.OrderID != 2 {
		t.Fatalf("expected order 2 at front after drain, got %+v", front)
	}
}

func TestLevelReduceFrontPartial(t *testing.T) {
	lvl := &Level{}
	lvl.PushBack(Entry{Amount: 5, Account: "a", OrderID: 1})

	dropped := lvl.ReduceFront(3)
	if len(dropped) != 0 {
		t.Fatalf("partial reduce should not drop, got %d", len(dropped))
	}
	front, _ := lvl.Front()
	if front.Amount != 2 {
		t.Fatalf("expected remaining 2, got %d", front.Amount)
	}
}

func TestLevelZeroKeepsNonFrontTombstone(t *testing.T) {
	lvl := &Level{}
	lvl.PushBack(Entry{Amount: 1, Account: "a", OrderID: 1})
	lvl.PushBack(Entry{Amount: 1, Account: "b", OrderID: 2})
	lvl.PushBack(Entry{Amount: 1, Account: "c", OrderID: 3})

	if _, ok := lvl.Zero(2); !ok {
		t.Fatal("zero of present entry failed")
	}
	if got := lvl.DropFrontZeros(); len(got) != 0 {
		t.Fatalf("live front must not be swept, dropped %d", len(got))
	}
	if lvl.Len() != 3 || lvl.LiveCount() != 2 {
		t.Fatalf("expected 3 physical / 2 live, got %d / %d", lvl.Len(), lvl.LiveCount())
	}
}

func TestLevelTombstoneSweptAtFront(t *testing.T) {
	lvl := &Level{}
	lvl.PushBack(Entry{Amount: 1, Account: "a", OrderID: 1})
	lvl.PushBack(Entry{Amount: 1, Account: "b", OrderID: 2})
	lvl.PushBack(Entry{Amount: 1, Account: "c", OrderID: 3})
	lvl.Zero(2)

	// Consuming order 1 must sweep the tombstone for order 2 with it.
	dropped := lvl.ReduceFront(1)
	if len(dropped) != 2 || dropped[0].OrderID != 1 || dropped[1].OrderID != 2 {
		t.Fatalf("expected orders 1 and 2 dropped, got %+v", dropped)
	}
	front, ok := lvl.Front()
	if !ok || front.OrderID != 3 {
		t.Fatalf("expected order 3 at front, got %+v", front)
	}
}

func TestLevelEmptyAfterDrain(t *testing.T) {
	lvl := &Level{}
	lvl.PushBack(Entry{Amount: 4, Account: "a", OrderID: 7})
	lvl.Zero(7)
	lvl.DropFrontZeros()
	if !lvl.Empty() {
		t.Fatal("level should be empty after draining its only entry")
	}
}

func TestLevelTotal(t *testing.T) {
	lvl := &Level{}
	lvl.PushBack(Entry{Amount: 4, Account: "a", OrderID: 1})
	lvl.PushBack(Entry{Amount: 6, Account: "b", OrderID: 2})
	lvl.Zero(2)

	total, err := lvl.Total()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected live total 4, got %d", total)
	}
}
