package service

import (
	"io"
	"log/slog"
	"testing"

	"ledgerbook/domain/orderbook"
	"ledgerbook/infra/storage"
	"ledgerbook/infra/wal"
)

func BenchmarkPlaceOrder(b *testing.B) {
	store, err := storage.Open(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := Open(store, wal.Config{Dir: b.TempDir(), SegmentSize: 64 << 20}, log)
	if err != nil {
		b.Fatal(err)
	}
	defer svc.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Alternating non-crossing placements keep the book from
		// collapsing into one giant level.
		side := orderbook.Bid
		price := orderbook.Price(100)
		if i%2 == 1 {
			side = orderbook.Ask
			price = 200
		}
		if _, err := svc.PlaceOrder("bench", side, price, 1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPlaceAndCancel(b *testing.B) {
	store, err := storage.Open(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := Open(store, wal.Config{Dir: b.TempDir(), SegmentSize: 64 << 20}, log)
	if err != nil {
		b.Fatal(err)
	}
	defer svc.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := svc.PlaceOrder("bench", orderbook.Bid, 100, 1)
		if err != nil {
			b.Fatal(err)
		}
		if err := svc.CancelOrder("bench", r.OrderID); err != nil {
			b.Fatal(err)
		}
	}
}
