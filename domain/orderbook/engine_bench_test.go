package orderbook

import "testing"

func BenchmarkEnginePlaceResting(b *testing.B) {
	e := NewEngine()
	st := NopStore{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		price := Price(100 + i%64)
		if _, _, err := e.Place(st, "bench", Bid, price, 1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngineCrossingFlow(b *testing.B) {
	e := NewEngine()
	st := NopStore{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := e.Place(st, "maker", Bid, 100, 1); err != nil {
			b.Fatal(err)
		}
		if _, _, err := e.Place(st, "taker", Ask, 100, 1); err != nil {
			b.Fatal(err)
		}
	}
}
