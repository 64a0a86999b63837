package orderbook

import "github.com/igrmk/treemap/v2"

// bookSide is one side of the book: an ordered map from encoded price key
// to price level. The key encoding (see PriceKey) makes ascending
// iteration visit the best price first on both sides.
type bookSide struct {
	side   Side
	levels *treemap.TreeMap[uint64, *Level]
}

func newBookSide(s Side) *bookSide {
	return &bookSide{
		side:   s,
		levels: treemap.New[uint64, *Level](),
	}
}

// Best returns the best-priced level, i.e. the first key in iteration
// order.
func (b *bookSide) Best() (Price, *Level, bool) {
	it := b.levels.Iterator()
	if !it.Valid() {
		return 0, nil, false
	}
	return PriceFromKey(b.side, it.Key()), it.Value(), true
}

// Get returns the level at price, if any.
func (b *bookSide) Get(p Price) (*Level, bool) {
	return b.levels.Get(PriceKey(b.side, p))
}

// GetOrCreate returns the level at price, inserting an empty one if the
// price has no resting orders yet.
func (b *bookSide) GetOrCreate(p Price) *Level {
	key := PriceKey(b.side, p)
	if lvl, ok := b.levels.Get(key); ok {
		return lvl
	}
	lvl := &Level{}
	b.levels.Set(key, lvl)
	return lvl
}

// RemoveIfEmpty drops the level at price once it has been drained, so
// empty levels never linger to corrupt best-price discovery.
func (b *bookSide) RemoveIfEmpty(p Price) {
	key := PriceKey(b.side, p)
	if lvl, ok := b.levels.Get(key); ok && lvl.Empty() {
		b.levels.Del(key)
	}
}

// Len is the number of non-empty price levels on this side.
func (b *bookSide) Len() int {
	return b.levels.Len()
}

// Walk visits levels from best to worst price until fn returns false.
func (b *bookSide) Walk(fn func(p Price, lvl *Level) bool) {
	for it := b.levels.Iterator(); it.Valid(); it.Next() {
		if !fn(PriceFromKey(b.side, it.Key()), it.Value()) {
			return
		}
	}
}
