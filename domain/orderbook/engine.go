package orderbook

import (
	"math"
	"sort"
)

// Engine is the matching core for one trading pair: two book sides, the
// order registry, the per-account order index, and the order id counter.
//
// It is strictly single-writer and deterministic: every operation is a
// pure function of (current state, request), with no clocks, randomness
// or I/O inside the matching loop. All validation happens before any
// state is written; once the crossing loop starts reducing resting
// orders, every step it commits is a valid book state on its own and is
// never unwound.
type Engine struct {
	bids     *bookSide
	asks     *bookSide
	orders   map[OrderID]OrderInfo
	accounts map[AccountID]map[OrderID]struct{}
	nextID   OrderID
}

func NewEngine() *Engine {
	return &Engine{
		bids:     newBookSide(Bid),
		asks:     newBookSide(Ask),
		orders:   make(map[OrderID]OrderInfo),
		accounts: make(map[AccountID]map[OrderID]struct{}),
	}
}

func (e *Engine) sideBook(s Side) *bookSide {
	if s == Bid {
		return e.bids
	}
	return e.asks
}

// crosses reports whether an incoming order at takerPrice is compatible
// with a resting order at makerPrice on the opposite side.
func crosses(taker Side, takerPrice, makerPrice Price) bool {
	if taker == Bid {
		return takerPrice >= makerPrice
	}
	return takerPrice <= makerPrice
}

func (e *Engine) allocateOrderID(st BookStore) (OrderID, error) {
	if e.nextID == math.MaxUint64 {
		return 0, ErrOrderIDExhausted
	}
	id := e.nextID
	e.nextID++
	st.SetNextOrderID(e.nextID)
	return id, nil
}

func (e *Engine) register(st BookStore, id OrderID, info OrderInfo) {
	e.orders[id] = info
	set := e.accounts[info.Account]
	if set == nil {
		set = make(map[OrderID]struct{})
		e.accounts[info.Account] = set
	}
	set[id] = struct{}{}
	st.PutOrder(id, info)
	st.PutAccountOrder(info.Account, id)
}

func (e *Engine) unregister(st BookStore, id OrderID) {
	info, ok := e.orders[id]
	if !ok {
		panic("orderbook: unregister of unknown order")
	}
	delete(e.orders, id)
	if set := e.accounts[info.Account]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(e.accounts, info.Account)
		}
	}
	st.DeleteOrder(id)
	st.DeleteAccountOrder(info.Account, id)
}

// Place validates the order, crosses it against the opposite side while
// prices overlap, and rests any remainder at its own price. Each fill
// executes at the resting (maker) order's price. The assigned id is
// returned even when the order matched in full and nothing rests.
func (e *Engine) Place(st BookStore, account AccountID, side Side, price Price, amount Amount) (OrderID, []Trade, error) {
	if amount == 0 {
		return 0, nil, ErrInvalidAmount
	}
	if price == 0 {
		return 0, nil, ErrInvalidPrice
	}

	id, err := e.allocateOrderID(st)
	if err != nil {
		return 0, nil, err
	}

	var trades []Trade
	oppSide := side.Opposite()
	opp := e.sideBook(oppSide)

	for amount > 0 {
		makerPrice, level, ok := opp.Best()
		if !ok || !crosses(side, price, makerPrice) {
			break
		}

		maker, ok := level.Front()
		if !ok || maker.Amount == 0 {
			// Resting levels always keep a live front; cleanup sweeps
			// run after every mutation.
			panic("orderbook: dead front on resting level")
		}

		qty := minAmount(amount, maker.Amount)
		amount -= qty

		dropped := level.ReduceFront(qty)
		if len(dropped) > 0 {
			// The maker is fully filled; entries behind it in the
			// dropped set are tombstones unregistered at cancel time.
			for _, d := range dropped {
				st.DeleteLevelEntry(oppSide, makerPrice, d.OrderID)
			}
			e.unregister(st, maker.OrderID)
			opp.RemoveIfEmpty(makerPrice)
		} else {
			st.PutLevelEntry(oppSide, makerPrice, Entry{
				Amount:  maker.Amount - qty,
				Account: maker.Account,
				OrderID: maker.OrderID,
			})
		}

		t := Trade{
			MakerOrderID: maker.OrderID,
			TakerOrderID: id,
			MakerAccount: maker.Account,
			TakerAccount: account,
			Price:        makerPrice,
			Quantity:     qty,
		}
		trades = append(trades, t)
		st.AppendTrade(t)
	}

	if amount > 0 {
		info := OrderInfo{Price: price, Side: side, Account: account}
		e.register(st, id, info)
		entry := Entry{Amount: amount, Account: account, OrderID: id}
		e.sideBook(side).GetOrCreate(price).PushBack(entry)
		st.PutLevelEntry(side, price, entry)
	}

	return id, trades, nil
}

// Cancel removes all resting liquidity of the order in the same request,
// or fails outright. There is no cancel-in-flight state.
func (e *Engine) Cancel(st BookStore, account AccountID, id OrderID) error {
	info, ok := e.orders[id]
	if !ok {
		return ErrOrderNotPresent
	}
	if info.Account != account {
		return ErrWrongOwnerOfOrder
	}
	e.removeResting(st, id, info)
	return nil
}

// Modify shrinks a resting order's amount in place, keeping its
// price-time priority. newAmount must be strictly smaller than the
// resting amount; zero degenerates into cancellation.
func (e *Engine) Modify(st BookStore, account AccountID, id OrderID, newAmount Amount) error {
	info, ok := e.orders[id]
	if !ok {
		return ErrOrderNotPresent
	}
	if info.Account != account {
		return ErrWrongOwnerOfOrder
	}

	level, ok := e.sideBook(info.Side).Get(info.Price)
	if !ok {
		panic("orderbook: registered order has no level")
	}
	current, ok := level.Amount(id)
	if !ok {
		panic("orderbook: registered order missing from level")
	}
	if newAmount >= current {
		return ErrTooLargeModifyOrder
	}
	if newAmount == 0 {
		e.removeResting(st, id, info)
		return nil
	}

	entry, _ := level.SetAmount(id, newAmount)
	st.PutLevelEntry(info.Side, info.Price, entry)
	return nil
}

// removeResting zeroes the order's level entry, sweeps the front, drops
// the level if drained, and unregisters the order. The caller has
// already authorized the removal.
func (e *Engine) removeResting(st BookStore, id OrderID, info OrderInfo) {
	side := e.sideBook(info.Side)
	level, ok := side.Get(info.Price)
	if !ok {
		panic("orderbook: registered order has no level")
	}
	entry, ok := level.Zero(id)
	if !ok {
		panic("orderbook: registered order missing from level")
	}

	swept := false
	for _, d := range level.DropFrontZeros() {
		st.DeleteLevelEntry(info.Side, info.Price, d.OrderID)
		if d.OrderID == id {
			swept = true
		}
	}
	if !swept {
		// Not at the front: the zeroed entry stays as a tombstone until
		// the queue ahead of it drains.
		st.PutLevelEntry(info.Side, info.Price, entry)
	}
	side.RemoveIfEmpty(info.Price)
	e.unregister(st, id)
}

// BestBid returns the highest bid price with resting liquidity.
func (e *Engine) BestBid() (Price, bool) {
	p, _, ok := e.bids.Best()
	return p, ok
}

// BestAsk returns the lowest ask price with resting liquidity.
func (e *Engine) BestAsk() (Price, bool) {
	p, _, ok := e.asks.Best()
	return p, ok
}

// Order returns the registry record and remaining amount for id.
func (e *Engine) Order(id OrderID) (OrderInfo, Amount, bool) {
	info, ok := e.orders[id]
	if !ok {
		return OrderInfo{}, 0, false
	}
	level, ok := e.sideBook(info.Side).Get(info.Price)
	if !ok {
		panic("orderbook: registered order has no level")
	}
	amount, ok := level.Amount(id)
	if !ok {
		panic("orderbook: registered order missing from level")
	}
	return info, amount, true
}

// OrdersOf returns the ids of all resting orders owned by account, in
// ascending id order.
func (e *Engine) OrdersOf(account AccountID) []OrderID {
	set := e.accounts[account]
	ids := make([]OrderID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Depth aggregates up to limit levels per side, best price first.
func (e *Engine) Depth(limit int) (bids, asks []DepthLevel, err error) {
	collect := func(side *bookSide) ([]DepthLevel, error) {
		out := make([]DepthLevel, 0, limit)
		var walkErr error
		side.Walk(func(p Price, lvl *Level) bool {
			total, terr := lvl.Total()
			if terr != nil {
				walkErr = terr
				return false
			}
			out = append(out, DepthLevel{Price: p, Amount: total, Orders: lvl.LiveCount()})
			return len(out) < limit
		})
		return out, walkErr
	}

	if bids, err = collect(e.bids); err != nil {
		return nil, nil, err
	}
	if asks, err = collect(e.asks); err != nil {
		return nil, nil, err
	}
	return bids, asks, nil
}

// OrderCount is the number of registered resting orders.
func (e *Engine) OrderCount() int {
	return len(e.orders)
}

// NextOrderID is the id the next placement will receive.
func (e *Engine) NextOrderID() OrderID {
	return e.nextID
}

// RestoreState is the persisted book state loaded at startup. Level
// entries must arrive in ascending key order, which reproduces both
// price ordering and FIFO order within each price, tombstones included.
type RestoreState struct {
	NextOrderID OrderID
	Orders      map[OrderID]OrderInfo
	Bids        []LevelEntry
	Asks        []LevelEntry
}

// Restore rebuilds the engine from persisted state. The account index is
// derived from the registry; tombstone level entries are reinstated
// verbatim so a restarted book is byte-for-byte the book that crashed.
func (e *Engine) Restore(s *RestoreState) {
	e.bids = newBookSide(Bid)
	e.asks = newBookSide(Ask)
	e.orders = make(map[OrderID]OrderInfo, len(s.Orders))
	e.accounts = make(map[AccountID]map[OrderID]struct{})
	e.nextID = s.NextOrderID

	for id, info := range s.Orders {
		e.orders[id] = info
		set := e.accounts[info.Account]
		if set == nil {
			set = make(map[OrderID]struct{})
			e.accounts[info.Account] = set
		}
		set[id] = struct{}{}
	}
	for _, le := range s.Bids {
		e.bids.GetOrCreate(le.Price).PushBack(le.Entry)
	}
	for _, le := range s.Asks {
		e.asks.GetOrCreate(le.Price).PushBack(le.Entry)
	}
}
