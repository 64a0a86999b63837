package orderbook

// BookStore is the mutation journal the engine writes through. Every
// in-memory change the engine makes is mirrored into the store; the
// caller commits the whole request atomically or not at all.
type BookStore interface {
	SetNextOrderID(id OrderID)
	PutOrder(id OrderID, info OrderInfo)
	DeleteOrder(id OrderID)
	PutAccountOrder(account AccountID, id OrderID)
	DeleteAccountOrder(account AccountID, id OrderID)
	PutLevelEntry(side Side, price Price, e Entry)
	DeleteLevelEntry(side Side, price Price, id OrderID)
	AppendTrade(t Trade)
}

// NopStore discards all mutations. It serves tests and dry runs.
type NopStore struct{}

func (NopStore) SetNextOrderID(OrderID)                {}
func (NopStore) PutOrder(OrderID, OrderInfo)           {}
func (NopStore) DeleteOrder(OrderID)                   {}
func (NopStore) PutAccountOrder(AccountID, OrderID)    {}
func (NopStore) DeleteAccountOrder(AccountID, OrderID) {}
func (NopStore) PutLevelEntry(Side, Price, Entry)      {}
func (NopStore) DeleteLevelEntry(Side, Price, OrderID) {}
func (NopStore) AppendTrade(Trade)                     {}
