package storage

import (
	"encoding/binary"
	"errors"

	"ledgerbook/domain/orderbook"
)

// Key layout. Every numeric component is big-endian so pebble's byte
// order is the domain order.
//
//	m/next              next order id
//	m/applied           last applied request seq
//	b/<key:8><id:8>     bid level entry, key = complement price
//	a/<key:8><id:8>     ask level entry, key = price
//	o/<id:8>            order registry record
//	u/<account>/<id:8>  account index mirror
//	x/<seq:8><n:4>      trade outbox record
//
// The account index mirrors the registry's owner field per account. It
// is maintained in the same batch as the registry but recovery derives
// the in-memory index from the registry instead of reading it back; the
// keyspace exists so operators can list one account's orders with a
// bounded prefix scan instead of walking the whole registry.
var (
	keyNextOrderID = []byte("m/next")
	keyAppliedSeq  = []byte("m/applied")

	prefixBids    = []byte("b/")
	prefixAsks    = []byte("a/")
	prefixOrders  = []byte("o/")
	prefixAccount = []byte("u/")
	prefixOutbox  = []byte("x/")
)

func sidePrefix(side orderbook.Side) []byte {
	if side == orderbook.Bid {
		return prefixBids
	}
	return prefixAsks
}

func levelEntryKey(side orderbook.Side, price orderbook.Price, id orderbook.OrderID) []byte {
	k := make([]byte, 0, 2+8+8)
	k = append(k, sidePrefix(side)...)
	k = binary.BigEndian.AppendUint64(k, orderbook.PriceKey(side, price))
	k = binary.BigEndian.AppendUint64(k, uint64(id))
	return k
}

func parseLevelEntryKey(side orderbook.Side, k []byte) (orderbook.Price, orderbook.OrderID, error) {
	if len(k) != 2+8+8 {
		return 0, 0, errors.New("storage: malformed level entry key")
	}
	priceKey := binary.BigEndian.Uint64(k[2:10])
	id := binary.BigEndian.Uint64(k[10:18])
	return orderbook.PriceFromKey(side, priceKey), orderbook.OrderID(id), nil
}

func encodeLevelEntry(e orderbook.Entry) []byte {
	v := make([]byte, 0, 8+len(e.Account))
	v = binary.BigEndian.AppendUint64(v, uint64(e.Amount))
	v = append(v, e.Account...)
	return v
}

func decodeLevelEntry(id orderbook.OrderID, v []byte) (orderbook.Entry, error) {
	if len(v) < 8 {
		return orderbook.Entry{}, errors.New("storage: malformed level entry value")
	}
	return orderbook.Entry{
		Amount:  orderbook.Amount(binary.BigEndian.Uint64(v[:8])),
		Account: orderbook.AccountID(v[8:]),
		OrderID: id,
	}, nil
}

func orderKey(id orderbook.OrderID) []byte {
	k := make([]byte, 0, 2+8)
	k = append(k, prefixOrders...)
	k = binary.BigEndian.AppendUint64(k, uint64(id))
	return k
}

func parseOrderKey(k []byte) (orderbook.OrderID, error) {
	if len(k) != 2+8 {
		return 0, errors.New("storage: malformed order key")
	}
	return orderbook.OrderID(binary.BigEndian.Uint64(k[2:10])), nil
}

func encodeOrderInfo(info orderbook.OrderInfo) []byte {
	v := make([]byte, 0, 8+1+len(info.Account))
	v = binary.BigEndian.AppendUint64(v, uint64(info.Price))
	v = append(v, byte(info.Side))
	v = append(v, info.Account...)
	return v
}

func decodeOrderInfo(v []byte) (orderbook.OrderInfo, error) {
	if len(v) < 9 {
		return orderbook.OrderInfo{}, errors.New("storage: malformed order record")
	}
	return orderbook.OrderInfo{
		Price:   orderbook.Price(binary.BigEndian.Uint64(v[:8])),
		Side:    orderbook.Side(v[8]),
		Account: orderbook.AccountID(v[9:]),
	}, nil
}

func accountOrderKey(account orderbook.AccountID, id orderbook.OrderID) []byte {
	k := make([]byte, 0, 2+len(account)+1+8)
	k = append(k, prefixAccount...)
	k = append(k, account...)
	k = append(k, '/')
	k = binary.BigEndian.AppendUint64(k, uint64(id))
	return k
}

func outboxKey(seq uint64, n uint32) []byte {
	k := make([]byte, 0, 2+8+4)
	k = append(k, prefixOutbox...)
	k = binary.BigEndian.AppendUint64(k, seq)
	k = binary.BigEndian.AppendUint32(k, n)
	return k
}

// prefixEnd returns the smallest key greater than every key with the
// given prefix.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
