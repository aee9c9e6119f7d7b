// Package book implements the in-memory matching-engine stub behind the
// Trading Request/Reply Channel contracts of spec §6 (spec §1.1's runnable
// system boundary). Its price-level book is the teacher's orderbook.Book
// reworked onto domain.Side and decimal.Decimal price/qty in place of
// byte-sides and float64.
package book

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
)

// RestingOrder is one resting order held in a per-instrument book.
type RestingOrder struct {
	ClientOrderID string
	OwnerID       string
	Side          domain.Side
	Price         decimal.Decimal
	Qty           decimal.Decimal
}

// PriceLevel holds resting orders at a single price point.
type PriceLevel struct {
	Price  decimal.Decimal
	Orders []*RestingOrder
}

// Book is a price-time priority book for a single instrument.
type Book struct {
	mu       sync.RWMutex
	Bids     []PriceLevel // sorted descending by price
	Asks     []PriceLevel // sorted ascending by price
	orderMap map[string]*RestingOrder
}

// New returns an empty book.
func New() *Book {
	return &Book{orderMap: make(map[string]*RestingOrder)}
}

// BestBid returns the best bid price, or the zero Decimal if empty.
func (b *Book) BestBid() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.Bids) == 0 {
		return decimal.Zero
	}
	return b.Bids[0].Price
}

// BestOffer returns the best ask price, or the zero Decimal if empty.
func (b *Book) BestOffer() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.Asks) == 0 {
		return decimal.Zero
	}
	return b.Asks[0].Price
}

// BidDepth returns the number of bid price levels.
func (b *Book) BidDepth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.Bids)
}

// OfferDepth returns the number of ask price levels.
func (b *Book) OfferDepth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.Asks)
}

// AddResting inserts a resting order at its price.
func (b *Book) AddResting(o *RestingOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orderMap[o.ClientOrderID] = o
	if o.Side == domain.Buy {
		b.Bids = addToSide(b.Bids, o, true)
	} else {
		b.Asks = addToSide(b.Asks, o, false)
	}
}

// Remove deletes a resting order by ClientOrderID, returning it.
func (b *Book) Remove(id string) (*RestingOrder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orderMap[id]
	if !ok {
		return nil, false
	}
	delete(b.orderMap, id)
	if o.Side == domain.Buy {
		b.Bids = removeFromSide(b.Bids, id)
	} else {
		b.Asks = removeFromSide(b.Asks, id)
	}
	return o, true
}

// Replace removes the order at oldID and re-inserts it under newID with a
// new price/qty, preserving side and owner. Returns false if oldID is
// absent.
func (b *Book) Replace(oldID, newID string, newPrice, newQty decimal.Decimal) bool {
	old, ok := b.Remove(oldID)
	if !ok {
		return false
	}
	b.AddResting(&RestingOrder{
		ClientOrderID: newID,
		OwnerID:       old.OwnerID,
		Side:          old.Side,
		Price:         newPrice,
		Qty:           newQty,
	})
	return true
}

// Fill is one resting order consumed by an incoming aggressive order.
type Fill struct {
	Order     RestingOrder
	FillQty   decimal.Decimal
	Remaining decimal.Decimal // order's qty remaining after this fill; zero means fully consumed
}

// Cross walks the opposite side of side, consuming up to qty of liquidity
// at or through limit (limit is ignored for market orders — pass a zero
// Decimal and isMarket=true). It mutates the book in place: fully consumed
// levels are removed, partially consumed resting orders have their stored
// Qty reduced. Returns the fills applied and the unfilled remainder.
func (b *Book) Cross(side domain.Side, qty, limit decimal.Decimal, isMarket bool) ([]Fill, decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var levels *[]PriceLevel
	if side == domain.Buy {
		levels = &b.Asks
	} else {
		levels = &b.Bids
	}

	var fills []Fill
	remaining := qty

	for remaining.IsPositive() && len(*levels) > 0 {
		lvl := &(*levels)[0]
		if !isMarket {
			crosses := (side == domain.Buy && lvl.Price.LessThanOrEqual(limit)) ||
				(side == domain.Sell && lvl.Price.GreaterThanOrEqual(limit))
			if !crosses {
				break
			}
		}
		if len(lvl.Orders) == 0 {
			*levels = (*levels)[1:]
			continue
		}
		resting := lvl.Orders[0]
		take := resting.Qty
		if take.GreaterThan(remaining) {
			take = remaining
		}
		resting.Qty = resting.Qty.Sub(take)
		remaining = remaining.Sub(take)

		fill := Fill{Order: *resting, FillQty: take, Remaining: resting.Qty}
		fill.Order.Qty = take
		fills = append(fills, fill)

		if resting.Qty.IsZero() {
			delete(b.orderMap, resting.ClientOrderID)
			lvl.Orders = lvl.Orders[1:]
			if len(lvl.Orders) == 0 {
				*levels = (*levels)[1:]
			}
		}
	}
	return fills, remaining
}

func addToSide(levels []PriceLevel, o *RestingOrder, descending bool) []PriceLevel {
	for i := range levels {
		if levels[i].Price.Equal(o.Price) {
			levels[i].Orders = append(levels[i].Orders, o)
			return levels
		}
	}
	levels = append(levels, PriceLevel{Price: o.Price, Orders: []*RestingOrder{o}})
	if descending {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price.GreaterThan(levels[j].Price) })
	} else {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price.LessThan(levels[j].Price) })
	}
	return levels
}

func removeFromSide(levels []PriceLevel, id string) []PriceLevel {
	for i := range levels {
		for j := range levels[i].Orders {
			if levels[i].Orders[j].ClientOrderID == id {
				levels[i].Orders = append(levels[i].Orders[:j], levels[i].Orders[j+1:]...)
				if len(levels[i].Orders) == 0 {
					levels = append(levels[:i], levels[i+1:]...)
				}
				return levels
			}
		}
	}
	return levels
}
