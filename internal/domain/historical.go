package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordLevel is one bid/offer price-level pair within a historical top-N
// book snapshot. Either side may be absent (nil price or qty).
type RecordLevel struct {
	BidPrice        *decimal.Decimal
	BidQty          *decimal.Decimal
	BidCounterparty string // empty if not supplied by the datasource

	OfferPrice        *decimal.Decimal
	OfferQty          *decimal.Decimal
	OfferCounterparty string
}

// BidProcessable reports whether the level's bid side has both a price and a
// quantity, the minimum needed to act on it (spec §4.5).
func (l RecordLevel) BidProcessable() bool {
	return l.BidPrice != nil && l.BidQty != nil
}

// OfferProcessable reports whether the level's offer side has both a price
// and a quantity.
func (l RecordLevel) OfferProcessable() bool {
	return l.OfferPrice != nil && l.OfferQty != nil
}

// Processable reports whether at least one side of the level is well formed.
func (l RecordLevel) Processable() bool {
	return l.BidProcessable() || l.OfferProcessable()
}

// Record is one row of a historical datasource: the top-N book snapshot for
// one instrument at one instant (spec §3).
type Record struct {
	ReceiveTime time.Duration // monotonic key, duration since an arbitrary epoch
	MessageTime *time.Duration
	Instrument  string
	SourceRow   int // provenance: 1-based row number in the source datasource
	Levels      []RecordLevel
}

// Action is a non-empty set of Records sharing an identical ReceiveTime,
// stamped with the single wall-clock ActionTime they map to (spec §3).
type Action struct {
	Records    []Record
	ActionTime time.Time
}
