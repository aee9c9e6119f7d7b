package domain

import "github.com/shopspring/decimal"

// OrderData is the unit stored in the Order Registry (spec §3).
//
// Invariants upheld by the registry, not by this type: OrderID and OwnerID
// are each unique across the registry at any instant; OrigOrderID is set
// once, on first modification, and never changes afterward.
type OrderData struct {
	OrderID     string
	OrigOrderID string
	OwnerID     string
	Price       decimal.Decimal
	Qty         decimal.Decimal
	Side        Side
}

// OrderPatch carries the optional fields an update_by_* call may change.
type OrderPatch struct {
	NewOrderID *string
	NewPrice   *decimal.Decimal
	NewQty     *decimal.Decimal
}
