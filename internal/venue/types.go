// Package venue defines the external interfaces of spec §6: the outbound
// Trading Request Channel, the inbound Trading Reply Channel, and the wire
// request/reply types exchanged across them. internal/venue/book provides
// the in-memory matching-engine stub that implements RequestChannel for this
// repository's runnable boundary (spec §1.1); a real deployment would swap
// that stub for a FIX or native-binary gateway behind the same interface.
package venue

import (
	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
)

// OrderPlacementRequest is the outbound NewOrderSingle request.
type OrderPlacementRequest struct {
	InstrumentID  uint64
	ClientOrderID string
	Side          domain.Side
	OrderType     domain.OrderType
	TimeInForce   domain.TimeInForce
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	Party         domain.Party
}

// OrderModificationRequest is the outbound OrderCancelReplaceRequest.
type OrderModificationRequest struct {
	InstrumentID      uint64
	ClientOrderID     string
	OrigClientOrderID string
	Price             decimal.Decimal
	Quantity          decimal.Decimal
	Party             domain.Party
}

// OrderCancellationRequest is the outbound OrderCancelRequest.
type OrderCancellationRequest struct {
	InstrumentID      uint64
	OrigClientOrderID string
	Party             domain.Party
}

// MarketDataRequest subscribes the caller to book updates; the in-memory
// stub accepts and ignores it, since this repository streams activity
// through the session gateway rather than the venue channel.
type MarketDataRequest struct {
	InstrumentID uint64
}

// SecurityStatusRequest asks the venue for trading-status changes out of
// band from the Phase Scheduler; accepted and ignored by the stub for the
// same reason as MarketDataRequest.
type SecurityStatusRequest struct {
	InstrumentID uint64
}

// InstrumentStateRequest is the synchronous request half of the
// market_state() round trip (spec §4.2).
type InstrumentStateRequest struct {
	InstrumentID uint64
}

// InstrumentState is the synchronous reply half of the market_state()
// round trip.
type InstrumentState struct {
	BestBid    decimal.Decimal
	BestOffer  decimal.Decimal
	BidDepth   int
	OfferDepth int
}

// OrderPlacementConfirmation is the inbound ack for a placement that was
// accepted and is resting (or fully executed immediately; a separate
// ExecutionReport follows in that case).
type OrderPlacementConfirmation struct {
	InstrumentID  uint64
	ClientOrderID string
	Side          domain.Side
	OrderType     domain.OrderType
	TimeInForce   domain.TimeInForce
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	Party         domain.Party
}

// OrderPlacementReject is the inbound nack for a rejected placement.
type OrderPlacementReject struct {
	InstrumentID  uint64
	ClientOrderID string
	Reason        string
}

// OrderModificationConfirmation is the inbound ack for an accepted
// OrderCancelReplaceRequest.
type OrderModificationConfirmation struct {
	InstrumentID      uint64
	ClientOrderID     string
	OrigClientOrderID string
	Price             decimal.Decimal
	Quantity          decimal.Decimal
	Party             domain.Party
}

// OrderCancellationConfirmation is the inbound ack for an accepted
// OrderCancelRequest.
type OrderCancellationConfirmation struct {
	InstrumentID      uint64
	OrigClientOrderID string
}

// ExecutionReport is the inbound fill/partial-fill/status notice.
type ExecutionReport struct {
	InstrumentID  uint64
	ClientOrderID string
	Side          domain.Side
	Status        domain.OrderStatus
	CumQty        decimal.Decimal
	LeavesQty     decimal.Decimal
	Price         decimal.Decimal
}
