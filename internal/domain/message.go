package domain

import "github.com/shopspring/decimal"

// Party is the synthetic counterparty identity attached to a generated order.
type Party struct {
	PartyID string
	Role    PartyRole
	Source  PartySource
}

// GeneratedMessage is the internal canonical form of every outbound and
// inbound order event the generator produces or consumes.
type GeneratedMessage struct {
	MessageType MessageType
	Instrument  InstrumentDescriptor

	OrderType   OrderType
	TimeInForce TimeInForce
	Side        Side
	Price       decimal.Decimal
	Quantity    decimal.Decimal

	ClientOrderID     string
	OrigClientOrderID string

	Party       Party
	OrderStatus OrderStatus

	// CumQty/LeavesQty are populated on ExecutionReport messages carrying a
	// partial fill or fill so the round-trip law of spec §8 can be checked:
	// CumQty + LeavesQty == original order quantity.
	CumQty    decimal.Decimal
	LeavesQty decimal.Decimal

	MessageNumber uint64
}

// IsResting reports whether the message concerns a Day/Limit order, the
// only kind the Order Registry and Registry Updater track (§4.10).
func (m GeneratedMessage) IsResting() bool {
	return m.TimeInForce == TimeInForceDay && m.OrderType == OrderTypeLimit
}
