// Package historical implements the historical-replay subsystem of spec
// §4.5–§4.7: the Record Applier, the finite/repeating Data Providers, and
// the Historical Scheduler that turns a parsed datasource into a stream of
// GeneratedMessages driven by the Executor.
package historical

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/instrument"
)

// Applier implements the Historical Record Applier of spec §4.5: given a
// Record and an instrument's live registry, it emits the minimal set of
// place/modify/cancel messages that evolves the registry to match the
// snapshot.
type Applier struct{}

// NewApplier constructs an Applier. It is stateless between calls; all
// per-record state (the synthetic counterparty counter, the working set of
// not-yet-confirmed mutations) lives in the working set built fresh inside
// Apply.
func NewApplier() *Applier {
	return &Applier{}
}

type workingOrder struct {
	orderID string
	side    domain.Side
	price   decimal.Decimal
	qty     decimal.Decimal
}

// Apply evolves ctx's registry toward rec, returning the ordered messages to
// emit. It performs no registry mutation itself: the Registry Updater
// (internal/protocol) adds placements and applies modifications when the
// Dispatcher publishes them, and removes cancelled orders when the venue
// confirms the cancellation. Within
// one call to Apply, newly-placed orders are tracked in a local working set
// so later levels in the same record see them as already resting.
func (a *Applier) Apply(ctx *instrument.Context, rec domain.Record) []domain.GeneratedMessage {
	working := make(map[string]workingOrder)
	ctx.Registry.ForEach(func(o domain.OrderData) {
		working[o.OwnerID] = workingOrder{orderID: o.OrderID, side: o.Side, price: o.Price, qty: o.Qty}
	})
	originalOwners := make(map[string]bool, len(working))
	for owner := range working {
		originalOwners[owner] = true
	}
	referenced := make(map[string]bool)

	var messages []domain.GeneratedMessage
	cp := 1

	emit := func(side domain.Side, price, qty decimal.Decimal, counterparty string) {
		if counterparty == "" {
			counterparty = fmt.Sprintf("CP%d", cp)
			cp++
		}
		referenced[counterparty] = true

		existing, ok := working[counterparty]
		switch {
		case !ok:
			id := ctx.NextSyntheticID()
			messages = append(messages, a.newOrder(ctx, side, price, qty, counterparty, id))
			working[counterparty] = workingOrder{orderID: id, side: side, price: price, qty: qty}

		case existing.side == side && existing.price.Equal(price) && existing.qty.Equal(qty):
			// steady state: nothing to emit (spec §8 property 7, applier idempotence)

		case existing.side == side:
			newID := ctx.NextSyntheticID()
			messages = append(messages, a.modifyOrder(ctx, side, price, qty, counterparty, existing.orderID, newID))
			working[counterparty] = workingOrder{orderID: newID, side: side, price: price, qty: qty}

		default: // opposite side: cancel then re-place
			messages = append(messages, a.cancelOrder(ctx, counterparty, existing.orderID))
			id := ctx.NextSyntheticID()
			messages = append(messages, a.newOrder(ctx, side, price, qty, counterparty, id))
			working[counterparty] = workingOrder{orderID: id, side: side, price: price, qty: qty}
		}
	}

	for _, lvl := range rec.Levels {
		if !lvl.Processable() {
			continue
		}
		if lvl.BidProcessable() {
			emit(domain.Buy, *lvl.BidPrice, *lvl.BidQty, lvl.BidCounterparty)
		}
		if lvl.OfferProcessable() {
			emit(domain.Sell, *lvl.OfferPrice, *lvl.OfferQty, lvl.OfferCounterparty)
		}
	}

	// Sweep: cancel any originally-registered owner the record did not
	// reference, in ascending owner-id order. An empty record (no levels)
	// cancels every registered order, since referenced stays empty.
	var sweepOwners []string
	for owner := range originalOwners {
		if !referenced[owner] {
			sweepOwners = append(sweepOwners, owner)
		}
	}
	sort.Strings(sweepOwners) // deterministic order for a map-backed registry snapshot
	for _, owner := range sweepOwners {
		messages = append(messages, a.cancelOrder(ctx, owner, working[owner].orderID))
	}

	return messages
}

func (a *Applier) newOrder(ctx *instrument.Context, side domain.Side, price, qty decimal.Decimal, party, clientOrderID string) domain.GeneratedMessage {
	return domain.GeneratedMessage{
		MessageType:   domain.NewOrderSingle,
		Instrument:    ctx.Descriptor,
		OrderType:     domain.OrderTypeLimit,
		TimeInForce:   domain.TimeInForceDay,
		Side:          side,
		Price:         price,
		Quantity:      qty,
		ClientOrderID: clientOrderID,
		Party: domain.Party{
			PartyID: party,
			Role:    domain.PartyRoleExecutingFirm,
			Source:  domain.PartySourceProprietary,
		},
		OrderStatus:   domain.OrderStatusNew,
		MessageNumber: ctx.NextMessageNumber(),
	}
}

func (a *Applier) modifyOrder(ctx *instrument.Context, side domain.Side, price, qty decimal.Decimal, party, origID, newID string) domain.GeneratedMessage {
	return domain.GeneratedMessage{
		MessageType:       domain.OrderCancelReplaceRequest,
		Instrument:        ctx.Descriptor,
		OrderType:         domain.OrderTypeLimit,
		TimeInForce:       domain.TimeInForceDay,
		Side:              side,
		Price:             price,
		Quantity:          qty,
		ClientOrderID:     newID,
		OrigClientOrderID: origID,
		Party: domain.Party{
			PartyID: party,
			Role:    domain.PartyRoleExecutingFirm,
			Source:  domain.PartySourceProprietary,
		},
		OrderStatus:   domain.OrderStatusModified,
		MessageNumber: ctx.NextMessageNumber(),
	}
}

func (a *Applier) cancelOrder(ctx *instrument.Context, party, origID string) domain.GeneratedMessage {
	return domain.GeneratedMessage{
		MessageType:       domain.OrderCancelRequest,
		Instrument:        ctx.Descriptor,
		OrigClientOrderID: origID,
		Party: domain.Party{
			PartyID: party,
			Role:    domain.PartyRoleExecutingFirm,
			Source:  domain.PartySourceProprietary,
		},
		OrderStatus:   domain.OrderStatusCancelled,
		MessageNumber: ctx.NextMessageNumber(),
	}
}
