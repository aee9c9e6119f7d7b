package randomgen

import (
	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
)

// action is one of the five outcomes spec §4.4 policy step 1 must choose
// between, weighted by listing configuration and current registry
// occupancy relative to random_depth_levels — the generalization of the
// teacher simulator's actionWeights dispatch table to domain semantics.
type action int

const (
	actionNewResting action = iota
	actionNewAggressive
	actionModify
	actionCancel
	actionNoOp
)

// Snapshot is the read-only input the algorithm needs per tick: the
// instrument's current live orders, in no particular order, taken under the
// Order Registry's read lock.
type Snapshot struct {
	Orders []domain.OrderData
}

// PartySource supplies a synthetic counterparty identity per message. A
// generator normally reuses the owner of the order being modified or
// cancelled, and mints a fresh one for new orders.
type PartySource interface {
	NextPartyID() string
}

// Algorithm implements spec §4.4 over one instrument's configuration.
type Algorithm struct {
	rng *RNG
}

// New constructs an Algorithm driven by rng.
func New(rng *RNG) *Algorithm {
	return &Algorithm{rng: rng}
}

// Next runs one tick of the Random Generation Algorithm and returns the
// GeneratedMessage to emit plus a publish flag; publish is false for a
// chosen no-op or when the chosen action has no legal victim (e.g. modify
// with an empty registry), matching spec §4.4's "no-op emits nothing".
func (a *Algorithm) Next(listing domain.Listing, seed domain.PriceSeed, market domain.MarketState, snap Snapshot, nextClientOrderID func() string, nextPartyID func() string) (domain.GeneratedMessage, bool) {
	act := a.chooseAction(listing, len(snap.Orders))

	switch act {
	case actionNewResting:
		return a.newOrder(listing, seed, market, domain.OrderTypeLimit, domain.TimeInForceDay, nextClientOrderID, nextPartyID)
	case actionNewAggressive:
		return a.newOrder(listing, seed, market, domain.OrderTypeMarket, domain.TimeInForceIOC, nextClientOrderID, nextPartyID)
	case actionModify:
		return a.modifyOrder(listing, seed, market, snap, nextClientOrderID)
	case actionCancel:
		return a.cancelOrder(snap)
	default:
		return domain.GeneratedMessage{}, false
	}
}

// chooseAction applies spec §4.4 step 1: weight new-resting down and
// cancel/modify up as registry occupancy approaches random_depth_levels, so
// the book doesn't grow without bound.
func (a *Algorithm) chooseAction(listing domain.Listing, occupancy int) action {
	depth := listing.RandomDepthLevels
	if depth <= 0 {
		depth = 1
	}
	fill := float64(occupancy) / float64(depth)
	if fill > 1 {
		fill = 1
	}

	weights := []float64{
		0.55 * (1 - fill), // new resting: tapers off as the book fills
		0.15,               // new aggressive: constant small rate
		0.15 + 0.15*fill,   // modify: more likely once there's something to modify
		0.10 + 0.25*fill,   // cancel: grows with occupancy to bound book size
		0.05,               // no-op
	}
	return action(a.rng.WeightedPick(weights))
}

func (a *Algorithm) chooseSide() domain.Side {
	if a.rng.Bool(0.5) {
		return domain.Buy
	}
	return domain.Sell
}

func (a *Algorithm) newOrder(listing domain.Listing, seed domain.PriceSeed, market domain.MarketState, ot domain.OrderType, tif domain.TimeInForce, nextClientOrderID, nextPartyID func() string) (domain.GeneratedMessage, bool) {
	side := a.chooseSide()

	price := a.derivePrice(listing, seed, market, side, ot == domain.OrderTypeMarket)
	qty := a.deriveQty(listing, ot == domain.OrderTypeMarket)

	msg := domain.GeneratedMessage{
		MessageType:   domain.NewOrderSingle,
		OrderType:     ot,
		TimeInForce:   tif,
		Side:          side,
		Price:         price,
		Quantity:      qty,
		ClientOrderID: nextClientOrderID(),
		Party: domain.Party{
			PartyID: nextPartyID(),
			Role:    domain.PartyRoleExecutingFirm,
			Source:  domain.PartySourceProprietary,
		},
		OrderStatus: domain.OrderStatusNew,
	}
	return msg, true
}

// derivePrice implements spec §4.4 step 3: derive from best-bid/offer, or
// from the price seed when the book is empty, offset by a uniform random
// tick bounded by random_tick_range and random_orders_spread, then snapped
// to price_tick.
func (a *Algorithm) derivePrice(listing domain.Listing, seed domain.PriceSeed, market domain.MarketState, side domain.Side, aggressive bool) decimal.Decimal {
	var base decimal.Decimal
	switch {
	case !market.Empty() && side == domain.Buy:
		base = market.BestBid
	case !market.Empty() && side == domain.Sell:
		base = market.BestOffer
	case side == domain.Buy:
		base, _ = seed.ReferenceBid()
	default:
		base, _ = seed.ReferenceOffer()
	}

	tickRange := listing.RandomTickRange
	if tickRange <= 0 {
		tickRange = 1
	}
	offsetTicks := a.rng.IntRange(1, tickRange)

	tick := listing.PriceTick
	if tick.IsZero() {
		tick = decimal.NewFromFloat(0.01)
	}

	spreadFrac := listing.RandomOrdersSpread.Div(decimal.NewFromInt(100))
	spreadAmt := base.Mul(spreadFrac)
	tickOffset := tick.Mul(decimal.NewFromInt(int64(offsetTicks)))
	offset := spreadAmt.Add(tickOffset)

	var price decimal.Decimal
	switch {
	case side == domain.Buy && !aggressive:
		price = base.Sub(offset)
	case side == domain.Sell && !aggressive:
		price = base.Add(offset)
	case side == domain.Buy && aggressive:
		price = base.Add(offset) // cross the spread to guarantee a fill
	default:
		price = base.Sub(offset)
	}

	return snapToTick(price, tick)
}

func snapToTick(price, tick decimal.Decimal) decimal.Decimal {
	if tick.IsZero() {
		return price
	}
	units := price.Div(tick).Round(0)
	snapped := units.Mul(tick)
	if snapped.IsNegative() {
		return tick
	}
	return snapped
}

// deriveQty implements spec §4.4 step 3's quantity rule: uniform in
// [min,max] (or the aggressive counterparts), snapped to qty_multiple,
// clamped to [qty_minimum, qty_maximum].
func (a *Algorithm) deriveQty(listing domain.Listing, aggressive bool) decimal.Decimal {
	min, max := listing.RandomQtyMin, listing.RandomQtyMax
	if aggressive {
		min, max = listing.RandomAggressiveQtyMin, listing.RandomAggressiveQtyMax
	}
	if max.LessThanOrEqual(min) {
		max = min
	}

	span := max.Sub(min)
	frac := decimal.NewFromFloat(a.rng.Float64())
	qty := min.Add(span.Mul(frac))

	mult := listing.QtyMultiple
	if mult.IsPositive() {
		units := qty.Div(mult).Round(0)
		qty = units.Mul(mult)
	}
	if listing.QtyMinimum.IsPositive() && qty.LessThan(listing.QtyMinimum) {
		qty = listing.QtyMinimum
	}
	if listing.QtyMaximum.IsPositive() && qty.GreaterThan(listing.QtyMaximum) {
		qty = listing.QtyMaximum
	}
	return qty
}

// modifyOrder implements spec §4.4 step 4's OrderCancelReplaceRequest path:
// a uniformly selected victim from the registry snapshot, a freshly
// allocated client_order_id, and orig_client_order_id set to the victim's
// current order_id.
func (a *Algorithm) modifyOrder(listing domain.Listing, seed domain.PriceSeed, market domain.MarketState, snap Snapshot, nextClientOrderID func() string) (domain.GeneratedMessage, bool) {
	if len(snap.Orders) == 0 {
		return domain.GeneratedMessage{}, false
	}
	victim := snap.Orders[a.rng.Intn(len(snap.Orders))]

	newPrice := a.derivePrice(listing, seed, market, victim.Side, false)
	newQty := a.deriveQty(listing, false)

	msg := domain.GeneratedMessage{
		MessageType:       domain.OrderCancelReplaceRequest,
		OrderType:         domain.OrderTypeLimit,
		TimeInForce:       domain.TimeInForceDay,
		Side:              victim.Side,
		Price:             newPrice,
		Quantity:          newQty,
		ClientOrderID:     nextClientOrderID(),
		OrigClientOrderID: victim.OrderID,
		Party: domain.Party{
			PartyID: victim.OwnerID,
			Role:    domain.PartyRoleExecutingFirm,
			Source:  domain.PartySourceProprietary,
		},
		OrderStatus: domain.OrderStatusModified,
	}
	return msg, true
}

// cancelOrder implements spec §4.4 step 4's OrderCancelRequest path.
func (a *Algorithm) cancelOrder(snap Snapshot) (domain.GeneratedMessage, bool) {
	if len(snap.Orders) == 0 {
		return domain.GeneratedMessage{}, false
	}
	victim := snap.Orders[a.rng.Intn(len(snap.Orders))]

	msg := domain.GeneratedMessage{
		MessageType:       domain.OrderCancelRequest,
		Side:               victim.Side,
		OrigClientOrderID: victim.OrderID,
		Party: domain.Party{
			PartyID: victim.OwnerID,
			Role:    domain.PartyRoleExecutingFirm,
			Source:  domain.PartySourceProprietary,
		},
		OrderStatus: domain.OrderStatusCancelled,
	}
	return msg, true
}
