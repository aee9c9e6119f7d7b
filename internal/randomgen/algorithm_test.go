package randomgen

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
)

func testListing() domain.Listing {
	return domain.Listing{
		Enabled:             true,
		RandomOrdersEnabled: true,
		RandomOrdersRate:    decimal.NewFromFloat(5),
		RandomOrdersSpread:  decimal.NewFromFloat(0.1),
		RandomTickRange:     5,
		RandomDepthLevels:   10,
		RandomQtyMin:        decimal.NewFromInt(100),
		RandomQtyMax:        decimal.NewFromInt(1000),
		RandomAggressiveQtyMin: decimal.NewFromInt(100),
		RandomAggressiveQtyMax: decimal.NewFromInt(500),
		PriceTick:           decimal.NewFromFloat(0.01),
		QtyMinimum:          decimal.NewFromInt(100),
		QtyMaximum:          decimal.NewFromInt(5000),
		QtyMultiple:         decimal.NewFromInt(100),
	}
}

func testSeed() domain.PriceSeed {
	mid := decimal.NewFromFloat(100)
	return domain.PriceSeed{Symbol: "TEST", Mid: &mid}
}

func idGen() func() string {
	n := 0
	return func() string {
		n++
		return "ID" + strconv.Itoa(n)
	}
}

func TestNewRestingOrderFieldsAndSnap(t *testing.T) {
	algo := New(NewRNG(1))
	listing := testListing()
	seed := testSeed()

	nextID := idGen()
	msg, publish := algo.newOrder(listing, seed, domain.MarketState{}, domain.OrderTypeLimit, domain.TimeInForceDay, nextID, func() string { return "PARTY1" })
	if !publish {
		t.Fatal("newOrder did not publish")
	}
	if msg.MessageType != domain.NewOrderSingle {
		t.Fatalf("MessageType = %v, want NewOrderSingle", msg.MessageType)
	}
	if !msg.IsResting() {
		t.Fatal("resting limit/day order reports IsResting() == false")
	}
	if msg.ClientOrderID == "" {
		t.Fatal("ClientOrderID not set")
	}
	if msg.Party.Role != domain.PartyRoleExecutingFirm || msg.Party.Source != domain.PartySourceProprietary {
		t.Fatalf("Party = %+v, want ExecutingFirm/Proprietary", msg.Party)
	}

	// price must be snapped to price_tick
	units := msg.Price.Div(listing.PriceTick)
	if !units.Equal(units.Round(0)) {
		t.Fatalf("price %s not snapped to tick %s", msg.Price, listing.PriceTick)
	}

	// qty must respect qty_multiple and [qty_minimum, qty_maximum]
	if msg.Quantity.LessThan(listing.QtyMinimum) || msg.Quantity.GreaterThan(listing.QtyMaximum) {
		t.Fatalf("qty %s out of [%s,%s]", msg.Quantity, listing.QtyMinimum, listing.QtyMaximum)
	}
	qtyUnits := msg.Quantity.Div(listing.QtyMultiple)
	if !qtyUnits.Equal(qtyUnits.Round(0)) {
		t.Fatalf("qty %s not a multiple of %s", msg.Quantity, listing.QtyMultiple)
	}
}

func TestModifyOrderSetsOrigClientOrderID(t *testing.T) {
	algo := New(NewRNG(2))
	listing := testListing()
	seed := testSeed()
	snap := Snapshot{Orders: []domain.OrderData{
		{OrderID: "V1", OwnerID: "OWNER1", Side: domain.Buy, Price: decimal.NewFromInt(99), Qty: decimal.NewFromInt(100)},
	}}

	msg, publish := algo.modifyOrder(listing, seed, domain.MarketState{}, snap, idGen())
	if !publish {
		t.Fatal("modifyOrder did not publish with a non-empty snapshot")
	}
	if msg.MessageType != domain.OrderCancelReplaceRequest {
		t.Fatalf("MessageType = %v, want OrderCancelReplaceRequest", msg.MessageType)
	}
	if msg.OrigClientOrderID != "V1" {
		t.Fatalf("OrigClientOrderID = %q, want %q", msg.OrigClientOrderID, "V1")
	}
	if msg.Party.PartyID != "OWNER1" {
		t.Fatalf("Party.PartyID = %q, want %q", msg.Party.PartyID, "OWNER1")
	}
}

func TestModifyOrderEmptyRegistryDoesNotPublish(t *testing.T) {
	algo := New(NewRNG(3))
	_, publish := algo.modifyOrder(testListing(), testSeed(), domain.MarketState{}, Snapshot{}, idGen())
	if publish {
		t.Fatal("modifyOrder published with an empty registry snapshot")
	}
}

func TestCancelOrderReferencesVictim(t *testing.T) {
	algo := New(NewRNG(4))
	snap := Snapshot{Orders: []domain.OrderData{
		{OrderID: "V1", OwnerID: "OWNER1", Side: domain.Sell},
	}}
	msg, publish := algo.cancelOrder(snap)
	if !publish {
		t.Fatal("cancelOrder did not publish")
	}
	if msg.MessageType != domain.OrderCancelRequest {
		t.Fatalf("MessageType = %v, want OrderCancelRequest", msg.MessageType)
	}
	if msg.OrigClientOrderID != "V1" || msg.Party.PartyID != "OWNER1" {
		t.Fatalf("cancel did not reference victim: %+v", msg)
	}
}

func TestAggressiveOrdersAreNotResting(t *testing.T) {
	algo := New(NewRNG(5))
	listing := testListing()
	msg, publish := algo.newOrder(listing, testSeed(), domain.MarketState{}, domain.OrderTypeMarket, domain.TimeInForceIOC, idGen(), func() string { return "P" })
	if !publish {
		t.Fatal("aggressive newOrder did not publish")
	}
	if msg.IsResting() {
		t.Fatal("aggressive (Market/IOC) order reports IsResting() == true")
	}
}

func TestRateNormalization(t *testing.T) {
	// spec §4.4: period = 1s / (rate * 1.5)
	p := Rate(2)
	want := 1.0 / (2 * 1.5)
	if p != want {
		t.Fatalf("Rate(2) = %v, want %v", p, want)
	}
	if Rate(0) != 0 {
		t.Fatal("Rate(0) should be 0 (disabled)")
	}
}
