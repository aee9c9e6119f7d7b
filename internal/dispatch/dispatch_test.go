package dispatch

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/genmanager"
	"github.com/ordersim/venue-simulator/internal/instrument"
	"github.com/ordersim/venue-simulator/internal/venue"
)

type fakeChannel struct {
	placed    []venue.OrderPlacementRequest
	modified  []venue.OrderModificationRequest
	cancelled []venue.OrderCancellationRequest
}

func (f *fakeChannel) PlaceOrder(r venue.OrderPlacementRequest) error {
	f.placed = append(f.placed, r)
	return nil
}

func (f *fakeChannel) ModifyOrder(r venue.OrderModificationRequest) error {
	f.modified = append(f.modified, r)
	return nil
}

func (f *fakeChannel) CancelOrder(r venue.OrderCancellationRequest) error {
	f.cancelled = append(f.cancelled, r)
	return nil
}

func (f *fakeChannel) RequestMarketData(venue.MarketDataRequest) error { return nil }

func (f *fakeChannel) RequestSecurityStatus(venue.SecurityStatusRequest) error { return nil }

func (f *fakeChannel) RequestInstrumentState(venue.InstrumentStateRequest) (venue.InstrumentState, error) {
	return venue.InstrumentState{}, nil
}

func testContext() *instrument.Context {
	desc := domain.InstrumentDescriptor{InstrumentID: 1, Symbol: "NEXO"}
	return instrument.New(desc, domain.Listing{InstrumentID: 1, Symbol: "NEXO"}, domain.PriceSeed{}, nil, genmanager.New(false))
}

func TestPublishPlacesOrderAndUpdatesRegistry(t *testing.T) {
	ch := &fakeChannel{}
	d := New(ch, nil, nil)
	ctx := testContext()
	d.Register(ctx)

	msg := domain.GeneratedMessage{
		MessageType:   domain.NewOrderSingle,
		Instrument:    ctx.Descriptor,
		OrderType:     domain.OrderTypeLimit,
		TimeInForce:   domain.TimeInForceDay,
		Side:          domain.Buy,
		Price:         decimal.NewFromInt(100),
		Quantity:      decimal.NewFromInt(10),
		ClientOrderID: "C1",
		Party:         domain.Party{PartyID: "CP1"},
	}

	if !d.Publish(ctx, msg) {
		t.Fatal("Publish should succeed")
	}
	if len(ch.placed) != 1 {
		t.Fatalf("expected 1 placed order, got %d", len(ch.placed))
	}
	if ctx.Registry.Len() != 1 {
		t.Fatalf("expected registry to hold 1 resting order, got %d", ctx.Registry.Len())
	}
}

func TestOnExecutionReportFillRemovesOrder(t *testing.T) {
	ch := &fakeChannel{}
	d := New(ch, nil, nil)
	ctx := testContext()
	d.Register(ctx)

	ctx.Registry.Add(domain.OrderData{OrderID: "C1", OwnerID: "CP1", Price: decimal.NewFromInt(100), Qty: decimal.NewFromInt(10), Side: domain.Buy})

	d.OnExecutionReport(venue.ExecutionReport{
		InstrumentID:  1,
		ClientOrderID: "C1",
		Side:          domain.Buy,
		Status:        domain.OrderStatusFilled,
		CumQty:        decimal.NewFromInt(10),
		LeavesQty:     decimal.Zero,
		Price:         decimal.NewFromInt(100),
	})

	if ctx.Registry.Len() != 0 {
		t.Fatalf("expected registry to be empty after fill, got %d", ctx.Registry.Len())
	}
}

func TestHandleReplyForUnknownInstrumentIsIgnored(t *testing.T) {
	ch := &fakeChannel{}
	d := New(ch, nil, nil)

	// no Register call: instrument 99 is unknown to the dispatcher
	d.OnPlacementReject(venue.OrderPlacementReject{InstrumentID: 99, ClientOrderID: "C1", Reason: "test"})
}
