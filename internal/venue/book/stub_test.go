package book

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/venue"
)

type capturingHandler struct {
	confirmations []venue.OrderPlacementConfirmation
	modifications []venue.OrderModificationConfirmation
	cancellations []venue.OrderCancellationConfirmation
	reports       []venue.ExecutionReport
}

func (h *capturingHandler) OnPlacementConfirmation(c venue.OrderPlacementConfirmation) {
	h.confirmations = append(h.confirmations, c)
}
func (h *capturingHandler) OnPlacementReject(venue.OrderPlacementReject) {}
func (h *capturingHandler) OnModificationConfirmation(c venue.OrderModificationConfirmation) {
	h.modifications = append(h.modifications, c)
}
func (h *capturingHandler) OnCancellationConfirmation(c venue.OrderCancellationConfirmation) {
	h.cancellations = append(h.cancellations, c)
}
func (h *capturingHandler) OnExecutionReport(r venue.ExecutionReport) {
	h.reports = append(h.reports, r)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestUnboundStubFailsFast(t *testing.T) {
	s := NewStub()
	defer s.Close()

	err := s.PlaceOrder(venue.OrderPlacementRequest{InstrumentID: 1})
	if err == nil {
		t.Fatal("PlaceOrder on unbound stub succeeded")
	}
}

func TestRestingPlacementConfirmsAndUpdatesDepth(t *testing.T) {
	s := NewStub()
	defer s.Close()
	h := &capturingHandler{}
	s.Subscribe(h)

	err := s.PlaceOrder(venue.OrderPlacementRequest{
		InstrumentID:  1,
		ClientOrderID: "C1",
		Side:          domain.Buy,
		OrderType:     domain.OrderTypeLimit,
		TimeInForce:   domain.TimeInForceDay,
		Price:         decimal.NewFromInt(100),
		Quantity:      decimal.NewFromInt(10),
		Party:         domain.Party{PartyID: "OWNER1"},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	waitFor(t, func() bool { return len(h.confirmations) == 1 })

	st, err := s.RequestInstrumentState(venue.InstrumentStateRequest{InstrumentID: 1})
	if err != nil {
		t.Fatalf("RequestInstrumentState: %v", err)
	}
	if !st.BestBid.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("BestBid = %s, want 100", st.BestBid)
	}
	if st.BidDepth != 1 {
		t.Fatalf("BidDepth = %d, want 1", st.BidDepth)
	}
}

func TestAggressiveOrderCrossesRestingLiquidity(t *testing.T) {
	s := NewStub()
	defer s.Close()
	h := &capturingHandler{}
	s.Subscribe(h)

	s.PlaceOrder(venue.OrderPlacementRequest{
		InstrumentID: 2, ClientOrderID: "RESTING",
		Side: domain.Sell, OrderType: domain.OrderTypeLimit, TimeInForce: domain.TimeInForceDay,
		Price: decimal.NewFromInt(50), Quantity: decimal.NewFromInt(10),
		Party: domain.Party{PartyID: "MM1"},
	})
	waitFor(t, func() bool { return len(h.confirmations) == 1 })

	s.PlaceOrder(venue.OrderPlacementRequest{
		InstrumentID: 2, ClientOrderID: "TAKER",
		Side: domain.Buy, OrderType: domain.OrderTypeMarket, TimeInForce: domain.TimeInForceIOC,
		Quantity: decimal.NewFromInt(10),
		Party:    domain.Party{PartyID: "TAKER_OWNER"},
	})
	waitFor(t, func() bool { return len(h.reports) == 2 })

	var restingReport, takerReport *venue.ExecutionReport
	for i := range h.reports {
		r := &h.reports[i]
		if r.ClientOrderID == "RESTING" {
			restingReport = r
		} else if r.ClientOrderID == "TAKER" {
			takerReport = r
		}
	}
	if restingReport == nil || takerReport == nil {
		t.Fatalf("missing execution reports: %+v", h.reports)
	}
	if restingReport.Status != domain.OrderStatusFilled {
		t.Fatalf("resting status = %v, want Filled", restingReport.Status)
	}
	if takerReport.Status != domain.OrderStatusFilled {
		t.Fatalf("taker status = %v, want Filled", takerReport.Status)
	}

	st, _ := s.RequestInstrumentState(venue.InstrumentStateRequest{InstrumentID: 2})
	if st.OfferDepth != 0 {
		t.Fatalf("OfferDepth = %d, want 0 (resting order fully consumed)", st.OfferDepth)
	}
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	s := NewStub()
	defer s.Close()
	h := &capturingHandler{}
	s.Subscribe(h)

	s.PlaceOrder(venue.OrderPlacementRequest{
		InstrumentID: 3, ClientOrderID: "C1", Side: domain.Buy,
		OrderType: domain.OrderTypeLimit, TimeInForce: domain.TimeInForceDay,
		Price: decimal.NewFromInt(10), Quantity: decimal.NewFromInt(5),
		Party: domain.Party{PartyID: "O1"},
	})
	waitFor(t, func() bool { return len(h.confirmations) == 1 })

	err := s.CancelOrder(venue.OrderCancellationRequest{InstrumentID: 3, OrigClientOrderID: "C1"})
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	waitFor(t, func() bool { return len(h.cancellations) == 1 })

	st, _ := s.RequestInstrumentState(venue.InstrumentStateRequest{InstrumentID: 3})
	if st.BidDepth != 0 {
		t.Fatalf("BidDepth = %d after cancel, want 0", st.BidDepth)
	}
}
