package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/genmanager"
	"github.com/ordersim/venue-simulator/internal/instrument"
	"github.com/ordersim/venue-simulator/internal/phase"
	"github.com/ordersim/venue-simulator/internal/randomgen"
	"github.com/ordersim/venue-simulator/internal/session"
)

func newTestContext(id uint64, sym string) *instrument.Context {
	desc := domain.InstrumentDescriptor{InstrumentID: id, Symbol: sym}
	listing := domain.Listing{
		InstrumentID:        id,
		Symbol:              sym,
		Enabled:              true,
		RandomOrdersEnabled:  true,
		RandomOrdersRate:     decimal.NewFromFloat(2.5),
	}
	return instrument.New(desc, listing, domain.PriceSeed{}, nil, genmanager.New(false))
}

func mustDecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
}

func newTestServer() (*Server, *http.ServeMux) {
	nexo := newTestContext(1, "NEXO")
	qbit := newTestContext(2, "QBIT")

	nexo.Registry.Add(domain.OrderData{OrderID: "O1", OwnerID: "OWN1", Price: decimal.NewFromInt(100), Qty: decimal.NewFromInt(10), Side: domain.Buy})
	nexo.Registry.Add(domain.OrderData{OrderID: "O2", OwnerID: "OWN2", Price: decimal.NewFromInt(100), Qty: decimal.NewFromInt(5), Side: domain.Buy})
	nexo.Registry.Add(domain.OrderData{OrderID: "O3", OwnerID: "OWN3", Price: decimal.NewFromInt(101), Qty: decimal.NewFromInt(7), Side: domain.Sell})

	rng := randomgen.NewRNG(1)
	sched := phase.New(nil, nil, rng)

	instruments := []*instrument.Context{nexo, qbit}
	phases := map[uint64]*phase.Scheduler{1: sched}
	mgr := session.NewManager([]session.Listing{{InstrumentID: 1, Symbol: "NEXO"}, {InstrumentID: 2, Symbol: "QBIT"}}, 64)

	srv := NewServer(instruments, phases, mgr, nil)
	mux := http.NewServeMux()
	srv.Register(mux)
	return srv, mux
}

func TestHandleListings(t *testing.T) {
	_, mux := newTestServer()
	req := httptest.NewRequest("GET", "/api/listings", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out []listingInfo
	mustDecodeJSON(t, w.Result(), &out)
	if len(out) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(out))
	}
	if out[0].Symbol != "NEXO" || out[1].Symbol != "QBIT" {
		t.Fatalf("expected sorted [NEXO, QBIT], got %+v", out)
	}
	if out[0].RegistrySize != 3 {
		t.Fatalf("expected registry size 3 for NEXO, got %d", out[0].RegistrySize)
	}
}

func TestHandleListingDetailUnknownSymbol(t *testing.T) {
	_, mux := newTestServer()
	req := httptest.NewRequest("GET", "/api/listings/ZZZZ", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleRegistryAggregatesPriceLevels(t *testing.T) {
	_, mux := newTestServer()
	req := httptest.NewRequest("GET", "/api/registry/NEXO", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp registryResponse
	mustDecodeJSON(t, w.Result(), &resp)

	if resp.Orders != 3 {
		t.Fatalf("expected 3 orders, got %d", resp.Orders)
	}
	if len(resp.Bids) != 1 || resp.Bids[0].Price != "100" || resp.Bids[0].Quantity != "15" || resp.Bids[0].Orders != 2 {
		t.Fatalf("unexpected bid aggregation: %+v", resp.Bids)
	}
	if len(resp.Offers) != 1 || resp.Offers[0].Price != "101" {
		t.Fatalf("unexpected offer aggregation: %+v", resp.Offers)
	}
}

func TestHandlePhaseUnknownSchedule(t *testing.T) {
	_, mux := newTestServer()
	req := httptest.NewRequest("GET", "/api/phase/QBIT", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for symbol with no phase schedule, got %d", w.Code)
	}
}

func TestHandlePhaseKnownSchedule(t *testing.T) {
	_, mux := newTestServer()
	req := httptest.NewRequest("GET", "/api/phase/NEXO", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp phaseResponse
	mustDecodeJSON(t, w.Result(), &resp)
	if resp.Phase != "Closed" {
		t.Fatalf("expected initial phase Closed, got %s", resp.Phase)
	}
}

func TestHandleStats(t *testing.T) {
	_, mux := newTestServer()
	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp statsResponse
	mustDecodeJSON(t, w.Result(), &resp)
	if resp.Instruments != 2 {
		t.Fatalf("expected 2 instruments, got %d", resp.Instruments)
	}
	if resp.TotalOrders != 3 {
		t.Fatalf("expected 3 total orders, got %d", resp.TotalOrders)
	}
}

func TestHandleVenueWithoutStoreReturnsUnavailable(t *testing.T) {
	_, mux := newTestServer()
	req := httptest.NewRequest("GET", "/api/venue", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with no static data store configured, got %d", w.Code)
	}
}
