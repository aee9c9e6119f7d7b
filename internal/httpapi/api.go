// Package httpapi provides the REST surface over the simulator's runtime
// state — listings, per-instrument order-registry snapshots, trading-phase
// state, and aggregate stats — following the route/handler split of the
// teacher's internal/api.Server.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ordersim/venue-simulator/internal/instrument"
	"github.com/ordersim/venue-simulator/internal/phase"
	"github.com/ordersim/venue-simulator/internal/session"
	"github.com/ordersim/venue-simulator/internal/staticdata"
)

// Server provides REST API endpoints over the venue's live state.
type Server struct {
	instruments []*instrument.Context
	bySymbol    map[string]*instrument.Context
	phases      map[uint64]*phase.Scheduler
	mgr         *session.Manager
	store       *staticdata.Store
	startAt     time.Time
}

// NewServer creates a new API server.
func NewServer(instruments []*instrument.Context, phases map[uint64]*phase.Scheduler, mgr *session.Manager, store *staticdata.Store) *Server {
	bySymbol := make(map[string]*instrument.Context, len(instruments))
	for _, ctx := range instruments {
		bySymbol[ctx.Descriptor.Symbol] = ctx
	}
	return &Server{
		instruments: instruments,
		bySymbol:    bySymbol,
		phases:      phases,
		mgr:         mgr,
		store:       store,
		startAt:     time.Now(),
	}
}

// Register attaches API routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/listings", s.handleListings)
	mux.HandleFunc("GET /api/listings/{symbol}", s.handleListingDetail)
	mux.HandleFunc("GET /api/registry/{symbol}", s.handleRegistry)
	mux.HandleFunc("GET /api/phase/{symbol}", s.handlePhase)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/venue", s.handleVenue)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolveSymbol looks up an instrument by symbol, writing a 404 if not
// found. Returns nil if the symbol was not found (error already written).
func (s *Server) resolveSymbol(w http.ResponseWriter, symbol string) *instrument.Context {
	ctx, ok := s.bySymbol[symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "symbol not found: "+symbol)
		return nil
	}
	return ctx
}
