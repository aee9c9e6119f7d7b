package httpapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/instrument"
)

type listingInfo struct {
	InstrumentID        uint64 `json:"instrumentId"`
	Symbol              string `json:"symbol"`
	Enabled             bool   `json:"enabled"`
	RandomOrdersEnabled bool   `json:"randomOrdersEnabled"`
	RandomOrdersRate    string `json:"randomOrdersRate"`
	GeneratedCount      uint64 `json:"generatedCount"`
	RegistrySize        int    `json:"registrySize"`
}

func listingInfoOf(ctx *instrument.Context) listingInfo {
	l := ctx.Listing()
	return listingInfo{
		InstrumentID:        ctx.Descriptor.InstrumentID,
		Symbol:              ctx.Descriptor.Symbol,
		Enabled:             l.Enabled,
		RandomOrdersEnabled: l.RandomOrdersEnabled,
		RandomOrdersRate:    l.RandomOrdersRate.String(),
		GeneratedCount:      ctx.GeneratedCount(),
		RegistrySize:        ctx.Registry.Len(),
	}
}

// handleListings returns every configured instrument's listing summary.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	out := make([]listingInfo, 0, len(s.instruments))
	for _, ctx := range s.instruments {
		out = append(out, listingInfoOf(ctx))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	writeJSON(w, http.StatusOK, out)
}

// handleListingDetail returns a single instrument's listing summary.
func (s *Server) handleListingDetail(w http.ResponseWriter, r *http.Request) {
	ctx := s.resolveSymbol(w, r.PathValue("symbol"))
	if ctx == nil {
		return
	}
	writeJSON(w, http.StatusOK, listingInfoOf(ctx))
}

type levelJSON struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Orders   int    `json:"orders"`
}

type registryResponse struct {
	Symbol string      `json:"symbol"`
	Bids   []levelJSON `json:"bids"`
	Offers []levelJSON `json:"offers"`
	Orders int         `json:"orders"`
}

// priceLevel accumulates the orders resting at one price on one side.
type priceLevel struct {
	price  decimal.Decimal
	qty    decimal.Decimal
	orders int
}

// handleRegistry returns a price-level aggregation of an instrument's
// currently resting orders, read directly off its Order Registry.
func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := s.resolveSymbol(w, r.PathValue("symbol"))
	if ctx == nil {
		return
	}

	bids := make(map[string]*priceLevel)
	offers := make(map[string]*priceLevel)
	total := 0

	ctx.Registry.ForEach(func(o domain.OrderData) {
		total++
		target := bids
		if o.Side == domain.Sell {
			target = offers
		}
		key := o.Price.String()
		lvl, ok := target[key]
		if !ok {
			lvl = &priceLevel{price: o.Price}
			target[key] = lvl
		}
		lvl.qty = lvl.qty.Add(o.Qty)
		lvl.orders++
	})

	bidLevels := sortedLevels(bids, true)
	offerLevels := sortedLevels(offers, false)

	resp := registryResponse{
		Symbol: ctx.Descriptor.Symbol,
		Orders: total,
		Bids:   make([]levelJSON, len(bidLevels)),
		Offers: make([]levelJSON, len(offerLevels)),
	}
	for i, lvl := range bidLevels {
		resp.Bids[i] = levelJSON{Price: lvl.price.String(), Quantity: lvl.qty.String(), Orders: lvl.orders}
	}
	for i, lvl := range offerLevels {
		resp.Offers[i] = levelJSON{Price: lvl.price.String(), Quantity: lvl.qty.String(), Orders: lvl.orders}
	}

	writeJSON(w, http.StatusOK, resp)
}

// sortedLevels flattens levels into a slice ordered by price: descending for
// the bid side (best bid first), ascending for the offer side (best offer
// first).
func sortedLevels(levels map[string]*priceLevel, descending bool) []*priceLevel {
	out := make([]*priceLevel, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, lvl)
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].price.GreaterThan(out[j].price)
		}
		return out[i].price.LessThan(out[j].price)
	})
	return out
}

type phaseResponse struct {
	Symbol       string `json:"symbol"`
	Phase        string `json:"phase"`
	AllowCancels bool   `json:"allowCancelsOnHalt"`
}

// handlePhase returns an instrument's current trading phase.
func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	ctx := s.resolveSymbol(w, r.PathValue("symbol"))
	if ctx == nil {
		return
	}
	sched, ok := s.phases[ctx.Descriptor.InstrumentID]
	if !ok {
		writeError(w, http.StatusNotFound, "no phase schedule for symbol: "+ctx.Descriptor.Symbol)
		return
	}
	writeJSON(w, http.StatusOK, phaseResponse{
		Symbol:       ctx.Descriptor.Symbol,
		Phase:        sched.Current().String(),
		AllowCancels: sched.CancelsAllowed(),
	})
}

type statsResponse struct {
	Uptime         string `json:"uptime"`
	Clients        int    `json:"clients"`
	Instruments    int    `json:"instruments"`
	TotalOrders    int    `json:"totalOrders"`
	TotalGenerated uint64 `json:"totalGenerated"`
}

// handleStats returns runtime and aggregate statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var totalOrders int
	var totalGenerated uint64
	for _, ctx := range s.instruments {
		totalOrders += ctx.Registry.Len()
		totalGenerated += ctx.GeneratedCount()
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Uptime:         time.Since(s.startAt).Truncate(time.Second).String(),
		Clients:        s.mgr.ClientCount(),
		Instruments:    len(s.instruments),
		TotalOrders:    totalOrders,
		TotalGenerated: totalGenerated,
	})
}

type venueResponse struct {
	VenueID  string `json:"venueId"`
	Timezone string `json:"timezone"`
}

// handleVenue returns the venue's static description, read from the
// static-data store on every call since it changes only by operator action.
func (s *Server) handleVenue(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "static data store not configured")
		return
	}
	v, err := s.store.SelectOneVenue(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusNotFound, "venue record not found")
		return
	}
	writeJSON(w, http.StatusOK, venueResponse{VenueID: v.VenueID, Timezone: v.Timezone})
}
