// Package instrument implements the Instrument Context of spec §4.2: the
// composition root binding one instrument's static descriptor and listing
// configuration to its price seed, its Order Registry, and its Generation
// Manager. It follows the composition shape of the teacher's api.Server —
// one struct gathering the per-entity collaborators an instrument's
// executors and the protocol layer need, with synchronous accessors instead
// of exposing the collaborators directly.
package instrument

import (
	"sync"
	"sync/atomic"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/genmanager"
	"github.com/ordersim/venue-simulator/internal/registry"
)

// MarketStateFetcher is satisfied by the venue stub's InstrumentStateRequest
// round trip (spec §6). It is injected so the Context has no import-time
// dependency on the venue package.
type MarketStateFetcher interface {
	MarketState(instrumentID uint64) (domain.MarketState, bool)
}

// Context is the Instrument Context of spec §4.2: everything an executor or
// the protocol layer needs to act on behalf of one instrument.
type Context struct {
	Descriptor domain.InstrumentDescriptor
	Manager    *genmanager.Manager
	Registry   *registry.Registry

	mu        sync.RWMutex
	listing   domain.Listing
	priceSeed domain.PriceSeed

	fetcher MarketStateFetcher

	generatedCount atomic.Uint64
}

// New constructs an Instrument Context against a caller-supplied Generation
// Manager. The Manager is a process-wide singleton per running venue (spec
// §4.3): every instrument's context, and the venue's historical replier,
// share the one instance passed in here.
func New(desc domain.InstrumentDescriptor, listing domain.Listing, seed domain.PriceSeed, fetcher MarketStateFetcher, manager *genmanager.Manager) *Context {
	return &Context{
		Descriptor: desc,
		Manager:    manager,
		Registry:   registry.New(),
		listing:    listing,
		priceSeed:  seed,
		fetcher:    fetcher,
	}
}

// Listing returns the current listing configuration.
func (c *Context) Listing() domain.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listing
}

// SetListing replaces the listing configuration.
func (c *Context) SetListing(l domain.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listing = l
}

// PriceSeed returns the current price seed.
func (c *Context) PriceSeed() domain.PriceSeed {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.priceSeed
}

// SetPriceSeed replaces the price seed.
func (c *Context) SetPriceSeed(s domain.PriceSeed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.priceSeed = s
}

// NextSyntheticID delegates to the Generation Manager.
func (c *Context) NextSyntheticID() string {
	return c.Manager.NextSyntheticID()
}

// NextMessageNumber delegates to the Generation Manager.
func (c *Context) NextMessageNumber() uint64 {
	return c.Manager.NextMessageNumber()
}

// MarketState performs the synchronous InstrumentStateRequest round trip
// against the venue stub. Per spec §4.2 this swallows failure: a timed-out
// or errored round trip yields domain.MarketState{}.Empty() == true rather
// than propagating an error, since the random-generation algorithm treats an
// unknown market state identically to an empty book.
func (c *Context) MarketState() domain.MarketState {
	if c.fetcher == nil {
		return domain.MarketState{}
	}
	st, ok := c.fetcher.MarketState(c.Descriptor.InstrumentID)
	if !ok {
		return domain.MarketState{}
	}
	return st
}

// RecordGenerated increments the instrument's lifetime generated-message
// counter and returns the updated total, reported by the REST API.
func (c *Context) RecordGenerated() uint64 {
	return c.generatedCount.Add(1)
}

// GeneratedCount returns the lifetime generated-message counter.
func (c *Context) GeneratedCount() uint64 {
	return c.generatedCount.Load()
}
