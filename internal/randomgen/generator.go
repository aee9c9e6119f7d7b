package randomgen

import (
	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/instrument"
)

// Rate normalizes a configured random_orders_rate (orders/sec) to a
// per-message sleep period, applying spec §4.4's 3/2 factor:
// period = 1s / (rate * 1.5).
func Rate(ordersPerSec float64) float64 {
	if ordersPerSec <= 0 {
		return 0
	}
	return 1.0 / (ordersPerSec * 1.5)
}

// Publisher receives a tick's GeneratedMessage for protocol adaptation and
// despatch to the venue. Modelled after the session package's per-client
// send channel: Publish must not block the generator for long, and the
// generator treats a false return as a transient skip rather than an error.
type Publisher interface {
	Publish(ctx *instrument.Context, msg domain.GeneratedMessage) bool
}

// PartyAllocator hands out synthetic counterparty identities to an
// instrument's generator. Historical replay does not use it; the applier
// names its own counterparties CP<k>.
type PartyAllocator interface {
	NextPartyID(instrumentID uint64) string
}

// Generator runs the Random Generation Algorithm for one instrument. It
// holds no goroutine of its own — internal/executor drives Tick on a
// dedicated goroutine gated by the instrument's Generation Manager, mirroring
// how the teacher's main.go separates the per-symbol loop from the
// Simulator it drives.
type Generator struct {
	algo      *Algorithm
	ctx       *instrument.Context
	publisher Publisher
	parties   PartyAllocator
}

// NewGenerator constructs a Generator for ctx drawing from rng, which may be
// shared with other instruments' generators (RNG is safe for concurrent use).
func NewGenerator(ctx *instrument.Context, rng *RNG, publisher Publisher, parties PartyAllocator) *Generator {
	return &Generator{
		algo:      New(rng),
		ctx:       ctx,
		publisher: publisher,
		parties:   parties,
	}
}

// Tick runs a single iteration of the algorithm against the instrument's
// current listing/seed/market-state/registry and, if the algorithm chose to
// publish, despatches the result through the Publisher (registry mutation
// happens there: the Dispatcher applies the Registry Updater's outbound
// half, adding a resting NewOrderSingle at emission time).
func (g *Generator) Tick() {
	listing := g.ctx.Listing()
	if !listing.CanGenerate() {
		return
	}
	seed := g.ctx.PriceSeed()
	market := g.ctx.MarketState()

	var orders []domain.OrderData
	g.ctx.Registry.ForEach(func(o domain.OrderData) { orders = append(orders, o) })

	msg, publish := g.algo.Next(listing, seed, market, Snapshot{Orders: orders}, g.ctx.NextSyntheticID, func() string {
		return g.parties.NextPartyID(g.ctx.Descriptor.InstrumentID)
	})
	if !publish {
		return
	}
	msg.Instrument = g.ctx.Descriptor
	msg.MessageNumber = g.ctx.NextMessageNumber()

	if g.publisher.Publish(g.ctx, msg) {
		g.ctx.RecordGenerated()
	}
}
