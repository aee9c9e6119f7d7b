package domain

import "github.com/shopspring/decimal"

// SecurityIdentifier is the first-present identifier taken from the source
// priority ExchangeSymbol, ISIN, CUSIP, SEDOL, RIC, BloombergSymbol.
type SecurityIdentifier struct {
	Value  string
	Source SecurityIDSource
}

// PartyRef is the optional {party-id, party-role} pair attached to an instrument.
type PartyRef struct {
	PartyID string
	Role    PartyRole
}

// InstrumentDescriptor is the immutable handle identifying an instrument to
// the matching engine. Created once per enabled listing at startup.
type InstrumentDescriptor struct {
	InstrumentID    uint64
	Symbol          string
	SecurityType    SecurityType
	PriceCurrency   string
	FxBaseCurrency  string // only meaningful when SecurityType.IsFx()
	SecurityExchange string
	Party           *PartyRef
	SecurityID      *SecurityIdentifier
}

// Listing is the per-instrument generation tuning loaded at startup and
// treated as immutable by the generator thereafter.
type Listing struct {
	InstrumentID uint64
	Symbol       string

	Enabled            bool
	RandomOrdersEnabled bool
	RandomOrdersRate    decimal.Decimal // orders/sec; must be > 0 to generate

	RandomOrdersSpread decimal.Decimal // pct
	RandomTickRange    int
	RandomDepthLevels  int

	RandomQtyMin decimal.Decimal
	RandomQtyMax decimal.Decimal
	RandomAmtMin decimal.Decimal
	RandomAmtMax decimal.Decimal

	RandomAggressiveQtyMin decimal.Decimal
	RandomAggressiveQtyMax decimal.Decimal
	RandomAggressiveAmtMin decimal.Decimal
	RandomAggressiveAmtMax decimal.Decimal

	PriceTick   decimal.Decimal
	QtyMinimum  decimal.Decimal
	QtyMaximum  decimal.Decimal
	QtyMultiple decimal.Decimal
}

// CanGenerate reports whether the listing is eligible for random generation.
func (l Listing) CanGenerate() bool {
	return l.Enabled && l.RandomOrdersEnabled && l.RandomOrdersRate.IsPositive()
}

// PriceSeed is the baseline price used when the book is uninitialised.
type PriceSeed struct {
	Symbol string
	Mid    *decimal.Decimal
	Bid    *decimal.Decimal
	Offer  *decimal.Decimal
}

// Valid reports whether the seed carries enough information to derive both
// a bid-side and an offer-side reference price.
func (p PriceSeed) Valid() bool {
	hasBid := p.Bid != nil || p.Mid != nil
	hasOffer := p.Offer != nil || p.Mid != nil
	return hasBid && hasOffer
}

// ReferenceBid returns the best available bid-side reference price.
func (p PriceSeed) ReferenceBid() (decimal.Decimal, bool) {
	if p.Bid != nil {
		return *p.Bid, true
	}
	if p.Mid != nil {
		return *p.Mid, true
	}
	return decimal.Zero, false
}

// ReferenceOffer returns the best available offer-side reference price.
func (p PriceSeed) ReferenceOffer() (decimal.Decimal, bool) {
	if p.Offer != nil {
		return *p.Offer, true
	}
	if p.Mid != nil {
		return *p.Mid, true
	}
	return decimal.Zero, false
}

// MarketState is the transient, on-demand per-instrument market snapshot.
type MarketState struct {
	BestBid    decimal.Decimal
	BestOffer  decimal.Decimal
	BidDepth   int
	OfferDepth int
}

// Empty reports whether the state carries no usable prices (failed fetch).
func (m MarketState) Empty() bool {
	return m.BestBid.IsZero() && m.BestOffer.IsZero()
}

// Venue is the static description of one simulated exchange.
type Venue struct {
	VenueID  string
	Timezone string // IANA timezone name, e.g. "America/New_York"

	// OrdersOnStartup seeds the venue's Generation Manager Active iff true,
	// else Suspended.
	OrdersOnStartup bool
}

// DatasourceKind distinguishes the backing store a Datasource's parsing
// parameters describe.
type DatasourceKind int8

const (
	DatasourceKindUnspecified DatasourceKind = iota
	DatasourceKindCSV
	DatasourceKindRelational
)

// Datasource is the static description of one historical-replay feed: which
// instrument it drives, whether it repeats once exhausted, and the typed
// configuration (CSV parsing parameters or a relational table name) plus
// column mapping needed to parse it (spec §4.6, §6).
type Datasource struct {
	Name         string
	InstrumentID uint64
	Kind         DatasourceKind
	Repeat       bool

	// CSV-specific; meaningful when Kind == DatasourceKindCSV.
	Path      string
	Delimiter rune
	HeaderRow int
	DataRow   int

	// Relational-specific; meaningful when Kind == DatasourceKindRelational.
	Table string

	MaxDepthLevels int
	ColumnMapping  map[string]string
}
