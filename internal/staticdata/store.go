package staticdata

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/simerrors"
)

// Store wraps the MongoDB client and database holding the venue's static
// configuration (listings, datasources, price seeds, venues), read-only
// from the core's perspective.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and returns a Store. The URI should include
// the database name (e.g. mongodb://localhost:27017/ordersim); if absent,
// "ordersim" is used.
func NewStore(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	dbName := "ordersim"
	if u, err := url.Parse(uri); err == nil {
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			dbName = name
		}
	}

	log.Printf("connected to MongoDB (db=%s)", dbName)
	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) {
	s.client.Disconnect(ctx)
}

// findOneStrict decodes the single document matching filter in coll,
// distinguishing the two cardinality failures of spec §7: zero matches wraps
// mongo.ErrNoDocuments, more than one wraps simerrors.ErrCardinalityViolation.
// FindOne alone cannot detect the latter, since it silently returns the
// first match.
func findOneStrict[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (T, error) {
	var zero T
	cur, err := coll.Find(ctx, filter, options.Find().SetLimit(2))
	if err != nil {
		return zero, err
	}
	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return zero, err
	}
	switch len(docs) {
	case 0:
		return zero, mongo.ErrNoDocuments
	case 1:
		return docs[0], nil
	default:
		return zero, simerrors.ErrCardinalityViolation
	}
}

// Migrate creates idempotent indexes on every collection.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{"listings", mongo.IndexModel{Keys: bson.D{{Key: "instrument_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{"datasources", mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{"datasources", mongo.IndexModel{Keys: bson.D{{Key: "instrument_id", Value: 1}}}},
		{"price_seeds", mongo.IndexModel{Keys: bson.D{{Key: "symbol", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{"venues", mongo.IndexModel{Keys: bson.D{{Key: "venue_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{"phase_records", mongo.IndexModel{Keys: bson.D{{Key: "begin", Value: 1}}}},
	}
	for _, i := range indexes {
		if _, err := s.db.Collection(i.collection).Indexes().CreateOne(ctx, i.model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.collection, err)
		}
	}
	log.Println("MongoDB static-data indexes ensured")
	return nil
}

// listingDoc is the on-disk shape of a Listing; decimal fields are stored as
// strings since the mongo driver has no native decimal.Decimal codec.
type listingDoc struct {
	InstrumentID uint64 `bson:"instrument_id"`
	Symbol       string `bson:"symbol"`

	Enabled             bool   `bson:"enabled"`
	RandomOrdersEnabled bool   `bson:"random_orders_enabled"`
	RandomOrdersRate    string `bson:"random_orders_rate"`

	RandomOrdersSpread string `bson:"random_orders_spread"`
	RandomTickRange    int    `bson:"random_tick_range"`
	RandomDepthLevels  int    `bson:"random_depth_levels"`

	RandomQtyMin string `bson:"random_qty_min"`
	RandomQtyMax string `bson:"random_qty_max"`
	RandomAmtMin string `bson:"random_amt_min"`
	RandomAmtMax string `bson:"random_amt_max"`

	RandomAggressiveQtyMin string `bson:"random_aggressive_qty_min"`
	RandomAggressiveQtyMax string `bson:"random_aggressive_qty_max"`
	RandomAggressiveAmtMin string `bson:"random_aggressive_amt_min"`
	RandomAggressiveAmtMax string `bson:"random_aggressive_amt_max"`

	PriceTick   string `bson:"price_tick"`
	QtyMinimum  string `bson:"qty_minimum"`
	QtyMaximum  string `bson:"qty_maximum"`
	QtyMultiple string `bson:"qty_multiple"`
}

func (d listingDoc) toDomain() domain.Listing {
	dec := func(s string) decimal.Decimal {
		v, _ := decimal.NewFromString(s)
		return v
	}
	return domain.Listing{
		InstrumentID:           d.InstrumentID,
		Symbol:                 d.Symbol,
		Enabled:                d.Enabled,
		RandomOrdersEnabled:    d.RandomOrdersEnabled,
		RandomOrdersRate:       dec(d.RandomOrdersRate),
		RandomOrdersSpread:     dec(d.RandomOrdersSpread),
		RandomTickRange:        d.RandomTickRange,
		RandomDepthLevels:      d.RandomDepthLevels,
		RandomQtyMin:           dec(d.RandomQtyMin),
		RandomQtyMax:           dec(d.RandomQtyMax),
		RandomAmtMin:           dec(d.RandomAmtMin),
		RandomAmtMax:           dec(d.RandomAmtMax),
		RandomAggressiveQtyMin: dec(d.RandomAggressiveQtyMin),
		RandomAggressiveQtyMax: dec(d.RandomAggressiveQtyMax),
		RandomAggressiveAmtMin: dec(d.RandomAggressiveAmtMin),
		RandomAggressiveAmtMax: dec(d.RandomAggressiveAmtMax),
		PriceTick:              dec(d.PriceTick),
		QtyMinimum:             dec(d.QtyMinimum),
		QtyMaximum:             dec(d.QtyMaximum),
		QtyMultiple:            dec(d.QtyMultiple),
	}
}

// SelectAllListings returns every Listing matching pred.
func (s *Store) SelectAllListings(ctx context.Context, pred Predicate) ([]domain.Listing, error) {
	cur, err := s.db.Collection("listings").Find(ctx, toFilter(pred))
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	out := make([]domain.Listing, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

type datasourceDoc struct {
	Name         string `bson:"name"`
	InstrumentID uint64 `bson:"instrument_id"`
	Kind         string `bson:"kind"` // "csv" | "relational"
	Repeat       bool   `bson:"repeat"`

	Path      string `bson:"path"`
	Delimiter string `bson:"delimiter"`
	HeaderRow int    `bson:"header_row"`
	DataRow   int    `bson:"data_row"`

	Table string `bson:"table"`

	MaxDepthLevels int               `bson:"max_depth_levels"`
	ColumnMapping  map[string]string `bson:"column_mapping"`
}

func (d datasourceDoc) toDomain() domain.Datasource {
	kind := domain.DatasourceKindUnspecified
	switch d.Kind {
	case "csv":
		kind = domain.DatasourceKindCSV
	case "relational":
		kind = domain.DatasourceKindRelational
	}
	var delim rune
	if len(d.Delimiter) > 0 {
		delim = []rune(d.Delimiter)[0]
	}
	return domain.Datasource{
		Name:           d.Name,
		InstrumentID:   d.InstrumentID,
		Kind:           kind,
		Repeat:         d.Repeat,
		Path:           d.Path,
		Delimiter:      delim,
		HeaderRow:      d.HeaderRow,
		DataRow:        d.DataRow,
		Table:          d.Table,
		MaxDepthLevels: d.MaxDepthLevels,
		ColumnMapping:  d.ColumnMapping,
	}
}

// SelectAllDatasources returns every Datasource matching pred.
func (s *Store) SelectAllDatasources(ctx context.Context, pred Predicate) ([]domain.Datasource, error) {
	cur, err := s.db.Collection("datasources").Find(ctx, toFilter(pred))
	if err != nil {
		return nil, fmt.Errorf("query datasources: %w", err)
	}
	defer cur.Close(ctx)

	var docs []datasourceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode datasources: %w", err)
	}
	out := make([]domain.Datasource, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

type priceSeedDoc struct {
	Symbol string  `bson:"symbol"`
	Mid    *string `bson:"mid,omitempty"`
	Bid    *string `bson:"bid,omitempty"`
	Offer  *string `bson:"offer,omitempty"`
}

func (d priceSeedDoc) toDomain() domain.PriceSeed {
	parse := func(s *string) *decimal.Decimal {
		if s == nil {
			return nil
		}
		v, err := decimal.NewFromString(*s)
		if err != nil {
			return nil
		}
		return &v
	}
	return domain.PriceSeed{Symbol: d.Symbol, Mid: parse(d.Mid), Bid: parse(d.Bid), Offer: parse(d.Offer)}
}

// SelectOnePriceSeed returns the single PriceSeed matching pred.
func (s *Store) SelectOnePriceSeed(ctx context.Context, pred Predicate) (domain.PriceSeed, error) {
	d, err := findOneStrict[priceSeedDoc](ctx, s.db.Collection("price_seeds"), toFilter(pred))
	if err != nil {
		return domain.PriceSeed{}, fmt.Errorf("query price seed: %w", err)
	}
	return d.toDomain(), nil
}

type venueDoc struct {
	VenueID         string `bson:"venue_id"`
	Timezone        string `bson:"timezone"`
	OrdersOnStartup bool   `bson:"orders_on_startup"`
}

// SelectOneVenue returns the single Venue matching pred.
func (s *Store) SelectOneVenue(ctx context.Context, pred Predicate) (domain.Venue, error) {
	d, err := findOneStrict[venueDoc](ctx, s.db.Collection("venues"), toFilter(pred))
	if err != nil {
		return domain.Venue{}, fmt.Errorf("query venue: %w", err)
	}
	return domain.Venue{VenueID: d.VenueID, Timezone: d.Timezone, OrdersOnStartup: d.OrdersOnStartup}, nil
}

// phaseRecordDoc is the on-disk shape of a domain.PhaseRecord; time-of-day
// bounds are stored as "HH:MM[:SS]" strings per spec §3.
type phaseRecordDoc struct {
	Begin              string `bson:"begin"`
	End                string `bson:"end"`
	EndRangeSeconds    int    `bson:"end_range_seconds"`
	Phase              string `bson:"phase"`
	AllowCancelsOnHalt bool   `bson:"allow_cancels_on_halt"`
}

func (d phaseRecordDoc) toDomain() (domain.PhaseRecord, error) {
	begin, err := domain.ParseTimeOfDay(d.Begin)
	if err != nil {
		return domain.PhaseRecord{}, fmt.Errorf("phase record begin: %w", err)
	}
	end, err := domain.ParseTimeOfDay(d.End)
	if err != nil {
		return domain.PhaseRecord{}, fmt.Errorf("phase record end: %w", err)
	}
	phase, err := domain.ParsePhase(d.Phase)
	if err != nil {
		return domain.PhaseRecord{}, fmt.Errorf("phase record phase: %w", err)
	}
	return domain.PhaseRecord{
		Begin:              begin,
		End:                end,
		EndRangeSeconds:    d.EndRangeSeconds,
		Phase:              phase,
		AllowCancelsOnHalt: d.AllowCancelsOnHalt,
	}, nil
}

// SelectAllPhaseRecords returns the venue-wide trading-phase schedule
// matching pred, loaded once at startup and held read-only by every
// instrument's Phase Scheduler (spec §3, §4.9).
func (s *Store) SelectAllPhaseRecords(ctx context.Context, pred Predicate) ([]domain.PhaseRecord, error) {
	cur, err := s.db.Collection("phase_records").Find(ctx, toFilter(pred))
	if err != nil {
		return nil, fmt.Errorf("query phase records: %w", err)
	}
	defer cur.Close(ctx)

	var docs []phaseRecordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode phase records: %w", err)
	}
	out := make([]domain.PhaseRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := d.toDomain()
		if err != nil {
			log.Printf("static data: skipping invalid phase record: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
