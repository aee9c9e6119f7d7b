// Package pgsource implements the relational Historical Data Provider
// backend of spec §4.6/§6: a DataAccessAdapter that reads a historical
// replay table from PostgreSQL via jackc/pgx.
package pgsource

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/simerrors"
)

// Config is the relational parsing parameters of spec §6, plus the
// connection properties a postgresql:// connection string is built from.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string

	Table          string
	MaxDepthLevels int
	ColumnMapping  map[string]string // target column name -> source SQL column name
}

// configure validates the connection-string contract of spec §6 and §7: a
// relational context missing host/port/user/dbname/password fails fast with
// ErrConnectionPropertyMissing rather than attempting to connect.
func (c Config) configure() (string, error) {
	missing := map[string]string{"host": c.Host, "port": c.Port, "user": c.User, "dbname": c.DBName, "password": c.Password}
	for name, v := range missing {
		if v == "" {
			return "", fmt.Errorf("%s: %w", name, simerrors.ErrConnectionPropertyMissing)
		}
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.DBName), nil
}

// Adapter is the relational DataAccessAdapter. It satisfies
// internal/historical.DataAccessAdapter structurally.
type Adapter struct {
	cfg Config
}

// NewAdapter constructs an Adapter. Construction never touches the network;
// connection-string validation and the query both happen in Load.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// Load implements historical.DataAccessAdapter: it connects, runs
// `SELECT * FROM <table> ORDER BY <ReceivedTimestamp column>`, and maps rows
// to domain.Record via cfg.ColumnMapping, the same fixed target-column set
// the CSV adapter uses (spec §6).
func (a *Adapter) Load() ([]domain.Record, error) {
	connStr, err := a.cfg.configure()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, simerrors.ErrConnectionFailure)
	}
	defer conn.Close(ctx)

	receiveCol := a.cfg.ColumnMapping[colReceivedTimestamp]
	if receiveCol == "" {
		receiveCol = "receive_time"
	}
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", a.cfg.Table, receiveCol)

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", a.cfg.Table, err)
	}
	defer rows.Close()

	byName := make(map[string]int)
	for i, fd := range rows.FieldDescriptions() {
		byName[string(fd.Name)] = i
	}

	depth := depthFromMapping(a.cfg.ColumnMapping)
	var records []domain.Record
	rowNum := 0
	for rows.Next() {
		rowNum++
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}
		rec, ok := rowToRecord(values, byName, a.cfg.ColumnMapping, depth, rowNum)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", a.cfg.Table, err)
	}
	return records, nil
}

const (
	colReceivedTimestamp = "ReceivedTimestamp"
	colMessageTimestamp  = "MessageTimestamp"
	colInstrument        = "Instrument"
)

func depthFromMapping(mapping map[string]string) int {
	depth := 0
	for k := 1; ; k++ {
		_, hasBid := mapping[fmt.Sprintf("BidPrice%d", k)]
		_, hasOffer := mapping[fmt.Sprintf("OfferPrice%d", k)]
		if !hasBid && !hasOffer {
			break
		}
		depth = k
	}
	return depth
}

func rowToRecord(values []any, byName map[string]int, mapping map[string]string, depth, rowNum int) (domain.Record, bool) {
	receive, ok := durationValue(values, byName, mapping[colReceivedTimestamp])
	if !ok {
		return domain.Record{}, false
	}
	rec := domain.Record{ReceiveTime: receive, SourceRow: rowNum}
	if d, ok := durationValue(values, byName, mapping[colMessageTimestamp]); ok {
		rec.MessageTime = &d
	}
	rec.Instrument = stringValue(values, byName, mapping[colInstrument])

	for k := 1; k <= depth; k++ {
		lvl := domain.RecordLevel{}
		if px, qty, ok := decimalPair(values, byName, mapping[fmt.Sprintf("BidPrice%d", k)], mapping[fmt.Sprintf("BidQuantity%d", k)]); ok {
			lvl.BidPrice, lvl.BidQty = px, qty
			lvl.BidCounterparty = stringValue(values, byName, mapping[fmt.Sprintf("BidParty%d", k)])
		}
		if px, qty, ok := decimalPair(values, byName, mapping[fmt.Sprintf("OfferPrice%d", k)], mapping[fmt.Sprintf("OfferQuantity%d", k)]); ok {
			lvl.OfferPrice, lvl.OfferQty = px, qty
			lvl.OfferCounterparty = stringValue(values, byName, mapping[fmt.Sprintf("OfferParty%d", k)])
		}
		if lvl.Processable() {
			rec.Levels = append(rec.Levels, lvl)
		}
	}
	return rec, true
}

func cellOf(values []any, byName map[string]int, col string) (any, bool) {
	if col == "" {
		return nil, false
	}
	idx, ok := byName[col]
	if !ok || idx >= len(values) {
		return nil, false
	}
	return values[idx], true
}

func stringValue(values []any, byName map[string]int, col string) string {
	v, ok := cellOf(values, byName, col)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func durationValue(values []any, byName map[string]int, col string) (time.Duration, bool) {
	v, ok := cellOf(values, byName, col)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return time.Duration(t), true
	case int32:
		return time.Duration(t), true
	case time.Time:
		return time.Duration(t.UnixNano()), true
	default:
		return 0, false
	}
}

func decimalPair(values []any, byName map[string]int, priceCol, qtyCol string) (*decimal.Decimal, *decimal.Decimal, bool) {
	pv, ok := cellOf(values, byName, priceCol)
	if !ok || pv == nil {
		return nil, nil, false
	}
	qv, ok := cellOf(values, byName, qtyCol)
	if !ok || qv == nil {
		return nil, nil, false
	}
	price, err := decimal.NewFromString(fmt.Sprint(pv))
	if err != nil {
		return nil, nil, false
	}
	qty, err := decimal.NewFromString(fmt.Sprint(qv))
	if err != nil {
		return nil, nil, false
	}
	return &price, &qty, true
}
