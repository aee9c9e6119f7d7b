package historical

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
)

// CSVConfig is the CSV parsing parameters of spec §6.
type CSVConfig struct {
	Path      string
	Delimiter rune
	HeaderRow int // 0 = none, else 1-based index into the raw row list
	DataRow   int // 1-based first data row
	MaxDepth  int // 0 means "all"
}

// CSVAdapter is the flat-file DataAccessAdapter of spec §4.6. When mapping
// is empty, Load infers the canonical fixed-layout mapping from the column
// count of the first data row via defaultColumnMapping.
type CSVAdapter struct {
	cfg     CSVConfig
	mapping ColumnMapping
}

// NewCSVAdapter constructs a CSVAdapter. Pass a nil or empty mapping to use
// the canonical fixed-layout column order.
func NewCSVAdapter(cfg CSVConfig, mapping ColumnMapping) *CSVAdapter {
	return &CSVAdapter{cfg: cfg, mapping: mapping}
}

// Load implements DataAccessAdapter.
func (a *CSVAdapter) Load() ([]domain.Record, error) {
	f, err := os.Open(a.cfg.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if a.cfg.Delimiter != 0 {
		r.Comma = a.cfg.Delimiter
	}
	r.FieldsPerRecord = -1 // rows may legitimately vary by level-count in hand-authored fixtures

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var header []string
	if a.cfg.HeaderRow > 0 && a.cfg.HeaderRow <= len(rows) {
		header = rows[a.cfg.HeaderRow-1]
	}

	dataStart := a.cfg.DataRow - 1
	if dataStart < 0 {
		dataStart = 0
	}
	if dataStart >= len(rows) {
		return nil, nil
	}
	dataRows := rows[dataStart:]

	mapping := a.mapping
	if len(mapping) == 0 {
		inferred := inferredDepth(len(dataRows[0]))
		mapping = defaultColumnMapping(effectiveDepth(inferred, a.cfg.MaxDepth))
	}
	resolved, err := resolveColumns(mapping, header)
	if err != nil {
		return nil, err
	}
	depth := mappingDepth(mapping)

	records := make([]domain.Record, 0, len(dataRows))
	for i, row := range dataRows {
		rec, ok := parseRow(row, resolved, depth, dataStart+i+1)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// resolveColumns turns each mapping entry's source reference (a 1-based
// column number, or a header name when header is non-nil) into a 0-based
// slice index.
func resolveColumns(mapping ColumnMapping, header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[h] = i
	}
	out := make(map[string]int, len(mapping))
	for target, src := range mapping {
		if n, err := strconv.Atoi(src); err == nil {
			out[target] = n - 1
			continue
		}
		idx, ok := byName[src]
		if !ok {
			continue // unmapped target: left absent, treated as not supplied
		}
		out[target] = idx
	}
	return out, nil
}

func mappingDepth(mapping ColumnMapping) int {
	depth := 0
	for k := 1; ; k++ {
		if _, ok := mapping[colBidPrice(k)]; !ok {
			if _, ok := mapping[colOfferPrice(k)]; !ok {
				break
			}
		}
		depth = k
	}
	return depth
}

func parseRow(row []string, cols map[string]int, depth, rowNum int) (domain.Record, bool) {
	receive, ok := parseDuration(row, cols, colReceivedTimestamp)
	if !ok {
		log.Printf("historical csv: row %d: malformed or missing receive time, skipping", rowNum)
		return domain.Record{}, false
	}
	rec := domain.Record{ReceiveTime: receive, SourceRow: rowNum}
	if d, ok := parseDuration(row, cols, colMessageTimestamp); ok {
		rec.MessageTime = &d
	}
	if idx, ok := cols[colInstrument]; ok && idx < len(row) {
		rec.Instrument = row[idx]
	}

	for k := 1; k <= depth; k++ {
		lvl := domain.RecordLevel{}
		if px, qty, ok := parseLevel(row, cols, colBidPrice(k), colBidQuantity(k)); ok {
			lvl.BidPrice, lvl.BidQty = px, qty
			lvl.BidCounterparty = cellValue(row, cols, colBidParty(k))
		}
		if px, qty, ok := parseLevel(row, cols, colOfferPrice(k), colOfferQuantity(k)); ok {
			lvl.OfferPrice, lvl.OfferQty = px, qty
			lvl.OfferCounterparty = cellValue(row, cols, colOfferParty(k))
		}
		if lvl.Processable() {
			rec.Levels = append(rec.Levels, lvl)
		}
	}
	return rec, true
}

func parseLevel(row []string, cols map[string]int, priceCol, qtyCol string) (*decimal.Decimal, *decimal.Decimal, bool) {
	pIdx, ok := cols[priceCol]
	if !ok || pIdx >= len(row) {
		return nil, nil, false
	}
	qIdx, ok := cols[qtyCol]
	if !ok || qIdx >= len(row) {
		return nil, nil, false
	}
	if row[pIdx] == "" || row[qIdx] == "" {
		return nil, nil, false
	}
	price, err := decimal.NewFromString(row[pIdx])
	if err != nil {
		return nil, nil, false
	}
	qty, err := decimal.NewFromString(row[qIdx])
	if err != nil {
		return nil, nil, false
	}
	return &price, &qty, true
}

func cellValue(row []string, cols map[string]int, col string) string {
	idx, ok := cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseDuration(row []string, cols map[string]int, col string) (time.Duration, bool) {
	idx, ok := cols[col]
	if !ok || idx >= len(row) || row[idx] == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(row[idx], 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(n), true
}
