package historical

import (
	"strconv"

	"github.com/ordersim/venue-simulator/internal/domain"
)

// DataAccessAdapter converts a typed datasource configuration into a stream
// of domain.Record (spec §4.6). internal/historical/csv.go implements one
// for flat files; internal/pgsource implements one for PostgreSQL.
type DataAccessAdapter interface {
	Load() ([]domain.Record, error)
}

// ColumnMapping maps a target column name to a source column reference: a
// 1-based column number encoded as a string ("6"), or a header name matched
// against the file's header row when one is configured (spec §6). Target
// names follow the fixed set documented there: ReceivedTimestamp,
// MessageTimestamp, Instrument, and per level k (1-based) BidParty<k>,
// BidQuantity<k>, BidPrice<k>, OfferPrice<k>, OfferQuantity<k>,
// OfferParty<k>.
type ColumnMapping map[string]string

const (
	colReceivedTimestamp = "ReceivedTimestamp"
	colMessageTimestamp  = "MessageTimestamp"
	colInstrument        = "Instrument"
)

func colBidParty(k int) string      { return levelCol("BidParty", k) }
func colBidQuantity(k int) string   { return levelCol("BidQuantity", k) }
func colBidPrice(k int) string      { return levelCol("BidPrice", k) }
func colOfferPrice(k int) string    { return levelCol("OfferPrice", k) }
func colOfferQuantity(k int) string { return levelCol("OfferQuantity", k) }
func colOfferParty(k int) string    { return levelCol("OfferParty", k) }

func levelCol(name string, k int) string {
	return name + strconv.Itoa(k)
}

// defaultColumnMapping builds the canonical fixed-layout mapping described
// in spec §4.6: three leading columns (receive time, message time,
// instrument), then six columns per level in the order BidParty,
// BidQuantity, BidPrice, OfferPrice, OfferQuantity, OfferParty. depth is the
// number of levels to map, already clamped to the configured maximum.
func defaultColumnMapping(depth int) ColumnMapping {
	m := ColumnMapping{
		colReceivedTimestamp: "1",
		colMessageTimestamp:  "2",
		colInstrument:        "3",
	}
	for k := 1; k <= depth; k++ {
		base := 3 + (k-1)*6
		m[colBidParty(k)] = strconv.Itoa(base + 1)
		m[colBidQuantity(k)] = strconv.Itoa(base + 2)
		m[colBidPrice(k)] = strconv.Itoa(base + 3)
		m[colOfferPrice(k)] = strconv.Itoa(base + 4)
		m[colOfferQuantity(k)] = strconv.Itoa(base + 5)
		m[colOfferParty(k)] = strconv.Itoa(base + 6)
	}
	return m
}

// inferredDepth applies spec §4.6's column-count formula: depth = (cols-3)/6,
// three non-levelled columns plus six per level.
func inferredDepth(cols int) int {
	d := (cols - 3) / 6
	if d < 0 {
		return 0
	}
	return d
}

// effectiveDepth clamps inferred to maxDepth, treating maxDepth <= 0 as "all".
func effectiveDepth(inferred, maxDepth int) int {
	if maxDepth <= 0 || maxDepth > inferred {
		return inferred
	}
	return maxDepth
}
