package archive

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
)

func TestToDocCapturesCoreFields(t *testing.T) {
	now := time.Now()
	msg := domain.GeneratedMessage{
		MessageType:   domain.NewOrderSingle,
		Instrument:    domain.InstrumentDescriptor{InstrumentID: 7, Symbol: "TEST"},
		Side:          domain.Buy,
		Price:         decimal.NewFromInt(100),
		Quantity:      decimal.NewFromInt(10),
		ClientOrderID: "C1",
		Party:         domain.Party{PartyID: "OWNER1"},
		OrderStatus:   domain.OrderStatusNew,
		MessageNumber: 42,
	}
	doc := toDoc(msg, now)
	if doc.MessageType != "NewOrderSingle" || doc.Symbol != "TEST" || doc.Side != "BUY" {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.Price != "100" || doc.Quantity != "10" {
		t.Fatalf("doc prices = %+v", doc)
	}
	if doc.ClientOrderID != "C1" || doc.PartyID != "OWNER1" || doc.MessageNumber != 42 {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestRecordAndTakeBatchDrainsBuffer(t *testing.T) {
	a := &Archiver{}
	a.Record(domain.GeneratedMessage{ClientOrderID: "C1"})
	a.Record(domain.GeneratedMessage{ClientOrderID: "C2"})

	batch := a.takeBatch()
	if len(batch) != 2 {
		t.Fatalf("len(batch) = %d, want 2", len(batch))
	}
	if rest := a.takeBatch(); len(rest) != 0 {
		t.Fatalf("buffer not drained: %d left", len(rest))
	}
}
