package session

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
)

func testListings() []Listing {
	return []Listing{
		{InstrumentID: 1, Symbol: "NEXO"},
		{InstrumentID: 2, Symbol: "QBIT"},
		{InstrumentID: 3, Symbol: "BLITZ"},
	}
}

func newTestManager() *Manager {
	return NewManager(testListings(), 100)
}

func TestResolveSymbolsSpecific(t *testing.T) {
	m := newTestManager()
	ids, all := m.ResolveSymbols([]string{"NEXO", "QBIT"})
	if all {
		t.Fatal("should not be all")
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	set := make(map[uint64]bool)
	for _, id := range ids {
		set[id] = true
	}
	if !set[1] || !set[2] {
		t.Fatalf("expected instruments 1 and 2, got %v", ids)
	}
}

func TestResolveSymbolsWildcard(t *testing.T) {
	m := newTestManager()
	ids, all := m.ResolveSymbols([]string{"*"})
	if !all {
		t.Fatal("wildcard should set all=true")
	}
	if ids != nil {
		t.Fatalf("wildcard should return nil ids, got %v", ids)
	}
}

func TestResolveSymbolsUnknown(t *testing.T) {
	m := newTestManager()
	ids, all := m.ResolveSymbols([]string{"ZZZZ"})
	if all {
		t.Fatal("should not be all")
	}
	if len(ids) != 0 {
		t.Fatalf("expected 0 ids for unknown symbol, got %d", len(ids))
	}
}

func TestResolveSymbolsMixed(t *testing.T) {
	m := newTestManager()
	ids, all := m.ResolveSymbols([]string{"NEXO", "ZZZZ", "BLITZ"})
	if all {
		t.Fatal("should not be all")
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids (NEXO + BLITZ), got %d", len(ids))
	}
}

func TestResolveSymbolsWildcardShortCircuits(t *testing.T) {
	m := newTestManager()
	ids, all := m.ResolveSymbols([]string{"NEXO", "*", "BLITZ"})
	if !all {
		t.Fatal("wildcard should short-circuit to all=true")
	}
	if ids != nil {
		t.Fatalf("wildcard should return nil ids, got %v", ids)
	}
}

func TestBroadcastSkipsUnsubscribedClients(t *testing.T) {
	m := newTestManager()
	c := NewClient(nil, 10)
	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()

	c.Subscribe([]uint64{1})
	msgs := []domain.GeneratedMessage{{
		MessageType: domain.NewOrderSingle,
		Price:       decimal.NewFromInt(10),
		Quantity:    decimal.NewFromInt(1),
	}}
	m.Broadcast(2, "QBIT", msgs)
	select {
	case <-c.SendCh():
		t.Fatal("client should not have received a message for an unsubscribed instrument")
	default:
	}
}
