package historical

import (
	"sort"
	"sync"
	"time"

	"github.com/ordersim/venue-simulator/internal/domain"
)

var epoch = time.Time{}

// Provider is the Historical Data Provider of spec §4.6: finite and
// repeating variants behind one contract. A finite provider (repeat=false)
// consumes its records destructively; a repeating provider restores the
// consumed records to the head and re-initializes its time offset once
// exhausted, making it effectively infinite.
type Provider struct {
	mu sync.Mutex

	pending  []domain.Record // remaining records, ascending by ReceiveTime
	original []domain.Record // full set, restored on repeat
	repeat   bool

	offset    time.Duration
	offsetSet bool
}

// NewProvider constructs a Provider over records, sorted ascending by
// ReceiveTime. repeat selects the repeating variant.
func NewProvider(records []domain.Record, repeat bool) *Provider {
	sorted := append([]domain.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ReceiveTime < sorted[j].ReceiveTime })
	return &Provider{
		pending:  append([]domain.Record(nil), sorted...),
		original: sorted,
		repeat:   repeat,
	}
}

// Prepare loads every Record from adapter into a new Provider and returns
// the count loaded, per spec §4.6's prepare(adapter) contract.
func Prepare(adapter DataAccessAdapter, repeat bool) (*Provider, int, error) {
	records, err := adapter.Load()
	if err != nil {
		return nil, 0, err
	}
	return NewProvider(records, repeat), len(records), nil
}

// IsEmpty reports whether the provider has no more records to offer.
func (p *Provider) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending) == 0
}

// InitializeTimeOffset computes offset = now - receive_time_of_next_record
// against the current head of the pending queue. It is a no-op if the
// provider is empty; the offset is then computed lazily on the next
// PullAction once records exist again (the repeating variant's refresh).
func (p *Provider) InitializeTimeOffset(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initializeOffsetLocked(now)
}

func (p *Provider) initializeOffsetLocked(now time.Time) {
	if len(p.pending) == 0 {
		p.offsetSet = false
		return
	}
	p.offset = now.Sub(epoch.Add(p.pending[0].ReceiveTime))
	p.offsetSet = true
}

// PullAction destructively consumes the earliest record and every
// subsequent record sharing its ReceiveTime, grouping them into one Action
// stamped with action_time = record.receive_time + offset. The time offset
// is computed lazily on first use. Returns false if the provider is empty
// (and, for the finite variant, stays empty).
func (p *Provider) PullAction(now time.Time) (domain.Action, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return domain.Action{}, false
	}
	if !p.offsetSet {
		p.initializeOffsetLocked(now)
	}

	head := p.pending[0]
	n := 1
	for n < len(p.pending) && p.pending[n].ReceiveTime == head.ReceiveTime {
		n++
	}
	group := append([]domain.Record(nil), p.pending[:n]...)
	p.pending = p.pending[n:]

	action := domain.Action{
		Records:    group,
		ActionTime: epoch.Add(head.ReceiveTime).Add(p.offset),
	}

	if len(p.pending) == 0 && p.repeat {
		p.pending = append([]domain.Record(nil), p.original...)
		p.offsetSet = false
	}

	return action, true
}
