package historical

import (
	"testing"
	"time"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/instrument"
)

type mapResolver map[string]*instrument.Context

func (m mapResolver) Resolve(key string) (*instrument.Context, bool) {
	ctx, ok := m[key]
	return ctx, ok
}

type recordingPublisher struct {
	published []domain.GeneratedMessage
}

func (p *recordingPublisher) Publish(ctx *instrument.Context, msg domain.GeneratedMessage) bool {
	p.published = append(p.published, msg)
	return true
}

func TestReplierAppliesAndPublishesOneActionPerTick(t *testing.T) {
	ctx := newTestContext()
	resolver := mapResolver{"TEST": ctx}
	pub := &recordingPublisher{}

	records := []domain.Record{
		{ReceiveTime: time.Second, Instrument: "TEST", Levels: []domain.RecordLevel{level(100, 10, 101, 10)}},
		{ReceiveTime: 2 * time.Second, Instrument: "TEST", Levels: []domain.RecordLevel{level(100, 10, 101, 10)}},
	}
	provider := NewProvider(records, false)
	sched := NewScheduler(provider)
	replier := NewReplier(sched, NewApplier(), resolver, pub, 10*time.Millisecond)

	replier.Prepare()
	replier.Execute()
	if len(pub.published) != 2 {
		t.Fatalf("after first tick, published = %d messages, want 2 (bid+offer new)", len(pub.published))
	}

	replier.Execute()
	if replier.Finished() {
		// both records consumed across the two ticks; fine either way: this
		// test only requires that the second tick runs without panicking
	}
	if len(pub.published) == 0 {
		t.Fatal("no messages published")
	}
}

func TestReplierDropsRecordsForUnresolvedInstrument(t *testing.T) {
	resolver := mapResolver{}
	pub := &recordingPublisher{}
	records := []domain.Record{{ReceiveTime: time.Second, Instrument: "UNKNOWN", Levels: []domain.RecordLevel{level(100, 10, 101, 10)}}}
	sched := NewScheduler(NewProvider(records, false))
	replier := NewReplier(sched, NewApplier(), resolver, pub, time.Millisecond)

	replier.Prepare()
	replier.Execute()
	if len(pub.published) != 0 {
		t.Fatalf("published = %d messages, want 0 for an unresolved instrument", len(pub.published))
	}
}
