package historical

import (
	"log"
	"time"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/instrument"
)

// InstrumentResolver routes a Record's Instrument key (as it appears in the
// datasource) to the live Instrument Context it belongs to. Spec §5: there
// is at most one historical-replier Executor for the whole venue, so one
// Replier fans a single datasource out across every instrument it names.
type InstrumentResolver interface {
	Resolve(instrumentKey string) (*instrument.Context, bool)
}

// Publisher sends one GeneratedMessage out on behalf of ctx. It mirrors
// internal/randomgen's Publisher contract so both executors drive the same
// venue-facing plumbing.
type Publisher interface {
	Publish(ctx *instrument.Context, msg domain.GeneratedMessage) bool
}

// Replier is the historical-replier Executable of spec §4.8: it drives a
// Scheduler, applying each arriving Record through an Applier against the
// Record's target instrument and publishing the resulting messages.
type Replier struct {
	scheduler *Scheduler
	applier   *Applier
	resolver  InstrumentResolver
	publisher Publisher
	timeout   time.Duration // NextExecTimeout floor when the scheduler reports zero but work remains
}

// NewReplier constructs a Replier. timeout bounds how long the executor
// sleeps when the scheduler's next action is already due, so the dedicated
// goroutine still yields between ticks instead of busy-looping.
func NewReplier(scheduler *Scheduler, applier *Applier, resolver InstrumentResolver, publisher Publisher, timeout time.Duration) *Replier {
	return &Replier{scheduler: scheduler, applier: applier, resolver: resolver, publisher: publisher, timeout: timeout}
}

// Prepare implements executor.Executable.
func (r *Replier) Prepare() {
	r.scheduler.Initialize(time.Now())
}

// Execute implements executor.Executable: it processes at most one Action
// per tick, applying each of its Records against the resolved instrument
// and publishing the resulting messages in order.
func (r *Replier) Execute() {
	r.scheduler.ProcessNextAction(time.Now(), func(action domain.Action) {
		for _, rec := range action.Records {
			r.applyRecord(rec)
		}
	})
}

func (r *Replier) applyRecord(rec domain.Record) {
	ctx, ok := r.resolver.Resolve(rec.Instrument)
	if !ok {
		log.Printf("historical replier: unresolved instrument %q (source row %d), record dropped", rec.Instrument, rec.SourceRow)
		return
	}
	for _, msg := range r.applier.Apply(ctx, rec) {
		r.publisher.Publish(ctx, msg)
	}
}

// Finished implements executor.Executable.
func (r *Replier) Finished() bool {
	return r.scheduler.Finished()
}

// NextExecTimeout implements executor.Executable.
func (r *Replier) NextExecTimeout() time.Duration {
	if d := r.scheduler.NextActionTimeout(time.Now()); d > 0 {
		return d
	}
	return r.timeout
}
