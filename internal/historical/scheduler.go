package historical

import (
	"sync"
	"time"

	"github.com/ordersim/venue-simulator/internal/domain"
)

// ActionProcessor handles one Action pulled by the Scheduler, typically by
// running each of its Records through an Applier and publishing the result.
type ActionProcessor func(domain.Action)

// Scheduler is the Historical Scheduler of spec §4.7: a single pending-
// Action buffer in front of a Provider, consulted opportunistically so at
// most one record-group is ever buffered ahead of the one being processed.
type Scheduler struct {
	mu       sync.Mutex
	provider *Provider
	pending  *domain.Action
}

// NewScheduler constructs a Scheduler over provider. provider may be nil,
// e.g. before a datasource is configured, in which case the scheduler is
// immediately Finished.
func NewScheduler(provider *Provider) *Scheduler {
	return &Scheduler{provider: provider}
}

// Initialize resets the base time for any cached pending action to now and
// asks the provider to refresh its time offset.
func (s *Scheduler) Initialize(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.ActionTime = now
	}
	if s.provider != nil {
		s.provider.InitializeTimeOffset(now)
	}
}

// ProcessNextAction hands the pending action (if any) to processor;
// otherwise it opportunistically pulls at most one action from the provider
// and, if one arrived, processes it. Returns true if an action was
// processed.
func (s *Scheduler) ProcessNextAction(now time.Time, processor ActionProcessor) bool {
	s.mu.Lock()
	action, ok := s.takeLocked(now)
	s.mu.Unlock()
	if !ok {
		return false
	}
	processor(action)
	return true
}

func (s *Scheduler) takeLocked(now time.Time) (domain.Action, bool) {
	if s.pending != nil {
		a := *s.pending
		s.pending = nil
		return a, true
	}
	if s.provider == nil {
		return domain.Action{}, false
	}
	return s.provider.PullAction(now)
}

// NextActionTimeout returns max(0, head.action_time - now): zero when
// finished, empty, or the head is already due. This opportunistically pulls
// the next action from the provider into the pending slot if none is
// buffered yet, per spec §4.7's "consulted opportunistically" contract.
func (s *Scheduler) NextActionTimeout(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil && s.provider != nil && !s.provider.IsEmpty() {
		if a, ok := s.provider.PullAction(now); ok {
			s.pending = &a
		}
	}
	if s.pending == nil {
		return 0
	}
	d := s.pending.ActionTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Finished reports whether there is no pending action and the provider is
// empty or absent.
func (s *Scheduler) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return false
	}
	return s.provider == nil || s.provider.IsEmpty()
}
