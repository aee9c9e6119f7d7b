// Package phase implements the Phase Scheduler of spec §4.9: the
// per-instrument trading-state engine that walks an ordered list of
// domain.PhaseRecord against wall-clock time in the venue's timezone,
// applying the end_range jitter once per (phase, trading-day) pair. The
// once-per-day random jitter selection mirrors the teacher's StressController
// pattern of picking a fresh random phase duration at each phase entry.
package phase

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/randomgen"
)

// TransitionListener is notified on every phase transition, in the style of
// genmanager.LaunchListener — cmd/simulator registers one per instrument to
// stream phase events through the session gateway and record metrics.
type TransitionListener func(prev, next domain.TradingPhase, allowCancels bool)

// Scheduler drives one instrument's trading-phase state machine.
type Scheduler struct {
	rng      *randomgen.RNG
	loc      *time.Location
	records  []domain.PhaseRecord // sorted ascending by Begin

	mu           sync.Mutex
	current      domain.TradingPhase
	allowCancels bool
	jitterDay    int                         // day-of-year the cached jitters below were computed for
	jitterStops  map[int]domain.TimeOfDay    // record index -> effective end for jitterDay

	listeners []TransitionListener
}

// New constructs a Scheduler. records need not be pre-sorted; New drops,
// with a logged warning, every record that fails PhaseRecord.Validate
// (begin not before end) and sorts the rest by Begin (contiguity is a
// property of configuration, not enforced here — gaps default to Closed
// per spec §4.9).
func New(records []domain.PhaseRecord, loc *time.Location, rng *randomgen.RNG) *Scheduler {
	sorted := make([]domain.PhaseRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			log.Printf("phase: skipping %v", err)
			continue
		}
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Begin < sorted[j].Begin })
	return &Scheduler{
		rng:          rng,
		loc:          loc,
		records:      sorted,
		current:      domain.PhaseClosed,
		allowCancels: true,
		jitterDay:    -1,
		jitterStops:  make(map[int]domain.TimeOfDay),
	}
}

// OnTransition registers a listener invoked on every phase change.
func (s *Scheduler) OnTransition(l TransitionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Current returns the instrument's current trading phase.
func (s *Scheduler) Current() domain.TradingPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CancelsAllowed reports whether cancel requests should currently be
// honored; false only while Halted with allow_cancels_on_halt=false.
func (s *Scheduler) CancelsAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allowCancels
}

// Evaluate recomputes the phase for wall-clock time now and fires
// transition listeners if it changed. Callers drive this from a periodic
// ticker (spec §4.9 is wall-clock driven, not event driven).
func (s *Scheduler) Evaluate(now time.Time) {
	local := now.In(s.loc)
	tod := domain.TimeOfDay(local.Hour()*3600 + local.Minute()*60 + local.Second())
	day := local.YearDay()

	s.mu.Lock()
	_, rec, found := s.locate(tod, day)
	next := domain.PhaseClosed
	allow := true
	if found {
		next = rec.Phase
		allow = rec.AllowCancelsOnHalt || next != domain.PhaseHalted
	}

	if next == s.current {
		s.mu.Unlock()
		return
	}
	prev := s.current
	s.current = next
	s.allowCancels = allow
	listeners := append([]TransitionListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(prev, next, allow)
	}
}

// locate finds the configured record covering tod on trading-day day,
// applying the end_range jitter: near a record's end, the effective stop is
// a single random point in [end-end_range, end] selected once per
// (phase, day) and cached for the remainder of that day.
func (s *Scheduler) locate(tod domain.TimeOfDay, day int) (int, domain.PhaseRecord, bool) {
	for i, r := range s.records {
		if tod < r.Begin {
			continue
		}
		end := r.End
		if r.EndRangeSeconds > 0 {
			end = s.jitteredEnd(i, r, day)
		}
		if tod < end {
			return i, r, true
		}
	}
	return -1, domain.PhaseRecord{}, false
}

func (s *Scheduler) jitteredEnd(idx int, r domain.PhaseRecord, day int) domain.TimeOfDay {
	if s.jitterDay != day {
		s.jitterDay = day
		s.jitterStops = make(map[int]domain.TimeOfDay)
	}
	if stop, ok := s.jitterStops[idx]; ok {
		return stop
	}
	lo := int(r.End) - r.EndRangeSeconds
	if lo < int(r.Begin) {
		lo = int(r.Begin)
	}
	offset := int(r.End)
	if s.rng != nil {
		offset = s.rng.IntRange(lo, int(r.End))
	}
	stop := domain.TimeOfDay(offset)
	s.jitterStops[idx] = stop
	return stop
}
