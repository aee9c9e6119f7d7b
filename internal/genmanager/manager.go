// Package genmanager implements the Generation Manager of spec §4.3: a
// process-wide singleton per running venue holding the Active/Suspended/
// Terminated state machine that gates every executor plus the monotonic
// synthetic identifier generator and message sequence counter every
// instrument's executors share. The atomic state word and counters follow
// the teacher's orderbook package global-counter idiom, scoped here to one
// manager for the whole venue rather than per symbol.
package genmanager

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle of the venue's generation activity.
type State int32

const (
	// Suspended is the initial state unless New is asked to activate on
	// startup: no executor may run.
	Suspended State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case Suspended:
		return "SUSPENDED"
	case Active:
		return "ACTIVE"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// LaunchListener is notified every time the manager transitions into Active.
// Executors register one of these so they can (re)start their dedicated
// goroutine on launch and fall idle on suspend, without polling state.
type LaunchListener func()

// Manager is the process-wide Generation Manager for one running venue. The
// zero value is not usable; construct with New.
type Manager struct {
	state atomic.Int32

	mu        sync.Mutex
	listeners []LaunchListener

	msgCounter uint64
	idCounter  uint64
}

// New returns a Manager seeded with the process-start nanosecond epoch for
// its identifier generator, initially Active iff activateOnStartup is true
// (spec §4.3: "Active iff the venue's orders_on_startup flag is true, else
// Suspended"), else Suspended.
func New(activateOnStartup bool) *Manager {
	m := &Manager{idCounter: uint64(time.Now().UnixNano())}
	if activateOnStartup {
		m.state.Store(int32(Active))
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// OnLaunch registers a listener invoked synchronously, in registration
// order, every time Launch successfully transitions the manager into
// Active. A listener registered while the manager is already Active is NOT
// invoked retroactively — callers that need the initial activation must
// check State() themselves after registering.
func (m *Manager) OnLaunch(l LaunchListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Launch transitions Suspended -> Active and calls every registered
// listener in order. It is a no-op returning false if the manager is
// already Active or has been Terminated.
func (m *Manager) Launch() bool {
	if !m.state.CompareAndSwap(int32(Suspended), int32(Active)) {
		return false
	}
	m.mu.Lock()
	listeners := append([]LaunchListener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l()
	}
	return true
}

// Suspend transitions Active -> Suspended. It is a no-op returning false if
// the manager is not currently Active.
func (m *Manager) Suspend() bool {
	return m.state.CompareAndSwap(int32(Active), int32(Suspended))
}

// Terminate transitions the manager permanently into Terminated from
// whichever state it is currently in. It is idempotent.
func (m *Manager) Terminate() {
	m.state.Store(int32(Terminated))
}

// NextMessageNumber returns the next value in the monotonic message
// sequence, shared by every instrument of the venue, used to stamp
// domain.GeneratedMessage.MessageNumber.
func (m *Manager) NextMessageNumber() uint64 {
	return atomic.AddUint64(&m.msgCounter, 1)
}

// NextSyntheticID returns a process-unique synthetic id of the form
// "SIM-<19-digit-nanosecond-counter>" (spec §4.3/§6): the counter is seeded
// once at construction from the process-start nanosecond epoch and
// atomically returns-and-increments on every call, so ids stay monotonic
// and unique even when called faster than the clock's resolution.
func (m *Manager) NextSyntheticID() string {
	n := atomic.AddUint64(&m.idCounter, 1) - 1
	return fmt.Sprintf("SIM-%019d", n)
}
