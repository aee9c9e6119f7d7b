// Package executor implements the Executor of spec §4.8: a dedicated
// goroutine driving an Executable through prepare/execute/finished against
// a Generation Manager's lifecycle, re-arming itself on the next launch
// after a panic in execute() rather than dying permanently. The loop shape
// follows the teacher main.go's per-symbol goroutine (launch/stop channel,
// sleep-between-ticks), generalized from one hardcoded simulation step to
// an injected Executable.
package executor

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/ordersim/venue-simulator/internal/genmanager"
)

// Executable is the unit of work an Executor drives (spec §4.8).
type Executable interface {
	// Prepare runs once when the executor's goroutine starts.
	Prepare()
	// Execute runs once per tick.
	Execute()
	// Finished reports whether the executor should stop permanently after
	// this tick (e.g. a historical replay reaching end-of-data with no
	// repeat configured).
	Finished() bool
	// NextExecTimeout is the sleep between ticks.
	NextExecTimeout() time.Duration
}

// Executor wraps an Executable with a dedicated goroutine gated by a
// Generation Manager.
type Executor struct {
	name    string
	exec    Executable
	manager *genmanager.Manager

	terminated chan struct{}
	running    atomic.Bool
	finished   atomic.Bool
}

// New constructs an Executor for exec, gated by manager. name is used only
// for log messages.
func New(name string, exec Executable, manager *genmanager.Manager) *Executor {
	e := &Executor{
		name:       name,
		exec:       exec,
		manager:    manager,
		terminated: make(chan struct{}),
	}
	manager.OnLaunch(e.start)
	return e
}

// Launch arranges for the executor's goroutine to run once the Generation
// Manager reaches Active. If the manager is Suspended, the registered
// OnLaunch listener (installed in New) fires this on the next Launch; if
// the manager is already Active, this calls start directly — Launch on an
// already-running executor, or one whose manager is Terminated, is a no-op
// with a logged warning (spec §4.8).
func (e *Executor) Launch() {
	switch e.manager.State() {
	case genmanager.Terminated:
		log.Printf("executor %s: launch on terminated manager ignored", e.name)
	case genmanager.Active:
		e.start()
	default:
		// Suspended: the OnLaunch listener registered in New fires this
		// executor's start() the next time the manager transitions to Active.
	}
}

func (e *Executor) start() {
	if e.finished.Load() {
		return
	}
	if !e.running.CompareAndSwap(false, true) {
		log.Printf("executor %s: launch while already running ignored", e.name)
		return
	}
	e.terminated = make(chan struct{})
	go e.run(e.terminated)
}

func (e *Executor) run(terminated chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("executor %s: execute panicked: %v (will re-arm on next launch)", e.name, r)
		}
		e.running.Store(false)
	}()

	e.exec.Prepare()
	for {
		select {
		case <-terminated:
			return
		default:
		}
		if e.manager.State() != genmanager.Active {
			return
		}

		e.exec.Execute()
		if e.exec.Finished() {
			e.finished.Store(true)
			return
		}

		select {
		case <-terminated:
			return
		case <-time.After(e.exec.NextExecTimeout()):
		}
	}
}

// Terminate stops the executor's goroutine. It does not touch the
// Generation Manager's state — callers that want the manager terminated
// too should call manager.Terminate() separately.
func (e *Executor) Terminate() {
	if !e.running.Load() {
		return
	}
	close(e.terminated)
}
