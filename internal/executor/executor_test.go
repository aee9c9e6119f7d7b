package executor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ordersim/venue-simulator/internal/genmanager"
)

type countingExecutable struct {
	prepared atomic.Bool
	ticks    atomic.Int32
	panicAt  int32
	finish   bool
}

func (c *countingExecutable) Prepare() { c.prepared.Store(true) }
func (c *countingExecutable) Execute() {
	n := c.ticks.Add(1)
	if c.panicAt != 0 && n == c.panicAt {
		panic("boom")
	}
}
func (c *countingExecutable) Finished() bool               { return c.finish && c.ticks.Load() >= 2 }
func (c *countingExecutable) NextExecTimeout() time.Duration { return time.Millisecond }

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestExecutorRunsAfterLaunch(t *testing.T) {
	mgr := genmanager.New(false)
	exec := &countingExecutable{}
	e := New("test", exec, mgr)

	mgr.Launch()
	e.Launch()

	waitUntil(t, func() bool { return exec.ticks.Load() > 0 })
	if !exec.prepared.Load() {
		t.Fatal("Prepare() was not called")
	}
	e.Terminate()
}

func TestExecutorLaunchWhileSuspendedDefersToManagerLaunch(t *testing.T) {
	mgr := genmanager.New(false)
	exec := &countingExecutable{}
	e := New("test", exec, mgr)

	e.Launch() // manager still Suspended: no-op, but listener is armed
	time.Sleep(10 * time.Millisecond)
	if exec.ticks.Load() != 0 {
		t.Fatal("executor ran before manager was launched")
	}

	mgr.Launch()
	waitUntil(t, func() bool { return exec.ticks.Load() > 0 })
	e.Terminate()
}

func TestExecutorStopsWhenFinished(t *testing.T) {
	mgr := genmanager.New(false)
	exec := &countingExecutable{finish: true}
	e := New("test", exec, mgr)
	mgr.Launch()

	waitUntil(t, func() bool { return exec.ticks.Load() >= 2 && !e.running.Load() })
	if mgr.State() != genmanager.Active {
		t.Fatalf("manager state = %v, want Active (a finished executor stops only itself)", mgr.State())
	}
	if exec.ticks.Load() < 2 {
		t.Fatalf("ticks = %d, want >= 2", exec.ticks.Load())
	}
	_ = e
}

func TestExecutorReArmsAfterPanic(t *testing.T) {
	mgr := genmanager.New(false)
	exec := &countingExecutable{panicAt: 1}
	e := New("test", exec, mgr)
	mgr.Launch()

	waitUntil(t, func() bool { return !e.running.Load() })
	if mgr.State() != genmanager.Active {
		t.Fatalf("manager state = %v, want Active (panic must not terminate the manager)", mgr.State())
	}

	// Re-arm: suspend/relaunch should start the goroutine running again.
	mgr.Suspend()
	mgr.Launch()
	waitUntil(t, func() bool { return exec.ticks.Load() > 1 })
	e.Terminate()
}
