package tasklet

import (
	"sync"

	"github.com/Swind/go-tasklet/core"
)

// =============================================================================
// Global Scheduler Helper (Singleton)
// =============================================================================

const globalSchedulerName = "global"

var (
	globalScheduler *core.Scheduler
	globalMu        sync.Mutex
)

// InitGlobalScheduler creates the process-wide scheduler with config.
// It must run before the first use of the package-level functions to take effect;
// later calls are ignored and return the existing scheduler.
func InitGlobalScheduler(config *SchedulerConfig) *Scheduler {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalScheduler == nil {
		globalScheduler = core.NewScheduler(globalSchedulerName, config)
	}
	return globalScheduler
}

// GlobalScheduler returns the process-wide scheduler, creating it with default
// config on first use. It lives for the rest of the process.
func GlobalScheduler() *Scheduler {
	return InitGlobalScheduler(nil)
}

// ResetGlobalScheduler drops the process-wide scheduler so the next use creates a
// fresh one. Tasklets parked on the old scheduler are abandoned with it.
// Intended for tests.
func ResetGlobalScheduler() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalScheduler = nil
}

// Spawn creates a tasklet on the global scheduler. Bind arguments by closure.
func Spawn(fn Computation) *Tasklet {
	return GlobalScheduler().Spawn(fn)
}

// SpawnNamed creates a named tasklet on the global scheduler.
func SpawnNamed(name string, fn Computation) *Tasklet {
	return GlobalScheduler().SpawnNamed(name, fn)
}

// NewChannel creates a channel on the global scheduler.
func NewChannel[T any]() *Channel[T] {
	return core.NewChannel[T](GlobalScheduler())
}

// Schedule yields the current tasklet to the back of the global ready queue.
func Schedule() {
	GlobalScheduler().Schedule()
}

// Run drives the global scheduler until its ready queue is empty.
func Run() error {
	return GlobalScheduler().Run()
}

// GetRunCount returns the number of scheduled tasklets on the global scheduler.
func GetRunCount() int {
	return GlobalScheduler().RunCount()
}

// Current returns the running tasklet of the global scheduler, or nil outside tasklets.
func Current() *Tasklet {
	return GlobalScheduler().Current()
}
