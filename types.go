package tasklet

import "github.com/Swind/go-tasklet/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the tasklet package for most use cases.

// Tasklet is a cooperatively scheduled unit of execution
type Tasklet = core.Tasklet

// TaskletID identifies a tasklet within its scheduler
type TaskletID = core.TaskletID

// Computation is the body of a tasklet
type Computation = core.Computation

// State is the tasklet lifecycle state
type State = core.State

// Channel is an unbuffered rendezvous channel
type Channel[T any] = core.Channel[T]

// Scheduler multiplexes tasklets onto one logical thread
type Scheduler = core.Scheduler

// SchedulerConfig configures logging, metrics and error barriers
type SchedulerConfig = core.SchedulerConfig

// Bomb is the error envelope delivered through channels
type Bomb = core.Bomb

// TaskletError reports a failed tasklet; PanicError wraps a recovered panic
type (
	TaskletError = core.TaskletError
	PanicError   = core.PanicError
)

// State constants
const (
	StateCreated   = core.StateCreated
	StateScheduled = core.StateScheduled
	StateRunning   = core.StateRunning
	StateBlocked   = core.StateBlocked
	StateDead      = core.StateDead
)

// Sentinel errors
var (
	ErrNotInTasklet = core.ErrNotInTasklet
	ErrNestedRun    = core.ErrNestedRun
	ErrGoexit       = core.ErrGoexit
)

// DefaultSchedulerConfig returns a config with default handlers
var DefaultSchedulerConfig = core.DefaultSchedulerConfig

// NewScheduler creates an independent scheduler, for callers that do not want the global one.
func NewScheduler(name string, config *SchedulerConfig) *Scheduler {
	return core.NewScheduler(name, config)
}

// SpawnOptions configures a single tasklet
type SpawnOptions = core.SpawnOptions

// FailureHandler receives failures caught by an error barrier
type (
	FailureHandler     = core.FailureHandler
	FailureHandlerFunc = core.FailureHandlerFunc
)

// Logger is the structured logging interface used by schedulers
type Logger = core.Logger

// Metrics receives scheduler and channel measurements
type Metrics = core.Metrics
