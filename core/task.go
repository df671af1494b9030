package core

import (
	"strconv"
	"time"
)

// Computation is the body of a tasklet.
// Arguments are bound by closure; a non-nil return ends the tasklet with that error.
type Computation func() error

// =============================================================================
// TaskletID
// =============================================================================

// TaskletID identifies a tasklet within its scheduler. The zero value is never assigned.
type TaskletID uint64

// IsZero reports whether id is unassigned.
func (id TaskletID) IsZero() bool {
	return id == 0
}

func (id TaskletID) String() string {
	return "tasklet-" + strconv.FormatUint(uint64(id), 10)
}

// =============================================================================
// State: Tasklet lifecycle
// =============================================================================

type State int32

const (
	// StateCreated: allocated but not yet handed to the ready queue
	StateCreated State = iota

	// StateScheduled: waiting in the ready queue
	StateScheduled

	// StateRunning: owns the logical thread of control
	StateRunning

	// StateBlocked: parked on a channel until a counterpart arrives
	StateBlocked

	// StateDead: computation returned or failed; terminal
	StateDead
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateScheduled:
		return "scheduled"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// =============================================================================
// Tasklet
// =============================================================================

// Tasklet is a cooperatively scheduled unit of execution.
//
// A Tasklet is only mutated by its Scheduler while the scheduler holds the single
// logical thread of control, so none of its fields need locking.
type Tasklet struct {
	id    TaskletID
	name  string
	sched *Scheduler
	fn    Computation
	ctx   *execContext

	state State

	// mailbox carries at most one payload across a switch.
	mailbox any
	// partner is the sender a blocked receiver was paired with.
	partner *Tasklet

	barrier   bool
	err       error
	panicked  bool
	switches  int
	spawnedAt time.Time
}

// ID returns the tasklet's identity.
func (t *Tasklet) ID() TaskletID {
	return t.id
}

// Name returns the explicit name or the computation's function name.
func (t *Tasklet) Name() string {
	return t.name
}

// State returns the current lifecycle state.
func (t *Tasklet) State() State {
	return t.state
}

// Alive reports whether the tasklet has not yet reached StateDead.
func (t *Tasklet) Alive() bool {
	return t.state != StateDead
}

// Err returns the error that ended the tasklet, or nil.
func (t *Tasklet) Err() error {
	return t.err
}

// Switches returns how many times the scheduler has switched into t.
func (t *Tasklet) Switches() int {
	return t.switches
}

// SpawnedAt returns the spawn time.
func (t *Tasklet) SpawnedAt() time.Time {
	return t.spawnedAt
}

func (t *Tasklet) String() string {
	if t.name == "" {
		return t.id.String()
	}
	return t.id.String() + "(" + t.name + ")"
}
