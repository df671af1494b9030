package core

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Scheduler multiplexes tasklets onto one logical thread of control.
//
// Tasklets are switched into in FIFO order from the ready queue. A running
// tasklet keeps the thread until it sends, receives, yields with Schedule, or
// returns. Run drives the loop from the calling goroutine (the root context)
// and returns once the ready queue drains.
//
// Spawn, Schedule, Run and every Channel operation must be called either from
// the root context or from a tasklet of this scheduler; the scheduler does not
// lock its queues. Stats and History are safe from any goroutine.
type Scheduler struct {
	name           string
	logger         Logger
	metrics        Metrics
	failureHandler FailureHandler
	barrier        bool

	ready   taskletQueue
	current *Tasklet
	root    *execContext
	running bool
	failure error
	nextID  TaskletID

	history *executionHistory

	// Atomic mirrors for Stats
	readyCount   atomic.Int64
	blockedCount atomic.Int64
	liveCount    atomic.Int64
	spawned      atomic.Int64
	completed    atomic.Int64
	failed       atomic.Int64
	switches     atomic.Int64
	runningFlag  atomic.Bool
}

// NewScheduler creates a scheduler. A nil config uses DefaultSchedulerConfig.
func NewScheduler(name string, config *SchedulerConfig) *Scheduler {
	if name == "" {
		name = "scheduler"
	}

	s := &Scheduler{
		name:  name,
		ready: newTaskletQueue(),
		root:  rootContext(),
	}

	historyCapacity := 0

	// Apply config
	if config != nil {
		s.logger = config.Logger
		s.metrics = config.Metrics
		s.failureHandler = config.FailureHandler
		s.barrier = config.ErrorBarrier
		historyCapacity = config.HistoryCapacity
	}

	// Use defaults if not provided
	if s.logger == nil {
		s.logger = NewNoOpLogger()
	}
	if s.metrics == nil {
		s.metrics = &NilMetrics{}
	}
	if s.failureHandler == nil {
		s.failureHandler = &DefaultFailureHandler{}
	}
	s.history = newExecutionHistory(historyCapacity)

	return s
}

// Name returns the scheduler name used in logs and metrics.
func (s *Scheduler) Name() string {
	return s.name
}

// =============================================================================
// Spawning
// =============================================================================

// Spawn creates a tasklet for fn and appends it to the ready queue.
// fn does not start until the scheduler first switches into the tasklet.
func (s *Scheduler) Spawn(fn Computation) *Tasklet {
	return s.SpawnWith(fn, SpawnOptions{})
}

// SpawnNamed is Spawn with an explicit name for logs and history.
func (s *Scheduler) SpawnNamed(name string, fn Computation) *Tasklet {
	return s.SpawnWith(fn, SpawnOptions{Name: name})
}

// SpawnWith is Spawn with per-tasklet options.
func (s *Scheduler) SpawnWith(fn Computation, opts SpawnOptions) *Tasklet {
	if fn == nil {
		panic("tasklet: Spawn called with nil computation")
	}

	s.nextID++
	t := &Tasklet{
		id:        s.nextID,
		name:      resolveTaskletName(fn, opts.Name),
		sched:     s,
		fn:        fn,
		ctx:       newExecContext(),
		state:     StateCreated,
		barrier:   opts.Barrier,
		spawnedAt: time.Now(),
	}

	s.spawned.Add(1)
	s.liveCount.Add(1)
	s.makeReady(t)

	s.logger.Debug("tasklet spawned",
		F("scheduler", s.name), F("tasklet", t.id), F("name", t.name))
	return t
}

// =============================================================================
// Run loop
// =============================================================================

// Run switches into the head of the ready queue until the queue is empty and then
// returns to the caller.
//
// Unless an error barrier covers it, the first failing tasklet stops the loop and
// Run returns a *TaskletError; the remaining tasklets keep their state and a later
// Run continues with them. Tasklets still blocked on channels when the queue
// drains stay parked.
//
// Run returns ErrNestedRun if the loop is already active, including when called
// from inside a tasklet.
func (s *Scheduler) Run() error {
	if s.running {
		return ErrNestedRun
	}
	s.running = true
	s.runningFlag.Store(true)
	defer func() {
		s.running = false
		s.runningFlag.Store(false)
	}()

	for {
		if err := s.failure; err != nil {
			s.failure = nil
			return err
		}

		next := s.popReady()
		if next == nil {
			break
		}
		s.transfer(s.root, next)
	}

	if blocked := s.blockedCount.Load(); blocked > 0 {
		s.logger.Warn("run returned with blocked tasklets",
			F("scheduler", s.name), F("blocked", blocked))
	}
	return nil
}

// Schedule yields: the current tasklet goes to the back of the ready queue and
// the new head runs. Called from the root context it does nothing.
func (s *Scheduler) Schedule() {
	cur := s.current
	if cur == nil {
		return
	}
	s.makeReady(cur)
	s.suspend(cur)
}

// RunCount returns the number of scheduled tasklets. Diagnostic only.
func (s *Scheduler) RunCount() int {
	return int(s.readyCount.Load())
}

// Current returns the running tasklet, or nil in the root context.
func (s *Scheduler) Current() *Tasklet {
	return s.current
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Name:      s.name,
		Ready:     int(s.readyCount.Load()),
		Blocked:   int(s.blockedCount.Load()),
		Live:      int(s.liveCount.Load()),
		Spawned:   s.spawned.Load(),
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
		Switches:  s.switches.Load(),
		Running:   s.runningFlag.Load(),
	}
}

// History returns up to limit finished tasklets, newest first.
func (s *Scheduler) History(limit int) []TaskletRecord {
	return s.history.Recent(limit)
}

// LastFinished returns the most recently finished tasklet.
func (s *Scheduler) LastFinished() (TaskletRecord, bool) {
	return s.history.Last()
}

// =============================================================================
// State transitions
// =============================================================================

func (s *Scheduler) makeReady(t *Tasklet) {
	if t.state == StateBlocked {
		s.blockedCount.Add(-1)
	}
	t.state = StateScheduled
	s.ready.Push(t)
	s.syncReady()
}

// popReady returns the next live tasklet, skipping dead ones.
func (s *Scheduler) popReady() *Tasklet {
	for {
		t := s.ready.Pop()
		if t == nil || t.state != StateDead {
			s.syncReady()
			return t
		}
	}
}

func (s *Scheduler) syncReady() {
	depth := s.ready.Len()
	s.readyCount.Store(int64(depth))
	s.metrics.RecordReadyDepth(s.name, depth)
}

// block parks the current tasklet until a channel counterpart makes it ready.
func (s *Scheduler) block(cur *Tasklet) {
	cur.state = StateBlocked
	s.blockedCount.Add(1)
	s.suspend(cur)
}

// suspend gives away the thread held by cur: to the next ready tasklet, or back
// to the run loop when none is ready. It returns once cur is switched into again.
func (s *Scheduler) suspend(cur *Tasklet) {
	next := s.popReady()
	switch next {
	case cur:
		cur.state = StateRunning
	case nil:
		s.current = nil
		s.root.resume(nil)
		cur.ctx.park()
	default:
		s.transfer(cur.ctx, next)
	}
}

// transfer switches from the context from into next and parks from.
func (s *Scheduler) transfer(from *execContext, next *Tasklet) {
	s.current = next
	next.state = StateRunning
	next.switches++
	s.switches.Add(1)
	s.metrics.RecordSwitch(s.name)

	next.ctx.resume(func() { s.bootstrap(next) })
	from.park()
}

// mustCurrent returns the running tasklet or panics for an operation issued from
// the root context.
func (s *Scheduler) mustCurrent(op string) *Tasklet {
	if s.current == nil {
		panic(fmt.Errorf("%w: %s", ErrNotInTasklet, op))
	}
	return s.current
}

// =============================================================================
// Tasklet entry and exit
// =============================================================================

// bootstrap is the first frame on a tasklet's goroutine.
func (s *Scheduler) bootstrap(t *Tasklet) {
	fn := t.fn
	t.fn = nil

	var err error
	returned := false

	defer func() {
		panicked := false
		if !returned {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
				panicked = true
			} else {
				err = ErrGoexit
			}
		}
		s.finish(t, err, panicked)
	}()

	err = fn()
	returned = true
}

// finish marks t dead and returns the thread to the run loop. It is the last
// thing t's goroutine does with scheduler state.
func (s *Scheduler) finish(t *Tasklet, err error, panicked bool) {
	t.state = StateDead
	t.err = err
	t.panicked = panicked
	t.mailbox = nil
	t.partner = nil

	finishedAt := time.Now()
	lifetime := finishedAt.Sub(t.spawnedAt)

	s.liveCount.Add(-1)
	s.metrics.RecordTaskletLifetime(s.name, lifetime)
	s.history.Add(TaskletRecord{
		ID:         t.id,
		Name:       t.name,
		Scheduler:  s.name,
		SpawnedAt:  t.spawnedAt,
		FinishedAt: finishedAt,
		Lifetime:   lifetime,
		Switches:   t.switches,
		Failed:     err != nil,
		Panicked:   panicked,
	})

	if err == nil {
		s.completed.Add(1)
		s.logger.Debug("tasklet finished",
			F("scheduler", s.name), F("tasklet", t.id), F("lifetime", lifetime))
	} else {
		s.fail(t, err, panicked)
	}

	s.current = nil
	s.root.resume(nil)
}

func (s *Scheduler) fail(t *Tasklet, err error, panicked bool) {
	reason := "error"
	switch {
	case panicked:
		reason = "panic"
	case errors.Is(err, ErrGoexit):
		reason = "goexit"
	}

	s.failed.Add(1)
	s.metrics.RecordTaskletFailure(s.name, reason)

	failure := &TaskletError{ID: t.id, Name: t.name, Err: err}
	barrier := t.barrier || s.barrier

	s.logger.Error("tasklet failed",
		F("scheduler", s.name), F("tasklet", t.id), F("name", t.name),
		F("reason", reason), F("barrier", barrier), F("error", err))

	if barrier {
		s.failureHandler.HandleFailure(s.name, failure)
		return
	}
	if s.failure == nil {
		s.failure = failure
	}
}
