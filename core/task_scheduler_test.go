package core

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"
)

func newTestScheduler(cfg *SchedulerConfig) *Scheduler {
	return NewScheduler("test", cfg)
}

// TestScheduler_SpawnDefersExecution verifies spawned tasklets wait for Run
// Given: A tasklet spawned on a fresh scheduler
// When: Run has not been called yet
// Then: The computation has not run, the tasklet is Scheduled and counted; after Run it is Dead
func TestScheduler_SpawnDefersExecution(t *testing.T) {
	// Arrange
	s := newTestScheduler(nil)
	ran := false

	// Act
	tk := s.Spawn(func() error {
		ran = true
		return nil
	})

	// Assert - before Run
	if ran {
		t.Fatal("computation ran before Run")
	}
	if got := tk.State(); got != StateScheduled {
		t.Fatalf("state before Run = %v, want %v", got, StateScheduled)
	}
	if got := s.RunCount(); got != 1 {
		t.Fatalf("RunCount() = %d, want 1", got)
	}

	// Act
	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Assert - after Run
	if !ran {
		t.Fatal("computation did not run")
	}
	if got := tk.State(); got != StateDead {
		t.Fatalf("state after Run = %v, want %v", got, StateDead)
	}
	if tk.Alive() {
		t.Fatal("Alive() = true after computation returned")
	}
	if got := s.RunCount(); got != 0 {
		t.Fatalf("RunCount() after Run = %d, want 0", got)
	}
}

// TestScheduler_RunOrderMatchesSpawnOrder verifies FIFO ready queue
// Given: Ten tasklets spawned in order
// When: Run executes them
// Then: They run in spawn order
func TestScheduler_RunOrderMatchesSpawnOrder(t *testing.T) {
	s := newTestScheduler(nil)
	var order []int

	for i := range 10 {
		s.Spawn(func() error {
			order = append(order, i)
			return nil
		})
	}

	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(order) != 10 {
		t.Fatalf("ran %d tasklets, want 10", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Errorf("order[%d] = %d, want %d", i, got, i)
		}
	}
}

// TestScheduler_FairnessUnderYield verifies round-robin turns under Schedule
// Given: Three tasklets each yielding K times
// When: Run drives them
// Then: Turn counts are equal and the visitation order repeats the spawn order
func TestScheduler_FairnessUnderYield(t *testing.T) {
	const k = 25

	s := newTestScheduler(nil)
	var visits []string
	turns := map[string]int{}

	for _, name := range []string{"a", "b", "c"} {
		s.SpawnNamed(name, func() error {
			for range k {
				visits = append(visits, name)
				turns[name]++
				s.Schedule()
			}
			return nil
		})
	}

	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	maxTurns, minTurns := 0, k+1
	for _, n := range turns {
		maxTurns = max(maxTurns, n)
		minTurns = min(minTurns, n)
	}
	if maxTurns-minTurns > 1 {
		t.Fatalf("turn counts differ by %d: %v", maxTurns-minTurns, turns)
	}

	want := strings.Repeat("abc", k)
	if got := strings.Join(visits, ""); got != want {
		t.Fatalf("visitation order = %q, want %q", got, want)
	}
}

// TestScheduler_ScheduleAloneContinues verifies yielding with an otherwise empty ready queue
// Given: A single tasklet calling Schedule
// When: It is the only runnable tasklet
// Then: It continues immediately without an extra context switch
func TestScheduler_ScheduleAloneContinues(t *testing.T) {
	s := newTestScheduler(nil)

	tk := s.Spawn(func() error {
		for range 3 {
			s.Schedule()
		}
		return nil
	})

	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := tk.Switches(); got != 1 {
		t.Fatalf("Switches() = %d, want 1", got)
	}
}

// TestScheduler_ScheduleFromRoot verifies Schedule is inert outside tasklets
func TestScheduler_ScheduleFromRoot(t *testing.T) {
	s := newTestScheduler(nil)
	s.Spawn(func() error { return nil })

	s.Schedule()

	if got := s.RunCount(); got != 1 {
		t.Fatalf("RunCount() = %d, want 1", got)
	}
	if s.Current() != nil {
		t.Fatal("Current() should be nil in the root context")
	}
}

// TestScheduler_SpawnFromTasklet verifies tasklets can spawn tasklets
// Given: A tasklet that spawns a child and yields
// When: Run drives both
// Then: The child runs after its parent yields
func TestScheduler_SpawnFromTasklet(t *testing.T) {
	s := newTestScheduler(nil)
	var log []string

	s.Spawn(func() error {
		log = append(log, "parent-start")
		s.Spawn(func() error {
			log = append(log, "child")
			return nil
		})
		s.Schedule()
		log = append(log, "parent-end")
		return nil
	})

	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "parent-start,child,parent-end"
	if got := strings.Join(log, ","); got != want {
		t.Fatalf("log = %q, want %q", got, want)
	}
}

// TestScheduler_ErrorEscapesRun verifies fail-fast behaviour
// Given: A failing tasklet followed by a healthy one
// When: Run executes
// Then: Run returns a TaskletError for the failure and the healthy tasklet stays Scheduled
func TestScheduler_ErrorEscapesRun(t *testing.T) {
	errBoom := errors.New("boom")
	s := newTestScheduler(nil)

	bad := s.Spawn(func() error { return errBoom })
	good := s.Spawn(func() error { return nil })

	err := s.Run()
	if !errors.Is(err, errBoom) {
		t.Fatalf("Run() error = %v, want %v", err, errBoom)
	}

	var terr *TaskletError
	if !errors.As(err, &terr) {
		t.Fatalf("Run() error type = %T, want *TaskletError", err)
	}
	if terr.ID != bad.ID() {
		t.Errorf("TaskletError.ID = %v, want %v", terr.ID, bad.ID())
	}
	if bad.State() != StateDead || !errors.Is(bad.Err(), errBoom) {
		t.Errorf("failed tasklet state = %v err = %v", bad.State(), bad.Err())
	}
	if got := good.State(); got != StateScheduled {
		t.Fatalf("healthy tasklet state = %v, want %v", got, StateScheduled)
	}

	// A later Run continues with what is left.
	if err := s.Run(); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if got := good.State(); got != StateDead {
		t.Fatalf("healthy tasklet state after second Run = %v, want %v", got, StateDead)
	}
}

// TestScheduler_PanicEscapesRun verifies panics become PanicError
func TestScheduler_PanicEscapesRun(t *testing.T) {
	s := newTestScheduler(nil)
	s.SpawnNamed("panicker", func() error {
		panic("kaboom")
	})

	err := s.Run()

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Run() error = %v, want *PanicError in chain", err)
	}
	if pe.Value != "kaboom" {
		t.Errorf("PanicError.Value = %v, want kaboom", pe.Value)
	}
	if len(pe.Stack) == 0 {
		t.Error("PanicError.Stack is empty")
	}

	rec, ok := s.LastFinished()
	if !ok {
		t.Fatal("LastFinished() found no record")
	}
	if !rec.Panicked || !rec.Failed || rec.Name != "panicker" {
		t.Errorf("record = %+v, want panicked failure of panicker", rec)
	}
}

// TestScheduler_PanicWithErrorValue verifies the panic value is reachable by errors.Is
func TestScheduler_PanicWithErrorValue(t *testing.T) {
	errInner := errors.New("inner")
	s := newTestScheduler(nil)
	s.Spawn(func() error {
		panic(fmt.Errorf("wrapped: %w", errInner))
	})

	if err := s.Run(); !errors.Is(err, errInner) {
		t.Fatalf("Run() error = %v, want chain containing %v", err, errInner)
	}
}

// TestScheduler_Goexit verifies a computation calling runtime.Goexit ends its tasklet
func TestScheduler_Goexit(t *testing.T) {
	s := newTestScheduler(nil)
	s.Spawn(func() error {
		runtime.Goexit()
		return nil
	})

	if err := s.Run(); !errors.Is(err, ErrGoexit) {
		t.Fatalf("Run() error = %v, want %v", err, ErrGoexit)
	}
}

// TestScheduler_ErrorBarrier verifies the opt-in barrier keeps Run going
// Given: A scheduler configured with ErrorBarrier and a recording FailureHandler
// When: One tasklet fails and one panics among healthy ones
// Then: Run returns nil, every healthy tasklet runs, and both failures are reported
func TestScheduler_ErrorBarrier(t *testing.T) {
	var failures []*TaskletError
	cfg := DefaultSchedulerConfig()
	cfg.ErrorBarrier = true
	cfg.FailureHandler = FailureHandlerFunc(func(name string, f *TaskletError) {
		failures = append(failures, f)
	})
	s := newTestScheduler(cfg)

	healthy := 0
	s.Spawn(func() error { healthy++; return nil })
	s.Spawn(func() error { return errors.New("first") })
	s.Spawn(func() error { healthy++; return nil })
	s.Spawn(func() error { panic("second") })
	s.Spawn(func() error { healthy++; return nil })

	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v, want nil behind barrier", err)
	}
	if healthy != 3 {
		t.Errorf("healthy tasklets run = %d, want 3", healthy)
	}
	if len(failures) != 2 {
		t.Fatalf("failures reported = %d, want 2", len(failures))
	}
	var pe *PanicError
	if !errors.As(failures[1].Err, &pe) {
		t.Errorf("second failure = %v, want *PanicError", failures[1].Err)
	}

	stats := s.Stats()
	if stats.Failed != 2 || stats.Completed != 3 {
		t.Errorf("stats = %+v, want 2 failed and 3 completed", stats)
	}
}

// TestScheduler_PerTaskletBarrier verifies SpawnOptions.Barrier isolates one tasklet only
func TestScheduler_PerTaskletBarrier(t *testing.T) {
	reported := 0
	cfg := DefaultSchedulerConfig()
	cfg.FailureHandler = FailureHandlerFunc(func(string, *TaskletError) { reported++ })
	s := newTestScheduler(cfg)

	s.SpawnWith(func() error { return errors.New("isolated") }, SpawnOptions{Barrier: true})
	errLoud := errors.New("loud")
	s.Spawn(func() error { return errLoud })

	if err := s.Run(); !errors.Is(err, errLoud) {
		t.Fatalf("Run() error = %v, want %v", err, errLoud)
	}
	if reported != 1 {
		t.Fatalf("reported = %d, want 1", reported)
	}
}

// TestScheduler_NestedRun verifies reentrant Run is rejected
func TestScheduler_NestedRun(t *testing.T) {
	s := newTestScheduler(nil)
	var nested error

	s.Spawn(func() error {
		nested = s.Run()
		return nil
	})

	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !errors.Is(nested, ErrNestedRun) {
		t.Fatalf("nested Run() error = %v, want %v", nested, ErrNestedRun)
	}
}

// TestScheduler_SkipsDeadTasklets verifies dead entries in the ready queue are dropped
func TestScheduler_SkipsDeadTasklets(t *testing.T) {
	s := newTestScheduler(nil)

	stale := s.Spawn(func() error {
		t.Error("dead tasklet was switched into")
		return nil
	})
	stale.state = StateDead

	ran := false
	s.Spawn(func() error { ran = true; return nil })

	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !ran {
		t.Fatal("live tasklet behind a dead one did not run")
	}
	if got := stale.Switches(); got != 0 {
		t.Fatalf("dead tasklet switches = %d, want 0", got)
	}
}

// TestScheduler_SpawnNilPanics verifies nil computations are rejected
func TestScheduler_SpawnNilPanics(t *testing.T) {
	s := newTestScheduler(nil)
	defer func() {
		if recover() == nil {
			t.Fatal("Spawn(nil) did not panic")
		}
	}()
	s.Spawn(nil)
}

// TestScheduler_StatsAndHistory verifies counters and the finished-tasklet ring buffer
// Given: A scheduler with history capacity 2 and three named tasklets
// When: Run completes
// Then: Stats count every tasklet and History keeps the newest two, newest first
func TestScheduler_StatsAndHistory(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	cfg.HistoryCapacity = 2
	s := NewScheduler("stats", cfg)

	for _, name := range []string{"one", "two", "three"} {
		s.SpawnNamed(name, func() error {
			s.Schedule()
			return nil
		})
	}

	if got := s.Stats(); got.Ready != 3 || got.Live != 3 || got.Running {
		t.Fatalf("stats before Run = %+v", got)
	}

	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := s.Stats()
	if stats.Name != "stats" || stats.Spawned != 3 || stats.Completed != 3 || stats.Live != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Switches != 6 {
		t.Errorf("switches = %d, want 6", stats.Switches)
	}

	history := s.History(0)
	if len(history) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(history))
	}
	if history[0].Name != "three" || history[1].Name != "two" {
		t.Errorf("history names = %q, %q; want three, two", history[0].Name, history[1].Name)
	}
	if history[0].Switches != 2 || history[0].Scheduler != "stats" {
		t.Errorf("history[0] = %+v", history[0])
	}
}

// TestScheduler_DerivedName verifies unnamed tasklets take the function name
func TestScheduler_DerivedName(t *testing.T) {
	s := newTestScheduler(nil)
	tk := s.Spawn(namedComputation)

	if !strings.HasSuffix(tk.Name(), "namedComputation") {
		t.Fatalf("Name() = %q, want suffix namedComputation", tk.Name())
	}
	if !strings.Contains(tk.String(), tk.ID().String()) {
		t.Fatalf("String() = %q, want it to contain %q", tk.String(), tk.ID())
	}
}

func namedComputation() error { return nil }

// TestScheduler_LoggerReceivesFailure verifies failures are logged at error level
func TestScheduler_LoggerReceivesFailure(t *testing.T) {
	logger := &recordingLogger{}
	cfg := DefaultSchedulerConfig()
	cfg.Logger = logger
	s := newTestScheduler(cfg)

	s.Spawn(func() error { return errors.New("logged") })
	_ = s.Run()

	if len(logger.errors) != 1 || logger.errors[0] != "tasklet failed" {
		t.Fatalf("error logs = %v, want [tasklet failed]", logger.errors)
	}
}

type recordingLogger struct {
	NoOpLogger
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, fields ...Field)  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, fields ...Field) { l.errors = append(l.errors, msg) }
