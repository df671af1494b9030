package core

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// FailureHandler: Interface for tasklets failing behind an error barrier
// =============================================================================

// FailureHandler is called when a tasklet behind an error barrier fails.
// Without a barrier the failure ends Run instead and the handler is not consulted.
type FailureHandler interface {
	// HandleFailure is called once per failed tasklet.
	//
	// Parameters:
	// - schedulerName: The name of the scheduler that ran the tasklet
	// - failure: The tasklet identity and the error (a *PanicError for panics)
	HandleFailure(schedulerName string, failure *TaskletError)
}

// DefaultFailureHandler prints failures to stdout, with the stack for panics.
type DefaultFailureHandler struct{}

// HandleFailure prints failure information to stdout.
func (h *DefaultFailureHandler) HandleFailure(schedulerName string, failure *TaskletError) {
	var pe *PanicError
	if errors.As(failure.Err, &pe) {
		fmt.Printf("[Scheduler %s] %s panicked: %v\nStack trace:\n%s",
			schedulerName, failure.ID, pe.Value, pe.Stack)
		return
	}
	fmt.Printf("[Scheduler %s] %s failed: %v\n", schedulerName, failure.ID, failure.Err)
}

// FailureHandlerFunc adapts a function to FailureHandler.
type FailureHandlerFunc func(schedulerName string, failure *TaskletError)

func (f FailureHandlerFunc) HandleFailure(schedulerName string, failure *TaskletError) {
	f(schedulerName, failure)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduler metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called on the logical thread of the scheduler and must not block
// or call back into the scheduler.
type Metrics interface {
	// RecordSwitch records one context switch into a tasklet.
	RecordSwitch(schedulerName string)

	// RecordReadyDepth records the ready queue length after it changed.
	RecordReadyDepth(schedulerName string, depth int)

	// RecordTaskletLifetime records the time from spawn to death of a tasklet.
	RecordTaskletLifetime(schedulerName string, lifetime time.Duration)

	// RecordTaskletFailure records a tasklet ending with an error.
	//
	// Parameters:
	// - reason: "error", "panic" or "goexit"
	RecordTaskletFailure(schedulerName string, reason string)

	// RecordTransfer records a completed rendezvous.
	//
	// Parameters:
	// - channelName: The channel's name, empty for unnamed channels
	// - immediate: true when the receiver found a sender already waiting
	RecordTransfer(channelName string, immediate bool)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordSwitch(schedulerName string)                                  {}
func (m *NilMetrics) RecordReadyDepth(schedulerName string, depth int)                   {}
func (m *NilMetrics) RecordTaskletLifetime(schedulerName string, lifetime time.Duration) {}
func (m *NilMetrics) RecordTaskletFailure(schedulerName string, reason string)           {}
func (m *NilMetrics) RecordTransfer(channelName string, immediate bool)                  {}

// =============================================================================
// SchedulerConfig: Configuration for Scheduler
// =============================================================================

// SchedulerConfig holds configuration options for Scheduler.
// All handlers are optional; if not provided, default implementations will be used.
type SchedulerConfig struct {
	// Logger receives lifecycle and failure logs. Defaults to NoOpLogger.
	Logger Logger

	// Metrics is called to record scheduler metrics. Defaults to NilMetrics.
	Metrics Metrics

	// FailureHandler is called for failures behind an error barrier. Defaults to DefaultFailureHandler.
	FailureHandler FailureHandler

	// ErrorBarrier puts every tasklet behind an error barrier: a failing tasklet is
	// reported to FailureHandler and Run keeps going.
	ErrorBarrier bool

	// HistoryCapacity bounds the finished-tasklet history. Defaults to 100.
	HistoryCapacity int
}

// DefaultSchedulerConfig returns a config with default handlers.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Logger:          NewNoOpLogger(),
		Metrics:         &NilMetrics{},
		FailureHandler:  &DefaultFailureHandler{},
		HistoryCapacity: defaultTaskHistoryCapacity,
	}
}

// SpawnOptions tunes a single spawn.
type SpawnOptions struct {
	// Name overrides the name derived from the computation.
	Name string

	// Barrier isolates this tasklet's failure from Run.
	Barrier bool
}
