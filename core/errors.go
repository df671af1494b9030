package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInTasklet is the panic value for channel operations issued outside a running tasklet.
	ErrNotInTasklet = errors.New("tasklet: operation requires a running tasklet")

	// ErrNestedRun is returned by Run when the scheduler loop is already active.
	ErrNestedRun = errors.New("tasklet: scheduler is already running")

	// ErrGoexit ends a tasklet whose computation called runtime.Goexit.
	ErrGoexit = errors.New("tasklet: computation called runtime.Goexit")
)

// =============================================================================
// Bomb: error envelope carried through a channel
// =============================================================================

// Bomb wraps an error so that the receiving end of a channel gets it back from
// Receive instead of a value.
//
// Kind classifies the failure and is what errors.Is matches against.
type Bomb struct {
	Kind       error
	Message    string
	Origin     TaskletID
	OriginName string
	Stack      []byte
}

func (b *Bomb) Error() string {
	switch {
	case b.Kind == nil:
		return b.Message
	case b.Message == "" || b.Message == b.Kind.Error():
		return b.Kind.Error()
	default:
		return b.Kind.Error() + ": " + b.Message
	}
}

func (b *Bomb) Unwrap() error {
	return b.Kind
}

// envelope distinguishes a bomb from an ordinary payload of type error.
type envelope struct {
	bomb *Bomb
}

// =============================================================================
// Tasklet failures
// =============================================================================

// TaskletError reports a tasklet whose computation failed.
type TaskletError struct {
	ID   TaskletID
	Name string
	Err  error
}

func (e *TaskletError) Error() string {
	return fmt.Sprintf("%s (%s) failed: %v", e.ID, e.Name, e.Err)
}

func (e *TaskletError) Unwrap() error {
	return e.Err
}

// PanicError is the error recorded for a computation that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
