package core

// execContext is the stack a tasklet runs on: a goroutine that stays parked on
// wake whenever it does not hold the logical thread of control.
//
// Exactly one execContext is unparked at any instant. A switch hands the thread
// over with an unbuffered send, so the receiving side observes every write the
// previous holder made before the switch.
type execContext struct {
	wake    chan struct{}
	started bool
}

func newExecContext() *execContext {
	return &execContext{wake: make(chan struct{})}
}

// rootContext describes the goroutine that calls Run. It is already running.
func rootContext() *execContext {
	return &execContext{wake: make(chan struct{}), started: true}
}

// resume hands the thread to c. On first use the goroutine is created with entry.
// The caller must not touch scheduler state after resume returns other than to park.
func (c *execContext) resume(entry func()) {
	if !c.started {
		c.started = true
		go entry()
		return
	}
	c.wake <- struct{}{}
}

// park blocks the calling goroutine until some other context resumes c.
func (c *execContext) park() {
	<-c.wake
}
