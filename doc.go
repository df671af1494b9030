// Package tasklet provides cooperative microthreads (tasklets) and rendezvous channels for Go.
//
// Tasklets are scheduled round-robin on one logical thread. Exactly one tasklet runs at a
// time and control changes hands only at explicit points: Schedule, a channel operation that
// blocks, or the end of a tasklet. Code between those points never interleaves with another
// tasklet, so state shared between tasklets of one scheduler needs no locks.
//
// # Quick Start
//
// The package-level functions use a process-wide scheduler created on first use:
//
//	ch := tasklet.NewChannel[string]()
//	tasklet.Spawn(func() error {
//		ch.Send("ping")
//		return nil
//	})
//	tasklet.Spawn(func() error {
//		msg, err := ch.Receive()
//		if err != nil {
//			return err
//		}
//		fmt.Println(msg)
//		return nil
//	})
//	if err := tasklet.Run(); err != nil {
//		log.Fatal(err)
//	}
//
// # Key Concepts
//
// Tasklet: A computation with a lifecycle of created, scheduled, running, blocked and dead.
// Spawn never runs the computation; it only appends the tasklet to the ready queue.
//
// Channel: An unbuffered channel. Send blocks until a receiver takes the value, Receive
// blocks until a sender offers one. Waiting parties are paired in arrival order.
// SendException delivers an error that the receiving side gets back from Receive.
//
// Scheduler: Owns the ready queue. Run drives it until no tasklet is ready. Tasklets still
// blocked on channels stay parked and resume in a later Run once a partner arrives.
//
// # Errors
//
// A tasklet that returns an error or panics stops Run, which returns a *TaskletError.
// Enable SchedulerConfig.ErrorBarrier, or SpawnOptions.Barrier per tasklet, to report
// failures through the FailureHandler and keep the scheduler running instead.
//
// For independent schedulers (tests, embedding), use NewScheduler and core.NewChannel.
package tasklet
