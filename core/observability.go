package core

import "time"

// TaskletRecord captures a finished tasklet.
type TaskletRecord struct {
	ID         TaskletID
	Name       string
	Scheduler  string
	SpawnedAt  time.Time
	FinishedAt time.Time
	Lifetime   time.Duration
	Switches   int
	Failed     bool
	Panicked   bool
}

// SchedulerStats is a point-in-time view of a scheduler.
// It is safe to take from any goroutine, including while Run is active.
type SchedulerStats struct {
	Name      string
	Ready     int
	Blocked   int
	Live      int
	Spawned   int64
	Completed int64
	Failed    int64
	Switches  int64
	Running   bool
}

// ChannelStats is a point-in-time view of a channel's wait queues.
type ChannelStats struct {
	Name      string
	Senders   int
	Receivers int
	Balance   int
	Transfers int64
}
