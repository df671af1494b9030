package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-tasklet/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type schedulerStub struct {
	stats core.SchedulerStats
}

func (s schedulerStub) Stats() core.SchedulerStats { return s.stats }

type channelStub struct {
	stats core.ChannelStats
}

func (s channelStub) Stats() core.ChannelStats { return s.stats }

func TestSnapshotPoller_CollectsSchedulerAndChannelStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddScheduler("sched-a", schedulerStub{stats: core.SchedulerStats{
		Ready:   3,
		Blocked: 2,
		Live:    5,
		Spawned: 9,
		Failed:  1,
		Running: true,
	}})
	poller.AddChannel("events", channelStub{stats: core.ChannelStats{
		Senders: 0, Receivers: 2, Balance: -2,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		ready := testutil.ToFloat64(poller.schedulerReady.WithLabelValues("sched-a"))
		receivers := testutil.ToFloat64(poller.channelReceivers.WithLabelValues("events"))
		return ready == 3 && receivers == 2
	})

	if got := testutil.ToFloat64(poller.schedulerRunning.WithLabelValues("sched-a")); got != 1 {
		t.Fatalf("scheduler running gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.schedulerBlocked.WithLabelValues("sched-a")); got != 2 {
		t.Fatalf("scheduler blocked gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(poller.channelBalance.WithLabelValues("events")); got != -2 {
		t.Fatalf("channel balance gauge = %v, want -2", got)
	}
}

// TestSnapshotPoller_RealScheduler verifies a parked receiver shows up in the gauges
// Given: A scheduler whose only tasklet blocks on an empty channel
// When: Run returns and the poller collects
// Then: The blocked and receiver gauges report the parked tasklet
func TestSnapshotPoller_RealScheduler(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	s := core.NewScheduler("real", nil)
	ch := core.NewNamedChannel[string](s, "inbox")
	s.Spawn(func() error {
		_, err := ch.Receive()
		return err
	})
	if err := s.Run(); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	poller.AddScheduler(s.Name(), s)
	poller.AddChannel(ch.Name(), ch)
	poller.collectOnce()

	if got := testutil.ToFloat64(poller.schedulerBlocked.WithLabelValues("real")); got != 1 {
		t.Fatalf("blocked gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.channelReceivers.WithLabelValues("inbox")); got != 1 {
		t.Fatalf("receivers gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.schedulerRunning.WithLabelValues("real")); got != 0 {
		t.Fatalf("running gauge = %v, want 0", got)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
