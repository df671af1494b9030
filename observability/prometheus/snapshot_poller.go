package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-tasklet/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SchedulerSnapshotProvider provides current scheduler stats snapshots.
type SchedulerSnapshotProvider interface {
	Stats() core.SchedulerStats
}

// ChannelSnapshotProvider provides current channel stats snapshots.
type ChannelSnapshotProvider interface {
	Stats() core.ChannelStats
}

// SnapshotPoller periodically exports scheduler/channel Stats() snapshots into Prometheus gauges.
// Stats() of both providers is safe to call while the scheduler runs on another goroutine.
type SnapshotPoller struct {
	interval time.Duration

	schedulersMu sync.RWMutex
	schedulers   map[string]SchedulerSnapshotProvider

	channelsMu sync.RWMutex
	channels   map[string]ChannelSnapshotProvider

	schedulerReady   *prom.GaugeVec
	schedulerBlocked *prom.GaugeVec
	schedulerLive    *prom.GaugeVec
	schedulerSpawned *prom.GaugeVec
	schedulerFailed  *prom.GaugeVec
	schedulerRunning *prom.GaugeVec

	channelSenders   *prom.GaugeVec
	channelReceivers *prom.GaugeVec
	channelBalance   *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	schedulerGauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: defaultNamespace,
			Name:      name,
			Help:      help,
		}, []string{"scheduler"})
	}
	channelGauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: defaultNamespace,
			Name:      name,
			Help:      help,
		}, []string{"channel"})
	}

	p := &SnapshotPoller{
		interval:   interval,
		schedulers: make(map[string]SchedulerSnapshotProvider),
		channels:   make(map[string]ChannelSnapshotProvider),
	}

	collectors := []struct {
		dst **prom.GaugeVec
		vec *prom.GaugeVec
	}{
		{&p.schedulerReady, schedulerGauge("scheduler_ready", "Scheduled tasklets per scheduler.")},
		{&p.schedulerBlocked, schedulerGauge("scheduler_blocked", "Tasklets blocked on channels per scheduler.")},
		{&p.schedulerLive, schedulerGauge("scheduler_live", "Tasklets not yet dead per scheduler.")},
		{&p.schedulerSpawned, schedulerGauge("scheduler_spawned_total", "Scheduler spawned tasklet count snapshot.")},
		{&p.schedulerFailed, schedulerGauge("scheduler_failed_total", "Scheduler failed tasklet count snapshot.")},
		{&p.schedulerRunning, schedulerGauge("scheduler_running", "Scheduler run loop state (1=running, 0=idle).")},
		{&p.channelSenders, channelGauge("channel_senders", "Senders waiting per channel.")},
		{&p.channelReceivers, channelGauge("channel_receivers", "Receivers waiting per channel.")},
		{&p.channelBalance, channelGauge("channel_balance", "Waiting senders minus waiting receivers per channel.")},
	}
	for _, c := range collectors {
		vec, err := registerCollector(reg, c.vec)
		if err != nil {
			return nil, err
		}
		*c.dst = vec
	}

	return p, nil
}

// AddScheduler adds or replaces a scheduler snapshot provider by name.
func (p *SnapshotPoller) AddScheduler(name string, provider SchedulerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "scheduler")
	p.schedulersMu.Lock()
	p.schedulers[name] = provider
	p.schedulersMu.Unlock()
}

// AddChannel adds or replaces a channel snapshot provider by name.
func (p *SnapshotPoller) AddChannel(name string, provider ChannelSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "channel")
	p.channelsMu.Lock()
	p.channels[name] = provider
	p.channelsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.schedulersMu.RLock()
	for name, provider := range p.schedulers {
		stats := provider.Stats()
		p.schedulerReady.WithLabelValues(name).Set(float64(stats.Ready))
		p.schedulerBlocked.WithLabelValues(name).Set(float64(stats.Blocked))
		p.schedulerLive.WithLabelValues(name).Set(float64(stats.Live))
		p.schedulerSpawned.WithLabelValues(name).Set(float64(stats.Spawned))
		p.schedulerFailed.WithLabelValues(name).Set(float64(stats.Failed))
		if stats.Running {
			p.schedulerRunning.WithLabelValues(name).Set(1)
		} else {
			p.schedulerRunning.WithLabelValues(name).Set(0)
		}
	}
	p.schedulersMu.RUnlock()

	p.channelsMu.RLock()
	for name, provider := range p.channels {
		stats := provider.Stats()
		p.channelSenders.WithLabelValues(name).Set(float64(stats.Senders))
		p.channelReceivers.WithLabelValues(name).Set(float64(stats.Receivers))
		p.channelBalance.WithLabelValues(name).Set(float64(stats.Balance))
	}
	p.channelsMu.RUnlock()
}
