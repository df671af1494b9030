package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-tasklet/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "tasklet"

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	LifetimeBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	switchesTotal          *prom.CounterVec
	readyDepth             *prom.GaugeVec
	taskletLifetimeSeconds *prom.HistogramVec
	taskletFailuresTotal   *prom.CounterVec
	channelTransfersTotal  *prom.CounterVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.LifetimeBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	switchesVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "switches_total",
		Help:      "Total number of context switches into tasklets.",
	}, []string{"scheduler"})
	readyDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "ready_depth",
		Help:      "Current ready queue depth.",
	}, []string{"scheduler"})
	lifetimeVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "tasklet_lifetime_seconds",
		Help:      "Time from spawn to death of a tasklet in seconds.",
		Buckets:   buckets,
	}, []string{"scheduler"})
	failuresVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasklet_failures_total",
		Help:      "Total number of failed tasklets.",
	}, []string{"scheduler", "reason"})
	transfersVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "channel_transfers_total",
		Help:      "Total number of completed channel transfers.",
	}, []string{"channel", "path"})

	var err error
	if switchesVec, err = registerCollector(reg, switchesVec); err != nil {
		return nil, err
	}
	if readyDepthVec, err = registerCollector(reg, readyDepthVec); err != nil {
		return nil, err
	}
	if lifetimeVec, err = registerCollector(reg, lifetimeVec); err != nil {
		return nil, err
	}
	if failuresVec, err = registerCollector(reg, failuresVec); err != nil {
		return nil, err
	}
	if transfersVec, err = registerCollector(reg, transfersVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		switchesTotal:          switchesVec,
		readyDepth:             readyDepthVec,
		taskletLifetimeSeconds: lifetimeVec,
		taskletFailuresTotal:   failuresVec,
		channelTransfersTotal:  transfersVec,
	}, nil
}

// RecordSwitch records a switch into a tasklet.
func (m *MetricsExporter) RecordSwitch(schedulerName string) {
	if m == nil {
		return
	}
	m.switchesTotal.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Inc()
}

// RecordReadyDepth records the ready queue depth.
func (m *MetricsExporter) RecordReadyDepth(schedulerName string, depth int) {
	if m == nil {
		return
	}
	m.readyDepth.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Set(float64(depth))
}

// RecordTaskletLifetime records how long a tasklet lived.
func (m *MetricsExporter) RecordTaskletLifetime(schedulerName string, lifetime time.Duration) {
	if m == nil {
		return
	}
	m.taskletLifetimeSeconds.WithLabelValues(normalizeLabel(schedulerName, "unknown")).Observe(lifetime.Seconds())
}

// RecordTaskletFailure records a failed tasklet.
func (m *MetricsExporter) RecordTaskletFailure(schedulerName string, reason string) {
	if m == nil {
		return
	}
	m.taskletFailuresTotal.WithLabelValues(normalizeLabel(schedulerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordTransfer records a completed channel transfer.
func (m *MetricsExporter) RecordTransfer(channelName string, immediate bool) {
	if m == nil {
		return
	}
	m.channelTransfersTotal.WithLabelValues(normalizeLabel(channelName, "unnamed"), transferPathLabel(immediate)).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// transferPathLabel names how a transfer completed: the receiver found a waiting
// sender (immediate), or a sender handed off to a waiting receiver.
func transferPathLabel(immediate bool) string {
	if immediate {
		return "immediate"
	}
	return "handoff"
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
