package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/Swind/go-tasklet/core"
	"github.com/Swind/go-tasklet/host"
	"github.com/Swind/go-tasklet/internal/editor"
	obs "github.com/Swind/go-tasklet/observability/prometheus"
)

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Feed an event script to the graph editor",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "script",
				Aliases:  []string{"s"},
				Required: true,
				Usage:    "YAML event script to replay",
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: "YAML network to start from instead of an empty graph",
			},
			&cli.StringFlag{
				Name:  "save",
				Value: "network.yaml",
				Usage: "File written when the script presses Return",
			},
			&cli.IntFlag{
				Name:  "yield-every",
				Value: 1,
				Usage: "Polls between yields of the host pump",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Minimum log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Shorthand for --log-level debug",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address, e.g. :2112",
			},
			&cli.DurationFlag{
				Name:  "hold",
				Usage: "Keep serving metrics this long after the replay",
			},
			&cli.IntFlag{
				Name:  "history",
				Value: 100,
				Usage: "Finished tasklets kept for the summary",
			},
		},

		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	// 1. Get flags
	level, err := core.ParseLevel(c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.Bool("verbose") {
		level = core.LevelDebug
	}
	logger := core.NewLevelLogger(os.Stderr, level)

	script, err := host.LoadScriptFile(c.String("script"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	var network *editor.Network
	if path := c.String("network"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		network, err = editor.DecodeNetwork(f)
		f.Close()
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %s: %v", path, err), 1)
		}
	}

	// 2. Wire metrics
	config := core.DefaultSchedulerConfig()
	config.Logger = logger
	config.HistoryCapacity = c.Int("history")

	var poller *obs.SnapshotPoller
	if addr := c.String("metrics-addr"); addr != "" {
		reg := prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter("", reg, obs.ExporterOptions{})
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		poller, err = obs.NewSnapshotPoller(reg, 100*time.Millisecond)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		config.Metrics = exporter

		stop := serveMetrics(addr, reg, logger)
		defer stop()
	}

	// 3. Run
	sched := core.NewScheduler("replay", config)
	events := core.NewNamedChannel[host.Event](sched, "events")

	opts := editor.Options{
		Start:  host.Vec2{X: 213, Y: 160},
		Goal:   host.Vec2{X: 426, Y: 320},
		Logger: logger,
		Save:   editor.FileSaver(c.String("save")),
	}
	var ed *editor.Editor
	if network != nil {
		ed = editor.NewFromNetwork(events, network, opts)
	} else {
		ed = editor.New(events, opts)
	}

	if poller != nil {
		poller.AddScheduler(sched.Name(), sched)
		poller.AddChannel(events.Name(), events)
		poller.Start(c.Context)
		defer poller.Stop()
	}

	sched.SpawnNamed("editor", ed.Run)
	sched.SpawnNamed("host", host.Pump(sched, host.NewScriptSource(script), host.NewBridge(events), c.Int("yield-every")))

	if err := sched.Run(); err != nil {
		var failure *core.TaskletError
		if errors.As(err, &failure) {
			return cli.Exit(fmt.Sprintf("Failed: tasklet %s: %v", failure.Name, failure.Err), 1)
		}
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	// 4. Format output
	stats := sched.Stats()
	fmt.Printf("✓ Replayed %d events: %d vertices, %d edges\n",
		len(script.Events), len(ed.Vertices()), len(ed.Edges()))
	fmt.Printf("  switches=%d spawned=%d completed=%d blocked=%d\n",
		stats.Switches, stats.Spawned, stats.Completed, stats.Blocked)
	for _, rec := range sched.History(0) {
		fmt.Printf("  %s %-8s lifetime=%s switches=%d\n", rec.ID, rec.Name, rec.Lifetime, rec.Switches)
	}

	if hold := c.Duration("hold"); hold > 0 && poller != nil {
		logger.Info("holding metrics endpoint", core.F("duration", hold))
		select {
		case <-time.After(hold):
		case <-c.Context.Done():
		}
	}
	return nil
}

// serveMetrics exposes reg on addr and returns a function that shuts the server down.
func serveMetrics(addr string, reg *prom.Registry, logger core.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", core.F("addr", addr), core.F("error", err))
		}
	}()
	logger.Info("serving metrics", core.F("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
