// Command demo runs the safety state machine against a simulated build cell.
//
// It plays the configured scenario, lets the cell drive the loader, and
// prints the audit journal and the chart with the final state highlighted.
// Sending SIGUSR1 while it runs injects a Fault, as a watchdog would.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/comalice/safetychart"
	"github.com/comalice/safetychart/internal/cell"
	"github.com/comalice/safetychart/internal/config"
	"github.com/comalice/safetychart/internal/core"
	"github.com/comalice/safetychart/internal/extensibility"
	"github.com/comalice/safetychart/internal/logger"
	"github.com/comalice/safetychart/internal/production"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	serve := flag.Bool("serve", false, "keep running after the scenario until interrupted")
	flag.Parse()

	if err := run(*configPath, *serve); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run(configPath string, serve bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	scenario, err := cfg.Events()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal, err := production.OpenJournal(cfg.JournalDSN)
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := production.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, log)
		defer func() { _ = srv.Close() }()
	}

	m := safetychart.New(safetychart.WithObserver(production.CompositeObserver{
		production.NewLoggingObserver(log.Named("machine")),
		metrics,
	}))

	watchdog := extensibility.NewChannelEventSource(4)
	defer watchdog.Close()
	go forwardFaultSignal(ctx, watchdog, log)

	runner := core.NewRunner(m,
		core.WithQueueSize(cfg.QueueSize),
		core.WithMachineID(cfg.MachineID),
		core.WithLogger(log.Named("runner")),
		core.WithPublisher(journal),
		core.WithEventSource(watchdog),
	)

	var simOpts []cell.Option
	simOpts = append(simOpts, cell.WithLogger(log.Named("cell")))
	if cfg.InjectFault {
		simOpts = append(simOpts, cell.WithFaultInjection())
	}
	sim := cell.NewSimulator(runner, simOpts...)

	hooks, err := safetychart.NewHookBuilder().
		Cell(sim).
		OnEnter(safetychart.Faulted, func() { log.Warn("cell halted, operator reset required") }).
		Build()
	if err != nil {
		return err
	}
	m.SetHooks(extensibility.LoggingHooks(hooks, log.Named("hooks")))

	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = runner.Stop() }()

	for _, ev := range scenario {
		s, err := runner.Send(ctx, ev)
		if err != nil {
			return fmt.Errorf("send %s: %w", ev, err)
		}
		if s.Top == safetychart.BuildPlateLoader {
			waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			s, err = runner.Await(waitCtx, func(s safetychart.Snapshot) bool {
				return s.Top != safetychart.BuildPlateLoader
			})
			cancel()
			if err != nil {
				return fmt.Errorf("loader did not finish (state %s): %w", s, err)
			}
		}
		log.Info("scenario step", zap.Stringer("event", ev), zap.Stringer("state", s))
	}

	if serve {
		log.Info("serving until interrupted", zap.String("metrics", cfg.MetricsAddr))
		<-ctx.Done()
	}

	entries, err := journal.List(context.Background(), cfg.MachineID)
	if err != nil {
		return err
	}
	fmt.Println("journal:")
	for _, e := range entries {
		fmt.Printf("  %s  %-18s %s -> %s\n", e.At.Format(time.RFC3339Nano), e.Event, e.From, e.To)
	}

	v := &production.Visualizer{}
	fmt.Print(v.ExportDOT(safetychart.Chart(), production.ActivePaths(runner.Snapshot())))
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("metrics listening", zap.String("addr", addr))
	return srv
}

func forwardFaultSignal(ctx context.Context, src *extensibility.ChannelEventSource, log *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)
	defer signal.Stop(sig)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			if !src.TryEmit(safetychart.EvFault) {
				log.Warn("fault signal dropped")
			}
		}
	}
}
