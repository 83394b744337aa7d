package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sweeney/compare-engine/internal/config"
	"github.com/sweeney/compare-engine/internal/metrics"
	"github.com/sweeney/compare-engine/internal/points"
	"github.com/sweeney/compare-engine/internal/runner"
	"github.com/sweeney/compare-engine/internal/status"
	"github.com/sweeney/compare-engine/internal/store"
	"github.com/sweeney/compare-engine/internal/web"
)

var (
	serveHTTPAddr string
	serveDBPath   string
	serveBroker   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the evaluation engine and REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if serveHTTPAddr != "" {
			cfg.HTTPAddr = serveHTTPAddr
		}
		if serveDBPath != "" {
			cfg.DBPath = serveDBPath
		}
		if serveBroker != "" {
			cfg.MQTT.Broker = serveBroker
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Database path (overrides config)")
	serveCmd.Flags().StringVar(&serveBroker, "broker", "", "MQTT broker address (overrides config)")
	RootCmd.AddCommand(serveCmd)
}

func serve(cfg config.Config) error {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	pointStore, err := points.NewMQTTStore(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.Staleness())
	if err != nil {
		return fmt.Errorf("connect point store: %w", err)
	}

	// writer.Close also disconnects pointStore, either directly or as the
	// Router's fallback.
	var writer points.Writer = pointStore
	if len(cfg.GPIO.Outputs) > 0 {
		gw, err := points.NewGPIOWriter(cfg.GPIO.Chip, cfg.GPIO.Outputs)
		if err != nil {
			return fmt.Errorf("init gpio outputs: %w", err)
		}
		routes := make(map[string]points.Writer, len(cfg.GPIO.Outputs))
		for _, id := range gw.Points() {
			routes[id] = gw
		}
		writer = points.NewRouter(pointStore, routes)
	}
	defer writer.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	tracker := status.NewTracker(time.Now(), cfg.RecentCommits)

	r := runner.New(runner.Options{
		Store:   st,
		Reader:  pointStore,
		Writer:  writer,
		Tracker: tracker,
		Metrics: m,
		Log:     log,
	})

	srv := web.New(cfg.HTTPAddr, st, tracker, pointStore, registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			httpErr <- err
		}
	}()

	runnerDone := make(chan error, 1)
	go func() { runnerDone <- r.Run(ctx) }()

	log.Info("engine started",
		"db", cfg.DBPath, "broker", cfg.MQTT.Broker,
		"staleness", cfg.Staleness(), "gpio_outputs", len(cfg.GPIO.Outputs))

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-httpErr:
		stop()
		log.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if err := <-runnerDone; err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	return nil
}
