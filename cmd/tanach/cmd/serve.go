package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/noamulm-dev/Tanach100/internal/config"
	"github.com/noamulm-dev/Tanach100/internal/letters"
	"github.com/noamulm-dev/Tanach100/internal/logging"
	"github.com/noamulm-dev/Tanach100/internal/mcp"
	"github.com/noamulm-dev/Tanach100/internal/search"
	"github.com/noamulm-dev/Tanach100/internal/telemetry"
)

const metricsShutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var (
		transport   string
		metricsAddr string
		logPath     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server over stdio.

Tools: search, letters_window, letters_next, letters_prev, gematria,
corpus_status. Resources: tanach://books, tanach://parashot, tanach://search_metrics.

Stdout carries JSON-RPC only; logs go to ~/.tanach/logs/ (see --log-file).
With --metrics-addr, Prometheus metrics are served at /metrics.`,
		Example: `  # Typical MCP client configuration
  tanach serve

  # Expose Prometheus metrics
  tanach serve --metrics-addr 127.0.0.1:9464`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if transport != "" {
				cfg.Server.Transport = transport
			}
			if metricsAddr != "" {
				cfg.Server.MetricsAddr = metricsAddr
			}
			if debugMode {
				cfg.Server.LogLevel = "debug"
			}
			return runServe(cmd.Context(), cfg, logPath)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport (default from config: stdio)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&logPath, "log-file", "", "Log file (default ~/.tanach/logs/tanach.log)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := logging.SetupMCPMode(cfg.Server.LogLevel, logPath)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	store, err := openCorpus(cfg)
	if err != nil {
		slog.Error("corpus_open_failed", slog.String("path", cfg.Corpus.Path), slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := telemetry.NewSearchMetrics(telemetry.Config{Registerer: reg})
	if err != nil {
		return fmt.Errorf("failed to create search metrics: %w", err)
	}

	src := withCache(cfg, store)
	engine, err := newEngine(cfg, src, metrics)
	if err != nil {
		return err
	}
	server, err := mcp.NewServer(search.NewOrchestrator(engine), letters.NewNavigator(src), store.Status, cfg)
	if err != nil {
		return err
	}
	server.SetMetrics(metrics)
	defer func() { _ = server.Close() }()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Server.MetricsAddr != "" {
		srv := newMetricsServer(cfg.Server.MetricsAddr, reg)
		g.Go(func() error {
			slog.Info("metrics_server_started", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		// The MCP session ending (stdin closed) stops the metrics server too.
		defer stop()
		return server.Serve(gctx, cfg.Server.Transport)
	})

	if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newMetricsServer exposes reg at /metrics.
func newMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
