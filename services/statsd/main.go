package statsd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rotexchain/integrations/webhooks"
	"rotexchain/observability/logging"
	telemetry "rotexchain/observability/otel"
)

// Main runs the stats archiver daemon using the provided command line flags.
func Main() error {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/statsd/config.yaml", "path to statsd config")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("ROTEX_ENV"))
	logger := logging.Setup("rotex-statsd", env)
	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	otlpHeaders := telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "rotex-statsd",
		Environment: env,
		Endpoint:    otlpEndpoint,
		Insecure:    insecure,
		Headers:     otlpHeaders,
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dsn, err := FileDSN(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	store, err := OpenStore(dsn)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = store.Close() }()

	cursor, err := OpenCursor(cfg.CursorPath)
	if err != nil {
		return fmt.Errorf("open cursor store: %w", err)
	}
	defer func() { _ = cursor.Close() }()

	client, err := NewNodeClient(cfg.NodeURL, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("build node client: %w", err)
	}

	opts := []Option{WithLogger(logger)}
	if cfg.ExportInterval > 0 {
		exporter, err := NewExporter(store, cfg.ExportDir)
		if err != nil {
			return fmt.Errorf("build exporter: %w", err)
		}
		opts = append(opts, WithExporter(exporter, cfg.ExportInterval))
	}
	if cfg.WebhookURL != "" {
		secret := strings.TrimSpace(os.Getenv(cfg.WebhookSecretEnv))
		if secret == "" {
			return fmt.Errorf("%s must be set when webhook_url is configured", cfg.WebhookSecretEnv)
		}
		hooks, err := webhooks.NewDispatcher(cfg.WebhookURL, []byte(secret))
		if err != nil {
			return fmt.Errorf("build webhook dispatcher: %w", err)
		}
		defer hooks.Close()
		opts = append(opts, WithWebhooks(hooks))
		logger.Info("statsd: webhook notifications enabled",
			logging.MaskField("endpoint", cfg.WebhookURL))
	}
	archiver, err := New(client, store, cursor, cfg.PollInterval, opts...)
	if err != nil {
		return fmt.Errorf("build archiver: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      otelhttp.NewHandler(mux, "rotex-statsd"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)
	go func() {
		logger.Info("statsd listening",
			slog.String("address", cfg.ListenAddress),
			slog.String("node", cfg.NodeURL),
		)
		errs <- httpServer.ListenAndServe()
	}()
	go func() {
		errs <- archiver.Run(stopCtx)
	}()

	select {
	case <-stopCtx.Done():
		return shutdownHTTP(httpServer)
	case err := <-errs:
		if err == nil || err == http.ErrServerClosed || errors.Is(err, context.Canceled) {
			return shutdownHTTP(httpServer)
		}
		return err
	}
}

func shutdownHTTP(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
		return err
	}
	return nil
}
