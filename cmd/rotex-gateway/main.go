package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rotexchain/gateway/config"
	"rotexchain/gateway/middleware"
	"rotexchain/gateway/routes"
	"rotexchain/observability/logging"
	telemetry "rotexchain/observability/otel"
)

const (
	envNameEnv     = "ROTEX_ENV"
	nodeURLEnv     = "ROTEX_GATEWAY_NODE_URL"
	autoUpgradeEnv = "ROTEX_GATEWAY_AUTO_HTTPS"
)

func main() {
	var cfgPath string
	var allowInsecureFlag bool
	flag.StringVar(&cfgPath, "config", "", "path to gateway configuration")
	flag.BoolVar(&allowInsecureFlag, "allow-insecure", false, "DEV ONLY: permit plaintext listeners on loopback interfaces")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envNameEnv))
	logger := logging.Setup("rotex-gateway", env)

	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	otlpHeaders := telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "rotex-gateway",
		Environment: env,
		Endpoint:    otlpEndpoint,
		Insecure:    insecure,
		Headers:     otlpHeaders,
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		logger.Error("failed to initialise telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	configDir := ""
	if strings.TrimSpace(cfgPath) != "" {
		configDir = filepath.Dir(cfgPath)
	}

	if override := strings.TrimSpace(os.Getenv(nodeURLEnv)); override != "" {
		cfg.Node.Endpoint = override
	}
	autoUpgrade := cfg.Security.AutoUpgradeHTTP
	if override := strings.TrimSpace(os.Getenv(autoUpgradeEnv)); override != "" {
		parsed, err := strconv.ParseBool(override)
		if err != nil {
			logger.Error("parse "+autoUpgradeEnv, slog.Any("error", err))
			os.Exit(1)
		}
		autoUpgrade = parsed
	}

	nodeURL, err := cfg.Node.URL()
	if err != nil {
		logger.Error("parse node endpoint", slog.Any("error", err))
		os.Exit(1)
	}
	secured, upgraded, err := config.EnforceSecureScheme(env, nodeURL, autoUpgrade)
	if err != nil {
		logger.Error("enforce HTTPS for node endpoint", slog.Any("error", err))
		os.Exit(1)
	}
	if upgraded {
		logger.Info("auto-upgraded node endpoint to HTTPS")
	}

	node, err := routes.NewNodeClient(secured, cfg.Node.Timeout)
	if err != nil {
		logger.Error("configure node client", slog.Any("error", err))
		os.Exit(1)
	}

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName:   cfg.Observability.ServiceName,
		MetricsPrefix: cfg.Observability.MetricsPrefix,
		LogRequests:   cfg.Observability.LogRequests,
		Enabled:       cfg.Observability.Metrics || cfg.Observability.Tracing,
	}, logger)

	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:        cfg.Auth.Enabled,
		HMACSecret:     cfg.Auth.HMACSecret,
		Issuer:         cfg.Auth.Issuer,
		Audience:       cfg.Auth.Audience,
		ScopeClaim:     cfg.Auth.ScopeClaim,
		OptionalPaths:  cfg.Auth.OptionalPaths,
		AllowAnonymous: cfg.Auth.AllowAnonymous,
		ClockSkew:      cfg.Auth.ClockSkew,
	}, logger)

	rateLimits := make(map[string]middleware.RateLimit)
	for _, entry := range cfg.RateLimits {
		if entry.ID == "" {
			continue
		}
		rateLimits[entry.ID] = middleware.RateLimit{
			RatePerSecond: entry.RatePerSecond,
			Burst:         entry.Burst,
		}
	}
	if len(rateLimits) == 0 {
		rateLimits["auction"] = middleware.RateLimit{RatePerSecond: 4, Burst: 40}
		rateLimits["exchange"] = middleware.RateLimit{RatePerSecond: 2, Burst: 20}
		rateLimits["stats"] = middleware.RateLimit{RatePerSecond: 4, Burst: 40}
	}

	router, err := routes.New(routes.Config{
		Node: node,
		Auction: routes.GroupPolicy{
			RequireAuth:  false,
			RateLimitKey: "auction",
		},
		Exchange: routes.GroupPolicy{
			RequireAuth:    true,
			RequiredScopes: []string{"exchange"},
			RateLimitKey:   "exchange",
		},
		Stats: routes.GroupPolicy{
			RequireAuth:  false,
			RateLimitKey: "stats",
		},
		Authenticator: auth,
		RateLimiter:   middleware.NewRateLimiter(rateLimits, logger),
		Observability: obs,
		CORS: middleware.CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key", middleware.RequestIDHeader},
			AllowCredentials: false,
		},
	})
	if err != nil {
		logger.Error("configure routes", slog.Any("error", err))
		os.Exit(1)
	}

	handler := http.Handler(router)
	if cfg.Observability.Tracing {
		handler = otelhttp.NewHandler(router, "rotex-gateway")
	}

	tlsConfig, err := buildTLSConfig(configDir, cfg.Security)
	if err != nil {
		logger.Error("configure TLS", slog.Any("error", err))
		os.Exit(1)
	}

	allowInsecure := cfg.Security.AllowInsecure || allowInsecureFlag
	if tlsConfig == nil {
		if !allowInsecure {
			logger.Error("gateway TLS certificate and key are required; provide security.tlsCertFile/tlsKeyFile or start with --allow-insecure in dev")
			os.Exit(1)
		}
		if !strings.EqualFold(env, "dev") && !isLoopbackAddress(cfg.ListenAddress) {
			logger.Error("plaintext gateway mode is restricted to loopback listeners or dev environment")
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	if tlsConfig != nil {
		server.TLSConfig = tlsConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Error("listen", slog.String("address", cfg.ListenAddress), slog.Any("error", err))
		os.Exit(1)
	}
	go func() {
		scheme := "http"
		if tlsConfig != nil {
			scheme = "https"
		}
		logger.Info("gateway listening",
			slog.String("address", fmt.Sprintf("%s://%s", scheme, listener.Addr())),
			slog.String("node", secured.String()))
		var serveErr error
		if tlsConfig != nil {
			serveErr = server.Serve(tls.NewListener(listener, tlsConfig))
		} else {
			serveErr = server.Serve(listener)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("listen and serve", slog.Any("error", serveErr))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

func buildTLSConfig(baseDir string, sec config.SecurityConfig) (*tls.Config, error) {
	certPath := resolveTLSPath(baseDir, sec.TLSCertFile)
	keyPath := resolveTLSPath(baseDir, sec.TLSKeyFile)
	caPath := resolveTLSPath(baseDir, sec.TLSClientCAFile)
	if strings.TrimSpace(certPath) == "" && strings.TrimSpace(keyPath) == "" && strings.TrimSpace(caPath) == "" {
		return nil, nil
	}
	if strings.TrimSpace(certPath) == "" || strings.TrimSpace(keyPath) == "" {
		return nil, fmt.Errorf("security.tlsCertFile and security.tlsKeyFile must both be provided when enabling TLS")
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	tlsCfg := &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	if strings.TrimSpace(caPath) != "" {
		data, err := os.ReadFile(caPath)
		if err != nil {
			return nil, fmt.Errorf("read client CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("parse client CA file %s", caPath)
		}
		tlsCfg.ClientCAs = pool
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return tlsCfg, nil
}

func resolveTLSPath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if baseDir == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(baseDir, trimmed)
}

func isLoopbackAddress(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
