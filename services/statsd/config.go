package statsd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime options for the stats archiver.
type Config struct {
	ListenAddress     string        `yaml:"listen"`
	NodeURL           string        `yaml:"node"`
	DatabasePath      string        `yaml:"database"`
	CursorPath        string        `yaml:"cursor"`
	ExportDir         string        `yaml:"export_dir"`
	WebhookURL        string        `yaml:"webhook_url"`
	WebhookSecretEnv  string        `yaml:"webhook_secret_env"`
	PollInterval      time.Duration `yaml:"-"`
	PollIntervalSec   int           `yaml:"poll_interval_seconds"`
	ExportInterval    time.Duration `yaml:"-"`
	ExportIntervalSec int           `yaml:"export_interval_seconds"`
	RequestTimeout    time.Duration `yaml:"-"`
	RequestTimeoutSec int           `yaml:"request_timeout_seconds"`
}

// LoadConfig reads configuration from disk and applies defaults. An export
// interval of zero disables the snapshot pipeline.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ListenAddress:     ":8086",
		NodeURL:           "http://localhost:8080",
		DatabasePath:      filepath.Join("rotex-data", "stats.db"),
		CursorPath:        filepath.Join("rotex-data", "stats-cursor.db"),
		ExportDir:         filepath.Join("rotex-data", "exports"),
		WebhookSecretEnv:  "ROTEX_STATS_WEBHOOK_SECRET",
		PollIntervalSec:   60,
		ExportIntervalSec: 3600,
		RequestTimeoutSec: 10,
	}
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8086"
	}
	cfg.NodeURL = strings.TrimSpace(cfg.NodeURL)
	if cfg.NodeURL == "" {
		return Config{}, fmt.Errorf("node endpoint required")
	}
	parsed, err := url.Parse(cfg.NodeURL)
	if err != nil {
		return Config{}, fmt.Errorf("parse node endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("node endpoint must include scheme and host")
	}
	cfg.DatabasePath = strings.TrimSpace(cfg.DatabasePath)
	if cfg.DatabasePath == "" {
		return Config{}, fmt.Errorf("database path required")
	}
	cfg.CursorPath = strings.TrimSpace(cfg.CursorPath)
	if cfg.CursorPath == "" {
		return Config{}, fmt.Errorf("cursor path required")
	}
	cfg.ExportDir = strings.TrimSpace(cfg.ExportDir)
	if cfg.ExportDir == "" && cfg.ExportIntervalSec > 0 {
		return Config{}, fmt.Errorf("export_dir required when exports are enabled")
	}
	cfg.WebhookURL = strings.TrimSpace(cfg.WebhookURL)
	if cfg.WebhookURL != "" {
		hook, err := url.Parse(cfg.WebhookURL)
		if err != nil {
			return Config{}, fmt.Errorf("parse webhook endpoint: %w", err)
		}
		if hook.Scheme == "" || hook.Host == "" {
			return Config{}, fmt.Errorf("webhook endpoint must include scheme and host")
		}
	}
	cfg.WebhookSecretEnv = strings.TrimSpace(cfg.WebhookSecretEnv)
	if cfg.WebhookSecretEnv == "" {
		cfg.WebhookSecretEnv = "ROTEX_STATS_WEBHOOK_SECRET"
	}
	if cfg.PollIntervalSec <= 0 {
		cfg.PollIntervalSec = 60
	}
	if cfg.ExportIntervalSec < 0 {
		cfg.ExportIntervalSec = 0
	}
	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = 10
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSec) * time.Second
	cfg.ExportInterval = time.Duration(cfg.ExportIntervalSec) * time.Second
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSec) * time.Second
	return cfg, nil
}
