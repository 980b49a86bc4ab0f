package statsd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"rotexchain/observability/logging"
)

func TestWebhookEndpointLogRedactsValue(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{}))

	endpoint := "https://hooks.example.com/rotex?token=s3cret"
	logger.Info("statsd: webhook notifications enabled",
		logging.MaskField("endpoint", endpoint))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log payload: %v", err)
	}

	if logging.IsAllowlisted("endpoint") {
		t.Fatalf("endpoint should not be allowlisted for logging: %v", logging.RedactionAllowlist())
	}

	raw := buf.Bytes()
	if bytes.Contains(raw, []byte(endpoint)) {
		t.Fatalf("log output leaked webhook endpoint: %s", raw)
	}

	value, ok := entry["endpoint"].(string)
	if !ok {
		t.Fatalf("expected string endpoint attribute, got %T", entry["endpoint"])
	}
	if value != logging.RedactedValue {
		t.Fatalf("expected redacted endpoint, got %q", value)
	}
}
