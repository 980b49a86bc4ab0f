package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue replaces sensitive field values in log output.
const RedactedValue = "[REDACTED]"

// Structural keys that never carry operator secrets and may pass through a
// masked field unchanged.
var redactionAllowlist = map[string]struct{}{
	"service":    {},
	"env":        {},
	"severity":   {},
	"error":      {},
	"status":     {},
	"method":     {},
	"route":      {},
	"request_id": {},
	"network":    {},
	"duration":   {},
}

// IsAllowlisted reports whether key is exempt from redaction.
func IsAllowlisted(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := redactionAllowlist[normalized]
	return ok
}

// RedactionAllowlist returns the sorted set of keys exempt from redaction.
func RedactionAllowlist() []string {
	keys := make([]string, 0, len(redactionAllowlist))
	for key := range redactionAllowlist {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskValue redacts non-empty values. Empty strings pass through so absent
// fields stay recognisably absent.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField builds a slog attribute whose value is redacted unless the key is
// allowlisted. The caller's key casing is kept.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}
