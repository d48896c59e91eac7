package logutil

import (
	"strings"
)

const redacted = "[REDACTED]"

// IsSensitiveLogField returns true when a key or element id likely names sensitive data.
func IsSensitiveLogField(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")

	switch {
	case normalized == "authorization":
		return true
	case strings.Contains(normalized, "token"):
		return true
	case strings.Contains(normalized, "secret"):
		return true
	case strings.Contains(normalized, "password"):
		return true
	case strings.Contains(normalized, "passwd"):
		return true
	case strings.Contains(normalized, "apikey"):
		return true
	case strings.Contains(normalized, "cookie"):
		return true
	case strings.Contains(normalized, "otp"):
		return true
	default:
		return false
	}
}

// RedactFieldValue redacts a value typed into a field whose id looks sensitive.
func RedactFieldValue(fieldID, value string) string {
	if IsSensitiveLogField(fieldID) {
		return redacted
	}
	return value
}

// TruncateForLog returns a single-line truncated preview for unstructured values.
func TruncateForLog(value string, maxChars int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized := strings.ReplaceAll(trimmed, "\n", "\\n")
	normalized = strings.ReplaceAll(normalized, "\t", "\\t")
	if maxChars <= 0 || len(normalized) <= maxChars {
		return normalized
	}
	return normalized[:maxChars] + "... [truncated]"
}

// FieldValueForLog combines redaction and truncation for a typed field value.
func FieldValueForLog(fieldID, value string, maxChars int) string {
	if IsSensitiveLogField(fieldID) {
		return redacted
	}
	return TruncateForLog(value, maxChars)
}
