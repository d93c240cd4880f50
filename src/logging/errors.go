package logging

import "strings"

// IsRateLimit reports whether err looks like a Discord/webhook rate limit,
// which the notifier treats as worth one more attempt.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "429")
}
