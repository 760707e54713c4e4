package sync

import "strings"

// networkErrorPatterns are the message substrings that classify a failure
// as network-class: backend unreachable or response unusable. These trip
// the circuit breaker and backoff. Anything else is application-class and
// only surfaces as a sync error string.
var networkErrorPatterns = []string{
	"request failed",
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"timeout",
	"deadline exceeded",
	"server error",
	"parse response",
	"parse load response",
	"unexpected eof",
	"eof",
}

// isNetworkError classifies an error by pattern-matching its message.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range networkErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
