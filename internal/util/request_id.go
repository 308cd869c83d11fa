package util

import "github.com/google/uuid"

// NewRequestID returns a random identifier for correlating the log lines of
// one HTTP request.
func NewRequestID() string {
	return uuid.NewString()
}

// IsRequestID reports whether s looks like an id from NewRequestID, so that a
// caller-supplied X-Request-ID header can be trusted.
func IsRequestID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
