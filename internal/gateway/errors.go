package gateway

import (
	"fmt"
	"strings"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream returned status %d: %s", e.Op, e.StatusCode, body)
}

// DecodeError reports a response whose shape does not match the wire schema.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
