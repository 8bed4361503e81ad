package webclient

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a single outbound provider call.
const DefaultTimeout = 120 * time.Second

// NewDefault returns an HTTP client with sane timeouts.
func NewDefault(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
