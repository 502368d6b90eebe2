// Package llm generates the honeypot persona's replies, with failover
// across two configured completion backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of persona context.
type Message struct {
	Role    Role
	Content string
}

// Backend is a single completion provider.
type Backend interface {
	// Name identifies the backend in logs ("gemini", "anthropic", ...).
	Name() string

	// Complete returns the assistant's next reply given a system prompt
	// and the conversation so far. Errors are wrapped as *BackendError.
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}

// ErrBackendUnavailable is returned when the failover sequence exhausts
// every backend without a reply.
var ErrBackendUnavailable = errors.New("all reply backends unavailable")

// BackendError carries classification metadata alongside a provider error.
// The orchestrator treats rate limits and timeouts the same way: both mean
// this backend cannot answer right now, move on.
type BackendError struct {
	Provider    string
	Err         error
	HTTPStatus  int
	IsRateLimit bool
	IsTimeout   bool
	IsAuth      bool
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// WrapBackendError classifies a provider error. SDKs differ in how they
// surface status codes, so classification falls back to string matching
// on the error text.
func WrapBackendError(provider string, err error) error {
	if err == nil {
		return nil
	}

	be := &BackendError{Provider: provider, Err: err}
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "429"), strings.Contains(errStr, "rate limit"),
		strings.Contains(errStr, "too many requests"), strings.Contains(errStr, "resource_exhausted"):
		be.HTTPStatus = http.StatusTooManyRequests
		be.IsRateLimit = true
	case errors.Is(err, context.DeadlineExceeded),
		strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		be.HTTPStatus = http.StatusGatewayTimeout
		be.IsTimeout = true
	case strings.Contains(errStr, "401"), strings.Contains(errStr, "403"),
		strings.Contains(errStr, "unauthorized"), strings.Contains(errStr, "invalid api key"):
		be.HTTPStatus = http.StatusUnauthorized
		be.IsAuth = true
	case strings.Contains(errStr, "500"), strings.Contains(errStr, "502"),
		strings.Contains(errStr, "503"), strings.Contains(errStr, "service unavailable"):
		be.HTTPStatus = http.StatusServiceUnavailable
	}

	return be
}

// FailureClass reports the classification of a backend error for logging.
func FailureClass(err error) string {
	var be *BackendError
	if !errors.As(err, &be) {
		return "unknown"
	}
	switch {
	case be.IsRateLimit:
		return "rate_limit"
	case be.IsTimeout:
		return "timeout"
	case be.IsAuth:
		return "auth"
	default:
		return "error"
	}
}
