// Package httputil provides pooled HTTP clients and safe response handling
// shared by the LLM backends, the embedding layer and the callback reporter.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize caps response body reads. Upstream services are not
// trusted to return bounded payloads.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// One transport for every outbound call so TCP connections are reused
// across LLM turns, embedding lookups and callback attempts.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier names the standard timeout classes for outbound calls.
type TimeoutTier int

const (
	// TierFast for health probes and other quick lookups (5s)
	TierFast TimeoutTier = iota
	// TierMedium for embedding and standard API calls (30s)
	TierMedium
	// TierSlow for LLM completions (60s)
	TierSlow
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:   5 * time.Second,
	TierMedium: 30 * time.Second,
	TierSlow:   60 * time.Second,
}

var (
	clientFast   *http.Client
	clientMedium *http.Client
	clientSlow   *http.Client
	clientOnce   sync.Once
)

func initClients() {
	clientFast = &http.Client{Timeout: timeoutDurations[TierFast], Transport: sharedTransport}
	clientMedium = &http.Client{Timeout: timeoutDurations[TierMedium], Transport: sharedTransport}
	clientSlow = &http.Client{Timeout: timeoutDurations[TierSlow], Transport: sharedTransport}
}

// Client returns the shared client for a timeout tier. These share one
// connection pool; never build a fresh http.Client per request.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierFast:
		return clientFast
	case TierSlow:
		return clientSlow
	default:
		return clientMedium
	}
}

// FastClient returns the 5s-timeout client.
func FastClient() *http.Client { return Client(TierFast) }

// MediumClient returns the 30s-timeout client.
func MediumClient() *http.Client { return Client(TierMedium) }

// SlowClient returns the 60s-timeout client.
func SlowClient() *http.Client { return Client(TierSlow) }

// ClientWithTimeout returns a client with a caller-chosen timeout on the
// shared transport. The callback reporter uses this for its growing
// per-attempt timeouts.
func ClientWithTimeout(d time.Duration) *http.Client {
	return &http.Client{Timeout: d, Transport: sharedTransport}
}

// ReadResponseBody reads a response body with a size limit.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadErrorBody reads a body for error reporting. Error payloads are
// small, so the limit is tighter.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 1 * 1024 * 1024
	return io.ReadAll(io.LimitReader(r, maxErrorSize))
}

// DrainAndClose drains and closes a response body so the connection goes
// back to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
