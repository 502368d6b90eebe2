// Package report delivers finalized session results: a callback POST to
// the evaluation endpoint and a local sqlite archive.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/devanand8x/honeypot-api/pkg/httputil"
	"github.com/devanand8x/honeypot-api/pkg/session"
)

// Payload is the callback body for a finalized session.
type Payload struct {
	SessionID              string               `json:"sessionId"`
	ScamDetected           bool                 `json:"scamDetected"`
	TotalMessagesExchanged int                  `json:"totalMessagesExchanged"`
	ExtractedIntelligence  session.Intelligence `json:"extractedIntelligence"`
	AgentNotes             string               `json:"agentNotes"`
}

// PayloadFromSnapshot builds the callback body from a finalized snapshot.
func PayloadFromSnapshot(snap session.Snapshot) Payload {
	return Payload{
		SessionID:              snap.ID,
		ScamDetected:           snap.ScamDetected,
		TotalMessagesExchanged: snap.Metrics.TotalMessagesExchanged,
		ExtractedIntelligence:  snap.Intelligence,
		AgentNotes:             snap.AgentNotes,
	}
}

// Reporter POSTs finalized results to the callback endpoint. Delivery is
// at most once per session: callers hand it the snapshot Finalize
// returned, and Finalize only succeeds once.
type Reporter struct {
	url      string
	attempts int
	// per-attempt timeouts grow so a slow endpoint gets a longer second
	// and third chance
	baseTimeout time.Duration
	timeoutStep time.Duration
	sem         *httputil.Semaphore
	log         zerolog.Logger

	// newClient is swappable in tests
	newClient func(time.Duration) *http.Client
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithReporterLogger sets the structured logger.
func WithReporterLogger(log zerolog.Logger) ReporterOption {
	return func(r *Reporter) { r.log = log }
}

// WithAttempts overrides the delivery attempt count.
func WithAttempts(n int) ReporterOption {
	return func(r *Reporter) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithTimeouts overrides the first attempt's timeout and the growth step.
func WithTimeouts(base, step time.Duration) ReporterOption {
	return func(r *Reporter) {
		r.baseTimeout = base
		r.timeoutStep = step
	}
}

// NewReporter creates a reporter for the given callback URL.
func NewReporter(url string, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		url:         url,
		attempts:    3,
		baseTimeout: 5 * time.Second,
		timeoutStep: 2 * time.Second,
		sem:         httputil.NewSemaphore(32),
		log:         zerolog.Nop(),
		newClient:   httputil.ClientWithTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Deliver POSTs the payload, retrying with a growing per-attempt timeout.
// 2xx counts as delivered.
func (r *Reporter) Deliver(ctx context.Context, payload Payload) error {
	if r.url == "" {
		return fmt.Errorf("no callback url configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	// Deliveries run fire-and-forget from session termination; when the
	// in-flight cap is hit the delivery is dropped and counted, not queued.
	if !r.sem.TryAcquire() {
		return fmt.Errorf("delivery dropped, %d in flight (%d dropped so far)",
			r.sem.InUse(), r.sem.DroppedCount())
	}
	defer r.sem.Release()

	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		timeout := r.baseTimeout + time.Duration(attempt)*r.timeoutStep
		if err := r.post(ctx, body, timeout); err != nil {
			lastErr = err
			r.log.Warn().
				Str("session_id", payload.SessionID).
				Int("attempt", attempt+1).
				Int("max_attempts", r.attempts).
				Err(err).
				Msg("callback delivery failed")
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		r.log.Info().
			Str("session_id", payload.SessionID).
			Int("attempt", attempt+1).
			Msg("callback delivered")
		return nil
	}

	return fmt.Errorf("callback failed after %d attempts: %w", r.attempts, lastErr)
}

func (r *Reporter) post(ctx context.Context, body []byte, timeout time.Duration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.newClient(timeout).Do(req)
	if err != nil {
		return err
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := httputil.ReadErrorBody(resp.Body)
		return fmt.Errorf("callback endpoint returned %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
