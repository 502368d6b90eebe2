// Package engine wires detection, extraction, session state and reply
// generation into the per-message conversation pipeline.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devanand8x/honeypot-api/pkg/detect"
	"github.com/devanand8x/honeypot-api/pkg/llm"
	"github.com/devanand8x/honeypot-api/pkg/session"
)

// ValidationError reports a rejected input. The session is never touched
// when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ReplyGenerator produces the persona's next message.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, snap session.Snapshot, incoming string) (string, error)
}

// Result is the outcome of one processed scammer message.
type Result struct {
	SessionID     string
	ScamDetected  bool
	AgentResponse string
	Metrics       session.Metrics
	Intelligence  session.Intelligence
	Signals       []string
	AgentNotes    string
}

// Engine is the conversation pipeline.
type Engine struct {
	store     *session.Store
	detector  *detect.Detector
	extractor *detect.Extractor
	replier   ReplyGenerator
	fallback  *llm.FallbackResponder
	log       zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFallbackResponder enables canned persona replies when the reply
// backends are down. Without it a backend outage yields an empty reply.
func WithFallbackResponder(f *llm.FallbackResponder) Option {
	return func(e *Engine) { e.fallback = f }
}

// WithEngineLogger sets the structured logger.
func WithEngineLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an Engine.
func New(store *session.Store, detector *detect.Detector, extractor *detect.Extractor, replier ReplyGenerator, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		detector:  detector,
		extractor: extractor,
		replier:   replier,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one scammer message: detect, extract, commit the turn,
// then generate the persona's reply. The turn commit is unconditional
// once validation passes; a reply failure degrades the response to empty
// but never loses the message or its intelligence.
func (e *Engine) Handle(ctx context.Context, sessionID, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, &ValidationError{Field: "message", Reason: "text must not be empty"}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	e.store.GetOrCreate(sessionID)

	verdict := e.detector.Detect(ctx, text)
	intel := e.extractor.Extract(text)

	turn, err := e.store.ApplyTurn(sessionID, session.Message{
		Sender: session.SenderScammer,
		Text:   text,
	}, verdict.IsScam, intel, verdict.Notes)
	if err != nil {
		return Result{}, err
	}

	e.log.Info().
		Str("session_id", sessionID).
		Bool("scam", verdict.IsScam).
		Strs("signals", verdict.Signals).
		Int("intel_items", intel.Count()).
		Int("total_messages", turn.Metrics.TotalMessagesExchanged).
		Msg("turn committed")

	reply := e.generateReply(ctx, sessionID, text, turn)
	if reply != "" {
		// The agent's reply counts toward the exchange total.
		if snap, err := e.store.Get(sessionID); err == nil {
			turn.Metrics = snap.Metrics
		}
	}

	return Result{
		SessionID:     sessionID,
		ScamDetected:  turn.ScamDetected,
		AgentResponse: reply,
		Metrics:       turn.Metrics,
		Intelligence:  turn.Intelligence,
		Signals:       verdict.Signals,
		AgentNotes:    verdict.Notes,
	}, nil
}

func (e *Engine) generateReply(ctx context.Context, sessionID, text string, turn session.TurnResult) string {
	if e.replier == nil {
		return ""
	}

	snap, err := e.store.Get(sessionID)
	if err != nil {
		return ""
	}

	reply, err := e.replier.GenerateReply(ctx, snap, text)
	if err != nil {
		e.log.Warn().
			Str("session_id", sessionID).
			Err(err).
			Msg("reply generation failed")
		if e.fallback == nil {
			return ""
		}
		reply = e.fallback.Reply(text, turn.Metrics.TotalMessagesExchanged-1)
	}
	if reply == "" {
		return ""
	}

	if err := e.store.AppendReply(sessionID, reply); err != nil {
		// The session can close between commit and reply.
		e.log.Warn().
			Str("session_id", sessionID).
			Err(err).
			Msg("could not append agent reply")
		return ""
	}
	return reply
}

// Analyze runs detection and extraction over a single message without
// touching any session. The scan CLI command uses this.
func (e *Engine) Analyze(ctx context.Context, text string) (detect.Verdict, session.Intelligence) {
	return e.detector.Detect(ctx, text), e.extractor.Extract(text)
}
