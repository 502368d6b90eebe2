package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/devanand8x/honeypot-api/pkg/httputil"
	"github.com/devanand8x/honeypot-api/pkg/session"
)

// replyMaxTokens bounds the persona's reply length. The character answers
// in one to three short sentences.
const replyMaxTokens = 150

// DefaultContextTurns is how many trailing exchanges go into the persona
// prompt. One turn is a scammer message and the persona's reply, so the
// prompt window is twice this many history messages.
const DefaultContextTurns = 6

// DefaultRetryBackoff is the pause before the primary backend is given
// its second chance.
const DefaultRetryBackoff = 2 * time.Second

// DefaultCallTimeout bounds a single completion call. A backend that
// overruns it counts as timed out and the failover machine advances;
// only the caller's own deadline ends the whole attempt sequence.
const DefaultCallTimeout = 30 * time.Second

// personaDirective is the fixed system prompt. The persona never gets to
// actually pay, reveal real credentials, or turn abusive; it exists to
// keep the scammer typing.
const personaDirective = `You are roleplaying as Ramesh, a 52-year-old person from a small town who is not very tech-savvy. You received an unexpected message and you need to respond naturally.

YOUR CHARACTER:
- Simple, trusting person who worries about money
- Not good with technology or banking terms
- Makes occasional spelling mistakes
- Polite and respectful (uses "sir", "please")
- Asks many questions to understand better

SAFETY RULES (CRITICAL):
- NEVER use profanity, abusive language, or insults, even if the other person is abusive.
- ALWAYS remain polite and calm (e.g., "Sorry sir", "I don't understand").
- If the other person becomes aggressive, respond with fear and confusion, not aggression.
- NEVER actually complete a payment, share a real OTP, or reveal real credentials. You only pretend you are about to.
- Your goal is to waste time by being slow and confused, not by being rude.

HOW TO RESPOND:
1. Stay in character as Ramesh
2. Act worried and confused about the message
3. Ask for more details: which account, which UPI ID, what phone number, can they resend the link
4. Use simple English only
5. Keep the reply to 1-3 sentences`

// replyState is one position in the failover sequence.
type replyState int

const (
	stateTryPrimary replyState = iota
	stateTrySecondary
	stateRetryPrimary
	stateFailed
)

func (s replyState) String() string {
	switch s {
	case stateTryPrimary:
		return "try_primary"
	case stateTrySecondary:
		return "try_secondary"
	case stateRetryPrimary:
		return "retry_primary"
	default:
		return "failed"
	}
}

// Orchestrator produces persona replies, failing over from the primary
// backend to the secondary and back once before giving up.
type Orchestrator struct {
	primary      Backend
	secondary    Backend
	contextTurns int
	retryBackoff time.Duration
	callTimeout  time.Duration
	sem          *httputil.Semaphore
	log          zerolog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithContextTurns sets how many trailing exchanges feed the prompt.
func WithContextTurns(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.contextTurns = n
		}
	}
}

// WithRetryBackoff sets the wait before retrying the primary backend.
func WithRetryBackoff(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.retryBackoff = d
		}
	}
}

// WithCallTimeout sets the budget for one completion call.
func WithCallTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithConcurrencyLimit caps in-flight backend calls.
func WithConcurrencyLimit(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.sem = httputil.NewSemaphore(n) }
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = log }
}

// NewOrchestrator creates an orchestrator. The secondary backend may be
// nil; failover then degenerates to primary, backoff, primary again.
func NewOrchestrator(primary, secondary Backend, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		primary:      primary,
		secondary:    secondary,
		contextTurns: DefaultContextTurns,
		retryBackoff: DefaultRetryBackoff,
		callTimeout:  DefaultCallTimeout,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateReply produces the persona's next message. The snapshot's
// history is expected to already end with the scammer's latest message;
// incoming is appended only if it does not.
func (o *Orchestrator) GenerateReply(ctx context.Context, snap session.Snapshot, incoming string) (string, error) {
	if o.primary == nil {
		return "", ErrBackendUnavailable
	}

	messages := o.buildContext(snap, incoming)

	if o.sem != nil {
		if err := o.sem.Acquire(ctx); err != nil {
			return "", err
		}
		defer o.sem.Release()
	}

	state := stateTryPrimary
	var lastErr error
	for state != stateFailed {
		backend, next := o.step(state)
		if backend == nil {
			state = next
			continue
		}

		if state == stateRetryPrimary {
			select {
			case <-time.After(o.retryBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		reply, err := backend.Complete(callCtx, personaDirective, messages)
		cancel()
		if err == nil {
			return strings.TrimSpace(reply), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if callCtx.Err() != nil {
			// Only the per-call budget expired; the request is still live,
			// so this backend is recorded as timed out and failover proceeds.
			err = WrapBackendError(backend.Name(),
				fmt.Errorf("completion exceeded %s: %w", o.callTimeout, context.DeadlineExceeded))
		}

		lastErr = err
		o.log.Warn().
			Str("session_id", snap.ID).
			Str("backend", backend.Name()).
			Str("state", state.String()).
			Str("class", FailureClass(err)).
			Err(err).
			Msg("reply backend failed, advancing failover")
		state = next
	}

	return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, lastErr)
}

// step maps a failover state to its backend and successor state.
func (o *Orchestrator) step(state replyState) (Backend, replyState) {
	switch state {
	case stateTryPrimary:
		return o.primary, stateTrySecondary
	case stateTrySecondary:
		return o.secondary, stateRetryPrimary
	case stateRetryPrimary:
		return o.primary, stateFailed
	default:
		return nil, stateFailed
	}
}

// buildContext converts the trailing window of session history into
// persona messages, the scammer as the user and the persona as the
// assistant.
func (o *Orchestrator) buildContext(snap session.Snapshot, incoming string) []Message {
	history := snap.History
	if window := 2 * o.contextTurns; len(history) > window {
		history = history[len(history)-window:]
	}

	messages := make([]Message, 0, len(history)+1)
	for _, msg := range history {
		role := RoleUser
		if msg.Sender == session.SenderAgent {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: msg.Text})
	}

	if incoming != "" {
		last := len(messages) - 1
		if last < 0 || messages[last].Role != RoleUser || messages[last].Content != incoming {
			messages = append(messages, Message{Role: RoleUser, Content: incoming})
		}
	}
	return messages
}
