package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devanand8x/honeypot-api/pkg/detect"
	"github.com/devanand8x/honeypot-api/pkg/llm"
	"github.com/devanand8x/honeypot-api/pkg/patterns"
	"github.com/devanand8x/honeypot-api/pkg/session"
)

type stubReplier struct {
	reply string
	err   error
	calls int
}

func (s *stubReplier) GenerateReply(_ context.Context, _ session.Snapshot, _ string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func newTestEngine(replier ReplyGenerator, opts ...Option) (*Engine, *session.Store) {
	store := session.NewStore()
	reg := patterns.Get()
	e := New(store, detect.NewDetector(reg), detect.NewExtractor(reg), replier, opts...)
	return e, store
}

func TestHandleRejectsEmptyMessage(t *testing.T) {
	e, store := newTestEngine(&stubReplier{})

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := e.Handle(context.Background(), "s1", text)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "text %q", text)
	}

	_, err := store.Get("s1")
	assert.ErrorIs(t, err, session.ErrNotFound, "rejected input must not create a session")
}

func TestHandleScamMessage(t *testing.T) {
	replier := &stubReplier{reply: "Which account sir?"}
	e, store := newTestEngine(replier)

	res, err := e.Handle(context.Background(), "s1", "Your account will be blocked. Share OTP now!")
	require.NoError(t, err)

	assert.True(t, res.ScamDetected)
	assert.Equal(t, "Which account sir?", res.AgentResponse)
	assert.Contains(t, res.Signals, "threat")
	assert.Contains(t, res.Intelligence.SuspiciousKeywords, "blocked")
	assert.Contains(t, res.AgentNotes, "Scammer used")
	assert.Equal(t, 2, res.Metrics.TotalMessagesExchanged, "scammer message plus reply")

	snap, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, snap.History, 2)
	assert.Equal(t, session.SenderAgent, snap.History[1].Sender)
}

func TestHandleBenignMessage(t *testing.T) {
	e, _ := newTestEngine(&stubReplier{reply: "Hello, who is this?"})

	res, err := e.Handle(context.Background(), "s1", "hello, how was your day?")
	require.NoError(t, err)
	assert.False(t, res.ScamDetected)
	assert.Empty(t, res.Signals)
	assert.Equal(t, "No scam indicators", res.AgentNotes)
}

func TestHandleGeneratesSessionID(t *testing.T) {
	e, store := newTestEngine(&stubReplier{reply: "ok"})

	res, err := e.Handle(context.Background(), "", "share your otp immediately")
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)

	_, err = store.Get(res.SessionID)
	assert.NoError(t, err)
}

func TestHandleTurnSurvivesReplyFailure(t *testing.T) {
	replier := &stubReplier{err: llm.ErrBackendUnavailable}
	e, store := newTestEngine(replier)

	res, err := e.Handle(context.Background(), "s1", "Pay to merchant@upi now")
	require.NoError(t, err, "reply failure must not fail the request")

	assert.Empty(t, res.AgentResponse)
	assert.True(t, res.ScamDetected)
	assert.Contains(t, res.Intelligence.UPIIDs, "merchant@upi")

	snap, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, snap.History, 1, "scammer message committed, no agent reply")
	assert.Equal(t, 1, snap.Metrics.TotalMessagesExchanged)
}

func TestHandleUsesFallbackWhenEnabled(t *testing.T) {
	replier := &stubReplier{err: errors.New("503 service unavailable")}
	e, store := newTestEngine(replier, WithFallbackResponder(llm.NewFallbackResponder()))

	res, err := e.Handle(context.Background(), "s1", "your account is blocked")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AgentResponse)
	assert.Contains(t, res.AgentResponse, "account")

	snap, _ := store.Get("s1")
	assert.Len(t, snap.History, 2)
}

func TestHandleEndedSession(t *testing.T) {
	e, store := newTestEngine(&stubReplier{reply: "ok"})

	_, err := e.Handle(context.Background(), "s1", "share your otp")
	require.NoError(t, err)
	_, err = store.Finalize("s1")
	require.NoError(t, err)

	_, err = e.Handle(context.Background(), "s1", "are you still there?")
	assert.ErrorIs(t, err, session.ErrSessionClosed)
}

func TestHandleIntelligenceAccumulates(t *testing.T) {
	e, _ := newTestEngine(&stubReplier{reply: "ok"})

	_, err := e.Handle(context.Background(), "s1", "Pay to merchant@upi now")
	require.NoError(t, err)

	res, err := e.Handle(context.Background(), "s1", "Or call +91-9876543210")
	require.NoError(t, err)

	assert.Contains(t, res.Intelligence.UPIIDs, "merchant@upi")
	assert.Contains(t, res.Intelligence.PhoneNumbers, "9876543210")
}

func TestAnalyzeDoesNotTouchSessions(t *testing.T) {
	e, store := newTestEngine(&stubReplier{})

	verdict, intel := e.Analyze(context.Background(), "Click http://sim-kyc.net now")
	assert.True(t, verdict.IsScam)
	assert.Contains(t, intel.PhishingLinks, "http://sim-kyc.net")

	assert.Zero(t, store.Stats().Sessions)
}
