package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scamMsg(text string) Message {
	return Message{Sender: SenderScammer, Text: text}
}

func TestGetOrCreate(t *testing.T) {
	s := NewStore()

	snap := s.GetOrCreate("s1")
	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, StatusActive, snap.Status)
	assert.Empty(t, snap.History)
	assert.Zero(t, snap.Metrics.TotalMessagesExchanged)

	// Same id returns the same session, not a fresh one.
	_, err := s.ApplyTurn("s1", scamMsg("hello"), false, Intelligence{}, "")
	require.NoError(t, err)
	again := s.GetOrCreate("s1")
	assert.Equal(t, 1, again.Metrics.TotalMessagesExchanged)
}

func TestGetUnknownID(t *testing.T) {
	s := NewStore()
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyTurnAccumulates(t *testing.T) {
	s := NewStore()

	res, err := s.ApplyTurn("s1", scamMsg("share otp"), true, Intelligence{
		SuspiciousKeywords: []string{"otp"},
	}, "otp request")
	require.NoError(t, err)
	assert.True(t, res.ScamDetected)
	assert.Equal(t, 1, res.Metrics.TotalMessagesExchanged)
	assert.Equal(t, []string{"otp"}, res.Intelligence.SuspiciousKeywords)

	res, err = s.ApplyTurn("s1", scamMsg("pay merchant@upi"), true, Intelligence{
		UPIIDs:             []string{"merchant@upi"},
		SuspiciousKeywords: []string{"otp"}, // duplicate must not double-count
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Metrics.TotalMessagesExchanged)
	assert.Equal(t, []string{"merchant@upi"}, res.Intelligence.UPIIDs)
	assert.Equal(t, []string{"otp"}, res.Intelligence.SuspiciousKeywords)

	snap, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "otp request", snap.AgentNotes)
	assert.Len(t, snap.History, 2)
}

func TestScamFlagIsSticky(t *testing.T) {
	s := NewStore()

	res, err := s.ApplyTurn("s1", scamMsg("your account is blocked"), true, Intelligence{}, "")
	require.NoError(t, err)
	assert.True(t, res.ScamDetected)

	// A later benign message must not clear the flag.
	res, err = s.ApplyTurn("s1", scamMsg("ok thanks"), false, Intelligence{}, "")
	require.NoError(t, err)
	assert.True(t, res.ScamDetected)

	snap, err := s.Get("s1")
	require.NoError(t, err)
	assert.True(t, snap.ScamDetected)
}

func TestIntelligenceMonotonic(t *testing.T) {
	s := NewStore()

	turns := []Intelligence{
		{PhoneNumbers: []string{"9876543210"}},
		{},
		{PhoneNumbers: []string{"9876543210"}, PhishingLinks: []string{"http://sim-kyc.net"}},
	}

	prev := 0
	for i, in := range turns {
		res, err := s.ApplyTurn("s1", scamMsg(fmt.Sprintf("turn %d", i)), true, in, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Intelligence.Count(), prev, "intelligence shrank on turn %d", i)
		prev = res.Intelligence.Count()
	}

	snap, _ := s.Get("s1")
	assert.Equal(t, []string{"9876543210"}, snap.Intelligence.PhoneNumbers)
	assert.Equal(t, []string{"http://sim-kyc.net"}, snap.Intelligence.PhishingLinks)
}

func TestAppendReply(t *testing.T) {
	s := NewStore()

	_, err := s.ApplyTurn("s1", scamMsg("send money"), true, Intelligence{}, "")
	require.NoError(t, err)
	require.NoError(t, s.AppendReply("s1", "Which bank sir?"))

	snap, err := s.Get("s1")
	require.NoError(t, err)
	require.Len(t, snap.History, 2)
	assert.Equal(t, SenderAgent, snap.History[1].Sender)
	assert.Equal(t, 2, snap.Metrics.TotalMessagesExchanged)

	assert.ErrorIs(t, s.AppendReply("ghost", "hi"), ErrNotFound)
}

func TestFinalizeLifecycle(t *testing.T) {
	s := NewStore()

	_, err := s.ApplyTurn("s1", scamMsg("share otp"), true, Intelligence{
		SuspiciousKeywords: []string{"otp"},
	}, "")
	require.NoError(t, err)

	snap, err := s.Finalize("s1")
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, snap.Status)
	assert.True(t, snap.ScamDetected)

	// Terminal: mutation rejected, second finalize distinguishable.
	_, err = s.ApplyTurn("s1", scamMsg("more"), true, Intelligence{}, "")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.AppendReply("s1", "reply"), ErrSessionClosed)
	_, err = s.Finalize("s1")
	assert.ErrorIs(t, err, ErrAlreadyEnded)

	_, err = s.Finalize("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	_, err := s.ApplyTurn("s1", scamMsg("pay merchant@upi"), true, Intelligence{
		UPIIDs: []string{"merchant@upi"},
	}, "")
	require.NoError(t, err)

	snap, _ := s.Get("s1")
	snap.History[0].Text = "tampered"
	snap.Intelligence.UPIIDs[0] = "tampered@upi"

	fresh, _ := s.Get("s1")
	assert.Equal(t, "pay merchant@upi", fresh.History[0].Text)
	assert.Equal(t, "merchant@upi", fresh.Intelligence.UPIIDs[0])
}

func TestConcurrentTurnsSameSession(t *testing.T) {
	s := NewStore()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.ApplyTurn("s1", scamMsg(fmt.Sprintf("msg %d", i)), i%2 == 0, Intelligence{
				PhoneNumbers: []string{fmt.Sprintf("98765432%02d", i%100)},
			}, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, n, snap.Metrics.TotalMessagesExchanged, "lost updates")
	assert.Len(t, snap.History, n)
	assert.Len(t, snap.Intelligence.PhoneNumbers, 100)
	assert.True(t, snap.ScamDetected)
}

func TestConcurrentDistinctSessions(t *testing.T) {
	s := NewStore()
	const sessions = 50
	const turns = 20

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			for j := 0; j < turns; j++ {
				_, err := s.ApplyTurn(id, scamMsg("hi"), false, Intelligence{}, "")
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	st := s.Stats()
	assert.Equal(t, sessions, st.Sessions)
	assert.Equal(t, sessions*turns, st.TotalMessages)
}

func TestDurationDerivedFromServerClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return now }))

	_, err := s.ApplyTurn("s1", scamMsg("hello"), false, Intelligence{}, "")
	require.NoError(t, err)

	now = now.Add(90 * time.Second)
	res, err := s.ApplyTurn("s1", scamMsg("still there?"), false, Intelligence{}, "")
	require.NoError(t, err)
	assert.Equal(t, 90, res.Metrics.DurationSeconds())
}
