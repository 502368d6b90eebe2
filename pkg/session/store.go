package session

import (
	"errors"
	"sync"
	"time"
)

// Lifecycle errors surfaced verbatim to callers; they indicate misuse of the
// session lifecycle, never an internal fault.
var (
	ErrNotFound      = errors.New("session not found")
	ErrSessionClosed = errors.New("session closed")
	ErrAlreadyEnded  = errors.New("session already ended")
)

// state is a live session. Exclusively owned by the Store; its mutex
// serializes turns for one id without blocking other ids.
type state struct {
	mu sync.Mutex

	id           string
	status       Status
	history      []Message
	intelligence Intelligence
	metrics      Metrics
	scamDetected bool
	agentNotes   string
}

// Store is the authoritative in-memory session map. The outer RWMutex only
// guards the map itself and is held just long enough to find or insert a
// slot; all per-session work happens under the slot's own lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state

	now func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the store's clock. Tests use this to make duration
// math deterministic.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty session store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*state),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// slot returns the live session for id, creating it when create is set.
func (s *Store) slot(id string, create bool) (*state, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok || !create {
		return sess, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess, true
	}
	now := s.now()
	sess = &state{
		id:     id,
		status: StatusActive,
		metrics: Metrics{
			StartedAt:      now,
			LastActivityAt: now,
		},
	}
	s.sessions[id] = sess
	return sess, true
}

// GetOrCreate returns a snapshot of the session for id, creating an empty
// active session when the id is unseen. Constant-time lookup.
func (s *Store) GetOrCreate(id string) Snapshot {
	sess, _ := s.slot(id, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked()
}

// Get returns a snapshot or ErrNotFound.
func (s *Store) Get(id string) (Snapshot, error) {
	sess, ok := s.slot(id, false)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// ApplyTurn commits one inbound turn: appends the message, ORs the detector
// verdict into the sticky scam flag, unions the extracted entities into the
// session intelligence, bumps the message count and refreshes activity.
// Atomic per id; fails with ErrSessionClosed after Finalize.
func (s *Store) ApplyTurn(id string, msg Message, scam bool, found Intelligence, notes string) (TurnResult, error) {
	sess, _ := s.slot(id, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status == StatusEnded {
		return TurnResult{}, ErrSessionClosed
	}

	sess.appendLocked(msg, s.now())
	sess.scamDetected = sess.scamDetected || scam
	sess.intelligence.Merge(found)
	if notes != "" {
		sess.agentNotes = notes
	}

	return TurnResult{
		Metrics:      sess.metrics,
		Intelligence: sess.intelligence.Clone(),
		ScamDetected: sess.scamDetected,
	}, nil
}

// AppendReply records the agent's own reply in the history. It is the
// lighter-weight variant of ApplyTurn: no detection, no extraction, so a
// persona reply echoing a captured entity never double-counts.
func (s *Store) AppendReply(id, text string) error {
	sess, ok := s.slot(id, false)
	if !ok {
		return ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status == StatusEnded {
		return ErrSessionClosed
	}
	sess.appendLocked(Message{Sender: SenderAgent, Text: text}, s.now())
	return nil
}

// Finalize transitions the session to Ended exactly once and returns the
// snapshot for handoff to the reporter. A second call fails with
// ErrAlreadyEnded so the reporter never double-delivers.
func (s *Store) Finalize(id string) (Snapshot, error) {
	sess, ok := s.slot(id, false)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status == StatusEnded {
		return Snapshot{}, ErrAlreadyEnded
	}
	sess.status = StatusEnded
	return sess.snapshotLocked(), nil
}

// Stats reports store-wide counters for the health endpoint.
type Stats struct {
	Sessions      int `json:"sessions"`
	Active        int `json:"active"`
	Ended         int `json:"ended"`
	TotalMessages int `json:"total_messages"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	slots := make([]*state, 0, len(s.sessions))
	for _, sess := range s.sessions {
		slots = append(slots, sess)
	}
	s.mu.RUnlock()

	st := Stats{Sessions: len(slots)}
	for _, sess := range slots {
		sess.mu.Lock()
		if sess.status == StatusActive {
			st.Active++
		} else {
			st.Ended++
		}
		st.TotalMessages += sess.metrics.TotalMessagesExchanged
		sess.mu.Unlock()
	}
	return st
}

// appendLocked appends a message and refreshes metrics. Caller holds mu.
func (st *state) appendLocked(msg Message, now time.Time) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	st.history = append(st.history, msg)
	st.metrics.TotalMessagesExchanged++
	// Server clock, not the caller-supplied timestamp: duration stays
	// monotonic even when clients send skewed timestamps.
	st.metrics.LastActivityAt = now
}

func (st *state) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           st.id,
		Status:       st.status,
		History:      append([]Message(nil), st.history...),
		Intelligence: st.intelligence.Clone(),
		Metrics:      st.metrics,
		ScamDetected: st.scamDetected,
		AgentNotes:   st.agentNotes,
	}
}
