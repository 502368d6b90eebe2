package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/devanand8x/honeypot-api/pkg/session"
)

// Archive persists finalized sessions in an embedded sqlite database so
// reported intelligence survives restarts. It is write-mostly: the only
// reads are operator lookups.
type Archive struct {
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS finalized_sessions (
	session_id     TEXT PRIMARY KEY,
	scam_detected  INTEGER NOT NULL,
	total_messages INTEGER NOT NULL,
	started_at     TEXT NOT NULL,
	ended_at       TEXT NOT NULL,
	agent_notes    TEXT NOT NULL,
	intelligence   TEXT NOT NULL,
	history        TEXT NOT NULL
);`

// OpenArchive opens (creating if needed) the archive at path. Use
// ":memory:" for tests.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	// sqlite allows a single writer; the archive is low-traffic enough
	// that serializing through one connection is simpler than handling
	// SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Save stores a finalized snapshot. Re-saving the same session id
// overwrites, which keeps Save idempotent for retried finalizations.
func (a *Archive) Save(ctx context.Context, snap session.Snapshot) error {
	intel, err := json.Marshal(snap.Intelligence)
	if err != nil {
		return fmt.Errorf("marshal intelligence: %w", err)
	}
	history, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO finalized_sessions
		(session_id, scam_detected, total_messages, started_at, ended_at, agent_notes, intelligence, history)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID,
		boolToInt(snap.ScamDetected),
		snap.Metrics.TotalMessagesExchanged,
		snap.Metrics.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		snap.Metrics.LastActivityAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		snap.AgentNotes,
		string(intel),
		string(history),
	)
	if err != nil {
		return fmt.Errorf("archive session %s: %w", snap.ID, err)
	}
	return nil
}

// Get returns an archived payload by session id, or sql.ErrNoRows.
func (a *Archive) Get(ctx context.Context, sessionID string) (Payload, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT session_id, scam_detected, total_messages, agent_notes, intelligence
		FROM finalized_sessions WHERE session_id = ?`, sessionID)

	var p Payload
	var scam int
	var intel string
	if err := row.Scan(&p.SessionID, &scam, &p.TotalMessagesExchanged, &p.AgentNotes, &intel); err != nil {
		return Payload{}, err
	}
	p.ScamDetected = scam != 0
	if err := json.Unmarshal([]byte(intel), &p.ExtractedIntelligence); err != nil {
		return Payload{}, fmt.Errorf("decode archived intelligence: %w", err)
	}
	return p, nil
}

// Count returns the number of archived sessions.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM finalized_sessions`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
