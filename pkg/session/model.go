// Package session owns conversation state for the honeypot. Every mutation
// of a session goes through the Store, which serializes turns per session id
// while letting unrelated sessions proceed in parallel.
package session

import "time"

// Sender identifies who produced a message.
type Sender string

const (
	SenderScammer Sender = "scammer"
	SenderAgent   Sender = "agent"
)

// Message is a single conversation turn. Immutable once appended.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is the session lifecycle state. Ended is terminal.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Intelligence holds the entities harvested from a session, one set per
// category. Sets only grow: Merge unions, nothing ever removes an entry.
type Intelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	PhishingLinks      []string `json:"phishingLinks"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Merge unions other into in, deduplicating while preserving first-seen
// order. This is the only way intelligence changes, which keeps every
// category monotonic across turns.
func (in *Intelligence) Merge(other Intelligence) {
	in.BankAccounts = unionInto(in.BankAccounts, other.BankAccounts)
	in.UPIIDs = unionInto(in.UPIIDs, other.UPIIDs)
	in.PhoneNumbers = unionInto(in.PhoneNumbers, other.PhoneNumbers)
	in.PhishingLinks = unionInto(in.PhishingLinks, other.PhishingLinks)
	in.SuspiciousKeywords = unionInto(in.SuspiciousKeywords, other.SuspiciousKeywords)
}

// Clone returns a deep copy safe to hand outside the store.
func (in Intelligence) Clone() Intelligence {
	return Intelligence{
		BankAccounts:       append([]string(nil), in.BankAccounts...),
		UPIIDs:             append([]string(nil), in.UPIIDs...),
		PhoneNumbers:       append([]string(nil), in.PhoneNumbers...),
		PhishingLinks:      append([]string(nil), in.PhishingLinks...),
		SuspiciousKeywords: append([]string(nil), in.SuspiciousKeywords...),
	}
}

// Count returns the total number of harvested entities across categories.
func (in Intelligence) Count() int {
	return len(in.BankAccounts) + len(in.UPIIDs) + len(in.PhoneNumbers) +
		len(in.PhishingLinks) + len(in.SuspiciousKeywords)
}

func unionInto(dst, add []string) []string {
	if len(add) == 0 {
		return dst
	}
	seen := make(map[string]struct{}, len(dst)+len(add))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range add {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			dst = append(dst, v)
		}
	}
	return dst
}

// Metrics tracks engagement over the session lifetime.
type Metrics struct {
	StartedAt              time.Time `json:"startedAt"`
	LastActivityAt         time.Time `json:"lastActivityAt"`
	TotalMessagesExchanged int       `json:"totalMessagesExchanged"`
}

// DurationSeconds is derived, never stored.
func (m Metrics) DurationSeconds() int {
	return int(m.LastActivityAt.Sub(m.StartedAt) / time.Second)
}

// Snapshot is an immutable copy of a session handed to callers and to the
// reporter. It shares no memory with the store's live session.
type Snapshot struct {
	ID           string       `json:"sessionId"`
	Status       Status       `json:"status"`
	History      []Message    `json:"history"`
	Intelligence Intelligence `json:"extractedIntelligence"`
	Metrics      Metrics      `json:"engagementMetrics"`
	ScamDetected bool         `json:"scamDetected"`
	AgentNotes   string       `json:"agentNotes"`
}

// TurnResult is what ApplyTurn reports back after committing one turn.
type TurnResult struct {
	Metrics      Metrics
	Intelligence Intelligence
	ScamDetected bool
}
