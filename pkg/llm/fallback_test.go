package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackFirstTurn(t *testing.T) {
	f := NewFallbackResponder()

	tests := []struct {
		message string
		want    string
	}{
		{"your account will be blocked", "What happened to my account"},
		{"you are the lucky winner", "I won something"},
		{"share the otp", "Verification for what"},
		{"hello friend", "not understanding fully"},
	}

	for _, tt := range tests {
		reply := f.Reply(tt.message, 0)
		assert.Contains(t, reply, tt.want, "message %q", tt.message)
	}
}

func TestFallbackFollowUps(t *testing.T) {
	f := NewFallbackResponder()

	assert.Contains(t, f.Reply("send to merchant@upi", 4), "which UPI ID")
	assert.Contains(t, f.Reply("click this link", 2), "send the link again")
	assert.Contains(t, f.Reply("transfer the money now", 6), "How much I need to send")
}

func TestFallbackGenericRotates(t *testing.T) {
	f := NewFallbackResponder()

	seen := make(map[string]bool)
	for turn := 1; turn <= 4; turn++ {
		seen[f.Reply("xyz", turn)] = true
	}
	if len(seen) < 2 {
		t.Error("generic replies should rotate by turn count")
	}
	for reply := range seen {
		if strings.TrimSpace(reply) == "" {
			t.Error("fallback reply should never be empty")
		}
	}
}
