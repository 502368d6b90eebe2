package config

import (
	"testing"
	"time"
)

func TestNewDefaultConfigDefaults(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.PrimaryProvider != "gemini" {
		t.Errorf("PrimaryProvider = %q, want gemini", cfg.PrimaryProvider)
	}
	if cfg.ContextTurns != 6 {
		t.Errorf("ContextTurns = %d, want 6", cfg.ContextTurns)
	}
	if cfg.RateLimitMax != 200 || cfg.RateLimitWin != time.Minute {
		t.Errorf("rate limit defaults wrong: %d/%v", cfg.RateLimitMax, cfg.RateLimitWin)
	}
	if cfg.BackendTimeout != 30*time.Second {
		t.Errorf("BackendTimeout = %v, want 30s", cfg.BackendTimeout)
	}
	if len(cfg.ExtraSafeDomains) != 0 {
		t.Errorf("ExtraSafeDomains = %v, want empty", cfg.ExtraSafeDomains)
	}
	if cfg.TemplateFallback {
		t.Error("TemplateFallback should default off")
	}
	if cfg.CallbackURL != DefaultCallbackURL {
		t.Errorf("CallbackURL = %q", cfg.CallbackURL)
	}
}

func TestNewDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("HONEYPOT_PORT", "9100")
	t.Setenv("HONEYPOT_PRIMARY_PROVIDER", "groq")
	t.Setenv("HONEYPOT_CONTEXT_TURNS", "12")
	t.Setenv("HONEYPOT_TEMPLATE_FALLBACK", "true")
	t.Setenv("HONEYPOT_SEMANTIC_CUTOFF", "0.85")
	t.Setenv("HONEYPOT_BACKEND_TIMEOUT_SECONDS", "10")
	t.Setenv("HONEYPOT_SAFE_DOMAINS", "mybank.in, example.org")

	cfg := NewDefaultConfig()
	if cfg.Port != "9100" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.PrimaryProvider != "groq" {
		t.Errorf("PrimaryProvider = %q", cfg.PrimaryProvider)
	}
	if cfg.ContextTurns != 12 {
		t.Errorf("ContextTurns = %d", cfg.ContextTurns)
	}
	if !cfg.TemplateFallback {
		t.Error("TemplateFallback should be on")
	}
	if cfg.SemanticCutoff != 0.85 {
		t.Errorf("SemanticCutoff = %v", cfg.SemanticCutoff)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("BackendTimeout = %v", cfg.BackendTimeout)
	}
	if len(cfg.ExtraSafeDomains) != 2 || cfg.ExtraSafeDomains[0] != "mybank.in" {
		t.Errorf("ExtraSafeDomains = %v", cfg.ExtraSafeDomains)
	}
}

func TestContextTurnsClamped(t *testing.T) {
	t.Setenv("HONEYPOT_CONTEXT_TURNS", "0")
	if got := NewDefaultConfig().ContextTurns; got != 1 {
		t.Errorf("ContextTurns = %d, want clamp to 1", got)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("HP_TEST_STR", "value")
	t.Setenv("HP_TEST_INT", "42")
	t.Setenv("HP_TEST_BOOL", "true")
	t.Setenv("HP_TEST_FLOAT", "0.5")
	t.Setenv("HP_TEST_SLICE", "a, b , ,c")
	t.Setenv("HP_TEST_BAD_INT", "nope")

	if got := GetEnv("HP_TEST_STR", "d"); got != "value" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("HP_TEST_MISSING", "d"); got != "d" {
		t.Errorf("GetEnv default = %q", got)
	}
	if got := GetEnvInt("HP_TEST_INT", 0); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("HP_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt bad value = %d, want default", got)
	}
	if !GetEnvBool("HP_TEST_BOOL", false) {
		t.Error("GetEnvBool should parse true")
	}
	if got := GetEnvFloat("HP_TEST_FLOAT", 0); got != 0.5 {
		t.Errorf("GetEnvFloat = %v", got)
	}
	got := GetEnvSlice("HP_TEST_SLICE", nil)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("GetEnvSlice = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetEnvSlice[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
