package detect

import (
	"strings"

	"github.com/devanand8x/honeypot-api/pkg/patterns"
	"github.com/devanand8x/honeypot-api/pkg/session"
)

// Extractor pulls actionable intelligence out of a single message:
// bank accounts, payment handles, phone numbers, phishing links and
// suspicious keywords. Extraction is pure: same text, same result.
type Extractor struct {
	registry *patterns.Registry
}

// NewExtractor creates an extractor over the given registry.
func NewExtractor(reg *patterns.Registry) *Extractor {
	return &Extractor{registry: reg}
}

// Extract analyzes one message. Regexes run against the raw text so
// digits, case-sensitive IFSC codes and URLs survive; keyword matching
// runs on the normalized form.
func (e *Extractor) Extract(text string) session.Intelligence {
	var intel session.Intelligence
	if strings.TrimSpace(text) == "" {
		return intel
	}

	intel.BankAccounts = e.bankAccounts(text)
	intel.UPIIDs = e.paymentHandles(text)
	intel.PhoneNumbers = e.phoneNumbers(text)
	intel.PhishingLinks = e.phishingLinks(text)
	intel.SuspiciousKeywords = e.suspiciousKeywords(text)
	return intel
}

// bankAccounts returns 9-18 digit runs that do not start with "20".
// The prefix filter drops years and epoch timestamps; real Indian account
// numbers starting 20 are rare enough to trade away.
func (e *Extractor) bankAccounts(text string) []string {
	rule := e.registry.ExtractionRule(patterns.EntityBankAccount)
	var out []string
	seen := make(map[string]bool)
	for _, m := range rule.Regex.FindAllString(text, -1) {
		if strings.HasPrefix(m, "20") || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// paymentHandles returns local@provider tokens whose provider suffix is on
// the known UPI allow-list. Plain emails (user@gmail.com) fail the suffix
// check and are dropped.
func (e *Extractor) paymentHandles(text string) []string {
	rule := e.registry.ExtractionRule(patterns.EntityUPIID)
	var out []string
	seen := make(map[string]bool)
	for _, m := range rule.Regex.FindAllString(text, -1) {
		at := strings.LastIndex(m, "@")
		if at < 0 {
			continue
		}
		if !e.registry.IsKnownUPISuffix(m[at+1:]) {
			continue
		}
		handle := strings.ToLower(m)
		if seen[handle] {
			continue
		}
		seen[handle] = true
		out = append(out, handle)
	}
	return out
}

// phoneNumbers returns Indian mobile numbers normalized to their 10-digit
// form: +91 prefixes, spaces and dashes stripped.
func (e *Extractor) phoneNumbers(text string) []string {
	rule := e.registry.ExtractionRule(patterns.EntityPhone)
	var out []string
	seen := make(map[string]bool)
	for _, m := range rule.Regex.FindAllString(text, -1) {
		cleaned := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(m)
		if strings.HasPrefix(cleaned, "91") && len(cleaned) == 12 {
			cleaned = cleaned[2:]
		}
		if len(cleaned) != 10 || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		out = append(out, cleaned)
	}
	return out
}

// phishingLinks returns URLs not covered by the safe-domain allow-list,
// verbatim as sent. Defanging would destroy the evidence.
func (e *Extractor) phishingLinks(text string) []string {
	rule := e.registry.ExtractionRule(patterns.EntityURL)
	var out []string
	seen := make(map[string]bool)
	for _, m := range rule.Regex.FindAllString(text, -1) {
		if e.registry.IsSafeDomain(m) || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// suspiciousKeywords returns the detection keywords present in the message
// plus any 6-digit verification codes (tagged code:<digits>) and IFSC
// branch codes (tagged ifsc:<code>).
func (e *Extractor) suspiciousKeywords(text string) []string {
	normalized := Normalize(text)

	var out []string
	seen := make(map[string]bool)
	for _, rule := range e.registry.DetectionRules() {
		if rule.Keyword == "" || seen[rule.Keyword] {
			continue
		}
		if strings.Contains(normalized, rule.Keyword) {
			seen[rule.Keyword] = true
			out = append(out, rule.Keyword)
		}
	}

	codeRule := e.registry.ExtractionRule(patterns.EntityOTPCode)
	for _, c := range codeRule.Regex.FindAllString(text, -1) {
		tagged := "code:" + c
		if seen[tagged] {
			continue
		}
		seen[tagged] = true
		out = append(out, tagged)
	}

	ifscRule := e.registry.ExtractionRule(patterns.EntityIFSC)
	for _, c := range ifscRule.Regex.FindAllString(text, -1) {
		tagged := "ifsc:" + c
		if seen[tagged] {
			continue
		}
		seen[tagged] = true
		out = append(out, tagged)
	}
	return out
}
