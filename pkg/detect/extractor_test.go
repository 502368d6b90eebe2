package detect

import (
	"reflect"
	"testing"

	"github.com/devanand8x/honeypot-api/pkg/patterns"
)

func newTestExtractor() *Extractor {
	return NewExtractor(patterns.Get())
}

func TestExtractBankAccounts(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain account", "transfer to account 123456789012 today", []string{"123456789012"}},
		{"year-shaped run dropped", "registered in 2024123456", nil},
		{"too short", "pin is 12345678", nil},
		{"duplicate collapses", "send to 987654321 or 987654321", []string{"987654321"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).BankAccounts
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractPaymentHandles(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"known provider", "Pay to merchant@upi now", []string{"merchant@upi"}},
		{"paytm handle", "send money to ramesh.k@paytm", []string{"ramesh.k@paytm"}},
		{"email rejected", "write to support@gmail.com", nil},
		{"case folds", "pay MERCHANT@YBL", []string{"merchant@ybl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).UPIIDs
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractPhoneNumbers(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"bare number", "call me on 9123456789", []string{"9123456789"}},
		{"with country code", "whatsapp +91-9876543210 now", []string{"9876543210"}},
		{"landline-shaped ignored", "office number 0221234567", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).PhoneNumbers
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractPhishingLinks(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"suspicious url", "Click http://sim-kyc.net now", []string{"http://sim-kyc.net"}},
		{"https with path", "verify at https://sbi-verify.xyz/login?step=1", []string{"https://sbi-verify.xyz/login?step=1"}},
		{"safe domain dropped", "search it on https://www.google.com/search?q=x", nil},
		{"government domain dropped", "see https://rbi.org.in/alerts", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).PhishingLinks
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractSuspiciousKeywords(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("Your account will be blocked. Share OTP now!")

	got := make(map[string]bool)
	for _, kw := range intel.SuspiciousKeywords {
		got[kw] = true
	}
	for _, want := range []string{"blocked", "otp", "share"} {
		if !got[want] {
			t.Errorf("missing keyword %q, got %v", want, intel.SuspiciousKeywords)
		}
	}
}

func TestExtractVerificationCodes(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("Tell me the code 482913 you just received")

	found := false
	for _, kw := range intel.SuspiciousKeywords {
		if kw == "code:482913" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected code:482913 among keywords, got %v", intel.SuspiciousKeywords)
	}

	// A 6-digit code is not an account number.
	if len(intel.BankAccounts) != 0 {
		t.Errorf("code leaked into bank accounts: %v", intel.BankAccounts)
	}
}

func TestExtractIFSCCodes(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("Use IFSC SBIN0001234 for the transfer")

	found := false
	for _, kw := range intel.SuspiciousKeywords {
		if kw == "ifsc:SBIN0001234" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ifsc:SBIN0001234 among keywords, got %v", intel.SuspiciousKeywords)
	}
}

func TestExtractEmptyText(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("   ")
	if intel.Count() != 0 {
		t.Errorf("expected empty intelligence, got %+v", intel)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	e := newTestExtractor()
	text := "Pay 5000 to merchant@upi or call +91-9876543210, else account 123456789012 gets blocked. http://sim-kyc.net"

	first := e.Extract(text)
	second := e.Extract(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction not stable:\n%+v\n%+v", first, second)
	}
}
