package llm

import "strings"

// FallbackResponder produces canned persona replies when every backend is
// down. Keyword-keyed, with a rotating generic reply for anything else.
// Opt-in: with it disabled a backend outage surfaces as an empty reply,
// which some deployments prefer over repetitive canned text a scammer
// might recognize.
type FallbackResponder struct{}

// NewFallbackResponder creates a template responder.
func NewFallbackResponder() *FallbackResponder {
	return &FallbackResponder{}
}

var genericFallbacks = []string{
	"Sir I am very tensed now. Please tell me exactly what to do step by step?",
	"Ok ok I understand. But please give me your number so I can call and understand better?",
	"Sir please help me. I dont want any problem with my account. Tell me what you need from me?",
	"I am ready to do whatever you say sir. Just tell me clearly what information you need?",
}

// Reply picks a canned response for the message. turnCount is the number
// of messages already exchanged in the session.
func (f *FallbackResponder) Reply(message string, turnCount int) string {
	lower := strings.ToLower(message)

	contains := func(keywords ...string) bool {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}

	if turnCount == 0 {
		switch {
		case contains("block", "suspend", "freeze"):
			return "Oh my god! What happened to my account? Please sir help me what should I do?"
		case contains("prize", "winner", "lottery"):
			return "Really? I won something? But I dont remember entering any contest sir. Please tell me more details?"
		case contains("otp", "verify"):
			return "Verification for what sir? I am confused. Can you please explain properly?"
		default:
			return "Hello sir, I received your message but I am not understanding fully. Can you please explain what is the problem?"
		}
	}

	switch {
	case contains("upi", "vpa", "@"):
		return "Ok sir, I will send. But which UPI ID exactly? Please write clearly so I dont make mistake."
	case contains("bank", "account"):
		return "Sir I have 2 bank accounts - SBI and PNB. Which one you are talking about? What is the problem exactly?"
	case contains("link", "click", "http"):
		return "Ok I will click. Can you send the link again? My phone is old sometimes links dont open properly."
	case contains("otp", "code"):
		return "Sir OTP ke liye I need to open my phone. Which bank's OTP you need? Let me check."
	case contains("call", "phone", "whatsapp"):
		return "Yes please call me sir. My number is... wait, what is your number? I will give missed call."
	case contains("money", "transfer", "send", "pay"):
		return "How much I need to send? And to which account/UPI? I am ready to send but tell me clearly."
	default:
		return genericFallbacks[turnCount%len(genericFallbacks)]
	}
}
