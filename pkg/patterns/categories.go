package patterns

// =============================================================================
// RULE DEFINITIONS BY CATEGORY
// All rules are registered here and compiled once at package init.
// Keyword lists cover English plus romanized Hindi; each rule is tagged with
// its language so detection evidence can name the locale that fired.
// =============================================================================

// --- URGENCY SIGNALS ---
// Pressure to act before the victim can think.
func (r *Registry) registerUrgencyRules() {
	cat := CategoryUrgency

	r.registerKeywords(cat, LangEnglish, 15,
		"immediately", "urgent", "hurry", "quick", "fast",
		"limited time", "act now", "don't delay", "expire", "deadline",
		"expiring", "last chance", "final notice", "action required",
		"attention", "alert", "overdue", "disconnection",
	)
	r.registerKeywords(cat, LangHindi, 15,
		"turant", "jaldi", "abhi", "aaj hi", "fauran", "saavdhan",
	)
}

// --- THREAT SIGNALS ---
// Consequences dangled over the victim: account loss, police, court.
func (r *Registry) registerThreatRules() {
	cat := CategoryThreat

	r.registerKeywords(cat, LangEnglish, 25,
		"blocked", "suspended", "locked", "frozen", "deactivated",
		"legal action", "arrest", "police", "court", "penalty", "fine",
		"case filed", "warrant", "crime", "kyc",
		"suspicious", "unusual", "unauthorized", "fraud", "hacked",
		"compromised", "security alert", "warning", "investigation",
		"under surveillance", "detained", "lapsed", "disabled", "invalid",
	)
	r.registerKeywords(cat, LangHindi, 25,
		"band", "jail", "thana",
	)
}

// --- FINANCIAL BAIT SIGNALS ---
func (r *Registry) registerFinancialRules() {
	cat := CategoryFinancial

	r.registerKeywords(cat, LangEnglish, 20,
		"bank account", "otp", "pin", "password", "cvv", "card number",
		"upi", "transfer", "payment", "refund", "cashback", "prize",
		"lottery", "winner", "reward", "bonus", "free money",
		"congratulations", "claim", "lakh", "crore", "jackpot",
		"atm", "credit card", "debit card", "loan", "approved", "selected",
		"gift", "voucher", "salary", "income", "profit", "investment",
		"insurance", "premium", "policy", "duty", "tax", "fee",
		"electricity", "bill", "meter", "gold coin",
		"job offer", "hiring", "vacancy", "interview",
	)
	r.registerKeywords(cat, LangHindi, 20,
		"khata", "paisa", "rupees", "inaam", "naukri",
	)
}

// --- AUTHORITY IMPERSONATION SIGNALS ---
// Institutions scammers claim to speak for. Brand names do not vary by
// locale, so these are all tagged English.
func (r *Registry) registerAuthorityRules() {
	cat := CategoryAuthority

	r.registerKeywords(cat, LangEnglish, 15,
		"rbi", "reserve bank", "sbi", "hdfc", "icici", "axis",
		"government", "income tax", "customs", "cbi",
		"customer care", "helpline", "official",
	)
}

// --- INFORMATION REQUEST SIGNALS ---
func (r *Registry) registerRequestRules() {
	cat := CategoryRequest

	r.registerKeywords(cat, LangEnglish, 10,
		"share", "send", "give", "provide", "enter", "click", "verify",
		"confirm", "update", "validate", "submit", "login", "register",
		"call", "contact", "dial", "press", "tap", "download", "install",
		"visit", "open link",
	)
	r.registerKeywords(cat, LangHindi, 10,
		"bhejo", "batao", "dijiye", "karo",
	)
}

// --- COMPOSITE TACTIC PATTERNS ---
// Multi-word shapes that identify a specific scam playbook. Higher severity
// than single keywords because two halves must co-occur.
func (r *Registry) registerTacticRules() {
	cat := CategoryTactic

	r.registerPattern("upi_request", `(share|send|give).*(upi|vpa|@)`, cat, LangEnglish, 30)
	r.registerPattern("otp_request", `(share|send|give|enter).*(otp|code|pin)`, cat, LangEnglish, 30)
	r.registerPattern("link_click", `(click|open|visit).*(link|url|http)`, cat, LangEnglish, 30)
	r.registerPattern("money_request", `(send|transfer|pay).*(money|amount|rs|₹|\d+)`, cat, LangEnglish, 30)
	r.registerPattern("kyc_scam", `(kyc|update|verify).*(account|bank|details|wallet)`, cat, LangEnglish, 30)
	r.registerPattern("job_scam", `(job|work|hiring|vacancy|earning|salary).*(daily|guaranteed|apply|hr)`, cat, LangEnglish, 30)
	r.registerPattern("electricity_scam", `(electricity|bill|light|power).*(disconnect|unpaid|cut|update)`, cat, LangEnglish, 30)
	r.registerPattern("customs_scam", `(customs|parcel|package|delivery).*(hold|held|duty|tax|fee)`, cat, LangEnglish, 30)
	r.registerPattern("account_threat", `(account|khata).*(block|suspend|freeze|band)`, cat, LangEnglish, 30)
	r.registerPattern("prize_scam", `(won|winner|prize|lottery|congratulations).*(lakh|crore|rs|₹|\d+)`, cat, LangEnglish, 30)
}

// --- ENTITY EXTRACTION PATTERNS ---
// Run against the raw (non-normalized) text so digits and URLs survive.
func (r *Registry) registerExtractionRules() {
	// Bank account: 9-18 digit runs. The extractor filters year-shaped hits.
	r.registerExtraction(EntityBankAccount, `\b\d{9,18}\b`)

	// IFSC: 4 letters + 0 + 6 alphanumeric.
	r.registerExtraction(EntityIFSC, `\b[A-Z]{4}0[A-Z0-9]{6}\b`)

	// UPI handle: local-part@provider. The extractor validates the provider
	// suffix against the allow-list below.
	r.registerExtraction(EntityUPIID, `\b[\w.\-]+@[a-zA-Z]{2,}\b`)

	// Indian mobile: optional +91 prefix, first digit 6-9.
	r.registerExtraction(EntityPhone, `(?:\+91[\-\s]?)?[6-9]\d{9}\b`)

	// Any URL-shaped token is a phishing-link candidate.
	r.registerExtraction(EntityURL, `https?://[^\s<>"{}|\\^`+"`"+`\[\]]+`)

	// 6-digit verification codes, surfaced as suspicious keywords.
	r.registerExtraction(EntityOTPCode, `\b\d{6}\b`)
}

// --- ENTITY FILTERS ---
func (r *Registry) registerEntityFilters() {
	// Known UPI provider suffixes. A handle whose suffix is not listed here
	// is treated as a plain email and dropped.
	for _, s := range []string{
		"upi", "ybl", "ibl", "axl", "apl", "paytm", "okaxis", "oksbi",
		"okhdfcbank", "okicici", "sbi", "hdfcbank", "icici", "axisbank",
		"barodampay", "fbl", "freecharge", "airtel", "jio", "yapl", "pthdfc",
	} {
		r.upiSuffixes[s] = struct{}{}
	}

	// Domains never reported as phishing links.
	r.safeDomains = []string{
		"google.com", "facebook.com", "twitter.com", "gov.in", "rbi.org.in",
	}
}
