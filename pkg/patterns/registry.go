// Package patterns provides the centralized pattern library for scam
// detection and intelligence extraction. All regexes are compiled once at
// package init and shared across every request.
//
// Design principles:
// - COMPILE ONCE: built-in patterns compiled at init, not per-request
// - DRY: single source of truth for signal keywords and entity regexes
// - TAGGED: every detection rule carries its category and language, so
//   evidence can report which locale triggered it and a third language
//   needs no structural change
package patterns

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Category labels a class of scam signal.
type Category string

const (
	CategoryUrgency   Category = "urgency"
	CategoryThreat    Category = "threat"
	CategoryFinancial Category = "financial"
	CategoryAuthority Category = "authority"
	CategoryRequest   Category = "request"
	CategoryTactic    Category = "tactic"
	// CategorySemantic is reserved for the embedding-similarity layer; no
	// built-in rules carry it.
	CategorySemantic Category = "semantic"
)

// Language tags the locale a rule targets.
type Language string

const (
	LangEnglish Language = "en"
	LangHindi   Language = "hi" // romanized Hindi
)

// EntityCategory labels a class of extractable intelligence.
type EntityCategory string

const (
	EntityBankAccount EntityCategory = "bank_account"
	EntityIFSC        EntityCategory = "ifsc"
	EntityUPIID       EntityCategory = "upi_id"
	EntityPhone       EntityCategory = "phone"
	EntityURL         EntityCategory = "url"
	EntityOTPCode     EntityCategory = "otp_code"
)

// Rule is one detection rule. Keyword rules match by substring on the
// normalized text; regex rules by their compiled pattern. Exactly one of
// Keyword and Regex is set.
type Rule struct {
	Name     string
	Category Category
	Language Language
	Keyword  string
	Regex    *regexp.Regexp
	Severity int // evidence weight for agent notes, not a decision input
}

// Matches reports whether the rule fires on normalized text.
func (r *Rule) Matches(text string) bool {
	if r.Regex != nil {
		return r.Regex.MatchString(text)
	}
	return strings.Contains(text, r.Keyword)
}

// Extraction is one entity-extraction rule.
type Extraction struct {
	Entity EntityCategory
	Regex  *regexp.Regexp
}

// Registry holds all compiled rules, organized by category.
type Registry struct {
	mu          sync.RWMutex
	byCategory  map[Category][]*Rule
	detection   []*Rule
	extraction  []*Extraction
	upiSuffixes map[string]struct{}
	safeDomains []string
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton).
// Thread-safe and guaranteed to be initialized.
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

func newRegistry() *Registry {
	r := &Registry{
		byCategory:  make(map[Category][]*Rule),
		detection:   make([]*Rule, 0, 256),
		upiSuffixes: make(map[string]struct{}),
	}

	r.registerUrgencyRules()
	r.registerThreatRules()
	r.registerFinancialRules()
	r.registerAuthorityRules()
	r.registerRequestRules()
	r.registerTacticRules()
	r.registerExtractionRules()
	r.registerEntityFilters()

	return r
}

// registerKeywords adds one keyword rule per keyword (internal use only).
func (r *Registry) registerKeywords(cat Category, lang Language, severity int, keywords ...string) {
	for _, kw := range keywords {
		rule := &Rule{
			Name:     string(cat) + ":" + kw,
			Category: cat,
			Language: lang,
			Keyword:  kw,
			Severity: severity,
		}
		r.byCategory[cat] = append(r.byCategory[cat], rule)
		r.detection = append(r.detection, rule)
	}
}

// registerPattern adds a regex rule. Malformed built-in patterns panic here,
// at startup, never at request time.
func (r *Registry) registerPattern(name, pattern string, cat Category, lang Language, severity int) {
	rule := &Rule{
		Name:     name,
		Category: cat,
		Language: lang,
		Regex:    regexp.MustCompile(pattern),
		Severity: severity,
	}
	r.byCategory[cat] = append(r.byCategory[cat], rule)
	r.detection = append(r.detection, rule)
}

func (r *Registry) registerExtraction(entity EntityCategory, pattern string) {
	r.extraction = append(r.extraction, &Extraction{
		Entity: entity,
		Regex:  regexp.MustCompile(pattern),
	})
}

// DetectionRules returns every detection rule in registration order.
func (r *Registry) DetectionRules() []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.detection
}

// ExtractionRules returns every extraction rule in registration order.
func (r *Registry) ExtractionRules() []*Extraction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.extraction
}

// GetByCategory returns all rules for a category.
// Returns empty slice if category not found (never nil).
func (r *Registry) GetByCategory(cat Category) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rules, ok := r.byCategory[cat]; ok {
		return rules
	}
	return []*Rule{}
}

// MatchAll returns every rule that fires on the normalized text. Use when
// all evidence is needed, not just the verdict.
func (r *Registry) MatchAll(text string) []*Rule {
	rules := r.DetectionRules()
	var matches []*Rule
	for _, rule := range rules {
		if rule.Matches(text) {
			matches = append(matches, rule)
		}
	}
	return matches
}

// MatchAny reports whether any rule fires. Early exit on first match.
func (r *Registry) MatchAny(text string) *Rule {
	for _, rule := range r.DetectionRules() {
		if rule.Matches(text) {
			return rule
		}
	}
	return nil
}

// ExtractionRule returns the extraction rule for an entity category, or nil.
func (r *Registry) ExtractionRule(entity EntityCategory) *Extraction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ex := range r.extraction {
		if ex.Entity == entity {
			return ex
		}
	}
	return nil
}

// IsKnownUPISuffix reports whether the part after '@' belongs to a known
// payment provider. This keeps generic emails out of the payment-handle set.
func (r *Registry) IsKnownUPISuffix(suffix string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.upiSuffixes[strings.ToLower(suffix)]
	return ok
}

// AddSafeDomains extends the safe-domain allow-list at startup. Empty
// entries are skipped.
func (r *Registry) AddSafeDomains(domains ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			r.safeDomains = append(r.safeDomains, d)
		}
	}
}

// IsSafeDomain reports whether a URL belongs to a domain that should never
// be reported as a phishing link.
func (r *Registry) IsSafeDomain(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lower := strings.ToLower(url)
	for _, d := range r.safeDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// TotalRules returns the total count of registered detection rules.
func (r *Registry) TotalRules() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.detection)
}

// CategoryCount returns the number of rules in a category.
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}

// AddRule registers an extension rule at startup. Unlike the built-ins the
// pattern is caller-supplied, so compilation failure is returned as an
// error instead of panicking.
func (r *Registry) AddRule(name string, cat Category, lang Language, keyword, pattern string, severity int) error {
	if (keyword == "") == (pattern == "") {
		return fmt.Errorf("rule %q: exactly one of keyword and pattern required", name)
	}

	rule := &Rule{
		Name:     name,
		Category: cat,
		Language: lang,
		Keyword:  strings.ToLower(keyword),
		Severity: severity,
	}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("rule %q: %w", name, err)
		}
		rule.Regex = re
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCategory[cat] = append(r.byCategory[cat], rule)
	r.detection = append(r.detection, rule)
	return nil
}
