// Package detect turns raw scammer messages into a scam verdict and
// extracted intelligence, driven by the compiled rule registry in
// pkg/patterns.
package detect

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/devanand8x/honeypot-api/pkg/patterns"
)

// Verdict is the outcome of analyzing one message.
type Verdict struct {
	// IsScam is true when at least one signal fired. The gate trades
	// precision for recall: a honeypot that ignores a scammer costs more
	// than one that humors a stray caller.
	IsScam bool

	// Signals lists the categories that fired, in registry order,
	// deduplicated.
	Signals []string

	// Keywords lists the keyword rules that matched, for the
	// suspicious-keyword intelligence field.
	Keywords []string

	// Notes is the human-readable evidence summary for analysts.
	Notes string
}

// Detector evaluates text against the pattern registry, with an optional
// embedding-similarity layer on top.
type Detector struct {
	registry *patterns.Registry
	semantic *SemanticLayer
}

// NewDetector creates a detector over the given registry.
func NewDetector(reg *patterns.Registry, opts ...DetectorOption) *Detector {
	d := &Detector{registry: reg}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithSemanticLayer enables the embedding-similarity signal. The layer is
// additive: it can add a signal, never suppress one.
func WithSemanticLayer(s *SemanticLayer) DetectorOption {
	return func(d *Detector) { d.semantic = s }
}

// Normalize folds text for rule matching: NFKC (full-width and
// compatibility forms collapse to ASCII where possible), lowercase,
// whitespace runs collapsed to single spaces.
func Normalize(text string) string {
	folded := norm.NFKC.String(text)
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// noteLabels maps a fired category to its evidence phrase.
var noteLabels = map[patterns.Category]string{
	patterns.CategoryUrgency:   "urgency tactics",
	patterns.CategoryThreat:    "threatening language",
	patterns.CategoryFinancial: "financial terms",
	patterns.CategoryAuthority: "authority impersonation",
	patterns.CategoryRequest:   "information request",
}

// noteOrder fixes the order evidence phrases appear in, independent of
// which rule happened to match first.
var noteOrder = []patterns.Category{
	patterns.CategoryUrgency,
	patterns.CategoryThreat,
	patterns.CategoryFinancial,
	patterns.CategoryAuthority,
	patterns.CategoryRequest,
}

// Detect evaluates one message. The context is only consulted by the
// semantic layer; rule matching never blocks.
func (d *Detector) Detect(ctx context.Context, text string) Verdict {
	normalized := Normalize(text)
	if normalized == "" {
		return Verdict{Notes: "No scam indicators"}
	}

	matched := d.registry.MatchAll(normalized)

	fired := make(map[patterns.Category]bool)
	var tacticNames []string
	var keywords []string
	seenKeyword := make(map[string]bool)
	for _, rule := range matched {
		fired[rule.Category] = true
		if rule.Category == patterns.CategoryTactic && rule.Regex != nil {
			tacticNames = append(tacticNames, rule.Name)
		}
		if rule.Keyword != "" && !seenKeyword[rule.Keyword] {
			seenKeyword[rule.Keyword] = true
			keywords = append(keywords, rule.Keyword)
		}
	}

	v := Verdict{Keywords: keywords}
	for _, cat := range noteOrder {
		if fired[cat] {
			v.Signals = append(v.Signals, string(cat))
		}
	}
	if fired[patterns.CategoryTactic] {
		v.Signals = append(v.Signals, string(patterns.CategoryTactic))
	}
	// Any category not covered above (extension rules may define new ones).
	for _, rule := range matched {
		if !knownCategory(rule.Category) && !containsString(v.Signals, string(rule.Category)) {
			v.Signals = append(v.Signals, string(rule.Category))
		}
	}

	if d.semantic != nil {
		if hit, err := d.semantic.Match(ctx, normalized); err == nil && hit {
			fired[patterns.CategorySemantic] = true
			v.Signals = append(v.Signals, string(patterns.CategorySemantic))
		}
	}

	v.IsScam = len(v.Signals) > 0
	v.Notes = composeNotes(fired, tacticNames)
	return v
}

func composeNotes(fired map[patterns.Category]bool, tacticNames []string) string {
	var parts []string
	for _, cat := range noteOrder {
		if fired[cat] {
			parts = append(parts, noteLabels[cat])
		}
	}
	for _, name := range tacticNames {
		parts = append(parts, "pattern: "+name)
	}
	if fired[patterns.CategorySemantic] {
		parts = append(parts, "semantic similarity to known scam scripts")
	}
	if len(parts) == 0 {
		return "No scam indicators"
	}
	return "Scammer used " + strings.Join(parts, ", ")
}

func knownCategory(cat patterns.Category) bool {
	if cat == patterns.CategoryTactic || cat == patterns.CategorySemantic {
		return true
	}
	_, ok := noteLabels[cat]
	return ok
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
