package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of an extension rule set:
//
//	rules:
//	  - name: crypto_doubling
//	    category: tactic
//	    language: en
//	    pattern: '(double|triple).*(bitcoin|crypto|usdt)'
//	    severity: 30
//	  - name: lucky_draw
//	    category: financial
//	    keyword: lucky draw
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Language string `yaml:"language"`
	Keyword  string `yaml:"keyword"`
	Pattern  string `yaml:"pattern"`
	Severity int    `yaml:"severity"`
}

// LoadRuleFile registers extension rules from a YAML file. Called once at
// startup; any error is fatal there, so requests never see a half-loaded
// rule set.
func (r *Registry) LoadRuleFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rule file: %w", err)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return 0, fmt.Errorf("parse rule file %s: %w", path, err)
	}

	for i, e := range rf.Rules {
		if e.Name == "" {
			return 0, fmt.Errorf("rule file %s: rule %d has no name", path, i)
		}
		if e.Category == "" {
			return 0, fmt.Errorf("rule %q: category is required", e.Name)
		}
		lang := Language(e.Language)
		if lang == "" {
			lang = LangEnglish
		}
		severity := e.Severity
		if severity == 0 {
			severity = 10
		}
		if err := r.AddRule(e.Name, Category(e.Category), lang, e.Keyword, e.Pattern, severity); err != nil {
			return 0, err
		}
	}
	return len(rf.Rules), nil
}
