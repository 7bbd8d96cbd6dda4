package categorizer

import (
	"strings"
	"time"

	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/textutils"
)

// compiledRule is a rule with its keyword normalized once.
type compiledRule struct {
	keyword     string
	category    string
	subcategory string
	priority    int
	validity    models.Validity
	// order is the position in the document, the last tie-break.
	order int
}

func compileRules(rules []models.CategoryRule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		out = append(out, compiledRule{
			keyword:     textutils.Normalize(r.Keyword),
			category:    r.Category,
			subcategory: r.Subcategory,
			priority:    r.Priority,
			validity:    r.Validity,
			order:       i,
		})
	}
	return out
}

func compileSubcategoryRules(rules []models.SubcategoryRule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		out = append(out, compiledRule{
			keyword:     textutils.Normalize(r.Keyword),
			category:    r.Category,
			subcategory: r.Subcategory,
			priority:    r.Priority,
			validity:    r.Validity,
			order:       i,
		})
	}
	return out
}

// beats reports whether a takes precedence over b: higher priority, then
// longer keyword, then earlier in the document.
func (a compiledRule) beats(b compiledRule) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if len(a.keyword) != len(b.keyword) {
		return len(a.keyword) > len(b.keyword)
	}
	return a.order < b.order
}

// bestRule returns the winning rule among those active on date whose
// keyword occurs in the normalized description. accept filters candidates
// and may be nil.
func bestRule(rules []compiledRule, normalized string, date time.Time, accept func(compiledRule) bool) (compiledRule, bool) {
	var best compiledRule
	found := false
	for _, r := range rules {
		if r.keyword == "" || !strings.Contains(normalized, r.keyword) {
			continue
		}
		if !date.IsZero() && !r.validity.ActiveOn(date) {
			continue
		}
		if date.IsZero() && (r.validity.ValidFrom != nil || r.validity.ValidUntil != nil) {
			continue
		}
		if accept != nil && !accept(r) {
			continue
		}
		if !found || r.beats(best) {
			best, found = r, true
		}
	}
	return best, found
}

// RuleStrategy resolves categories from the keyword rule document.
type RuleStrategy struct {
	rules []compiledRule
}

// NewRuleStrategy compiles rules.
func NewRuleStrategy(rules []models.CategoryRule) *RuleStrategy {
	return &RuleStrategy{rules: compileRules(rules)}
}

// Name implements Strategy.
func (s *RuleStrategy) Name() string { return "rules" }

// Categorize implements Strategy.
func (s *RuleStrategy) Categorize(in Input) (Match, bool) {
	r, ok := bestRule(s.rules, textutils.Normalize(in.Description), in.Date, nil)
	if !ok {
		return Match{}, false
	}
	return Match{Category: r.category, Subcategory: r.subcategory, Strategy: s.Name(), Keyword: r.keyword}, true
}
