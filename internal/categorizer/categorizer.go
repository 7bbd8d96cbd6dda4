// Package categorizer resolves the category, subcategory and budget
// metadata of transactions from the user's rule documents.
//
// Keywords and descriptions are compared after normalization (upper case,
// no diacritics, single spaces). Among matching rules active on the
// transaction date the highest priority wins, then the longest keyword,
// then the rule defined first. A description no rule matches stays
// uncategorized; that is a visible state, not an error.
package categorizer

import (
	"strings"
	"time"

	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/store"
	"fjacquet/finledger/internal/textutils"
)

// Engine categorizes transactions. It is read-only after construction and
// safe for concurrent use.
type Engine struct {
	strategies []Strategy
	rules      *RuleStrategy
	subRules   []compiledRule
	budget     map[string]models.BudgetMetadata
	budgetKeys map[string]string
	renames    renameTable
	logger     logging.Logger
}

// NewEngine builds an engine from the loaded documents. Seeds carried by
// legacy and manual rows take precedence over the rules.
func NewEngine(docs store.Documents, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	rules := NewRuleStrategy(docs.Rules)
	e := &Engine{
		strategies: []Strategy{SeedStrategy{}, rules},
		rules:      rules,
		subRules:   compileSubcategoryRules(docs.SubcategoryRules),
		budget:     docs.Budget,
		budgetKeys: make(map[string]string, len(docs.Budget)),
		renames:    newRenameTable(docs.Renames),
		logger:     logger.WithField(logging.FieldComponent, "categorizer"),
	}
	for name := range docs.Budget {
		e.budgetKeys[textutils.Normalize(name)] = name
	}
	e.logger.Debug("Category engine ready",
		logging.F("rules", len(docs.Rules)),
		logging.F("subcategory_rules", len(docs.SubcategoryRules)),
		logging.F("budget_categories", len(docs.Budget)),
		logging.F("renames", len(docs.Renames)))
	return e
}

// Normalize returns the matching key of text.
func (e *Engine) Normalize(text string) string {
	return textutils.Normalize(text)
}

// Categorize resolves description on date from the rules alone. Both
// values are empty when nothing matches.
func (e *Engine) Categorize(description string, date time.Time) (string, string) {
	m, ok := e.rules.Categorize(Input{Description: description, Date: date})
	if !ok {
		return "", ""
	}
	return m.Category, e.completeSubcategory(m, description, date)
}

// Resolve runs the strategies in order and completes a missing
// subcategory from the subcategory rules.
func (e *Engine) Resolve(in Input) (Match, bool) {
	for _, s := range e.strategies {
		m, ok := s.Categorize(in)
		if !ok {
			continue
		}
		m.Subcategory = e.completeSubcategory(m, in.Description, in.Date)
		e.logger.Debug("Transaction categorized",
			logging.F("strategy", s.Name()),
			logging.F(logging.FieldCategory, m.Category))
		return m, true
	}
	return Match{}, false
}

// completeSubcategory consults the subcategory rules when the match did
// not set one. A scoped subcategory rule only applies within its category.
func (e *Engine) completeSubcategory(m Match, description string, date time.Time) string {
	if m.Subcategory != "" {
		return m.Subcategory
	}
	category := textutils.Normalize(m.Category)
	r, ok := bestRule(e.subRules, textutils.Normalize(description), date, func(r compiledRule) bool {
		return r.category == "" || textutils.Normalize(r.category) == category
	})
	if !ok {
		return ""
	}
	return r.subcategory
}

// GetCategoryMetadata returns the budget entry for category, or
// DefaultBudgetMetadata when the budget document does not list it.
func (e *Engine) GetCategoryMetadata(category string) models.BudgetMetadata {
	if meta, ok := e.budget[category]; ok {
		return meta
	}
	if name, ok := e.budgetKeys[textutils.Normalize(category)]; ok && strings.TrimSpace(category) != "" {
		return e.budget[name]
	}
	return models.DefaultBudgetMetadata()
}

// ApplyRenames returns the display form of description: the rename for an
// exact normalized match, else for the longest contained fragment, else
// the description with collapsed whitespace.
func (e *Engine) ApplyRenames(description string) string {
	return e.renames.apply(description)
}
