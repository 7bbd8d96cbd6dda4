package store

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/currencyutils"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
)

// Documents is the configuration loaded once per pipeline run.
type Documents struct {
	Rules            []models.CategoryRule
	SubcategoryRules []models.SubcategoryRule
	Budget           map[string]models.BudgetMetadata
	Renames          map[string]string
	// BalanceOverrides maps a month key to a manual balance correction. It
	// is carried through to the run result for presentation only.
	BalanceOverrides map[string]decimal.Decimal
	Recurring        []models.RecurringItem
}

// Document names used in logs.
const (
	DocRules            = "rules"
	DocSubcategories    = "subcategories"
	DocBudget           = "budget"
	DocRenames          = "renames"
	DocBalanceOverrides = "balance_overrides"
	DocRecurring        = "recurring"
)

// ruleEntry is the on-disk form of both rule documents.
type ruleEntry struct {
	Keyword     string `yaml:"keyword"`
	Category    string `yaml:"category,omitempty"`
	Subcategory string `yaml:"subcategory,omitempty"`
	Priority    int    `yaml:"priority"`
	ValidFrom   string `yaml:"valid_from,omitempty"`
	ValidUntil  string `yaml:"valid_until,omitempty"`
}

type rulesDocument struct {
	Rules []ruleEntry `yaml:"rules"`
}

type budgetEntry struct {
	Type  string `yaml:"type"`
	Limit string `yaml:"limit"`
}

type budgetDocument struct {
	Categories map[string]budgetEntry `yaml:"categories"`
}

type renamesDocument struct {
	Renames map[string]string `yaml:"renames"`
}

type overridesDocument struct {
	Overrides map[string]string `yaml:"overrides"`
}

type recurringOverrideEntry struct {
	Skip   bool   `yaml:"skip,omitempty"`
	Amount string `yaml:"amount,omitempty"`
}

type recurringEntry struct {
	Name       string                            `yaml:"name"`
	Keyword    string                            `yaml:"keyword"`
	Amount     string                            `yaml:"amount"`
	Tolerance  string                            `yaml:"tolerance,omitempty"`
	Account    string                            `yaml:"account,omitempty"`
	StartMonth string                            `yaml:"start_month,omitempty"`
	EndMonth   string                            `yaml:"end_month,omitempty"`
	Overrides  map[string]recurringOverrideEntry `yaml:"overrides,omitempty"`
}

type recurringDocument struct {
	Items []recurringEntry `yaml:"items"`
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := dateutils.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatOptionalDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return dateutils.ToISODate(*d)
}

func (e ruleEntry) validity() (models.Validity, error) {
	from, err := parseOptionalDate(e.ValidFrom)
	if err != nil {
		return models.Validity{}, err
	}
	until, err := parseOptionalDate(e.ValidUntil)
	if err != nil {
		return models.Validity{}, err
	}
	return models.Validity{ValidFrom: from, ValidUntil: until}, nil
}

func (s *Store) warnDropped(document string, index int, err error) {
	s.logger.WithError(err).Warn("Dropping invalid entry",
		logging.F(logging.FieldDocument, document), logging.F(logging.FieldRow, index+1))
}

// LoadRules loads the category rule document, dropping invalid rules.
func (s *Store) LoadRules() []models.CategoryRule {
	var doc rulesDocument
	rules := []models.CategoryRule{}
	if !s.readDocument(DocRules, s.files.Rules, &doc) {
		return rules
	}

	for i, e := range doc.Rules {
		validity, err := e.validity()
		if err != nil {
			s.warnDropped(DocRules, i, err)
			continue
		}
		rule := models.CategoryRule{
			Keyword:     strings.TrimSpace(e.Keyword),
			Category:    strings.TrimSpace(e.Category),
			Subcategory: strings.TrimSpace(e.Subcategory),
			Priority:    e.Priority,
			Validity:    validity,
		}
		if err := rule.Validate(); err != nil {
			s.warnDropped(DocRules, i, err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// SaveRules writes the category rule document.
func (s *Store) SaveRules(rules []models.CategoryRule) error {
	doc := rulesDocument{Rules: make([]ruleEntry, 0, len(rules))}
	for _, r := range rules {
		doc.Rules = append(doc.Rules, ruleEntry{
			Keyword:     r.Keyword,
			Category:    r.Category,
			Subcategory: r.Subcategory,
			Priority:    r.Priority,
			ValidFrom:   formatOptionalDate(r.ValidFrom),
			ValidUntil:  formatOptionalDate(r.ValidUntil),
		})
	}
	return s.writeDocument(DocRules, s.files.Rules, doc)
}

// LoadSubcategoryRules loads the subcategory rule document, dropping invalid rules.
func (s *Store) LoadSubcategoryRules() []models.SubcategoryRule {
	var doc rulesDocument
	rules := []models.SubcategoryRule{}
	if !s.readDocument(DocSubcategories, s.files.Subcategories, &doc) {
		return rules
	}

	for i, e := range doc.Rules {
		validity, err := e.validity()
		if err != nil {
			s.warnDropped(DocSubcategories, i, err)
			continue
		}
		rule := models.SubcategoryRule{
			Keyword:     strings.TrimSpace(e.Keyword),
			Category:    strings.TrimSpace(e.Category),
			Subcategory: strings.TrimSpace(e.Subcategory),
			Priority:    e.Priority,
			Validity:    validity,
		}
		if err := rule.Validate(); err != nil {
			s.warnDropped(DocSubcategories, i, err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// SaveSubcategoryRules writes the subcategory rule document.
func (s *Store) SaveSubcategoryRules(rules []models.SubcategoryRule) error {
	doc := rulesDocument{Rules: make([]ruleEntry, 0, len(rules))}
	for _, r := range rules {
		doc.Rules = append(doc.Rules, ruleEntry{
			Keyword:     r.Keyword,
			Category:    r.Category,
			Subcategory: r.Subcategory,
			Priority:    r.Priority,
			ValidFrom:   formatOptionalDate(r.ValidFrom),
			ValidUntil:  formatOptionalDate(r.ValidUntil),
		})
	}
	return s.writeDocument(DocSubcategories, s.files.Subcategories, doc)
}

// LoadBudget loads the budget document. Unknown types become Variable and
// unreadable limits become zero, each with a warning.
func (s *Store) LoadBudget() map[string]models.BudgetMetadata {
	var doc budgetDocument
	budget := map[string]models.BudgetMetadata{}
	if !s.readDocument(DocBudget, s.files.Budget, &doc) {
		return budget
	}

	names := make([]string, 0, len(doc.Categories))
	for name := range doc.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e := doc.Categories[name]
		log := s.logger.WithFields(logging.F(logging.FieldDocument, DocBudget), logging.F(logging.FieldCategory, name))

		bt, ok := models.ParseBudgetType(e.Type)
		if !ok {
			log.Warn("Unknown budget type, using Variable", logging.F("type", e.Type))
			bt = models.BudgetVariable
		}
		limit := decimal.Zero
		if strings.TrimSpace(e.Limit) != "" {
			parsed, err := currencyutils.ParseAmount(e.Limit)
			if err != nil {
				log.WithError(err).Warn("Invalid budget limit, using 0")
			} else {
				limit = parsed
			}
		}
		budget[strings.TrimSpace(name)] = models.BudgetMetadata{Type: bt, Limit: limit}
	}
	return budget
}

// SaveBudget writes the budget document.
func (s *Store) SaveBudget(budget map[string]models.BudgetMetadata) error {
	doc := budgetDocument{Categories: make(map[string]budgetEntry, len(budget))}
	for name, meta := range budget {
		doc.Categories[name] = budgetEntry{Type: string(meta.Type), Limit: meta.Limit.String()}
	}
	return s.writeDocument(DocBudget, s.files.Budget, doc)
}

// LoadRenames loads the rename document; empty keys or values are dropped.
func (s *Store) LoadRenames() map[string]string {
	var doc renamesDocument
	renames := map[string]string{}
	if !s.readDocument(DocRenames, s.files.Renames, &doc) {
		return renames
	}
	for from, to := range doc.Renames {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			continue
		}
		renames[from] = to
	}
	return renames
}

// SaveRenames writes the rename document.
func (s *Store) SaveRenames(renames map[string]string) error {
	return s.writeDocument(DocRenames, s.files.Renames, renamesDocument{Renames: renames})
}

// LoadBalanceOverrides loads the month-key to balance correction document.
func (s *Store) LoadBalanceOverrides() map[string]decimal.Decimal {
	var doc overridesDocument
	overrides := map[string]decimal.Decimal{}
	if !s.readDocument(DocBalanceOverrides, s.files.BalanceOverrides, &doc) {
		return overrides
	}
	for month, value := range doc.Overrides {
		if _, err := dateutils.ParseMonthKey(month); err != nil {
			s.logger.WithError(err).Warn("Dropping balance override", logging.F(logging.FieldDocument, DocBalanceOverrides))
			continue
		}
		amount, err := currencyutils.ParseAmount(value)
		if err != nil {
			s.logger.WithError(err).Warn("Dropping balance override", logging.F(logging.FieldDocument, DocBalanceOverrides))
			continue
		}
		overrides[month] = amount
	}
	return overrides
}

// SaveBalanceOverrides writes the balance override document.
func (s *Store) SaveBalanceOverrides(overrides map[string]decimal.Decimal) error {
	doc := overridesDocument{Overrides: make(map[string]string, len(overrides))}
	for month, amount := range overrides {
		doc.Overrides[month] = amount.String()
	}
	return s.writeDocument(DocBalanceOverrides, s.files.BalanceOverrides, doc)
}

// LoadRecurring loads the recurring item document, dropping invalid items.
func (s *Store) LoadRecurring() []models.RecurringItem {
	var doc recurringDocument
	items := []models.RecurringItem{}
	if !s.readDocument(DocRecurring, s.files.Recurring, &doc) {
		return items
	}

	for i, e := range doc.Items {
		item, err := e.toModel()
		if err == nil {
			err = item.Validate()
		}
		if err != nil {
			s.warnDropped(DocRecurring, i, err)
			continue
		}
		items = append(items, item)
	}
	return items
}

func (e recurringEntry) toModel() (models.RecurringItem, error) {
	amount, err := currencyutils.ParseAmount(e.Amount)
	if err != nil {
		return models.RecurringItem{}, err
	}
	tolerance := decimal.Zero
	if strings.TrimSpace(e.Tolerance) != "" {
		if tolerance, err = currencyutils.ParseAmount(e.Tolerance); err != nil {
			return models.RecurringItem{}, err
		}
	}
	item := models.RecurringItem{
		Name:       strings.TrimSpace(e.Name),
		Keyword:    strings.TrimSpace(e.Keyword),
		Amount:     amount,
		Tolerance:  tolerance.Abs(),
		Account:    models.ParseAccount(e.Account),
		StartMonth: strings.TrimSpace(e.StartMonth),
		EndMonth:   strings.TrimSpace(e.EndMonth),
	}
	for _, month := range []string{item.StartMonth, item.EndMonth} {
		if month == "" {
			continue
		}
		if _, err := dateutils.ParseMonthKey(month); err != nil {
			return models.RecurringItem{}, err
		}
	}
	if len(e.Overrides) > 0 {
		item.Overrides = make(map[string]models.RecurringOverride, len(e.Overrides))
		for month, o := range e.Overrides {
			override := models.RecurringOverride{Skip: o.Skip}
			if strings.TrimSpace(o.Amount) != "" {
				amt, err := currencyutils.ParseNullAmount(o.Amount)
				if err != nil {
					return models.RecurringItem{}, err
				}
				override.Amount = amt
			}
			item.Overrides[month] = override
		}
	}
	return item, nil
}

// SaveRecurring writes the recurring item document.
func (s *Store) SaveRecurring(items []models.RecurringItem) error {
	doc := recurringDocument{Items: make([]recurringEntry, 0, len(items))}
	for _, item := range items {
		e := recurringEntry{
			Name:       item.Name,
			Keyword:    item.Keyword,
			Amount:     item.Amount.String(),
			Tolerance:  item.Tolerance.String(),
			Account:    string(item.Account),
			StartMonth: item.StartMonth,
			EndMonth:   item.EndMonth,
		}
		if len(item.Overrides) > 0 {
			e.Overrides = make(map[string]recurringOverrideEntry, len(item.Overrides))
			for month, o := range item.Overrides {
				e.Overrides[month] = recurringOverrideEntry{Skip: o.Skip, Amount: currencyutils.FormatNullAmount(o.Amount)}
			}
		}
		doc.Items = append(doc.Items, e)
	}
	return s.writeDocument(DocRecurring, s.files.Recurring, doc)
}
