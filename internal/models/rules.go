package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validity is an optional inclusive date window. A nil bound is open.
type Validity struct {
	ValidFrom  *time.Time `json:"valid_from,omitempty" yaml:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty" yaml:"valid_until,omitempty"`
}

// ActiveOn reports whether date falls inside the window.
func (v Validity) ActiveOn(date time.Time) bool {
	if v.ValidFrom != nil && date.Before(*v.ValidFrom) {
		return false
	}
	if v.ValidUntil != nil && date.After(*v.ValidUntil) {
		return false
	}
	return true
}

func (v Validity) validate() error {
	if v.ValidFrom != nil && v.ValidUntil != nil && v.ValidUntil.Before(*v.ValidFrom) {
		return fmt.Errorf("valid_until %s is before valid_from %s",
			v.ValidUntil.Format("2006-01-02"), v.ValidFrom.Format("2006-01-02"))
	}
	return nil
}

// CategoryRule maps a description keyword to a category.
type CategoryRule struct {
	Keyword     string `json:"keyword" yaml:"keyword"`
	Category    string `json:"category" yaml:"category"`
	Subcategory string `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Priority    int    `json:"priority" yaml:"priority"`
	Validity    `yaml:",inline"`
}

// Validate checks the rule's required fields and window.
func (r CategoryRule) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return errors.New("keyword is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return errors.New("category is required")
	}
	return r.validate()
}

// SubcategoryRule assigns a subcategory, optionally only within Category.
type SubcategoryRule struct {
	Keyword     string `json:"keyword" yaml:"keyword"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Subcategory string `json:"subcategory" yaml:"subcategory"`
	Priority    int    `json:"priority" yaml:"priority"`
	Validity    `yaml:",inline"`
}

// Validate checks the rule's required fields and window.
func (r SubcategoryRule) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return errors.New("keyword is required")
	}
	if strings.TrimSpace(r.Subcategory) == "" {
		return errors.New("subcategory is required")
	}
	return r.validate()
}

// BudgetType classifies a category for budgeting.
type BudgetType string

const (
	BudgetFixed      BudgetType = "Fixed"
	BudgetVariable   BudgetType = "Variable"
	BudgetInvestment BudgetType = "Investment"
	BudgetIncome     BudgetType = "Income"
)

// ParseBudgetType resolves a budget type name case-insensitively.
func ParseBudgetType(s string) (BudgetType, bool) {
	for _, bt := range []BudgetType{BudgetFixed, BudgetVariable, BudgetInvestment, BudgetIncome} {
		if strings.EqualFold(strings.TrimSpace(s), string(bt)) {
			return bt, true
		}
	}
	return "", false
}

// BudgetMetadata is the budget classification of one category.
type BudgetMetadata struct {
	Type  BudgetType      `json:"type" yaml:"type"`
	Limit decimal.Decimal `json:"limit" yaml:"limit"`
	// Default marks metadata synthesized for a category missing from the
	// budget document, as opposed to an explicit Variable entry.
	Default bool `json:"default,omitempty" yaml:"-"`
}

// DefaultBudgetMetadata is returned for categories without a budget entry.
func DefaultBudgetMetadata() BudgetMetadata {
	return BudgetMetadata{Type: BudgetVariable, Limit: decimal.Zero, Default: true}
}

// RecurringOverride adjusts a recurring item for one month.
type RecurringOverride struct {
	Skip   bool                `json:"skip,omitempty" yaml:"skip,omitempty"`
	Amount decimal.NullDecimal `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// RecurringItem is an expected periodic charge, e.g. rent.
type RecurringItem struct {
	Name      string          `json:"name" yaml:"name"`
	Keyword   string          `json:"keyword" yaml:"keyword"`
	Amount    decimal.Decimal `json:"amount" yaml:"amount"`
	Tolerance decimal.Decimal `json:"tolerance" yaml:"tolerance"`
	// Account restricts the match when set.
	Account Account `json:"account,omitempty" yaml:"account,omitempty"`
	// StartMonth and EndMonth are inclusive YYYY-MM keys; empty is open.
	StartMonth string                       `json:"start_month,omitempty" yaml:"start_month,omitempty"`
	EndMonth   string                       `json:"end_month,omitempty" yaml:"end_month,omitempty"`
	Overrides  map[string]RecurringOverride `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Validate checks the item's required fields and month window.
func (r RecurringItem) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Keyword) == "" {
		return errors.New("keyword is required")
	}
	if r.StartMonth != "" && r.EndMonth != "" && r.EndMonth < r.StartMonth {
		return fmt.Errorf("end_month %s is before start_month %s", r.EndMonth, r.StartMonth)
	}
	return nil
}

// ExpectedIn returns the expected absolute amount for monthKey, or false
// when the item is outside its window or skipped that month.
func (r RecurringItem) ExpectedIn(monthKey string) (decimal.Decimal, bool) {
	if monthKey == "" {
		return decimal.Zero, false
	}
	if r.StartMonth != "" && monthKey < r.StartMonth {
		return decimal.Zero, false
	}
	if r.EndMonth != "" && monthKey > r.EndMonth {
		return decimal.Zero, false
	}
	amount := r.Amount
	if o, ok := r.Overrides[monthKey]; ok {
		if o.Skip {
			return decimal.Zero, false
		}
		if o.Amount.Valid {
			amount = o.Amount.Decimal
		}
	}
	return amount.Abs(), true
}
