package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/dateutils"
)

// transactionNamespace seeds the deterministic transaction IDs.
var transactionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("finledger/transaction"))

// RawTransaction is a record as produced by a source parser. A zero Date or
// an invalid Amount marks a value that could not be read from the source.
type RawTransaction struct {
	Date                time.Time           `json:"date" yaml:"date"`
	DescriptionOriginal string              `json:"description_original" yaml:"description_original"`
	Amount              decimal.NullDecimal `json:"amount" yaml:"amount"`
	Account             Account             `json:"account" yaml:"account"`
	SourceFile          string              `json:"source_file" yaml:"source_file"`
	SourceKind          SourceKind          `json:"source_kind" yaml:"source_kind"`
	// Row is the 1-based data row within SourceFile.
	Row             int                 `json:"row" yaml:"row"`
	Balance         decimal.NullDecimal `json:"balance,omitempty" yaml:"balance,omitempty"`
	DocumentRef     string              `json:"document_ref,omitempty" yaml:"document_ref,omitempty"`
	SeedCategory    string              `json:"seed_category,omitempty" yaml:"seed_category,omitempty"`
	SeedSubcategory string              `json:"seed_subcategory,omitempty" yaml:"seed_subcategory,omitempty"`
	Invoice         *InvoicePeriod      `json:"invoice,omitempty" yaml:"invoice,omitempty"`
}

// DedupKey is the uniqueness key of the ledger.
type DedupKey struct {
	Date        string
	Amount      string
	Account     Account
	Description string
}

func (k DedupKey) String() string {
	return strings.Join([]string{k.Date, k.Amount, string(k.Account), k.Description}, "|")
}

// Key returns the (date, amount, account, description_original) key.
func (r RawTransaction) Key() DedupKey {
	amount := "missing"
	if r.Amount.Valid {
		amount = r.Amount.Decimal.String()
	}
	date := "missing"
	if !r.Date.IsZero() {
		date = dateutils.ToISODate(r.Date)
	}
	return DedupKey{
		Date:        date,
		Amount:      amount,
		Account:     r.Account,
		Description: r.DescriptionOriginal,
	}
}

// HasDate reports whether the date was read successfully.
func (r RawTransaction) HasDate() bool { return !r.Date.IsZero() }

// AmountOrZero returns the amount, or zero when it is missing.
func (r RawTransaction) AmountOrZero() decimal.Decimal {
	if !r.Amount.Valid {
		return decimal.Zero
	}
	return r.Amount.Decimal
}

// Provenance is a short "file:row" reference used in findings and logs.
func (r RawTransaction) Provenance() string {
	return fmt.Sprintf("%s:%d", r.SourceFile, r.Row)
}

// Transaction is a canonical, enriched ledger entry.
type Transaction struct {
	RawTransaction `yaml:",inline"`

	ID               string          `json:"id" yaml:"id"`
	DescriptionClean string          `json:"description_clean" yaml:"description_clean"`
	Category         string          `json:"category" yaml:"category"`
	Subcategory      string          `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	CatType          BudgetType      `json:"cat_type,omitempty" yaml:"cat_type,omitempty"`
	BudgetLimit      decimal.Decimal `json:"budget_limit" yaml:"budget_limit"`
	// BudgetDefaulted is set when the category has no budget entry and the
	// default metadata was applied.
	BudgetDefaulted    bool   `json:"budget_defaulted" yaml:"budget_defaulted"`
	IsInstallment      bool   `json:"is_installment" yaml:"is_installment"`
	InstallmentIndex   *int   `json:"installment_index,omitempty" yaml:"installment_index,omitempty"`
	InstallmentTotal   *int   `json:"installment_total,omitempty" yaml:"installment_total,omitempty"`
	IsInternalTransfer bool   `json:"is_internal_transfer" yaml:"is_internal_transfer"`
	IsRecurringMatch   bool   `json:"is_recurring_match" yaml:"is_recurring_match"`
	RecurringItem      string `json:"recurring_item,omitempty" yaml:"recurring_item,omitempty"`
	MonthKey           string `json:"month_key" yaml:"month_key"`
}

// NewTransaction wraps a raw record with its deterministic ID and the
// month key derived from its date.
func NewTransaction(raw RawTransaction) Transaction {
	return Transaction{
		RawTransaction: raw,
		ID:             TransactionID(raw.Key()),
		MonthKey:       dateutils.MonthKey(raw.Date),
	}
}

// TransactionID derives a stable UUID from the dedup key.
func TransactionID(key DedupKey) string {
	return uuid.NewSHA1(transactionNamespace, []byte(key.String())).String()
}

// IsCategorized reports whether a category was resolved. An uncategorized
// transaction needs manual review.
func (t Transaction) IsCategorized() bool {
	return t.Category != ""
}
