package models

import (
	"strings"
	"time"

	"fjacquet/finledger/internal/dateutils"
)

// Account identifies one of the user's logical accounts.
type Account string

// Known accounts. The zero value is AccountUnknown and fails shape checks.
const (
	AccountUnknown     Account = ""
	AccountChecking    Account = "checking"
	AccountCreditCardA Account = "credit_card_a"
	AccountCreditCardB Account = "credit_card_b"
	// AccountCreditCardC is the additional-holder card.
	AccountCreditCardC Account = "credit_card_c"
)

// AllAccounts lists the known accounts in display order.
var AllAccounts = []Account{AccountChecking, AccountCreditCardA, AccountCreditCardB, AccountCreditCardC}

// ParseAccount resolves an account name as written in config or manual
// entry tables. Matching is case-insensitive and accepts a few aliases.
func ParseAccount(s string) Account {
	switch strings.ToLower(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(s))) {
	case "checking", "conta_corrente", "conta", "cc":
		return AccountChecking
	case "credit_card_a", "card_a", "cartao_a", "a":
		return AccountCreditCardA
	case "credit_card_b", "card_b", "cartao_b", "b":
		return AccountCreditCardB
	case "credit_card_c", "card_c", "cartao_c", "c", "additional", "adicional":
		return AccountCreditCardC
	}
	return AccountUnknown
}

// IsKnown reports whether a is one of AllAccounts.
func (a Account) IsKnown() bool {
	for _, known := range AllAccounts {
		if a == known {
			return true
		}
	}
	return false
}

// IsCreditCard reports whether the account is one of the cards.
func (a Account) IsCreditCard() bool {
	return a == AccountCreditCardA || a == AccountCreditCardB || a == AccountCreditCardC
}

func (a Account) String() string {
	if a == AccountUnknown {
		return "unknown"
	}
	return string(a)
}

// SourceKind tags the export format a record was read from.
type SourceKind string

const (
	SourceCardExport  SourceKind = "structured-card-export"
	SourceMarkup      SourceKind = "markup-statement"
	SourceTextStmt    SourceKind = "flexible-text-statement"
	SourceLegacy      SourceKind = "legacy-spreadsheet-export"
	SourceManualEntry SourceKind = "manual-entry"
)

// Priority orders source kinds when collapsing duplicates: lower wins.
func (k SourceKind) Priority() int {
	switch k {
	case SourceMarkup:
		return 0
	case SourceCardExport:
		return 1
	case SourceTextStmt:
		return 2
	case SourceManualEntry:
		return 3
	case SourceLegacy:
		return 4
	}
	return 5
}

// InvoicePeriod is the billing cycle a card charge is attributed to.
type InvoicePeriod struct {
	CloseDate time.Time `json:"close_date" yaml:"close_date"`
	DueDate   time.Time `json:"due_date" yaml:"due_date"`
}

// MonthKey is the month the invoice is due in.
func (p InvoicePeriod) MonthKey() string {
	return dateutils.MonthKey(p.DueDate)
}
