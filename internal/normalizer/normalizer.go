// Package normalizer turns reconciled raw records into canonical ledger
// transactions. Each record passes through installment detection,
// internal-transfer detection, recurring-item matching, categorization and
// budget enrichment, in that order. No stage rejects a record: a record
// nothing matches is emitted with its flags unset.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/categorizer"
	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/textutils"
)

// installmentRe matches "current/total" markers such as "03/12".
var installmentRe = regexp.MustCompile(`\b(\d{2})/(\d{2})\b`)

var (
	dateSuffixRe = regexp.MustCompile(`^/\d{2,4}\b`)
	datePrefixRe = regexp.MustCompile(`\d/$`)
)

// Direction constrains the sign of a transfer signature.
type Direction string

const (
	DirectionAny Direction = "any"
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

type transferSignature struct {
	keyword   string
	direction Direction
	account   models.Account
}

func compileTransfers(signatures []config.TransferSignature) []transferSignature {
	out := make([]transferSignature, 0, len(signatures))
	for _, s := range signatures {
		dir := Direction(strings.ToLower(strings.TrimSpace(s.Direction)))
		if dir == "" {
			dir = DirectionAny
		}
		out = append(out, transferSignature{
			keyword:   textutils.Normalize(s.Keyword),
			direction: dir,
			account:   models.ParseAccount(s.Account),
		})
	}
	return out
}

func (s transferSignature) matches(normalized string, rec models.RawTransaction) bool {
	if s.keyword == "" || !strings.Contains(normalized, s.keyword) {
		return false
	}
	if s.account != models.AccountUnknown && s.account != rec.Account {
		return false
	}
	switch s.direction {
	case DirectionIn:
		return rec.Amount.Valid && rec.Amount.Decimal.IsPositive()
	case DirectionOut:
		return rec.Amount.Valid && rec.Amount.Decimal.IsNegative()
	}
	return true
}

// Normalizer enriches raw records.
type Normalizer struct {
	engine    *categorizer.Engine
	transfers []transferSignature
	recurring []models.RecurringItem
	logger    logging.Logger
}

// NewNormalizer creates a normalizer using engine for categorization.
func NewNormalizer(engine *categorizer.Engine, transfers []config.TransferSignature, recurring []models.RecurringItem, logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Normalizer{
		engine:    engine,
		transfers: compileTransfers(transfers),
		recurring: recurring,
		logger:    logger.WithField(logging.FieldComponent, "normalizer"),
	}
}

// DetectInstallment returns the "current/total" marker of description.
// Markers with total below 2 or current outside 1..total are ignored, and
// so is any pair that is part of a full date such as 10/12/2025, so dates
// in descriptions are rarely mistaken for installments.
func DetectInstallment(description string) (index, total int, ok bool) {
	for _, loc := range installmentRe.FindAllStringSubmatchIndex(description, -1) {
		if partOfDate(description, loc[0], loc[1]) {
			continue
		}
		i, _ := strconv.Atoi(description[loc[2]:loc[3]])
		n, _ := strconv.Atoi(description[loc[4]:loc[5]])
		if n >= 2 && i >= 1 && i <= n {
			return i, n, true
		}
	}
	return 0, 0, false
}

// partOfDate reports whether the pair at s[start:end] continues as "/yy",
// "/yyyy" or follows a "yyyy/" prefix.
func partOfDate(s string, start, end int) bool {
	if dateSuffixRe.MatchString(s[end:]) {
		return true
	}
	return datePrefixRe.MatchString(s[:start])
}

// Normalize enriches one record.
func (n *Normalizer) Normalize(raw models.RawTransaction) models.Transaction {
	tx := models.NewTransaction(raw)
	normalized := textutils.Normalize(raw.DescriptionOriginal)

	if index, total, ok := DetectInstallment(raw.DescriptionOriginal); ok {
		tx.IsInstallment = true
		tx.InstallmentIndex = &index
		tx.InstallmentTotal = &total
		if raw.Invoice != nil {
			tx.MonthKey = raw.Invoice.MonthKey()
		}
	}

	for _, s := range n.transfers {
		if s.matches(normalized, raw) {
			tx.IsInternalTransfer = true
			break
		}
	}

	if item, ok := n.matchRecurring(normalized, raw, tx.MonthKey); ok {
		tx.IsRecurringMatch = true
		tx.RecurringItem = item
	}

	if m, ok := n.engine.Resolve(categorizer.InputFor(raw)); ok {
		tx.Category = m.Category
		tx.Subcategory = m.Subcategory
	}

	tx.BudgetLimit = decimal.Zero
	if tx.IsCategorized() {
		meta := n.engine.GetCategoryMetadata(tx.Category)
		tx.CatType = meta.Type
		tx.BudgetLimit = meta.Limit
		tx.BudgetDefaulted = meta.Default
	}

	tx.DescriptionClean = n.engine.ApplyRenames(raw.DescriptionOriginal)
	return tx
}

// matchRecurring returns the first recurring item, in document order,
// expected in monthKey whose keyword occurs in the description and whose
// amount is within tolerance of the record's absolute amount.
func (n *Normalizer) matchRecurring(normalized string, raw models.RawTransaction, monthKey string) (string, bool) {
	if !raw.Amount.Valid {
		return "", false
	}
	actual := raw.Amount.Decimal.Abs()
	for _, item := range n.recurring {
		keyword := textutils.Normalize(item.Keyword)
		if keyword == "" || !strings.Contains(normalized, keyword) {
			continue
		}
		if item.Account != models.AccountUnknown && item.Account != raw.Account {
			continue
		}
		expected, ok := item.ExpectedIn(monthKey)
		if !ok {
			continue
		}
		if actual.Sub(expected).Abs().LessThanOrEqual(item.Tolerance.Abs()) {
			return item.Name, true
		}
	}
	return "", false
}

// NormalizeAll enriches records in order.
func (n *Normalizer) NormalizeAll(records []models.RawTransaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(records))
	var installments, transfers, recurring, uncategorized int
	for _, raw := range records {
		tx := n.Normalize(raw)
		if tx.IsInstallment {
			installments++
		}
		if tx.IsInternalTransfer {
			transfers++
		}
		if tx.IsRecurringMatch {
			recurring++
		}
		if !tx.IsCategorized() {
			uncategorized++
		}
		out = append(out, tx)
	}
	n.logger.Info("Normalized transactions",
		logging.F(logging.FieldCount, len(out)),
		logging.F("installments", installments),
		logging.F("internal_transfers", transfers),
		logging.F("recurring_matches", recurring),
		logging.F("uncategorized", uncategorized))
	return out
}
