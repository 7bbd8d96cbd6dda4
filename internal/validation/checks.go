package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/currencyutils"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/models"
)

// Check names, in report order.
const (
	CheckSourceIntegrity          = "source_integrity"
	CheckShapeIntegrity           = "shape_integrity"
	CheckDuplicateAudit           = "duplicate_audit"
	CheckDateContinuity           = "date_continuity"
	CheckBalanceReconciliation    = "balance_reconciliation"
	CheckAmountReasonableness     = "amount_reasonableness"
	CheckCategorizationCompletion = "categorization_completeness"
)

// Input is what the checks inspect: the final ledger and the manifest of
// every file the run attempted.
type Input struct {
	Transactions []models.Transaction
	Manifest     []models.FileManifestEntry
}

// Check is one independent validation.
type Check interface {
	Name() string
	Run(in Input) models.ValidationFinding
}

func finding(name string, status models.FindingStatus, message string, details map[string]interface{}) models.ValidationFinding {
	return models.ValidationFinding{CheckName: name, Status: status, Message: message, Details: details}
}

// sourceIntegrity verifies that every attempted file produced records or
// was skipped with a reason. A file that failed with a diagnostic is a
// warning; a file that yielded nothing and says nothing about it is a
// silent loss and fails.
type sourceIntegrity struct{}

func (sourceIntegrity) Name() string { return CheckSourceIntegrity }

func (c sourceIntegrity) Run(in Input) models.ValidationFinding {
	var failed, silent, skipped []string
	rowWarnings := 0
	for _, e := range in.Manifest {
		if !e.Failed() {
			rowWarnings += len(e.Diagnostics)
		}
		switch {
		case e.Status == models.FileSkipped && e.Reason != "":
			skipped = append(skipped, e.Path)
		case e.Failed():
			failed = append(failed, e.Path)
		case e.Status == models.FileParsed && e.Records > 0:
		default:
			silent = append(silent, e.Path)
		}
	}
	details := map[string]interface{}{
		"files":        len(in.Manifest),
		"row_warnings": rowWarnings,
	}
	if len(failed) > 0 {
		details["failed"] = failed
	}
	if len(silent) > 0 {
		details["silent"] = silent
	}
	if len(skipped) > 0 {
		details["skipped"] = skipped
	}

	switch {
	case len(silent) > 0:
		return finding(c.Name(), models.StatusFail,
			fmt.Sprintf("%d file(s) produced no records and no diagnostic", len(silent)), details)
	case len(failed) > 0:
		return finding(c.Name(), models.StatusWarning,
			fmt.Sprintf("%d file(s) could not be parsed; see diagnostics", len(failed)), details)
	}
	return finding(c.Name(), models.StatusPass,
		fmt.Sprintf("%d file(s) parsed or skipped with a reason", len(in.Manifest)), details)
}

// shapeIntegrity checks required and optional fields on every row.
type shapeIntegrity struct{}

func (shapeIntegrity) Name() string { return CheckShapeIntegrity }

// missingFields lists the absent required fields of tx. An empty category
// is the visible uncategorized state and is measured by the completeness
// check instead.
func missingFields(tx models.Transaction) []string {
	var missing []string
	if !tx.HasDate() {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(tx.DescriptionOriginal) == "" {
		missing = append(missing, "description")
	}
	if !tx.Amount.Valid {
		missing = append(missing, "amount")
	}
	if !tx.Account.IsKnown() {
		missing = append(missing, "account")
	}
	return missing
}

func (c shapeIntegrity) Run(in Input) models.ValidationFinding {
	var required, optional []map[string]interface{}
	for _, tx := range in.Transactions {
		if missing := missingFields(tx); len(missing) > 0 {
			required = append(required, map[string]interface{}{
				"id": tx.ID, "source": tx.Provenance(), "fields": missing,
			})
		}
		if tx.IsCategorized() && tx.Subcategory == "" {
			optional = append(optional, map[string]interface{}{
				"id": tx.ID, "source": tx.Provenance(), "fields": []string{"subcategory"},
			})
		}
	}
	details := map[string]interface{}{}
	if len(required) > 0 {
		details["missing_required"] = required
	}
	if len(optional) > 0 {
		details["missing_optional"] = len(optional)
		details["missing_optional_rows"] = optional
	}

	switch {
	case len(required) > 0:
		return finding(c.Name(), models.StatusFail,
			fmt.Sprintf("%d row(s) miss a required field", len(required)), details)
	case len(optional) > 0:
		return finding(c.Name(), models.StatusWarning,
			fmt.Sprintf("%d categorized row(s) have no subcategory", len(optional)), details)
	}
	return finding(c.Name(), models.StatusPass, "all rows carry the required fields", nil)
}

// duplicateAudit rescans the ledger for rows sharing date, amount and
// account, independently of the reconciler's own key.
type duplicateAudit struct{}

func (duplicateAudit) Name() string { return CheckDuplicateAudit }

func (c duplicateAudit) Run(in Input) models.ValidationFinding {
	groups := map[string][]string{}
	var order []string
	for _, tx := range in.Transactions {
		if !tx.HasDate() || !tx.Amount.Valid {
			continue
		}
		key := strings.Join([]string{dateutils.ToISODate(tx.Date), tx.Amount.Decimal.String(), string(tx.Account)}, "|")
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx.ID)
	}

	var duplicates []map[string]interface{}
	for _, key := range order {
		if ids := groups[key]; len(ids) > 1 {
			duplicates = append(duplicates, map[string]interface{}{"key": key, "ids": ids})
		}
	}
	if len(duplicates) > 0 {
		return finding(c.Name(), models.StatusFail,
			fmt.Sprintf("%d (date, amount, account) tuple(s) occur more than once", len(duplicates)),
			map[string]interface{}{"duplicates": duplicates})
	}
	return finding(c.Name(), models.StatusPass, "no duplicate (date, amount, account) tuples", nil)
}

// dateContinuity looks for multi-day holes in the checking account that
// no single checking file accounts for. A quiet stretch inside one
// statement's period is just a quiet stretch; a hole between files
// usually means a statement file is missing.
type dateContinuity struct {
	maxGapDays int
}

func (dateContinuity) Name() string { return CheckDateContinuity }

func (c dateContinuity) Run(in Input) models.ValidationFinding {
	seen := map[string]bool{}
	var dates []string
	for _, tx := range in.Transactions {
		if tx.Account != models.AccountChecking || !tx.HasDate() {
			continue
		}
		d := dateutils.ToISODate(tx.Date)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	var files []models.FileManifestEntry
	for _, e := range in.Manifest {
		if e.Account == models.AccountChecking && e.Status != models.FileFailed && e.Period != nil {
			files = append(files, e)
		}
	}

	var gaps []map[string]interface{}
	covered := 0
	for i := 1; i < len(dates); i++ {
		prev, _ := dateutils.ParseDate(dates[i-1])
		next, _ := dateutils.ParseDate(dates[i])
		days := dateutils.DaysBetween(prev, next)
		if days <= c.maxGapDays {
			continue
		}
		if coveredBy(files, prev, next) {
			covered++
			continue
		}
		gaps = append(gaps, map[string]interface{}{"from": dates[i-1], "to": dates[i], "days": days})
	}
	details := map[string]interface{}{
		"max_gap_days":       c.maxGapDays,
		"days_with_activity": len(dates),
		"covered_gaps":       covered,
	}
	if len(gaps) > 0 {
		details["gaps"] = gaps
		return finding(c.Name(), models.StatusWarning,
			fmt.Sprintf("%d gap(s) longer than %d days in checking activity", len(gaps), c.maxGapDays), details)
	}
	return finding(c.Name(), models.StatusPass, "no unexplained gaps in checking activity", details)
}

func coveredBy(files []models.FileManifestEntry, from, to time.Time) bool {
	for _, e := range files {
		if e.Covers(from, to) {
			return true
		}
	}
	return false
}

// balanceReconciliation verifies balance[i] == balance[i-1] + amount[i]
// over the running-balance rows of each parsed text statement. A row
// without a balance restarts the chain; a row without an amount only sets
// the balance.
type balanceReconciliation struct {
	tolerance decimal.Decimal
}

func (balanceReconciliation) Name() string { return CheckBalanceReconciliation }

func (c balanceReconciliation) Run(in Input) models.ValidationFinding {
	var divergences []map[string]interface{}
	checked := 0
	for _, e := range in.Manifest {
		if e.Kind != models.SourceTextStmt || e.Status != models.FileParsed || len(e.Balances) == 0 {
			continue
		}
		checked++
		if d, ok := c.firstDivergence(e); ok {
			divergences = append(divergences, d)
		}
	}

	details := map[string]interface{}{"files_checked": checked, "tolerance": c.tolerance.String()}
	if len(divergences) > 0 {
		details["divergences"] = divergences
		first := divergences[0]
		return finding(c.Name(), models.StatusFail,
			fmt.Sprintf("running balance diverges in %d file(s); first at %s row %d",
				len(divergences), first["file"], first["row"]), details)
	}
	if checked == 0 {
		return finding(c.Name(), models.StatusPass, "no running balances to reconcile", details)
	}
	return finding(c.Name(), models.StatusPass,
		fmt.Sprintf("running balances reconcile in %d file(s)", checked), details)
}

func (c balanceReconciliation) firstDivergence(e models.FileManifestEntry) (map[string]interface{}, bool) {
	var prev decimal.NullDecimal
	for _, row := range e.Balances {
		if !row.Balance.Valid {
			prev = decimal.NullDecimal{}
			continue
		}
		if prev.Valid && row.Amount.Valid {
			expected := prev.Decimal.Add(row.Amount.Decimal)
			if !currencyutils.WithinTolerance(row.Balance.Decimal, expected, c.tolerance) {
				return map[string]interface{}{
					"file":     e.Path,
					"row":      row.Row,
					"expected": expected.StringFixed(2),
					"actual":   row.Balance.Decimal.StringFixed(2),
				}, true
			}
		}
		prev = row.Balance
	}
	return nil, false
}

// amountReasonableness flags amounts far above the account's trailing
// median. It never fails: large amounts can be legitimate.
type amountReasonableness struct {
	multiple   decimal.Decimal
	window     int
	minHistory int
}

func (amountReasonableness) Name() string { return CheckAmountReasonableness }

func (c amountReasonableness) Run(in Input) models.ValidationFinding {
	byAccount := map[models.Account][]models.Transaction{}
	for _, tx := range in.Transactions {
		if tx.HasDate() && tx.Amount.Valid {
			byAccount[tx.Account] = append(byAccount[tx.Account], tx)
		}
	}
	accounts := make([]models.Account, 0, len(byAccount))
	for a := range byAccount {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

	var flagged []map[string]interface{}
	for _, account := range accounts {
		txs := byAccount[account]
		sort.SliceStable(txs, func(i, j int) bool {
			if !txs[i].Date.Equal(txs[j].Date) {
				return txs[i].Date.Before(txs[j].Date)
			}
			return txs[i].ID < txs[j].ID
		})
		history := make([]decimal.Decimal, 0, c.window)
		for _, tx := range txs {
			abs := tx.Amount.Decimal.Abs()
			if len(history) >= c.minHistory {
				median := currencyutils.Median(history)
				if median.IsPositive() && abs.GreaterThan(median.Mul(c.multiple)) {
					flagged = append(flagged, map[string]interface{}{
						"id":      tx.ID,
						"account": account.String(),
						"date":    dateutils.ToISODate(tx.Date),
						"amount":  tx.Amount.Decimal.StringFixed(2),
						"median":  median.StringFixed(2),
					})
				}
			}
			history = append(history, abs)
			if len(history) > c.window {
				history = history[1:]
			}
		}
	}

	details := map[string]interface{}{"multiple": c.multiple.String(), "trailing_window": c.window}
	if len(flagged) > 0 {
		details["flagged"] = flagged
		return finding(c.Name(), models.StatusWarning,
			fmt.Sprintf("%d transaction(s) exceed %s times the trailing median", len(flagged), c.multiple), details)
	}
	return finding(c.Name(), models.StatusPass, "no outlier amounts", details)
}

// categorizationCompleteness reports the share of uncategorized rows.
type categorizationCompleteness struct {
	threshold float64
}

func (categorizationCompleteness) Name() string { return CheckCategorizationCompletion }

func (c categorizationCompleteness) Run(in Input) models.ValidationFinding {
	total := len(in.Transactions)
	var ids []string
	for _, tx := range in.Transactions {
		if !tx.IsCategorized() {
			ids = append(ids, tx.ID)
		}
	}
	share := 0.0
	if total > 0 {
		share = float64(len(ids)) / float64(total)
	}
	details := map[string]interface{}{
		"uncategorized": len(ids),
		"total":         total,
		"percentage":    fmt.Sprintf("%.2f", share*100),
		"threshold":     fmt.Sprintf("%.2f", c.threshold*100),
	}
	if len(ids) > 0 {
		details["ids"] = ids
	}
	message := fmt.Sprintf("%d of %d transaction(s) uncategorized (%.2f%%)", len(ids), total, share*100)
	if share > c.threshold {
		return finding(c.Name(), models.StatusWarning, message, details)
	}
	return finding(c.Name(), models.StatusPass, message, details)
}
