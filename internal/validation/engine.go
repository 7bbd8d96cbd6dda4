// Package validation audits a finished ledger. Each check runs on its own
// and yields one finding; the report status is the worst of them.
package validation

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
)

// runNamespace seeds report run IDs.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("finledger/run"))

// Thresholds configures the checks.
type Thresholds struct {
	MaxGapDays             int
	BalanceTolerance       decimal.Decimal
	AmountMultiple         decimal.Decimal
	TrailingWindow         int
	MinHistory             int
	UncategorizedThreshold float64
}

// ThresholdsFromConfig reads the validation section of cfg.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		MaxGapDays:             cfg.Validation.MaxGapDays,
		BalanceTolerance:       cfg.BalanceTolerance(),
		AmountMultiple:         decimal.NewFromFloat(cfg.Validation.AmountMultiple),
		TrailingWindow:         cfg.Validation.TrailingWindow,
		MinHistory:             cfg.Validation.MinHistory,
		UncategorizedThreshold: cfg.Validation.UncategorizedThreshold,
	}
}

// Engine runs the ordered checklist.
type Engine struct {
	checks []Check
	logger logging.Logger
}

// NewEngine builds the standard checklist.
func NewEngine(th Thresholds, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Engine{
		checks: []Check{
			sourceIntegrity{},
			shapeIntegrity{},
			duplicateAudit{},
			dateContinuity{maxGapDays: th.MaxGapDays},
			balanceReconciliation{tolerance: th.BalanceTolerance},
			amountReasonableness{multiple: th.AmountMultiple, window: th.TrailingWindow, minHistory: th.MinHistory},
			categorizationCompleteness{threshold: th.UncategorizedThreshold},
		},
		logger: logger.WithField(logging.FieldComponent, "validation"),
	}
}

// Checks returns the check names in run order.
func (e *Engine) Checks() []string {
	names := make([]string, len(e.checks))
	for i, c := range e.checks {
		names[i] = c.Name()
	}
	return names
}

// Run executes every check and builds the report. It has no side effects
// beyond logging.
func (e *Engine) Run(in Input) *models.ValidationReport {
	findings := make([]models.ValidationFinding, 0, len(e.checks))
	for _, c := range e.checks {
		f := c.Run(in)
		e.logger.Debug("Validation check finished",
			logging.F(logging.FieldCheck, f.CheckName),
			logging.F(logging.FieldStatus, string(f.Status)),
			logging.F(logging.FieldReason, f.Message))
		findings = append(findings, f)
	}

	report := models.NewValidationReport(findings)
	report.RunID = RunID(in)
	report.Summary.Transactions = len(in.Transactions)
	report.Summary.Files = len(in.Manifest)

	e.logger.Info("Validation finished",
		logging.F(logging.FieldStatus, string(report.Status)),
		logging.F("pass", report.Summary.Pass),
		logging.F("warning", report.Summary.Warning),
		logging.F("fail", report.Summary.Fail))
	return report
}

// RunID derives a stable identifier from the manifest and the ledger, so
// identical inputs produce identical reports.
func RunID(in Input) string {
	parts := make([]string, 0, len(in.Manifest)+len(in.Transactions))
	for _, m := range in.Manifest {
		parts = append(parts, "file:"+m.Path+":"+string(m.Status))
	}
	ids := make([]string, 0, len(in.Transactions))
	for _, tx := range in.Transactions {
		ids = append(ids, tx.ID)
	}
	sort.Strings(ids)
	parts = append(parts, ids...)
	return uuid.NewSHA1(runNamespace, []byte(strings.Join(parts, "\n"))).String()
}
