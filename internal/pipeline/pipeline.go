// Package pipeline runs one forward pass from a source directory to a
// validated, categorized ledger.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/categorizer"
	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/normalizer"
	"fjacquet/finledger/internal/parser"
	"fjacquet/finledger/internal/parsererror"
	"fjacquet/finledger/internal/reconciler"
	"fjacquet/finledger/internal/scanner"
	"fjacquet/finledger/internal/store"
	"fjacquet/finledger/internal/validation"
)

// Options holds what a run needs besides its collaborators.
type Options struct {
	SourceDir string
	Transfers []config.TransferSignature
}

// Stats summarizes a run.
type Stats struct {
	Files        int              `json:"files" yaml:"files"`
	Parsed       int              `json:"parsed" yaml:"parsed"`
	Skipped      int              `json:"skipped" yaml:"skipped"`
	Failed       int              `json:"failed" yaml:"failed"`
	Transactions int              `json:"transactions" yaml:"transactions"`
	Reconcile    reconciler.Stats `json:"reconcile" yaml:"reconcile"`
}

// Result is the outcome of one run. Consumers must treat it as read-only;
// the next run builds a new one.
type Result struct {
	Transactions     []models.Transaction
	Report           *models.ValidationReport
	Manifest         []models.FileManifestEntry
	BalanceOverrides map[string]decimal.Decimal
	Stats            Stats
}

// Pipeline wires the stages of a run.
type Pipeline struct {
	opts       Options
	docs       store.DocumentLoader
	scanner    *scanner.SourceScanner
	registry   *parser.Registry
	reconciler *reconciler.Reconciler
	validator  *validation.Engine
	logger     logging.Logger
}

// New creates a pipeline from its stages.
func New(opts Options, docs store.DocumentLoader, scan *scanner.SourceScanner, registry *parser.Registry,
	rec *reconciler.Reconciler, validator *validation.Engine, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Pipeline{
		opts:       opts,
		docs:       docs,
		scanner:    scan,
		registry:   registry,
		reconciler: rec,
		validator:  validator,
		logger:     logger.WithField(logging.FieldComponent, "pipeline"),
	}
}

// Run executes the pipeline once. Per-file problems end up in the manifest
// and the report; only an unreadable source directory or a cancelled
// context abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	docs := p.docs.LoadAll()

	found, err := p.scanner.Scan(p.opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sources: %w", err)
	}

	manifest := append([]models.FileManifestEntry(nil), found.Problems...)
	var batches []reconciler.FileBatch
	for _, src := range found.Sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}
		entry, batch := p.parseSource(ctx, src)
		manifest = append(manifest, entry)
		if batch != nil {
			batches = append(batches, *batch)
		}
	}

	reconciled := p.reconciler.Reconcile(batches)
	markDiscarded(manifest, reconciled.Stats.DiscardedFiles)
	sort.SliceStable(manifest, func(i, j int) bool { return manifest[i].Path < manifest[j].Path })

	engine := categorizer.NewEngine(docs, p.logger)
	norm := normalizer.NewNormalizer(engine, p.opts.Transfers, docs.Recurring, p.logger)
	transactions := norm.NormalizeAll(reconciled.Records)
	SortLedger(transactions)

	report := p.validator.Run(validation.Input{Transactions: transactions, Manifest: manifest})

	result := &Result{
		Transactions:     transactions,
		Report:           report,
		Manifest:         manifest,
		BalanceOverrides: docs.BalanceOverrides,
		Stats:            summarize(manifest, len(transactions), reconciled.Stats),
	}
	p.logger.Info("Pipeline run finished",
		logging.F(logging.FieldCount, len(transactions)),
		logging.F(logging.FieldStatus, string(report.Status)),
		logging.F("files", result.Stats.Files),
		logging.F(logging.FieldDurationMs, time.Since(start).Milliseconds()))
	return result, nil
}

// parseSource runs the parser registered for src.Kind. A failed file
// yields its manifest entry and no batch.
func (p *Pipeline) parseSource(ctx context.Context, src parser.Source) (models.FileManifestEntry, *reconciler.FileBatch) {
	entry := models.FileManifestEntry{Path: src.Path, Kind: src.Kind, Account: src.Account}

	prs, err := p.registry.Get(src.Kind)
	if err != nil {
		entry.Status = models.FileFailed
		entry.Diagnostics = []parsererror.Diagnostic{parsererror.FromError(src.Path, parsererror.SeverityError, err)}
		p.logger.WithError(err).Warn("No parser for source", logging.F(logging.FieldFile, src.Path))
		return entry, nil
	}

	out := prs.Parse(ctx, src)
	entry.Records = len(out.Records)
	entry.Diagnostics = out.Diagnostics
	entry.Balances = out.Balances
	if out.Account.IsKnown() {
		entry.Account = out.Account
	}
	if out.Failed() {
		entry.Status = models.FileFailed
		return entry, nil
	}
	if period := out.Period(); !period.IsZero() {
		entry.Period = &period
	}
	entry.Status = models.FileParsed
	return entry, &reconciler.FileBatch{Path: src.Path, Kind: src.Kind, Records: out.Records}
}

func markDiscarded(manifest []models.FileManifestEntry, discarded []reconciler.DiscardedFile) {
	reasons := make(map[string]string, len(discarded))
	for _, d := range discarded {
		reasons[d.Path] = d.Reason
	}
	for i := range manifest {
		if reason, ok := reasons[manifest[i].Path]; ok {
			manifest[i].Status = models.FileSkipped
			manifest[i].Reason = reason
		}
	}
}

func summarize(manifest []models.FileManifestEntry, transactions int, rec reconciler.Stats) Stats {
	stats := Stats{Files: len(manifest), Transactions: transactions, Reconcile: rec}
	for _, e := range manifest {
		switch e.Status {
		case models.FileParsed:
			stats.Parsed++
		case models.FileSkipped:
			stats.Skipped++
		case models.FileFailed:
			stats.Failed++
		}
	}
	return stats
}

// SortLedger orders transactions by date descending. Equal dates fall back
// to the transaction ID, which is unique after reconciliation.
func SortLedger(transactions []models.Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID < b.ID
	})
}
