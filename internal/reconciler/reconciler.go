// Package reconciler merges the records of every parsed file into one
// deduplicated set. Per account it prefers markup statements over text
// statements covering the same period, drops legacy rows from the cutoff
// on, suppresses card-side settlement rows and collapses exact duplicates
// in source-priority order.
package reconciler

import (
	"fmt"
	"sort"
	"time"

	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/textutils"
)

// Options holds the reconciliation policy.
type Options struct {
	// LegacyCutoff is the first day legacy records are no longer kept. The
	// zero time keeps every legacy record.
	LegacyCutoff       time.Time
	SettlementPatterns []string
	RefundPatterns     []string
}

// FileBatch is the output of one parsed file.
type FileBatch struct {
	Path    string
	Kind    models.SourceKind
	Records []models.RawTransaction
}

// FileGroup is the part of each file that belongs to one account.
type FileGroup struct {
	Account   models.Account
	Files     []FileBatch
	DateRange dateutils.DateRange
}

// DiscardedFile is a file left out entirely, with the reason.
type DiscardedFile struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Stats counts what each policy step removed.
type Stats struct {
	Input               int             `json:"input" yaml:"input"`
	Output              int             `json:"output" yaml:"output"`
	DiscardedFiles      []DiscardedFile `json:"discarded_files,omitempty" yaml:"discarded_files,omitempty"`
	DiscardedRecords    int             `json:"discarded_records" yaml:"discarded_records"`
	CutoffDrops         int             `json:"cutoff_drops" yaml:"cutoff_drops"`
	SettlementDrops     int             `json:"settlement_drops" yaml:"settlement_drops"`
	DuplicatesCollapsed int             `json:"duplicates_collapsed" yaml:"duplicates_collapsed"`
}

// Result is the reconciled record set.
type Result struct {
	Records []models.RawTransaction
	Stats   Stats
}

// Reconciler applies Options to parsed files.
type Reconciler struct {
	opts   Options
	logger logging.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(opts Options, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Reconciler{opts: opts, logger: logger.WithField(logging.FieldComponent, "reconciler")}
}

// GroupByAccount splits files by the account of each record. Groups come
// back in account order and keep the file order given.
func GroupByAccount(files []FileBatch) []FileGroup {
	groups := map[models.Account]*FileGroup{}
	for _, file := range files {
		parts := map[models.Account]*FileBatch{}
		var order []models.Account
		for _, rec := range file.Records {
			part, ok := parts[rec.Account]
			if !ok {
				part = &FileBatch{Path: file.Path, Kind: file.Kind}
				parts[rec.Account] = part
				order = append(order, rec.Account)
			}
			part.Records = append(part.Records, rec)
		}
		for _, account := range order {
			group, ok := groups[account]
			if !ok {
				group = &FileGroup{Account: account}
				groups[account] = group
			}
			part := parts[account]
			group.Files = append(group.Files, *part)
			group.DateRange = group.DateRange.Merge(fileRange(*part))
		}
	}

	accounts := make([]models.Account, 0, len(groups))
	for a := range groups {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

	out := make([]FileGroup, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, *groups[a])
	}
	return out
}

func fileRange(file FileBatch) dateutils.DateRange {
	var r dateutils.DateRange
	for _, rec := range file.Records {
		r = r.Include(rec.Date)
	}
	return r
}

// Reconcile runs the policy over files and returns the surviving records
// in source-priority order.
func (r *Reconciler) Reconcile(files []FileBatch) Result {
	var stats Stats
	for _, f := range files {
		stats.Input += len(f.Records)
	}

	discarded := r.preferMarkup(GroupByAccount(files))
	for _, f := range files {
		if reason, ok := discarded[f.Path]; ok {
			stats.DiscardedFiles = append(stats.DiscardedFiles, DiscardedFile{Path: f.Path, Reason: reason})
			stats.DiscardedRecords += len(f.Records)
		}
	}

	var kept []models.RawTransaction
	for _, f := range files {
		if _, ok := discarded[f.Path]; ok {
			continue
		}
		for _, rec := range f.Records {
			switch {
			case r.beyondCutoff(rec):
				stats.CutoffDrops++
			case r.isSettlement(rec):
				stats.SettlementDrops++
			default:
				kept = append(kept, rec)
			}
		}
	}

	records, collapsed := CollapseDuplicates(kept)
	stats.DuplicatesCollapsed = collapsed
	stats.Output = len(records)

	r.logger.Info("Reconciled source records",
		logging.F("input", stats.Input),
		logging.F("output", stats.Output),
		logging.F("discarded_files", len(stats.DiscardedFiles)),
		logging.F("cutoff_drops", stats.CutoffDrops),
		logging.F("settlement_drops", stats.SettlementDrops),
		logging.F("duplicates", stats.DuplicatesCollapsed))
	return Result{Records: records, Stats: stats}
}

// preferMarkup returns the text statements to discard, keyed by path: any
// whose period overlaps a markup statement of the same account.
func (r *Reconciler) preferMarkup(groups []FileGroup) map[string]string {
	discarded := map[string]string{}
	for _, g := range groups {
		for _, text := range g.Files {
			if text.Kind != models.SourceTextStmt {
				continue
			}
			textRange := fileRange(text)
			for _, markup := range g.Files {
				if markup.Kind != models.SourceMarkup || !fileRange(markup).Overlaps(textRange) {
					continue
				}
				reason := fmt.Sprintf("superseded by markup statement %s for %s over %s",
					markup.Path, g.Account.String(), textRange)
				discarded[text.Path] = reason
				r.logger.Info("Discarding text statement",
					logging.F(logging.FieldFile, text.Path),
					logging.F(logging.FieldReason, reason))
				break
			}
		}
	}
	return discarded
}

func (r *Reconciler) beyondCutoff(rec models.RawTransaction) bool {
	return rec.SourceKind == models.SourceLegacy &&
		!r.opts.LegacyCutoff.IsZero() &&
		rec.HasDate() &&
		!rec.Date.Before(r.opts.LegacyCutoff)
}

// isSettlement reports a card-side payment of the card bill. Refund and
// credit wording exempts a row even when it shares settlement vocabulary.
func (r *Reconciler) isSettlement(rec models.RawTransaction) bool {
	if !rec.Account.IsCreditCard() {
		return false
	}
	normalized := textutils.Normalize(rec.DescriptionOriginal)
	return textutils.ContainsAny(normalized, r.opts.SettlementPatterns) &&
		!textutils.ContainsAny(normalized, r.opts.RefundPatterns)
}

// SortByPriority orders records by source priority, then file, then row.
func SortByPriority(records []models.RawTransaction) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if pa, pb := a.SourceKind.Priority(), b.SourceKind.Priority(); pa != pb {
			return pa < pb
		}
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.Row < b.Row
	})
}

// CollapseDuplicates keeps the first record per dedup key in source
// priority order and returns how many were dropped.
func CollapseDuplicates(records []models.RawTransaction) ([]models.RawTransaction, int) {
	sorted := append([]models.RawTransaction(nil), records...)
	SortByPriority(sorted)

	seen := make(map[models.DedupKey]bool, len(sorted))
	out := sorted[:0]
	for _, rec := range sorted {
		key := rec.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out, len(sorted) - len(out)
}
