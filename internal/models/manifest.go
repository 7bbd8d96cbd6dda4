package models

import (
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/parsererror"
)

// FileStatus records what happened to a discovered source file.
type FileStatus string

const (
	FileParsed  FileStatus = "parsed"
	FileSkipped FileStatus = "skipped"
	FileFailed  FileStatus = "failed"
)

// BalanceRow is one running-balance line of a text statement, kept in file
// order for balance reconciliation.
type BalanceRow struct {
	Row     int                 `json:"row" yaml:"row"`
	Amount  decimal.NullDecimal `json:"amount" yaml:"amount"`
	Balance decimal.NullDecimal `json:"balance" yaml:"balance"`
}

// FileManifestEntry describes one source file the pipeline attempted.
// Period is the date range a parsed file covers: the declared statement
// range when the format has one, widened to every record date.
type FileManifestEntry struct {
	Path        string                   `json:"path" yaml:"path"`
	Kind        SourceKind               `json:"kind" yaml:"kind"`
	Account     Account                  `json:"account" yaml:"account"`
	Status      FileStatus               `json:"status" yaml:"status"`
	Reason      string                   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Records     int                      `json:"records" yaml:"records"`
	Period      *dateutils.DateRange     `json:"period,omitempty" yaml:"period,omitempty"`
	Diagnostics []parsererror.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Balances    []BalanceRow             `json:"-" yaml:"-"`
}

// Failed reports whether an error-severity diagnostic was recorded.
func (e FileManifestEntry) Failed() bool {
	for _, d := range e.Diagnostics {
		if d.Severity == parsererror.SeverityError {
			return true
		}
	}
	return false
}

// Covers reports whether the file's period contains both dates.
func (e FileManifestEntry) Covers(from, to time.Time) bool {
	return e.Period != nil && e.Period.Contains(from) && e.Period.Contains(to)
}
