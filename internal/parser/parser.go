// Package parser defines the contract shared by every source-format parser
// and the format sniffing that routes a discovered file to one of them.
package parser

import (
	"context"

	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parsererror"
)

// Source describes one file to parse together with the provenance derived
// from its name.
type Source struct {
	Path    string
	Kind    models.SourceKind
	Account models.Account
	// Invoice is set for credit card exports whose name carries a month.
	Invoice *models.InvoicePeriod
}

// ParseOutcome is the result of parsing one file. A file that could not be
// read at all has no records and an error-severity diagnostic; rows with
// unreadable values are kept with missing sentinels and a warning each.
type ParseOutcome struct {
	Records     []models.RawTransaction
	Diagnostics []parsererror.Diagnostic
	// Balances lists running-balance rows in file order, for formats that
	// carry one. Balance-only lines appear here but not in Records.
	Balances []models.BalanceRow
	// Account is the account the parser settled on when the file name did
	// not identify one; AccountUnknown otherwise.
	Account models.Account
	// Declared is the statement period stated inside the file, if any.
	Declared dateutils.DateRange
}

// Period returns the declared range widened to every record date.
func (o ParseOutcome) Period() dateutils.DateRange {
	r := o.Declared
	for _, rec := range o.Records {
		r = r.Include(rec.Date)
	}
	return r
}

// Failed reports whether the whole file was rejected.
func (o ParseOutcome) Failed() bool {
	for _, d := range o.Diagnostics {
		if d.Severity == parsererror.SeverityError {
			return true
		}
	}
	return false
}

// Parser reads one source format. Implementations never panic past Parse
// and never return an error: every failure is a diagnostic.
type Parser interface {
	Kind() models.SourceKind
	Parse(ctx context.Context, src Source) ParseOutcome
}
