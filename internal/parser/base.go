package parser

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/currencyutils"
	"fjacquet/finledger/internal/dateutils"

	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parsererror"
)

// BaseParser provides the logging and outcome bookkeeping shared by the
// format parsers, which embed it:
//
//	type Parser struct {
//		parser.BaseParser
//	}
type BaseParser struct {
	name   string
	logger logging.Logger
}

// NewBaseParser creates a BaseParser. A nil logger discards output.
func NewBaseParser(name string, logger logging.Logger) BaseParser {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return BaseParser{
		name:   name,
		logger: logger.WithField(logging.FieldParser, name),
	}
}

// Name returns the parser name used in logs and errors.
func (b *BaseParser) Name() string {
	return b.name
}

// GetLogger returns the parser's logger.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// SetLogger replaces the logger; nil is ignored.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger.WithField(logging.FieldParser, b.name)
	}
}

// Begin logs the start of a file and reports a cancelled context as a
// failed outcome.
func (b *BaseParser) Begin(ctx context.Context, src Source) (ParseOutcome, bool) {
	b.logger.Debug("Parsing source file",
		logging.F(logging.FieldFile, src.Path),
		logging.F(logging.FieldAccount, src.Account.String()))
	if err := ctx.Err(); err != nil {
		return b.Fail(src, err), false
	}
	return ParseOutcome{}, true
}

// Fail returns an outcome rejecting the whole file.
func (b *BaseParser) Fail(src Source, err error) ParseOutcome {
	b.logger.WithError(err).Warn("Source file could not be parsed", logging.F(logging.FieldFile, src.Path))
	return ParseOutcome{
		Diagnostics: []parsererror.Diagnostic{parsererror.FromError(src.Path, parsererror.SeverityError, err)},
	}
}

// Warn records a row-level problem on outcome.
func (b *BaseParser) Warn(outcome *ParseOutcome, src Source, err error) {
	d := parsererror.FromError(src.Path, parsererror.SeverityWarning, err)
	b.logger.Debug("Row value could not be read",
		logging.F(logging.FieldFile, src.Path),
		logging.F(logging.FieldRow, d.Row),
		logging.F(logging.FieldReason, d.Message))
	outcome.Diagnostics = append(outcome.Diagnostics, d)
}

// CoercionError builds the ParseError for a value at row.
func (b *BaseParser) CoercionError(row int, field, value string, err error) error {
	return &parsererror.ParseError{Parser: b.name, Field: field, Value: value, Row: row, Err: err}
}

// NewRecord returns a record carrying the provenance of src.
func (b *BaseParser) NewRecord(src Source, row int) models.RawTransaction {
	return models.RawTransaction{
		Account:    src.Account,
		SourceFile: src.Path,
		SourceKind: src.Kind,
		Row:        row,
		Invoice:    src.Invoice,
	}
}

// Finish logs the outcome summary and returns it.
func (b *BaseParser) Finish(src Source, outcome ParseOutcome) ParseOutcome {
	b.logger.Info("Parsed source file",
		logging.F(logging.FieldFile, src.Path),
		logging.F(logging.FieldCount, len(outcome.Records)),
		logging.F("warnings", len(outcome.Diagnostics)))
	return outcome
}

// ReadDate parses a day-first date. An unreadable value yields the zero
// date and a warning on outcome.
func (b *BaseParser) ReadDate(outcome *ParseOutcome, src Source, row int, value string) time.Time {
	date, err := dateutils.ParseDate(value)
	if err != nil {
		b.Warn(outcome, src, b.CoercionError(row, "date", value, err))
		return time.Time{}
	}
	return date
}

// ReadAmount parses a locale formatted amount. An unreadable value yields
// an invalid NullDecimal and a warning on outcome.
func (b *BaseParser) ReadAmount(outcome *ParseOutcome, src Source, row int, field, value string) decimal.NullDecimal {
	amount, err := currencyutils.ParseNullAmount(value)
	if err != nil {
		b.Warn(outcome, src, b.CoercionError(row, field, value, err))
	}
	return amount
}
