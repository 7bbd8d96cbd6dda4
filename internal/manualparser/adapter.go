package manualparser

import (
	"context"
	"strings"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
)

// Delimiters accepted for manual entry tables.
var Delimiters = []rune{',', ';', '\t'}

// Parser implements parser.Parser for manual entry tables.
type Parser struct {
	parser.BaseParser
	accounts *common.AccountTable
}

// NewAdapter creates a manual entry parser. accounts resolves free-form
// account names and may be nil.
func NewAdapter(logger logging.Logger, accounts *common.AccountTable) *Parser {
	return &Parser{
		BaseParser: parser.NewBaseParser("manual", logger),
		accounts:   accounts,
	}
}

// Kind implements parser.Parser.
func (p *Parser) Kind() models.SourceKind {
	return models.SourceManualEntry
}

// Parse implements parser.Parser.
func (p *Parser) Parse(ctx context.Context, src parser.Source) parser.ParseOutcome {
	out, ok := p.Begin(ctx, src)
	if !ok {
		return out
	}

	table, err := common.LoadTable(src.Path, Delimiters)
	if err != nil {
		return p.Fail(src, err)
	}
	if err := parser.RequireColumns(src.Path, synonyms, table.Header, "date", "description", "amount", "account"); err != nil {
		return p.Fail(src, err)
	}
	rows, err := common.ReadRows[ManualRow](table, synonyms, p.GetLogger())
	if err != nil {
		return p.Fail(src, err)
	}

	for i, row := range rows {
		if strings.TrimSpace(row.Date+row.Description+row.Amount) == "" {
			continue
		}
		out.Records = append(out.Records, p.convertRow(&out, src, i+1, row))
	}
	return p.Finish(src, out)
}
