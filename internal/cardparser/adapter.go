package cardparser

import (
	"context"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
)

// Parser implements parser.Parser for structured card exports.
type Parser struct {
	parser.BaseParser
}

// NewAdapter creates a card export parser.
func NewAdapter(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser("card", logger)}
}

// Kind implements parser.Parser.
func (p *Parser) Kind() models.SourceKind {
	return models.SourceCardExport
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
	if err := parser.RequireColumns(src.Path, synonyms, table.Header, "date", "amount"); err != nil {
		return p.Fail(src, err)
	}

	rows, err := common.ReadRows[CardRow](table, synonyms, p.GetLogger())
	if err != nil {
		return p.Fail(src, err)
	}

	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		out.Records = append(out.Records, p.convertRow(&out, src, i+1, row))
	}
	return p.Finish(src, out)
}
