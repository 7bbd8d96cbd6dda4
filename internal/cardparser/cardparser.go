// Package cardparser reads structured credit card exports: delimited
// tables whose separator and column names vary between export versions.
package cardparser

import (
	"strings"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
)

// CardRow is one line of a card export after header mapping.
type CardRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
}

// Delimiters are the separators card exports have been seen with.
var Delimiters = []rune{',', ';'}

var synonyms = common.HeaderSynonyms{
	"date":        parser.Columns["date"],
	"description": parser.Columns["description"],
	"amount":      parser.Columns["amount"],
}

func isBlank(row CardRow) bool {
	return strings.TrimSpace(row.Date) == "" &&
		strings.TrimSpace(row.Description) == "" &&
		strings.TrimSpace(row.Amount) == ""
}

// convertRow builds the record for the 1-based data row n.
func (p *Parser) convertRow(out *parser.ParseOutcome, src parser.Source, n int, row CardRow) models.RawTransaction {
	rec := p.NewRecord(src, n)
	rec.Date = p.ReadDate(out, src, n, row.Date)
	rec.DescriptionOriginal = strings.TrimSpace(row.Description)
	rec.Amount = p.ReadAmount(out, src, n, "amount", row.Amount)
	return rec
}
