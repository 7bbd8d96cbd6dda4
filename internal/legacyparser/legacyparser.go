// Package legacyparser reads the spreadsheet exports kept from before the
// structured exports existed. The category columns are carried as seeds
// and win over rule-based categorization.
package legacyparser

import (
	"strings"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
)

// LegacyRow is one spreadsheet line after header mapping.
type LegacyRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Account     string `csv:"account"`
	Category    string `csv:"category"`
	Subcategory string `csv:"subcategory"`
}

var synonyms = common.HeaderSynonyms{
	"date":        parser.Columns["date"],
	"description": parser.Columns["description"],
	"amount":      parser.Columns["amount"],
	"account":     parser.Columns["account"],
	"category":    parser.Columns["category"],
	"subcategory": parser.Columns["subcategory"],
}

func (r LegacyRow) blank() bool {
	return strings.TrimSpace(r.Date+r.Description+r.Amount) == ""
}

func (p *Parser) convertRow(out *parser.ParseOutcome, src parser.Source, n int, row LegacyRow) models.RawTransaction {
	rec := p.NewRecord(src, n)
	rec.Date = p.ReadDate(out, src, n, row.Date)
	rec.DescriptionOriginal = strings.TrimSpace(row.Description)
	rec.Amount = p.ReadAmount(out, src, n, "amount", row.Amount)
	if account := models.ParseAccount(row.Account); account.IsKnown() {
		rec.Account = account
	}
	rec.SeedCategory = strings.TrimSpace(row.Category)
	rec.SeedSubcategory = strings.TrimSpace(row.Subcategory)
	return rec
}
