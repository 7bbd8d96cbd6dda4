// Package manualparser reads hand-maintained entry tables. Each row names
// its own account and may carry a category, which wins over the rules.
package manualparser

import (
	"strings"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
)

// ManualRow is one entry line after header mapping.
type ManualRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Account     string `csv:"account"`
	Category    string `csv:"category"`
	Subcategory string `csv:"subcategory"`
	Source      string `csv:"source"`
}

var synonyms = common.HeaderSynonyms{
	"date":        parser.Columns["date"],
	"description": parser.Columns["description"],
	"amount":      parser.Columns["amount"],
	"account":     parser.Columns["account"],
	"category":    parser.Columns["category"],
	"subcategory": parser.Columns["subcategory"],
	"source":      parser.Columns["source"],
}

// resolveAccount reads the account column: a canonical account name or
// alias first, then the file-name pattern table, then the file's own
// account.
func (p *Parser) resolveAccount(value string, fallback models.Account) models.Account {
	if account := models.ParseAccount(value); account.IsKnown() {
		return account
	}
	if strings.TrimSpace(value) != "" && p.accounts != nil {
		if account := p.accounts.Detect(value); account.IsKnown() {
			return account
		}
	}
	return fallback
}

func (p *Parser) convertRow(out *parser.ParseOutcome, src parser.Source, n int, row ManualRow) models.RawTransaction {
	rec := p.NewRecord(src, n)
	rec.Date = p.ReadDate(out, src, n, row.Date)
	rec.DescriptionOriginal = strings.TrimSpace(row.Description)
	rec.Amount = p.ReadAmount(out, src, n, "amount", row.Amount)
	rec.Account = p.resolveAccount(row.Account, src.Account)
	rec.SeedCategory = strings.TrimSpace(row.Category)
	rec.SeedSubcategory = strings.TrimSpace(row.Subcategory)
	rec.DocumentRef = strings.TrimSpace(row.Source)
	return rec
}
