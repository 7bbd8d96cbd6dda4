// Package common provides functionality shared by the source parsers:
// filename conventions, invoice periods, tabular decoding and CSV export.
package common

import (
	"fmt"
	"path/filepath"
	"regexp"

	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/models"
)

type accountRule struct {
	pattern *regexp.Regexp
	account models.Account
}

// AccountTable resolves the account a source file belongs to from its file
// name. Patterns are tried in order and the first match wins.
type AccountTable struct {
	rules []accountRule
}

// NewAccountTable compiles the configured patterns.
func NewAccountTable(patterns []config.AccountPattern) (*AccountTable, error) {
	table := &AccountTable{}
	for i, p := range patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("account pattern %d %q: %w", i, p.Pattern, err)
		}
		account := models.ParseAccount(p.Account)
		if !account.IsKnown() {
			return nil, fmt.Errorf("account pattern %d: unknown account %q", i, p.Account)
		}
		table.rules = append(table.rules, accountRule{pattern: re, account: account})
	}
	return table, nil
}

// Detect returns the account for path, or AccountUnknown.
func (t *AccountTable) Detect(path string) models.Account {
	base := filepath.Base(path)
	for _, r := range t.rules {
		if r.pattern.MatchString(base) {
			return r.account
		}
	}
	return models.AccountUnknown
}
