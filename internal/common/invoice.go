package common

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/models"
)

var monthNames = map[string]time.Month{
	"jan": time.January, "fev": time.February, "feb": time.February,
	"mar": time.March, "abr": time.April, "apr": time.April,
	"mai": time.May, "may": time.May, "jun": time.June, "jul": time.July,
	"ago": time.August, "aug": time.August, "set": time.September, "sep": time.September,
	"out": time.October, "oct": time.October, "nov": time.November,
	"dez": time.December, "dec": time.December,
}

type monthToken struct {
	pattern *regexp.Regexp
	// yearGroup and monthGroup index the submatches.
	yearGroup, monthGroup int
}

// Month/year tokens embedded in card export names, in precedence order:
// 2026-01, 01-2026, 012026, jan2026.
var monthTokens = []monthToken{
	{regexp.MustCompile(`(?:^|[^0-9])(20\d{2})[-_.]?(0[1-9]|1[0-2])(?:[^0-9]|$)`), 1, 2},
	{regexp.MustCompile(`(?:^|[^0-9])(0[1-9]|1[0-2])[-_.]?(20\d{2})(?:[^0-9]|$)`), 2, 1},
	{regexp.MustCompile(`(?i)(?:^|[^a-z])(jan|fev|feb|mar|abr|apr|mai|may|jun|jul|ago|aug|set|sep|out|oct|nov|dez|dec)[a-z]*[-_ .]?(20\d{2})(?:[^0-9]|$)`), 2, 1},
}

// InvoiceCalendar computes invoice periods for credit card exports.
type InvoiceCalendar struct {
	cycles map[models.Account]config.CardCycle
}

// NewInvoiceCalendar builds a calendar from the configured card cycles.
func NewInvoiceCalendar(cfg *config.Config) *InvoiceCalendar {
	cal := &InvoiceCalendar{cycles: map[models.Account]config.CardCycle{}}
	for _, account := range models.AllAccounts {
		if cycle, ok := cfg.CardCycleFor(account); ok {
			cal.cycles[account] = cycle
		}
	}
	return cal
}

// ExtractMonth finds the invoice month token in a file name.
func ExtractMonth(path string) (year int, month time.Month, ok bool) {
	base := filepath.Base(path)
	for _, tok := range monthTokens {
		m := tok.pattern.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		y, err := strconv.Atoi(m[tok.yearGroup])
		if err != nil {
			continue
		}
		raw := strings.ToLower(m[tok.monthGroup])
		if named, found := monthNames[raw]; found {
			return y, named, true
		}
		mm, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		return y, time.Month(mm), true
	}
	return 0, 0, false
}

// Period returns the invoice period of a credit card export named path:
// due on the card's due day of the named month, closed on its close day of
// the previous month. Non-card accounts and names without a month token
// have no period.
func (c *InvoiceCalendar) Period(path string, account models.Account) *models.InvoicePeriod {
	if !account.IsCreditCard() {
		return nil
	}
	cycle, ok := c.cycles[account]
	if !ok {
		return nil
	}
	year, month, ok := ExtractMonth(path)
	if !ok {
		return nil
	}
	due := dateutils.DayInMonth(year, month, cycle.DueDay)
	prev := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	closeDate := dateutils.DayInMonth(prev.Year(), prev.Month(), cycle.CloseDay)
	return &models.InvoicePeriod{CloseDate: closeDate, DueDate: due}
}
