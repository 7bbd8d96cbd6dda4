package textparser

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/currencyutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
	"fjacquet/finledger/internal/parsererror"
)

// Parser implements parser.Parser for plain-text statements.
type Parser struct {
	parser.BaseParser
}

// NewAdapter creates a text statement parser.
func NewAdapter(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser("text", logger)}
}

// Kind implements parser.Parser.
func (p *Parser) Kind() models.SourceKind {
	return models.SourceTextStmt
}

// Parse implements parser.Parser. A line with a balance but no amount is
// an opening or closing balance: it is kept for balance reconciliation
// and produces no record. Text statements come from the bank, so a file
// whose name matches no account belongs to checking.
func (p *Parser) Parse(ctx context.Context, src parser.Source) parser.ParseOutcome {
	out, ok := p.Begin(ctx, src)
	if !ok {
		return out
	}
	if src.Account == models.AccountUnknown {
		src.Account = models.AccountChecking
		out.Account = models.AccountChecking
	}

	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return p.Fail(src, fmt.Errorf("error reading file: %w", err))
	}
	content := common.DecodeText(raw, "")
	delimiter := SniffDelimiter(content)
	lines := SplitLines(content, delimiter)
	if len(lines) == 0 {
		return p.Fail(src, &parsererror.DataExtractionError{
			FilePath:  src.Path,
			FieldName: "date",
			Reason:    "no line starts with a date",
		})
	}
	p.GetLogger().Debug("Split text statement",
		logging.F(logging.FieldFile, src.Path),
		logging.F(logging.FieldDelimiter, string(delimiter)),
		logging.F(logging.FieldCount, len(lines)))

	for _, line := range lines {
		balance := p.readBalance(&out, src, line)
		if line.Field(colAmount) == "" && balance.Valid {
			out.Balances = append(out.Balances, models.BalanceRow{Row: line.Row, Balance: balance})
			continue
		}

		rec := p.NewRecord(src, line.Row)
		rec.Date = p.ReadDate(&out, src, line.Row, line.Field(colDate))
		rec.DescriptionOriginal = line.Field(colDescription)
		rec.DocumentRef = line.Field(colDocument)
		rec.Amount = p.ReadAmount(&out, src, line.Row, "amount", line.Field(colAmount))
		rec.Balance = balance
		out.Records = append(out.Records, rec)
		out.Balances = append(out.Balances, models.BalanceRow{Row: line.Row, Amount: rec.Amount, Balance: balance})
	}
	return p.Finish(src, out)
}

// readBalance parses the optional balance column. An absent column is not
// a problem; an unreadable one is.
func (p *Parser) readBalance(out *parser.ParseOutcome, src parser.Source, line Line) decimal.NullDecimal {
	value := line.Field(colBalance)
	if value == "" {
		return decimal.NullDecimal{}
	}
	balance, err := currencyutils.ParseNullAmount(value)
	if err != nil {
		p.Warn(out, src, p.CoercionError(line.Row, "balance", value, err))
	}
	return balance
}
