package ofxparser

import (
	"context"
	"fmt"
	"os"
	"time"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
	"fjacquet/finledger/internal/parsererror"
)

// Parser implements parser.Parser for markup statements.
type Parser struct {
	parser.BaseParser
}

// NewAdapter creates a markup statement parser.
func NewAdapter(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser("ofx", logger)}
}

// Kind implements parser.Parser.
func (p *Parser) Kind() models.SourceKind {
	return models.SourceMarkup
}

// Parse implements parser.Parser.
func (p *Parser) Parse(ctx context.Context, src parser.Source) parser.ParseOutcome {
	out, ok := p.Begin(ctx, src)
	if !ok {
		return out
	}

	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return p.Fail(src, fmt.Errorf("error reading file: %w", err))
	}
	declared := DeclaredCharset(raw)
	content := common.DecodeText(raw, declared)
	p.GetLogger().Debug("Decoded markup statement",
		logging.F(logging.FieldFile, src.Path),
		logging.F("charset", declared))

	if !ofxRootRe.MatchString(content) {
		return p.Fail(src, &parsererror.InvalidFormatError{
			FilePath:             src.Path,
			ExpectedFormat:       "OFX statement",
			ActualContentSnippet: snippet(content),
			Msg:                  "no <OFX> element",
		})
	}

	var blocks []Block
	if IsXML(content) {
		blocks, err = ReadXML(content)
		if err != nil {
			p.GetLogger().WithError(err).Debug("XML statement is not well formed, scanning tags instead",
				logging.F(logging.FieldFile, src.Path))
			blocks = ScanSGML(content)
		}
	} else {
		blocks = ScanSGML(content)
	}

	if src.Account == models.AccountUnknown && IsChecking(content) {
		src.Account = models.AccountChecking
		out.Account = models.AccountChecking
	}
	out.Declared = p.readStatementRange(src, content)

	for i, b := range blocks {
		n := i + 1
		rec := p.NewRecord(src, n)
		rec.Date = p.readPosted(&out, src, n, b.Posted)
		rec.Amount = p.ReadAmount(&out, src, n, "TRNAMT", b.Amount)
		rec.DescriptionOriginal = b.Description()
		rec.DocumentRef = b.FITID
		out.Records = append(out.Records, rec)
	}
	return p.Finish(src, out)
}

// readPosted parses a DTPOSTED timestamp, keeping only the day.
func (p *Parser) readPosted(out *parser.ParseOutcome, src parser.Source, row int, value string) time.Time {
	date, err := dateutils.ParseCompactDate(value)
	if err != nil {
		p.Warn(out, src, p.CoercionError(row, "DTPOSTED", value, err))
		return time.Time{}
	}
	return date
}

// readStatementRange parses the declared statement period. A missing or
// unreadable bound leaves the range to the record dates.
func (p *Parser) readStatementRange(src parser.Source, content string) dateutils.DateRange {
	startValue, endValue := StatementRange(content)
	start, errStart := dateutils.ParseCompactDate(startValue)
	end, errEnd := dateutils.ParseCompactDate(endValue)
	if errStart != nil || errEnd != nil || end.Before(start) {
		p.GetLogger().Debug("No usable statement period",
			logging.F(logging.FieldFile, src.Path),
			logging.F("dtstart", startValue),
			logging.F("dtend", endValue))
		return dateutils.DateRange{}
	}
	return dateutils.DateRange{Start: start, End: end}
}

func snippet(content string) string {
	if len(content) > 80 {
		return content[:80]
	}
	return content
}
