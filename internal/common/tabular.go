package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/parsererror"
	"fjacquet/finledger/internal/textutils"
)

// HeaderSynonyms maps a canonical column name (the csv tag used by a row
// struct) to the header spellings found across export versions. Matching
// is accent and case insensitive.
type HeaderSynonyms map[string][]string

// Canonical returns the canonical column for a raw header cell.
func (h HeaderSynonyms) Canonical(header string) (string, bool) {
	normalized := textutils.Normalize(strings.Trim(header, "\"' "))
	for canonical, synonyms := range h {
		if normalized == textutils.Normalize(canonical) {
			return canonical, true
		}
		for _, s := range synonyms {
			if normalized == textutils.Normalize(s) {
				return canonical, true
			}
		}
	}
	return "", false
}

// Has reports whether the header row contains a column for canonical.
func (h HeaderSynonyms) Has(header []string, canonical string) bool {
	for _, cell := range header {
		if c, ok := h.Canonical(cell); ok && c == canonical {
			return true
		}
	}
	return false
}

// SniffDelimiter picks the candidate occurring most often outside quotes in
// line. Ties go to the earlier candidate.
func SniffDelimiter(line string, candidates []rune) rune {
	best, bestCount := candidates[0], -1
	for _, c := range candidates {
		count, inQuotes := 0, false
		for _, r := range line {
			switch {
			case r == '"':
				inQuotes = !inQuotes
			case r == c && !inQuotes:
				count++
			}
		}
		if count > bestCount {
			best, bestCount = c, count
		}
	}
	return best
}

// headerReader rewrites the first record to canonical column names so that
// gocsv can bind renamed or reordered export columns to one row struct.
type headerReader struct {
	inner    *csv.Reader
	synonyms HeaderSynonyms
	seenHead bool
}

// NewHeaderReader returns a gocsv.CSVReader over in using delimiter.
func NewHeaderReader(in io.Reader, delimiter rune, synonyms HeaderSynonyms) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return &headerReader{inner: r, synonyms: synonyms}
}

func (h *headerReader) rewrite(record []string) []string {
	out := make([]string, len(record))
	used := map[string]bool{}
	for i, cell := range record {
		canonical, ok := h.synonyms.Canonical(cell)
		if !ok || used[canonical] {
			// keep unknown or repeated columns out of the way of the struct tags
			out[i] = fmt.Sprintf("_unmapped_%d", i)
			continue
		}
		used[canonical] = true
		out[i] = canonical
	}
	return out
}

func (h *headerReader) Read() ([]string, error) {
	record, err := h.inner.Read()
	if err != nil {
		return nil, err
	}
	if !h.seenHead {
		h.seenHead = true
		return h.rewrite(record), nil
	}
	return record, nil
}

func (h *headerReader) ReadAll() ([][]string, error) {
	var records [][]string
	for {
		record, err := h.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}

// Table is a decoded tabular file ready for gocsv.
type Table struct {
	Delimiter rune
	Header    []string
	Content   string
}

// LoadTable reads path, decodes it to UTF-8 and sniffs the delimiter from
// the first non-blank line.
func LoadTable(path string, candidates []rune) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	content := DecodeText(data, "")

	var headerLine string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			headerLine = strings.TrimRight(line, "\r")
			break
		}
	}
	if headerLine == "" {
		return nil, &parsererror.DataExtractionError{FilePath: path, FieldName: "header", Reason: "file is empty"}
	}

	delimiter := SniffDelimiter(headerLine, candidates)
	headerReader := csv.NewReader(strings.NewReader(headerLine))
	headerReader.Comma = delimiter
	headerReader.LazyQuotes = true
	headerReader.TrimLeadingSpace = true
	header, err := headerReader.Read()
	if err != nil {
		return nil, &parsererror.InvalidFormatError{FilePath: path, ExpectedFormat: "delimited table", Msg: err.Error()}
	}

	return &Table{Delimiter: delimiter, Header: header, Content: content}, nil
}

// ReadRows unmarshals the table into rows of TRow, whose csv tags are the
// canonical names of synonyms.
func ReadRows[TRow any](table *Table, synonyms HeaderSynonyms, logger logging.Logger) ([]TRow, error) {
	var rows []TRow
	reader := NewHeaderReader(bytes.NewBufferString(table.Content), table.Delimiter, synonyms)
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing table: %w", err)
	}
	logger.Debug("Read table rows",
		logging.F(logging.FieldCount, len(rows)),
		logging.F(logging.FieldDelimiter, string(table.Delimiter)))
	return rows, nil
}
