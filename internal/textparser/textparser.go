// Package textparser reads plain-text bank statements: one line per
// movement with the columns date, description, document reference, amount
// and running balance, separated by tabs or semicolons. Lines that do not
// start with a date are headers or footers and are skipped.
package textparser

import (
	"regexp"
	"strings"

	"fjacquet/finledger/internal/common"
)

// Column positions of the fixed logical layout.
const (
	colDate = iota
	colDescription
	colDocument
	colAmount
	colBalance
)

// sampleLines bounds how many data lines are used to pick the delimiter.
const sampleLines = 20

var dateLedRe = regexp.MustCompile(`^\s*("?)(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}|\d{4}-\d{2}-\d{2})`)

// Line is one date-led statement line split into its columns.
type Line struct {
	Row    int
	Fields []string
}

// Field returns column i, or "" when the line is shorter.
func (l Line) Field(i int) string {
	if i < len(l.Fields) {
		return l.Fields[i]
	}
	return ""
}

// IsDataLine reports whether line starts with a date.
func IsDataLine(line string) bool {
	return dateLedRe.MatchString(line)
}

// SniffDelimiter chooses between tab and semicolon from the first data
// lines of content.
func SniffDelimiter(content string) rune {
	var sample []string
	for _, line := range strings.Split(content, "\n") {
		if IsDataLine(line) {
			sample = append(sample, line)
			if len(sample) == sampleLines {
				break
			}
		}
	}
	return common.SniffDelimiter(strings.Join(sample, "\n"), []rune{'\t', ';'})
}

// SplitLines returns the data lines of content with their 1-based data
// row numbers.
func SplitLines(content string, delimiter rune) []Line {
	var lines []Line
	for _, raw := range strings.Split(content, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if !IsDataLine(raw) {
			continue
		}
		fields := strings.Split(raw, string(delimiter))
		for i := range fields {
			fields[i] = strings.Trim(fields[i], "\"' ")
		}
		lines = append(lines, Line{Row: len(lines) + 1, Fields: fields})
	}
	return lines
}
