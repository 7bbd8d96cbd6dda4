// Package parsererror holds the typed errors produced while reading source
// files and the Diagnostic value the pipeline records instead of failing.
package parsererror

import (
	"errors"
	"fmt"
)

// ParseError represents a single value that could not be coerced.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Row    int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: failed to parse %s='%s': %v",
			e.Parser, e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a configuration or document validation failure
type ValidationError struct {
	FilePath string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.FilePath, e.Reason)
}

// InvalidFormatError represents an error where the input file does not conform
// to the expected format for a specific parser.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// DataExtractionError represents an error where required data could not be
// extracted from a file even though the format itself was recognised.
type DataExtractionError struct {
	FilePath  string
	FieldName string
	Reason    string
	Err       error
}

func (e *DataExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data extraction failed in file '%s' for field '%s': %s: %v",
			e.FilePath, e.FieldName, e.Reason, e.Err)
	}
	return fmt.Sprintf("data extraction failed in file '%s' for field '%s': %s",
		e.FilePath, e.FieldName, e.Reason)
}

func (e *DataExtractionError) Unwrap() error {
	return e.Err
}

// Severity of a Diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a non-fatal problem recorded while reading a source file.
// An error-severity diagnostic means the whole file produced no records.
type Diagnostic struct {
	File     string   `json:"file" yaml:"file"`
	Kind     string   `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Row      int      `json:"row,omitempty" yaml:"row,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	if d.Row > 0 {
		return fmt.Sprintf("%s [%s] %s row %d: %s", d.Severity, d.Kind, d.File, d.Row, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Kind, d.File, d.Message)
}

// FromError builds a Diagnostic from err, picking up the row number and a
// kind label when err wraps one of the typed errors in this package.
func FromError(file string, severity Severity, err error) Diagnostic {
	d := Diagnostic{File: file, Kind: "io", Severity: severity, Message: err.Error()}

	var pe *ParseError
	var fe *InvalidFormatError
	var de *DataExtractionError
	switch {
	case errors.As(err, &pe):
		d.Kind = "coercion"
		d.Row = pe.Row
	case errors.As(err, &fe):
		d.Kind = "format"
	case errors.As(err, &de):
		d.Kind = "extraction"
	}
	return d
}
