package logging

// Field names shared by every component so that log lines from parsers,
// the reconciler and the validation engine can be filtered together.
const (
	FieldFile       = "file_path"
	FieldParser     = "parser"
	FieldKind       = "source_kind"
	FieldAccount    = "account"
	FieldCategory   = "category"
	FieldCheck      = "check"
	FieldStatus     = "status"
	FieldReason     = "reason"
	FieldCount      = "count"
	FieldRow        = "row"
	FieldDelimiter  = "delimiter"
	FieldDocument   = "document"
	FieldComponent  = "component"
	FieldDurationMs = "duration_ms"
)
