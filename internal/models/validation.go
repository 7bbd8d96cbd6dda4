package models

// FindingStatus is the outcome of one validation check.
type FindingStatus string

const (
	StatusPass    FindingStatus = "PASS"
	StatusWarning FindingStatus = "WARNING"
	StatusFail    FindingStatus = "FAIL"
)

func (s FindingStatus) rank() int {
	switch s {
	case StatusFail:
		return 2
	case StatusWarning:
		return 1
	}
	return 0
}

// Worse returns the more severe of s and other.
func (s FindingStatus) Worse(other FindingStatus) FindingStatus {
	if other.rank() > s.rank() {
		return other
	}
	if s == "" {
		return StatusPass
	}
	return s
}

// ValidationFinding is the result of a single check.
type ValidationFinding struct {
	CheckName string                 `json:"check_name" yaml:"check_name"`
	Status    FindingStatus          `json:"status" yaml:"status"`
	Message   string                 `json:"message" yaml:"message"`
	Details   map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

// ReportSummary counts findings and ledger rows.
type ReportSummary struct {
	Transactions int `json:"transactions" yaml:"transactions"`
	Files        int `json:"files" yaml:"files"`
	Pass         int `json:"pass" yaml:"pass"`
	Warning      int `json:"warning" yaml:"warning"`
	Fail         int `json:"fail" yaml:"fail"`
}

// ValidationReport is the ordered checklist outcome of one pipeline run.
type ValidationReport struct {
	RunID    string              `json:"run_id" yaml:"run_id"`
	Status   FindingStatus       `json:"status" yaml:"status"`
	Summary  ReportSummary       `json:"summary" yaml:"summary"`
	Findings []ValidationFinding `json:"findings" yaml:"findings"`
}

// NewValidationReport aggregates findings: Fail dominates Warning
// dominates Pass. Findings keep their order.
func NewValidationReport(findings []ValidationFinding) *ValidationReport {
	report := &ValidationReport{Status: StatusPass, Findings: findings}
	for _, f := range findings {
		report.Status = report.Status.Worse(f.Status)
		switch f.Status {
		case StatusFail:
			report.Summary.Fail++
		case StatusWarning:
			report.Summary.Warning++
		default:
			report.Summary.Pass++
		}
	}
	return report
}

// Finding returns the finding for checkName, if present.
func (r *ValidationReport) Finding(checkName string) (ValidationFinding, bool) {
	for _, f := range r.Findings {
		if f.CheckName == checkName {
			return f, true
		}
	}
	return ValidationFinding{}, false
}
