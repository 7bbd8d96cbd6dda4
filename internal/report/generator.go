// Package report serializes validation reports.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"fjacquet/finledger/internal/fileutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/validation"
)

// ReportGenerator renders validation reports as JSON or YAML.
type ReportGenerator struct {
	logger logging.Logger
}

// NewReportGenerator creates a new instance of ReportGenerator.
func NewReportGenerator(logger logging.Logger) *ReportGenerator {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &ReportGenerator{logger: logger.WithField(logging.FieldComponent, "report")}
}

// FormatForPath picks the report format from the file extension; anything
// other than .yaml or .yml is JSON.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return validation.FormatYAML
	}
	return validation.FormatJSON
}

// Generate renders report in the given format (json, yaml or yml).
func (g *ReportGenerator) Generate(report *models.ValidationReport, format string) ([]byte, error) {
	if err := validation.IsValidOutputFormat(format); err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case validation.FormatJSON:
		return g.generateJSONReport(report)
	default:
		return g.generateYAMLReport(report)
	}
}

func (g *ReportGenerator) generateJSONReport(report *models.ValidationReport) ([]byte, error) {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(out, '\n'), nil
}

func (g *ReportGenerator) generateYAMLReport(report *models.ValidationReport) ([]byte, error) {
	out, err := yaml.Marshal(report)
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal YAML report")
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return out, nil
}

// WriteFile renders report in the format implied by path and writes it,
// creating parent directories as needed.
func (g *ReportGenerator) WriteFile(report *models.ValidationReport, path string) error {
	data, err := g.Generate(report, FormatForPath(path))
	if err != nil {
		return err
	}
	if err := fileutils.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	g.logger.Info("Validation report written",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldStatus, string(report.Status)))
	return nil
}
