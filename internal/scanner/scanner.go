// Package scanner discovers the source files of a run and tags each with
// its format, account and invoice period.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/fileutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
	"fjacquet/finledger/internal/parsererror"
)

// Options controls discovery.
type Options struct {
	Extensions []string
	Recursive  bool
	// Exclude lists files never treated as sources, such as the run's own
	// CSV ledger output.
	Exclude []string
}

// Result is what a scan found. Problems are paths that could not be
// examined; they are reported in the manifest as failed.
type Result struct {
	Sources  []parser.Source
	Problems []models.FileManifestEntry
}

// SourceScanner walks a source directory.
type SourceScanner struct {
	logger   logging.Logger
	opts     Options
	accounts *common.AccountTable
	calendar *common.InvoiceCalendar
}

// NewSourceScanner creates a scanner.
func NewSourceScanner(opts Options, accounts *common.AccountTable, calendar *common.InvoiceCalendar, logger logging.Logger) *SourceScanner {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &SourceScanner{
		logger:   logger.WithField(logging.FieldComponent, "scanner"),
		opts:     opts,
		accounts: accounts,
		calendar: calendar,
	}
}

// Scan lists the source files under dir in path order. Only a failure to
// read dir itself is returned as an error.
func (s *SourceScanner) Scan(dir string) (*Result, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", root)
	}

	excluded := map[string]bool{}
	for _, e := range s.opts.Exclude {
		if abs, err := filepath.Abs(e); err == nil {
			excluded[abs] = true
		}
	}

	result := &Result{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			s.logger.WithError(walkErr).Warn("Error walking path", logging.F(logging.FieldFile, path))
			result.Problems = append(result.Problems, models.FileManifestEntry{
				Path:        path,
				Status:      models.FileFailed,
				Diagnostics: []parsererror.Diagnostic{parsererror.FromError(path, parsererror.SeverityError, walkErr)},
			})
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && !s.opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded[path] || !fileutils.HasExtension(path, s.opts.Extensions) {
			return nil
		}
		if src, ok := s.describe(path); ok {
			result.Sources = append(result.Sources, src)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", root, err)
	}

	sort.Slice(result.Sources, func(i, j int) bool { return result.Sources[i].Path < result.Sources[j].Path })
	s.logger.Info("Discovered source files",
		logging.F(logging.FieldFile, root),
		logging.F(logging.FieldCount, len(result.Sources)))
	return result, nil
}

// describe tags one file. Files no parser handles are ignored.
func (s *SourceScanner) describe(path string) (parser.Source, bool) {
	kind, ok := parser.DetectKind(path)
	if !ok {
		s.logger.Debug("Ignoring file with unsupported format", logging.F(logging.FieldFile, path))
		return parser.Source{}, false
	}
	src := parser.Source{Path: path, Kind: kind}
	if s.accounts != nil {
		src.Account = s.accounts.Detect(path)
	}
	if s.calendar != nil {
		src.Invoice = s.calendar.Period(path, src.Account)
	}
	s.logger.Debug("Discovered source file",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldKind, string(kind)),
		logging.F(logging.FieldAccount, src.Account.String()))
	return src, true
}
