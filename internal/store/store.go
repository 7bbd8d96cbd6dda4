// Package store loads and saves the user-editable YAML documents: category
// rules, subcategory rules, budget metadata, renames, balance overrides and
// recurring items.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fjacquet/finledger/internal/fileutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
)

// DocumentFiles names each document file. Relative names are resolved by
// FindConfigFile.
type DocumentFiles struct {
	Rules            string
	Budget           string
	Renames          string
	Subcategories    string
	BalanceOverrides string
	Recurring        string
}

// DefaultDocumentFiles returns the conventional file names.
func DefaultDocumentFiles() DocumentFiles {
	return DocumentFiles{
		Rules:            "rules.yaml",
		Budget:           "budget.yaml",
		Renames:          "renames.yaml",
		Subcategories:    "subcategories.yaml",
		BalanceOverrides: "balance_overrides.yaml",
		Recurring:        "recurring.yaml",
	}
}

// DocumentLoader is what the pipeline needs from a store.
type DocumentLoader interface {
	LoadAll() Documents
}

// Store manages the configuration documents of one pipeline run. It is not
// safe for concurrent mutation; each run builds its own.
type Store struct {
	dir    string
	files  DocumentFiles
	logger logging.Logger
}

// NewStore creates a store resolving relative document names against dir
// first. Empty names in files fall back to DefaultDocumentFiles.
func NewStore(dir string, files DocumentFiles, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	def := DefaultDocumentFiles()
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return &Store{
		dir: dir,
		files: DocumentFiles{
			Rules:            pick(files.Rules, def.Rules),
			Budget:           pick(files.Budget, def.Budget),
			Renames:          pick(files.Renames, def.Renames),
			Subcategories:    pick(files.Subcategories, def.Subcategories),
			BalanceOverrides: pick(files.BalanceOverrides, def.BalanceOverrides),
			Recurring:        pick(files.Recurring, def.Recurring),
		},
		logger: logger.WithField(logging.FieldComponent, "store"),
	}
}

// FindConfigFile looks for a document in standard locations: the store
// directory, the working directory, ./config, ./database and
// ~/.config/finledger.
func (s *Store) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	var locations []string
	if s.dir != "" {
		locations = append(locations, filepath.Join(s.dir, filename))
	}
	locations = append(locations,
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	)
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "finledger", filename))
	}

	for _, location := range locations {
		if fileutils.FileExists(location) {
			return location, nil
		}
	}

	return "", os.ErrNotExist
}

// writePath is where a document is saved: its existing location, or the
// store directory for a new document.
func (s *Store) writePath(filename string) string {
	if path, err := s.FindConfigFile(filename); err == nil {
		return path
	}
	if filepath.IsAbs(filename) || s.dir == "" {
		return filename
	}
	return filepath.Join(s.dir, filename)
}

// readDocument unmarshals filename into out. It reports false, after
// logging a warning, when the document is missing or corrupt; out is then
// left as the caller initialized it.
func (s *Store) readDocument(document, filename string, out interface{}) bool {
	log := s.logger.WithFields(logging.F(logging.FieldDocument, document), logging.F(logging.FieldFile, filename))

	path, err := s.FindConfigFile(filename)
	if err != nil {
		log.Warn("Configuration document not found, using empty configuration")
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Warn("Failed to read configuration document, using empty configuration")
		return false
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		log.WithError(err).Warn("Corrupt configuration document, using empty configuration")
		return false
	}

	log.Debug("Loaded configuration document", logging.F(logging.FieldFile, path))
	return true
}

func (s *Store) writeDocument(document, filename string, in interface{}) error {
	path := s.writePath(filename)

	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("error marshaling %s document: %w", document, err)
	}

	if err := fileutils.WriteFile(path, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error writing %s document: %w", document, err)
	}

	s.logger.Debug("Saved configuration document",
		logging.F(logging.FieldDocument, document), logging.F(logging.FieldFile, path))
	return nil
}

// LoadAll loads every document once. Missing or corrupt documents
// contribute empty configuration.
func (s *Store) LoadAll() Documents {
	return Documents{
		Rules:            s.LoadRules(),
		SubcategoryRules: s.LoadSubcategoryRules(),
		Budget:           s.LoadBudget(),
		Renames:          s.LoadRenames(),
		BalanceOverrides: s.LoadBalanceOverrides(),
		Recurring:        s.LoadRecurring(),
	}
}

// AddRule validates rule and appends it to the rule document.
func (s *Store) AddRule(rule models.CategoryRule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}
	rules := s.LoadRules()
	for _, existing := range rules {
		if existing.Keyword == rule.Keyword && existing.Category == rule.Category &&
			existing.Subcategory == rule.Subcategory {
			return errors.New("an identical rule already exists")
		}
	}
	return s.SaveRules(append(rules, rule))
}
