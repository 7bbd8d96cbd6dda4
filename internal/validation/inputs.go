package validation

import (
	"fmt"
	"os"
	"strings"
)

// Report formats accepted by the report writer.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// IsValidSourceDirectory checks that path exists and is a readable
// directory.
func IsValidSourceDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking source directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path %s is not a directory", path)
	}
	return nil
}

// IsValidOutputFormat checks that format is a supported report format.
func IsValidOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, FormatYAML, "yml":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'json', 'yaml'", format)
	}
}

// IsValidFilePermissions rejects modes granting any access to others.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0o007 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600 or 0644", mode.String())
	}
	return nil
}
