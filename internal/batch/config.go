package batch

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/MeKo-Tech/printkit/internal/barcode"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// Formats lists the output formats in display order.
var Formats = []string{FormatText, FormatJSON, FormatCSV, FormatYAML}

// DefaultIncludePatterns selects code list files during directory discovery.
var DefaultIncludePatterns = []string{"*.txt", "*.csv"}

// Config holds all configuration for batch encoding.
type Config struct {
	Symbology barcode.Format

	// Workers bounds concurrent encodes; <= 0 means GOMAXPROCS.
	Workers int

	// ContinueOnError records failed items instead of aborting on the first.
	ContinueOnError bool

	// WarnMismatch logs a warning when a supplied check digit is wrong.
	WarnMismatch bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// DefaultConfig returns the configuration used by the CLI and server.
func DefaultConfig() Config {
	return Config{
		Symbology:       barcode.FormatEAN13,
		Workers:         runtime.GOMAXPROCS(0),
		ContinueOnError: true,
		WarnMismatch:    true,
		IncludePatterns: DefaultIncludePatterns,
	}
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// ValidateFormat reports whether format is a known output format.
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(Formats, ", "))
}
