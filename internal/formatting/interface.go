// Package formatting renders deployment state for the command line.
//
// The same views are available as rich tables, JSON and YAML so the run and
// check commands can be used both interactively and from scripts.
package formatting

import (
	"fmt"

	"deployer/internal/config"
	"deployer/internal/orchestrator"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored output
}

// Formatter renders orchestrator state.
type Formatter interface {
	FormatStatus(components []orchestrator.ComponentInfo) string
	FormatConnections(connections []orchestrator.ConnectionInfo) string
	FormatErrors(errs *config.ConfigurationErrorCollection) string
}

// NewFormatter returns the formatter for options.Format.
func NewFormatter(options Options) (Formatter, error) {
	switch options.Format {
	case FormatTable, "":
		return NewTableFormatter(options), nil
	case FormatJSON:
		return NewJSONFormatter(options), nil
	case FormatYAML:
		return NewYAMLFormatter(options), nil
	default:
		return nil, fmt.Errorf("unsupported output format '%s' (valid: table, json, yaml)", options.Format)
	}
}
