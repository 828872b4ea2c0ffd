package app

import (
	"io"

	"deployer/internal/config"
	"deployer/internal/formatting"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of the settings file.
	Debug bool

	// Silent discards all log output.
	Silent bool

	// ConfigPath is the directory holding config.yaml. Empty means
	// ~/.config/deployer.
	ConfigPath string

	// Documents are the deployment documents, in load order.
	Documents []string

	// Variables override the template variables of the settings file.
	Variables map[string]string

	// MetricsAddr overrides metrics.address of the settings file.
	MetricsAddr string

	// Output selects how status and errors are printed.
	Output formatting.OutputFormat
	Color  bool

	// Out receives the formatted tables, LogOutput the log. Both default to
	// the standard streams.
	Out       io.Writer
	LogOutput io.Writer

	// Settings is filled in by NewApplication.
	Settings *config.DeployerConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, silent bool, configPath string, documents []string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
		Documents:  documents,
		Output:     formatting.FormatTable,
	}
}
