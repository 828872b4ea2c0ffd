package formatting

import (
	"deployer/internal/config"
	"deployer/internal/orchestrator"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) *JSONFormatter {
	return &JSONFormatter{
		options: options,
	}
}

func (f *JSONFormatter) FormatStatus(components []orchestrator.ComponentInfo) string {
	return PrettyJSON(map[string]any{
		"components": componentViews(components),
		"count":      len(components),
	})
}

func (f *JSONFormatter) FormatConnections(connections []orchestrator.ConnectionInfo) string {
	return PrettyJSON(map[string]any{
		"connections": connectionViews(connections),
		"count":       len(connections),
	})
}

func (f *JSONFormatter) FormatErrors(errs *config.ConfigurationErrorCollection) string {
	views := errorViews(errs)
	return PrettyJSON(map[string]any{
		"errors": views,
		"count":  len(views),
	})
}
