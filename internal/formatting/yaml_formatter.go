package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"deployer/internal/config"
	"deployer/internal/orchestrator"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) *YAMLFormatter {
	return &YAMLFormatter{
		options: options,
	}
}

func (f *YAMLFormatter) FormatStatus(components []orchestrator.ComponentInfo) string {
	return f.marshal(struct {
		Components []componentView `yaml:"components"`
		Count      int             `yaml:"count"`
	}{componentViews(components), len(components)})
}

func (f *YAMLFormatter) FormatConnections(connections []orchestrator.ConnectionInfo) string {
	return f.marshal(struct {
		Connections []connectionView `yaml:"connections"`
		Count       int              `yaml:"count"`
	}{connectionViews(connections), len(connections)})
}

func (f *YAMLFormatter) FormatErrors(errs *config.ConfigurationErrorCollection) string {
	views := errorViews(errs)
	return f.marshal(struct {
		Errors []errorView `yaml:"errors"`
		Count  int         `yaml:"count"`
	}{views, len(views)})
}

func (f *YAMLFormatter) marshal(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %q\n", err.Error())
	}
	return string(out)
}
