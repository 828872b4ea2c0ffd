package config

// DeployerConfig is the top-level configuration structure for deployer.
type DeployerConfig struct {
	LogLevel     string             `yaml:"logLevel,omitempty"`
	LogFormat    string             `yaml:"logFormat,omitempty"`
	Metrics      MetricsConfig      `yaml:"metrics,omitempty"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator,omitempty"`

	// ComponentTypes is the type catalog of the in-process runtime.
	ComponentTypes []ComponentTypeConfig `yaml:"componentTypes,omitempty"`
	// Packages lists the names an Import directive may load.
	Packages []string `yaml:"packages,omitempty"`
	// Services lists the names a Service/Plugin field may load.
	Services []string `yaml:"services,omitempty"`
	// Variables are available to deployment document templates.
	Variables map[string]any `yaml:"variables,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Address string `yaml:"address,omitempty"`
}

const (
	// FanOutAll connects every reader of a label to every writer.
	FanOutAll = "all"
	// FanOutSingleWriter rejects labels with more than one writer.
	FanOutSingleWriter = "single-writer"
)

// OrchestratorConfig selects the connection resolution policies.
type OrchestratorConfig struct {
	FanOut                  string `yaml:"fanOut,omitempty"`
	ScopeConnectionsToGroup bool   `yaml:"scopeConnectionsToGroup,omitempty"`
}

// ComponentTypeConfig describes one instantiable component type.
type ComponentTypeConfig struct {
	Name           string         `yaml:"name"`
	Package        string         `yaml:"package,omitempty"`
	Ports          []PortConfig   `yaml:"ports,omitempty"`
	Properties     map[string]any `yaml:"properties,omitempty"`
	Operations     []string       `yaml:"operations,omitempty"`
	NeedsConfigure bool           `yaml:"needsConfigure,omitempty"`
}

// PortConfig declares a port of a component type.
type PortConfig struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"`
}

const (
	PortDirectionInput  = "input"
	PortDirectionOutput = "output"
)
