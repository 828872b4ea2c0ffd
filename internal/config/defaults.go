package config

const (
	// DefaultLogLevel is used when neither the file nor the environment set one.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the human readable handler.
	DefaultLogFormat = "text"
)

// GetDefaultConfig returns the default configuration: text logging at info,
// metrics disabled, full fan-out and table-wide connection resolution.
func GetDefaultConfig() DeployerConfig {
	return DeployerConfig{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Orchestrator: OrchestratorConfig{
			FanOut: FanOutAll,
		},
	}
}
