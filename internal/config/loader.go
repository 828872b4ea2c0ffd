package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"deployer/pkg/logging"
)

const (
	userConfigDir  = ".config/deployer"
	configFileName = "config.yaml"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/deployer.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// envOverrides holds the variables that take precedence over config.yaml.
// Empty values leave the file setting untouched.
type envOverrides struct {
	LogLevel         string `env:"DEPLOYER_LOG_LEVEL"`
	LogFormat        string `env:"DEPLOYER_LOG_FORMAT"`
	MetricsAddr      string `env:"DEPLOYER_METRICS_ADDR"`
	FanOut           string `env:"DEPLOYER_FANOUT"`
	ScopeConnections string `env:"DEPLOYER_SCOPE_CONNECTIONS"`
}

// LoadConfig loads config.yaml from configPath, applies environment
// overrides and validates the result.
func LoadConfig(configPath string) (DeployerConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("Settings", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		logging.Error("Settings", err, "Error loading config.yaml from %s", configFilePath)
		return DeployerConfig{}, err
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return DeployerConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("Settings", "Loaded configuration from %s", configFilePath)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return DeployerConfig{}, err
	}
	if err := Validate(config); err != nil {
		return DeployerConfig{}, FormatValidationError("settings", configFilePath, err)
	}
	return config, nil
}

func applyEnvOverrides(config *DeployerConfig) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if overrides.LogLevel != "" {
		config.LogLevel = overrides.LogLevel
	}
	if overrides.LogFormat != "" {
		config.LogFormat = overrides.LogFormat
	}
	if overrides.MetricsAddr != "" {
		config.Metrics.Address = overrides.MetricsAddr
	}
	if overrides.FanOut != "" {
		config.Orchestrator.FanOut = overrides.FanOut
	}
	if overrides.ScopeConnections != "" {
		scope, err := strconv.ParseBool(overrides.ScopeConnections)
		if err != nil {
			return fmt.Errorf("DEPLOYER_SCOPE_CONNECTIONS: %w", err)
		}
		config.Orchestrator.ScopeConnectionsToGroup = scope
	}
	return nil
}

// Validate checks every setting and returns all problems as ValidationErrors.
func Validate(config DeployerConfig) error {
	var errs ValidationErrors

	if err := ValidateOneOf("logLevel", strings.ToLower(config.LogLevel), []string{"debug", "info", "warn", "error"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateOneOf("logFormat", config.LogFormat, []string{"text", "json"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateListenAddress("metrics.address", config.Metrics.Address); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateOneOf("orchestrator.fanOut", config.Orchestrator.FanOut, []string{FanOutAll, FanOutSingleWriter}); err != nil {
		errs = append(errs, err.(ValidationError))
	}

	seen := make(map[string]bool)
	for i, ct := range config.ComponentTypes {
		field := fmt.Sprintf("componentTypes[%d]", i)
		if err := ValidateEntityName(ct.Name, "component type"); err != nil {
			errs.Add(field+".name", err.Error(), ct.Name)
			continue
		}
		if seen[ct.Name] {
			errs.Add(field+".name", "duplicate component type", ct.Name)
		}
		seen[ct.Name] = true

		ports := make(map[string]bool)
		for j, p := range ct.Ports {
			pfield := fmt.Sprintf("%s.ports[%d]", field, j)
			if err := ValidateRequired(pfield+".name", p.Name, "port"); err != nil {
				errs = append(errs, err.(ValidationError))
			}
			if ports[p.Name] {
				errs.Add(pfield+".name", "duplicate port", p.Name)
			}
			ports[p.Name] = true
			if err := ValidateOneOf(pfield+".direction", p.Direction, []string{PortDirectionInput, PortDirectionOutput}); err != nil {
				errs = append(errs, err.(ValidationError))
			}
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
