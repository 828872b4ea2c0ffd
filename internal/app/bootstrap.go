package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"deployer/internal/config"
	"deployer/pkg/logging"
)

// Application bootstraps and runs deployer.
//
// Initialization happens in two phases:
//  1. Bootstrap: load settings, initialize logging, set up services
//  2. Execution: Run deploys the documents, Check only validates them
//
// Example usage:
//
//	cfg := app.NewConfig(false, false, "", []string{"deploy.yaml"})
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads the settings from cfg.ConfigPath, configures logging
// and initializes all services. The --debug flag wins over the log level of
// the settings file.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	logOutput := cfg.LogOutput
	if logOutput == nil {
		logOutput = os.Stderr
	}
	if cfg.Silent {
		logOutput = io.Discard
	}

	bootLevel := logging.LevelInfo
	if cfg.Debug {
		bootLevel = logging.LevelDebug
	}
	logging.InitForCLI(bootLevel, logOutput)

	configPath := cfg.ConfigPath
	if configPath == "" {
		var err error
		if configPath, err = config.GetDefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	settings, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load settings from %s", configPath)
		return nil, fmt.Errorf("failed to load settings from %s: %w", configPath, err)
	}
	for k, v := range cfg.Variables {
		if settings.Variables == nil {
			settings.Variables = make(map[string]any)
		}
		settings.Variables[k] = v
	}
	if cfg.MetricsAddr != "" {
		settings.Metrics.Address = cfg.MetricsAddr
	}
	cfg.Settings = &settings

	level := logging.ParseLevel(settings.LogLevel)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitWithFormat(level, settings.LogFormat, logOutput)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run deploys every document and blocks until interrupted, then tears the
// deployment down again.
func (a *Application) Run(ctx context.Context) error {
	return runDeployment(ctx, a.config, a.services)
}

// Check loads and configures every document without starting anything and
// reports the problems found.
func (a *Application) Check(ctx context.Context) error {
	return runCheck(ctx, a.config, a.services)
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}
