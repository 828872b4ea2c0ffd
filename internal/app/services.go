package app

import (
	"fmt"

	"deployer/internal/connection"
	"deployer/internal/formatting"
	"deployer/internal/metrics"
	"deployer/internal/orchestrator"
	"deployer/internal/runtime"
	"deployer/pkg/logging"
)

// Services holds everything the execution modes need.
//
// They are created in dependency order:
//  1. Runtime from the component type catalog
//  2. Metrics collector and, when an address is set, its HTTP server
//  3. Orchestrator observed by the collector
//  4. Formatter for the selected output format
type Services struct {
	Runtime *runtime.Runtime

	Metrics *metrics.Collector
	// MetricsServer is nil when metrics.address is empty.
	MetricsServer *metrics.Server

	Orchestrator *orchestrator.Orchestrator
	Formatter    formatting.Formatter
}

// InitializeServices creates the services from cfg.Settings.
func InitializeServices(cfg *Config) (*Services, error) {
	settings := cfg.Settings
	if settings == nil {
		return nil, fmt.Errorf("settings not loaded")
	}

	fanOut, err := connection.ParseFanOut(settings.Orchestrator.FanOut)
	if err != nil {
		return nil, err
	}

	formatter, err := formatting.NewFormatter(formatting.Options{Format: cfg.Output, Color: cfg.Color})
	if err != nil {
		return nil, err
	}

	rt := runtime.New(runtime.SpecsFromConfig(settings.ComponentTypes), runtime.Options{
		Packages: settings.Packages,
		Services: settings.Services,
	})
	logging.Debug("Services", "Runtime knows %d component type(s): %v", len(rt.Types()), rt.Types())

	collector := metrics.NewCollector()
	var server *metrics.Server
	if settings.Metrics.Address != "" {
		server = metrics.NewServer(settings.Metrics.Address, collector)
	}

	orch := orchestrator.New(orchestrator.Config{
		Runtime:                 rt,
		Observer:                collector,
		FanOut:                  fanOut,
		ScopeConnectionsToGroup: settings.Orchestrator.ScopeConnectionsToGroup,
		Variables:               settings.Variables,
	})

	return &Services{
		Runtime:       rt,
		Metrics:       collector,
		MetricsServer: server,
		Orchestrator:  orch,
		Formatter:     formatter,
	}, nil
}
