package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"deployer/internal/config"
	"deployer/internal/orchestrator"
	"deployer/pkg/logging"
)

// runDeployment kick-starts every document in order and blocks until
// SIGINT, SIGTERM or ctx cancellation, then kicks everything out again.
//
// The metrics server, when configured, runs next to the deployment; if it
// fails the deployment is torn down. Under systemd the service manager is
// told when the deployment is up and when it is being stopped.
func runDeployment(ctx context.Context, cfg *Config, services *Services) error {
	if len(cfg.Documents) == 0 {
		return fmt.Errorf("no deployment documents given")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if services.MetricsServer != nil {
		g.Go(func() error {
			return services.MetricsServer.Serve(gctx)
		})
	}

	orch := services.Orchestrator
	runErr := kickStartAll(gctx, cfg, services)
	if runErr == nil {
		fmt.Fprint(cfg.Out, services.Formatter.FormatStatus(orch.Status()))
		fmt.Fprint(cfg.Out, services.Formatter.FormatConnections(orch.Connections()))

		notifySystemd(daemon.SdNotifyReady)
		logging.Info("CLI", "Deployment is up. Press Ctrl+C to tear it down and exit.")
		if err := orch.WaitForInterrupt(gctx); err != nil && ctx.Err() == nil {
			runErr = err
		}
		notifySystemd(daemon.SdNotifyStopping)
	}

	logging.Info("CLI", "--- Kicking out all components ---")
	if err := orch.KickOutAll(context.WithoutCancel(ctx)); err != nil {
		logging.Error("CLI", err, "Teardown was incomplete")
		runErr = errors.Join(runErr, err)
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		runErr = errors.Join(runErr, fmt.Errorf("metrics server: %w", err))
	}
	return runErr
}

// kickStartAll stops at the first document that fails.
func kickStartAll(ctx context.Context, cfg *Config, services *Services) error {
	for _, doc := range cfg.Documents {
		if _, err := services.Orchestrator.KickStart(ctx, doc); err != nil {
			printConfigurationErrors(cfg, services, err)
			return fmt.Errorf("failed to deploy %s: %w", doc, err)
		}
	}
	return nil
}

// runCheck loads and configures the documents, prints what it found and
// unloads everything again. Nothing is started.
func runCheck(ctx context.Context, cfg *Config, services *Services) error {
	if len(cfg.Documents) == 0 {
		return fmt.Errorf("no deployment documents given")
	}

	orch := services.Orchestrator
	var invalid []string
	for _, doc := range cfg.Documents {
		group, err := orch.LoadComponents(ctx, doc)
		if err == nil {
			err = orch.ConfigureGroup(ctx, group)
		}
		if err != nil {
			logging.Error("Check", err, "%s is invalid", doc)
			printConfigurationErrors(cfg, services, err)
			invalid = append(invalid, doc)
		}
	}

	fmt.Fprint(cfg.Out, services.Formatter.FormatStatus(orch.Status()))
	fmt.Fprint(cfg.Out, services.Formatter.FormatConnections(orch.Connections()))

	if err := orch.KickOutAll(ctx); err != nil {
		logging.Warn("Check", "Unloading after check failed: %v", err)
	}

	if len(invalid) > 0 {
		return fmt.Errorf("%w: %d of %d document(s) invalid: %v", orchestrator.ErrInvalidConfiguration, len(invalid), len(cfg.Documents), invalid)
	}
	logging.Info("Check", "All %d document(s) are valid", len(cfg.Documents))
	return nil
}

func printConfigurationErrors(cfg *Config, services *Services, err error) {
	var coll *config.ConfigurationErrorCollection
	if errors.As(err, &coll) {
		fmt.Fprint(cfg.Out, services.Formatter.FormatErrors(coll))
	}
}

func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("CLI", "Failed to notify systemd (%s): %v", state, err)
		return
	}
	if sent {
		logging.Debug("CLI", "Notified systemd: %s", state)
	}
}
