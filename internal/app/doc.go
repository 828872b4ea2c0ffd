// Package app bootstraps deployer and runs its execution modes.
//
// # Bootstrap
//
// NewApplication performs the startup sequence:
//
//  1. Logging for the bootstrap itself, at debug when --debug is set
//  2. Settings from config.yaml in the config directory, with DEPLOYER_*
//     environment overrides applied and validated
//  3. Logging re-initialized with the level and format of the settings
//  4. Services: runtime, metrics collector and server, orchestrator and
//     output formatter (see InitializeServices)
//
// # Modes
//
// Run kick-starts every document in the order given, one load group per
// document, prints the component and connection tables and waits for
// SIGINT or SIGTERM. On the way out all groups are kicked out, newest first.
// When started by systemd with Type=notify the service manager is told when
// the deployment is ready and when it is stopping.
//
// Check loads and configures the documents without starting anything,
// prints the configuration errors found and unloads everything again. It is
// meant for CI pipelines validating deployment documents.
//
// # Metrics
//
// With metrics.address set, a Prometheus endpoint serves /metrics for as
// long as Run is active. A failing endpoint tears the deployment down.
package app
