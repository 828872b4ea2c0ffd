// Package logging provides the subsystem-scoped logger used across the
// deployer.
//
// The package wraps Go's standard slog package behind a small printf-style
// API. Every entry carries a subsystem name so that the output of the loader,
// the connection resolver and each lifecycle phase can be filtered apart.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: Phase progress and per-component results
//   - **Warn**: Skipped components, deprecated fields, one-sided streams
//   - **Error**: Per-component failures; one entry per failing component
//
// # Usage Examples
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Loader", "Loaded %d components from %s", n, path)
//	logging.Warn("Configure", "Component %s is already running, skipping", name)
//	logging.Error("Start", err, "Could not start component %s", name)
//
// # Output Modes
//
// InitWithFormat selects the text or JSON slog handler. InitForCapture
// delivers LogEntry values to a channel instead, which lets callers that need
// per-component detail (tests, the check command) inspect the individual
// failures behind an aggregate phase error.
//
// # Subsystem Organization
//
//   - **Bootstrap**: Application initialization and startup
//   - **Settings**: Deployer settings file and environment overrides
//   - **Loader**: Deployment document parsing and component instantiation
//   - **Resolver**: Connection table resolution
//   - **Configure**, **Start**, **Stop**, **Cleanup**, **Unload**: lifecycle phases
//   - **Activity**: Activity creation and attachment
//   - **Runtime**: The in-process component runtime
//
// # Thread Safety
//
// Initialization and logging calls are safe for concurrent use.
package logging
