package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"deployer/internal/app"
	"deployer/internal/config"
	"deployer/internal/formatting"
	"deployer/internal/orchestrator"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeInvalidDeployment indicates a document that could not be
	// loaded or configured.
	ExitCodeInvalidDeployment = 2
)

// Global flags shared by run and check.
var (
	configPath   string
	debug        bool
	silent       bool
	outputFormat string
	noColor      bool
	variables    map[string]string
)

// rootCmd represents the base command for the deployer application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "deployer",
	Short: "Deploy component networks described in YAML documents",
	Long: `deployer loads components from deployment documents, connects their
ports, configures and starts them, and tears everything down again in reverse
order on exit.

Every document given opens a new load group, so later documents may refer to
components of earlier ones.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "deployer version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode separates broken deployments from other failures so scripts
// can tell them apart.
func getExitCode(err error) int {
	var collection *config.ConfigurationErrorCollection
	if errors.As(err, &collection) {
		return ExitCodeInvalidDeployment
	}

	var phaseErr *orchestrator.PhaseError
	if errors.As(err, &phaseErr) || errors.Is(err, orchestrator.ErrInvalidConfiguration) {
		return ExitCodeInvalidDeployment
	}

	return ExitCodeError
}

// newApplication builds the application from the global flags.
func newApplication(cmd *cobra.Command, documents []string, opts ...func(*app.Config)) (*app.Application, error) {
	cfg := app.NewConfig(debug, silent, configPath, documents)
	cfg.Output = formatting.OutputFormat(outputFormat)
	cfg.Color = !noColor
	cfg.Variables = variables
	cfg.Out = cmd.OutOrStdout()
	for _, opt := range opts {
		opt(cfg)
	}
	return app.NewApplication(cfg)
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCheckCmd())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config-path", "", "Directory holding config.yaml (default $HOME/.config/deployer)")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&silent, "silent", false, "Discard all log output")
	flags.StringVarP(&outputFormat, "output", "o", string(formatting.FormatTable), "Output format (table, json, yaml)")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored table output")
	flags.StringToStringVar(&variables, "var", nil, "Template variable for deployment documents (key=value, repeatable)")
}
