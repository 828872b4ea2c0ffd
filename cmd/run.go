package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"deployer/internal/app"
)

func newRunCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "run DOCUMENT...",
		Short: "Deploy documents and keep them running until interrupted",
		Long: `Loads, configures and starts every document in the order given, one
load group per document. The first document that fails stops the deployment
and everything loaded so far is torn down again.

Once all documents are up, deployer prints the components and connections and
waits for SIGINT or SIGTERM. It then stops, cleans up and unloads all groups,
newest first.

Examples:
  deployer run base.yaml sensors.yaml
  deployer run --var site=lab -o json deploy.yaml
  deployer run --metrics-addr :9464 deploy.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(cmd, args, func(cfg *app.Config) {
				cfg.MetricsAddr = metricsAddr
			})
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return application.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.address)")
	return cmd
}
