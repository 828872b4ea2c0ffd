package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check DOCUMENT...",
		Short: "Validate documents without starting anything",
		Long: `Loads and configures every document, prints the configuration errors
found together with the resulting components and connections, and unloads
everything again. No component is started.

Exits with code 2 when a document is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(cmd, args)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return application.Check(ctx)
		},
	}
}
