package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// newVersionCmd prints the version injected at build time together with the
// Go toolchain and platform, which is what bug reports usually need.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of deployer",
		Long:  `Print the deployer version, the Go version it was built with and the platform.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version := rootCmd.Version
			if version == "" {
				version = "unknown"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deployer version %s (%s %s/%s)\n",
				version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
