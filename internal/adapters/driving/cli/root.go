// Package cli is the cobra command tree of wfsget.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/opentrees/wfsget/internal/core/ports/driving"
	"github.com/opentrees/wfsget/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var verbose bool

// Services used by the commands, injected by main.
var (
	acquirer        driving.Acquirer
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "wfsget",
	Short: "Download complete datasets from WFS servers",
	Long: `wfsget downloads the full result of a WFS GetFeature query.

It negotiates the protocol version, takes a single request when the
server reports a small result, pages through large results, and merges
the pages into one GML document.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show progress and debug output")
}

// SetServices injects the driving ports the commands call.
func SetServices(a driving.Acquirer, s driving.SettingsService) {
	acquirer = a
	settingsService = s
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands pass to the
// services so an interrupt stops in-flight downloads.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
