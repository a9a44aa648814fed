/*
PURPOSE:
  Defines the root Cobra command for the Chart Runner CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/chart-runner/main.go
  - Calls: Child commands (infer, make-pred-dir, models, prompts)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands.

USAGE:
  Called by main.go.

RELATED FILES:
  - cmd/chart-runner/main.go

MAINTENANCE:
  - Update when adding new global configuration options.
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/thomasbw/chart-runner/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "chart-runner",
		Short: "Batch chart-to-table inference and ensemble run packaging",
		Long: `Drives resumable batch inference over a directory of chart images
against a model-serving API, and packages prediction files into run
directories consumed by the ensemble pipeline. Use 'infer --help' or
'make-pred-dir --help' for details.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.Configure(verbose)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./chart_runner.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
