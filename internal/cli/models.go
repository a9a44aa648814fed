/*
PURPOSE:
  Defines the 'models' subcommand.
  Helps debug connectivity and model availability before a long batch run.

REQUIREMENTS:
  User-specified:
  - List models reported by the target server.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Models()

ERROR HANDLING:
  - Prints error if the server is unreachable.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  chart-runner models --url http://gpu-box:8000

RELATED FILES:
  - internal/engine/client.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thomasbw/chart-runner/internal/config"
	"github.com/thomasbw/chart-runner/internal/engine"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the target server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if urlOverride != "" {
			cfg.ServerURL = urlOverride
		}

		e := engine.New(cfg)

		fmt.Printf("Querying %s...\n", cfg.ServerURL)
		models, err := e.Models()
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Printf("- %s\n", m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&urlOverride, "url", "", "Model server base URL")
}
