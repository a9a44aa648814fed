/*
PURPOSE:
  Defines the 'infer' subcommand.
  Runs the resumable batch inference driver.

REQUIREMENTS:
  User-specified:
  - Positional args: <image_dir> <output_json>; wrong count is a usage error.
  - Resume from a partial output file without redoing finished images.

  Implementation-discovered:
  - Need to load config first, then apply flag overrides.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails or the run fails.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Engine.Run.

USAGE:
  chart-runner infer ./charts/png preds.json

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomasbw/chart-runner/internal/config"
	"github.com/thomasbw/chart-runner/internal/engine"
)

var (
	urlOverride   string
	modelOverride string
	promptFile    string
	summaryPath   string
)

var inferCmd = &cobra.Command{
	Use:   "infer <image_dir> <output_json>",
	Short: "Run batch chart-to-table inference over a directory of images",
	Long: `Runs one finite inference pass over every chart image in <image_dir>
(.png/.jpg/.jpeg/.gif, case-insensitive), writing one record per image to
<output_json>.

The run is resumable: images already present in <output_json> are skipped,
and each new record is synced to disk before the next image starts. A
failing image is recorded as "Error: <message>" and never blocks the rest
of the batch. On completion the output file is rewritten as a single
pretty-printed JSON array.`,
	Example: `  # Run with defaults (uses chart_runner.yaml if present)
  chart-runner infer "data/ChartQA Dataset/test/png" chartqa_preds.json

  # Resume the same run after an interruption (finished images are skipped)
  chart-runner infer "data/ChartQA Dataset/test/png" chartqa_preds.json

  # Point at a different model server and keep a CSV failure summary
  chart-runner infer ./charts preds.json --url http://gpu-box:8000 --summary run_summary.csv`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// 2. Overrides
		if urlOverride != "" {
			cfg.ServerURL = urlOverride
		}
		if modelOverride != "" {
			cfg.Model = modelOverride
		}
		if promptFile != "" {
			data, err := os.ReadFile(promptFile)
			if err != nil {
				return fmt.Errorf("failed to read prompt file: %w", err)
			}
			cfg.Prompt = string(data)
		}

		// 3. Execution
		e := engine.New(cfg)
		return engine.Run(cfg, e, args[0], args[1], summaryPath)
	},
}

func init() {
	rootCmd.AddCommand(inferCmd)

	inferCmd.Flags().StringVar(&urlOverride, "url", "", "Model server base URL (overrides config)")
	inferCmd.Flags().StringVar(&modelOverride, "model", "", "Model name (overrides config)")
	inferCmd.Flags().StringVarP(&promptFile, "prompt-file", "p", "", "Path to a text file containing the prompt (overrides config)")
	inferCmd.Flags().StringVar(&summaryPath, "summary", "", "Optional CSV summary of this invocation's outcomes")
}
