/*
PURPOSE:
  Defines the 'make-pred-dir' subcommand.
  Packages a flat predictions file into a new ensemble run directory.

REQUIREMENTS:
  User-specified:
  - Flags mirror the established pipeline interface: --input_json,
    --out_root, --run_name, --input_images_dir, --model, --temperature.
  - Must fail loudly (non-zero) on validation or filesystem errors.

  Implementation-discovered:
  - --jsonl selects the line-delimited reader for callers that never
    normalized their output.

ARCHITECTURE INTEGRATION:
  - Calls: internal/preddir.Build()

ERROR HANDLING:
  - Validation errors identify the offending row; nothing is written.

IMPLEMENTATION RULES:
  - Print the created path and a manifest of written files on success.

USAGE:
  chart-runner make-pred-dir --input_json chartqa_preds.json --model TinyChart

RELATED FILES:
  - internal/preddir/preddir.go

MAINTENANCE:
  - Keep flag names stable; pipeline scripts depend on them.
*/

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thomasbw/chart-runner/internal/config"
	"github.com/thomasbw/chart-runner/internal/preddir"
)

var (
	inputJSON      string
	outRoot        string
	runName        string
	inputImagesDir string
	modelName      string
	temperature    float64
	inputJSONL     bool
)

var makePredCmd = &cobra.Command{
	Use:   "make-pred-dir",
	Short: "Create an ensemble-compatible run directory from a predictions file",
	Long: `Validates a predictions file (a JSON array of {imagename, answer}
objects) and writes a new run directory containing predictions.json,
metrics.json and config.yaml under --out_root.

The directory name is derived from the current time, the images directory,
the model name and the temperature, unless --run_name overrides it. An
existing directory of the same name is an error; runs are never merged.`,
	Example: `  chart-runner make-pred-dir \
    --input_json chartqa_preds.json \
    --input_images_dir "data/ChartQA Dataset/test/png" \
    --model TinyChart \
    --temperature 0.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if outRoot == "" {
			outRoot = cfg.OutRoot
		}

		res, err := preddir.Build(preddir.BuildParams{
			InputJSON:      inputJSON,
			OutRoot:        outRoot,
			RunName:        runName,
			InputImagesDir: inputImagesDir,
			Model:          modelName,
			Temperature:    temperature,
			JSONL:          inputJSONL,
		}, time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("Created: %s\n", res.Dir)
		fmt.Printf("- metrics.json (%d images)\n", res.NumImages)
		fmt.Printf("- config.yaml\n")
		fmt.Printf("- predictions.json\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(makePredCmd)

	makePredCmd.Flags().StringVar(&inputJSON, "input_json", "", "Path to source predictions JSON (e.g., chartqa_preds.json)")
	makePredCmd.Flags().StringVar(&outRoot, "out_root", "", "Root directory where the new run directory is created (default from config)")
	makePredCmd.Flags().StringVar(&runName, "run_name", "", "Optional run folder name; derived from timestamp and parameters if empty")
	makePredCmd.Flags().StringVar(&inputImagesDir, "input_images_dir", "data/ChartQA Dataset/test/png", "Value written into config.yaml as input_images_dir")
	makePredCmd.Flags().StringVar(&modelName, "model", "TinyChart", "Value written into config.yaml as model")
	makePredCmd.Flags().Float64Var(&temperature, "temperature", 0.0, "Value written into config.yaml as temperature")
	makePredCmd.Flags().BoolVar(&inputJSONL, "jsonl", false, "Treat --input_json as line-delimited JSON")
	makePredCmd.MarkFlagRequired("input_json")
}
