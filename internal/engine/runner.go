/*
PURPOSE:
  High-level driver that orchestrates one batch inference pass.
  Discovers chart images, reconciles against prior progress, and invokes
  the model once per remaining image.

REQUIREMENTS:
  User-specified:
  - Resumable: images already present in the output file are skipped.
  - One failing image must never block the rest of the batch.
  - Each record hits disk before the next image starts.

  Implementation-discovered:
  - Prior progress may be a normalized array or an interrupted line file;
    both feed the done set.
  - Needs to report per-image progress to the CLI.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/model, internal/output

ERROR HANDLING:
  - Inference errors are recorded inline and logged, never fatal.
  - Checkpoint write errors are fatal: the durability guarantee is gone.

IMPLEMENTATION RULES:
  - Reconcile: load prior state, compute set difference, process only the
    difference.
  - Strictly sequential; one image at a time.

USAGE:
  err := engine.Run(cfg, engine.New(cfg), imageDir, outputPath, "")

RELATED FILES:
  - internal/engine/client.go
  - internal/output/checkpoint.go

MAINTENANCE:
  - Update extension set if the ensemble tool accepts new image types.
*/

package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thomasbw/chart-runner/internal/config"
	"github.com/thomasbw/chart-runner/internal/model"
	"github.com/thomasbw/chart-runner/internal/output"
)

// Inferencer is the single capability the driver needs from a model backend.
type Inferencer interface {
	Infer(imagePaths []string, prompt, convTemplate string, maxNewTokens int) (string, error)
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// DiscoverImages lists the chart image files in dir, lexicographically
// sorted. Only regular files with a recognized extension count.
func DiscoverImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Run executes one finite batch inference pass over imageDir, writing
// records to outputPath. summaryPath, when non-empty, additionally gets a
// per-image CSV summary for this invocation.
func Run(cfg *config.Config, inf Inferencer, imageDir, outputPath, summaryPath string) error {
	images, err := DiscoverImages(imageDir)
	if err != nil {
		return err
	}

	// Reconciliation: prior records define the done set; the checkpoint is
	// rewritten in line form so appends land on a uniform shape.
	prior := output.LoadRecords(outputPath)
	done := make(map[string]bool, len(prior))
	for _, rec := range prior {
		if rec.Imagename != "" {
			done[rec.Imagename] = true
		}
	}

	cp, err := output.NewCheckpoint(outputPath, prior)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint %s: %w", outputPath, err)
	}
	defer cp.Close()

	var summary *output.SummaryWriter
	if summaryPath != "" {
		summary, err = output.NewSummaryWriter(summaryPath)
		if err != nil {
			return fmt.Errorf("failed to init summary writer at %s: %w", summaryPath, err)
		}
		defer summary.Close()
	}

	output.Logger.Info("Starting batch", "dir", imageDir, "images", len(images), "already_done", len(done))

	processed := 0
	failed := 0
	for _, name := range images {
		if done[name] {
			output.Logger.Debug("Skipping image (already done)", "image", name)
			continue
		}

		answer, err := inf.Infer(
			[]string{filepath.Join(imageDir, name)},
			cfg.Prompt,
			cfg.ConversationTemplate,
			cfg.MaxNewTokens,
		)
		outcome := model.Outcome{Answer: answer, Err: err}
		if err != nil {
			// Record and continue; one bad image must not sink the batch.
			output.Logger.Error("Inference failed", "image", name, "error", err)
			failed++
		} else {
			output.Logger.Info("Processed image", "image", name, "answer_bytes", len(answer))
		}

		if err := cp.Append(outcome.Record(name)); err != nil {
			return fmt.Errorf("failed to write record for %s: %w", name, err)
		}
		if summary != nil {
			if err := summary.Write(name, outcome); err != nil {
				output.Logger.Error("Failed to write summary row", "image", name, "error", err)
			}
		}
		processed++
	}

	if err := cp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := output.Normalize(outputPath); err != nil {
		return fmt.Errorf("failed to normalize %s: %w", outputPath, err)
	}

	output.Logger.Info("Batch complete",
		"processed", processed,
		"skipped", len(done),
		"failed", failed,
		"output", outputPath,
	)
	return nil
}
