/*
PURPOSE:
  Defines the core data structures used throughout Chart Runner.
  These models represent per-image inference records and the artifacts
  of an ensemble run directory.

REQUIREMENTS:
  User-specified:
  - One record per chart image: image name + raw model answer.
  - Run directory artifacts: predictions, metrics, config.

  Implementation-discovered:
  - Need JSON tags matching the downstream ensemble tool exactly.
  - Inference failures must stay distinguishable from answers internally,
    but serialize to the legacy "Error: ..." string on disk.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/output, internal/preddir
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Do not add fields the ensemble tool does not read.

USAGE:
  rec := model.ImageRecord{Imagename: "a.png", Answer: "x\ty"}

RELATED FILES:
  - internal/output/checkpoint.go
  - internal/preddir/preddir.go

MAINTENANCE:
  - Update when the ensemble tool's file formats change.
*/

package model

import "fmt"

// ImageRecord is one processed image and its raw model output. This is the
// unit of the driver's checkpoint file; immutable once written.
type ImageRecord struct {
	Imagename string `json:"imagename"`
	Answer    string `json:"answer"`
}

// Outcome is the tagged result of a single inference call. The legacy file
// format has no structured error field, so Err is folded into the answer
// string only at the serialization boundary.
type Outcome struct {
	Answer string
	Err    error
}

// OK reports whether the inference call succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Record converts an outcome to its on-disk record form. Failures keep the
// "Error: <message>" convention the downstream consumers detect by prefix.
func (o Outcome) Record(imagename string) ImageRecord {
	answer := o.Answer
	if o.Err != nil {
		answer = fmt.Sprintf("Error: %s", o.Err)
	}
	return ImageRecord{Imagename: imagename, Answer: answer}
}

// PredictionOut is one element of a run directory's predictions.json.
// Token counts are always zero: the source format does not carry them.
type PredictionOut struct {
	Image        string `json:"image"`
	Answer       string `json:"answer"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// RunMetrics is the run directory's metrics.json. The builder only knows row
// counts; per-image failures are the driver's concern, so NumFailed stays 0.
type RunMetrics struct {
	NumImages         int `json:"num_images"`
	NumProcessed      int `json:"num_processed"`
	NumFailed         int `json:"num_failed"`
	TotalInputTokens  int `json:"total_input_tokens"`
	TotalOutputTokens int `json:"total_output_tokens"`
}

// RunConfig is the run directory's config.yaml payload.
type RunConfig struct {
	InputImagesDir string
	Model          string
	Temperature    float64
}
