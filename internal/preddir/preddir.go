/*
PURPOSE:
  Builds an ensemble-compatible run directory from a flat predictions file.
  Validates rows, derives a unique run name, and writes metrics.json,
  config.yaml and predictions.json.

REQUIREMENTS:
  User-specified:
  - Every row needs 'imagename' (string) and 'answer' (any type).
  - A bad row aborts the whole batch; nothing is written.
  - Never merge into or overwrite an existing run directory.

  Implementation-discovered:
  - '|' is the downstream column delimiter and must become a tab in answers.
  - Non-string answers are JSON-stringified so output is reproducible
    bit-for-bit across runs.
  - Input is a JSON array by default; a line-delimited reader is also
    exposed for callers that produce JSONL.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Consumes: internal/model

ERROR HANDLING:
  - Validation errors identify the row index and the keys present.
  - Missing input file fails before any filesystem write.
  - Pre-existing run directory fails loudly.

IMPLEMENTATION RULES:
  - Validate before creating the directory.
  - Write order: metrics.json, config.yaml, predictions.json.
  - Pretty JSON, 2-space indent, non-ASCII preserved unescaped.

USAGE:
  res, err := preddir.Build(params, time.Now())

RELATED FILES:
  - internal/preddir/name.go
  - internal/preddir/yaml.go

MAINTENANCE:
  - Keep file formats in lockstep with the ensemble tool.
*/

package preddir

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/thomasbw/chart-runner/internal/model"
)

// Row is one source prediction as read from disk, keys preserved for
// validation error messages.
type Row map[string]interface{}

// BuildParams are the inputs to one builder invocation.
type BuildParams struct {
	InputJSON      string
	OutRoot        string
	RunName        string
	InputImagesDir string
	Model          string
	Temperature    float64
	// JSONL selects the line-delimited reader instead of the JSON array one.
	JSONL bool
}

// BuildResult describes a created run directory.
type BuildResult struct {
	Dir       string
	NumImages int
	Files     []string
}

// ReadRows reads a JSON array of objects from path.
func ReadRows(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s as a JSON array of objects: %w", path, err)
	}
	return rows, nil
}

// ReadJSONLRows reads line-delimited JSON objects from path. Blank lines are
// skipped; parse errors carry the 1-based line number.
func ReadJSONLRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []Row
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	ln := 0
	for scanner.Scan() {
		ln++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row Row
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("failed to parse JSON on line %d: %w", ln, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func rowKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringifyAnswer renders a non-string answer deterministically. HTML
// escaping is off so the bytes match across runs and languages.
func stringifyAnswer(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// BuildPredictions validates and transforms source rows. Any invalid row
// aborts the whole batch.
func BuildPredictions(rows []Row) ([]model.PredictionOut, error) {
	out := make([]model.PredictionOut, 0, len(rows))
	for i, row := range rows {
		if _, ok := row["imagename"]; !ok {
			return nil, fmt.Errorf("row %d missing required key 'imagename'. Keys=%v", i, rowKeys(row))
		}
		if _, ok := row["answer"]; !ok {
			return nil, fmt.Errorf("row %d missing required key 'answer'. Keys=%v", i, rowKeys(row))
		}

		image, ok := row["imagename"].(string)
		if !ok {
			return nil, fmt.Errorf("row %d 'imagename' must be a string, got %T", i, row["imagename"])
		}

		answer, ok := row["answer"].(string)
		if !ok {
			var err error
			answer, err = stringifyAnswer(row["answer"])
			if err != nil {
				return nil, fmt.Errorf("row %d 'answer' could not be stringified: %w", i, err)
			}
		}

		out = append(out, model.PredictionOut{
			Image: image,
			// '|' is reserved as the downstream column delimiter.
			Answer: strings.ReplaceAll(answer, "|", "\t"),
		})
	}
	return out, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Build validates the input and materializes a new run directory under
// p.OutRoot. The directory is created exclusively; an existing directory of
// the same name is a hard error and is left untouched.
func Build(p BuildParams, now time.Time) (*BuildResult, error) {
	if _, err := os.Stat(p.InputJSON); err != nil {
		return nil, fmt.Errorf("input file %s: %w", p.InputJSON, err)
	}

	var rows []Row
	var err error
	if p.JSONL {
		rows, err = ReadJSONLRows(p.InputJSON)
	} else {
		rows, err = ReadRows(p.InputJSON)
	}
	if err != nil {
		return nil, err
	}

	// Validate before touching the output root: a rejected batch must
	// leave no trace on disk.
	predictions, err := BuildPredictions(rows)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.OutRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output root %s: %w", p.OutRoot, err)
	}

	name := strings.TrimSpace(p.RunName)
	if name == "" {
		name = RunName(now, p.InputImagesDir, p.Model, p.Temperature)
	}
	dir := filepath.Join(p.OutRoot, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}

	metrics := model.RunMetrics{
		NumImages:    len(predictions),
		NumProcessed: len(predictions),
	}
	runCfg := model.RunConfig{
		InputImagesDir: p.InputImagesDir,
		Model:          p.Model,
		Temperature:    p.Temperature,
	}

	if err := writeJSON(filepath.Join(dir, "metrics.json"), metrics); err != nil {
		return nil, fmt.Errorf("failed to write metrics.json: %w", err)
	}
	if err := WriteConfigYAML(filepath.Join(dir, "config.yaml"), runCfg); err != nil {
		return nil, fmt.Errorf("failed to write config.yaml: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, "predictions.json"), predictions); err != nil {
		return nil, fmt.Errorf("failed to write predictions.json: %w", err)
	}

	return &BuildResult{
		Dir:       dir,
		NumImages: len(predictions),
		Files:     []string{"metrics.json", "config.yaml", "predictions.json"},
	}, nil
}
