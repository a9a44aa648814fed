/*
PURPOSE:
  Writes an optional per-run CSV summary for the batch inference driver.
  One row per image processed in this invocation.

REQUIREMENTS:
  User-specified:
  - Quick way to see which images failed without parsing the JSON output.

  Implementation-discovered:
  - Flush after every write, same crash-resilience rule as the checkpoint.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.ImageRecord / Outcome

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write.

USAGE:
  w, err := output.NewSummaryWriter("summary.csv")
  w.Write("a.png", outcome)
  w.Close()

RELATED FILES:
  - internal/engine/runner.go

MAINTENANCE:
  - Update header and record together.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/thomasbw/chart-runner/internal/model"
)

// SummaryWriter handles writing the per-image run summary.
type SummaryWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewSummaryWriter creates a new SummaryWriter.
// It overwrites the file if it exists.
func NewSummaryWriter(path string) (*SummaryWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	header := []string{"imagename", "status", "answer_bytes", "error"}
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &SummaryWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write records the outcome for a single image. It is thread-safe.
func (sw *SummaryWriter) Write(imagename string, o model.Outcome) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	status := "ok"
	errMsg := ""
	if !o.OK() {
		status = "error"
		errMsg = o.Err.Error()
	}

	record := []string{
		imagename,
		status,
		fmt.Sprintf("%d", len(o.Answer)),
		errMsg,
	}

	if err := sw.writer.Write(record); err != nil {
		return err
	}
	sw.writer.Flush()
	return sw.writer.Error()
}

// Close closes the underlying file.
func (sw *SummaryWriter) Close() error {
	sw.writer.Flush()
	return sw.file.Close()
}
