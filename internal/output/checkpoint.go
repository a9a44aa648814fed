/*
PURPOSE:
  Resumable checkpoint file for the batch inference driver.
  Records are appended as JSON Lines during a run, then normalized into a
  single pretty-printed JSON array once the run completes.

REQUIREMENTS:
  User-specified:
  - A crash after N images must leave exactly N complete records on disk.
  - The same path doubles as final result and resumption state.

  Implementation-discovered:
  - Prior state can be in either shape: a JSON array (previous run finished
    and was normalized) or JSON Lines (previous run was interrupted).
  - Sync after every record is the durability boundary, not an optimization.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.ImageRecord

ERROR HANDLING:
  - Returns error on file creation or write failure.
  - Unreadable or corrupt prior state loads as empty (work is redone, not
    aborted); a malformed trailing line is treated as a torn write and
    records before it are kept.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder for the line form.
  - File.Sync() after each Append.
  - Normalization disables HTML escaping so answers survive byte-for-byte.

USAGE:
  prior := output.LoadRecords(path)
  cp, err := output.NewCheckpoint(path, prior)
  cp.Append(rec)
  cp.Close()
  err = output.Normalize(path)

RELATED FILES:
  - internal/model/types.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update if the ensemble tool ever reads the line form directly.
*/

package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"sync"

	"github.com/thomasbw/chart-runner/internal/model"
)

// Checkpoint appends one JSON line per record and syncs after each write.
type Checkpoint struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// LoadRecords reads prior progress from path. Both the normalized array form
// and the in-progress line form are accepted. A missing, unreadable or
// corrupt file yields no records; already-finished images are then redone
// rather than failing the run.
func LoadRecords(path string) []model.ImageRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var records []model.ImageRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records
	}

	records = nil
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec model.ImageRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// Torn write from an interrupted run; keep what parsed.
			break
		}
		records = append(records, rec)
	}
	return records
}

// NewCheckpoint opens path for the line-form phase of a run. prior records
// are replayed as lines first so the on-disk shape is uniform before any
// appends happen (the array form cannot be appended to).
func NewCheckpoint(path string, prior []model.ImageRecord) (*Checkpoint, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	cp := &Checkpoint{
		file:    f,
		encoder: json.NewEncoder(f),
	}
	cp.encoder.SetEscapeHTML(false)

	for _, rec := range prior {
		if err := cp.encoder.Encode(rec); err != nil {
			f.Close()
			return nil, err
		}
	}
	if len(prior) > 0 {
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return cp, nil
}

// Append writes a single record as a JSON line and syncs the file before
// returning. It is thread-safe.
func (cp *Checkpoint) Append(rec model.ImageRecord) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if err := cp.encoder.Encode(rec); err != nil {
		return err
	}
	return cp.file.Sync()
}

// Close closes the underlying file.
func (cp *Checkpoint) Close() error {
	return cp.file.Close()
}

// Normalize rewrites the line-form file at path as a single pretty-printed
// JSON array. Not incremental; the file is assumed to fit in memory.
func Normalize(path string) error {
	records := LoadRecords(path)
	if records == nil {
		records = []model.ImageRecord{}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return err
	}
	return f.Sync()
}
