package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasbw/chart-runner/internal/config"
	"github.com/thomasbw/chart-runner/internal/model"
)

// fakeInferencer records which images it was asked about and can be told to
// fail specific ones.
type fakeInferencer struct {
	calls []string
	fail  map[string]error
}

func (f *fakeInferencer) Infer(imagePaths []string, prompt, convTemplate string, maxNewTokens int) (string, error) {
	name := filepath.Base(imagePaths[0])
	f.calls = append(f.calls, name)
	if err, ok := f.fail[name]; ok {
		return "", err
	}
	return "table for " + name, nil
}

func makeImageDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readRecords(t *testing.T, path string) []model.ImageRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var records []model.ImageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	return records
}

func TestDiscoverImages(t *testing.T) {
	dir := makeImageDir(t, "b.jpg", "a.png", "c.PNG", "d.gif", "e.jpeg", "notes.txt", "f.bmp")
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := DiscoverImages(dir)
	if err != nil {
		t.Fatalf("DiscoverImages() error = %v", err)
	}
	want := []string{"a.png", "b.jpg", "c.PNG", "d.gif", "e.jpeg"}
	if len(got) != len(want) {
		t.Fatalf("DiscoverImages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DiscoverImages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunProcessesAllImages(t *testing.T) {
	dir := makeImageDir(t, "a.png", "b.jpg", "c.gif")
	out := filepath.Join(t.TempDir(), "preds.json")
	inf := &fakeInferencer{}

	if err := Run(config.DefaultConfig(), inf, dir, out, ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	records := readRecords(t, out)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	seen := map[string]bool{}
	for _, rec := range records {
		if seen[rec.Imagename] {
			t.Errorf("duplicate record for %s", rec.Imagename)
		}
		seen[rec.Imagename] = true
	}
	for _, name := range []string{"a.png", "b.jpg", "c.gif"} {
		if !seen[name] {
			t.Errorf("missing record for %s", name)
		}
	}
	// Deterministic lexicographic processing order.
	wantCalls := []string{"a.png", "b.jpg", "c.gif"}
	for i, call := range inf.calls {
		if call != wantCalls[i] {
			t.Errorf("call %d = %q, want %q", i, call, wantCalls[i])
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := makeImageDir(t, "a.png", "b.png")
	out := filepath.Join(t.TempDir(), "preds.json")
	inf := &fakeInferencer{}
	cfg := config.DefaultConfig()

	if err := Run(cfg, inf, dir, out, ""); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	second := &fakeInferencer{}
	if err := Run(cfg, second, dir, out, ""); err != nil {
		t.Fatal(err)
	}
	if len(second.calls) != 0 {
		t.Errorf("second run invoked inference %d times, want 0", len(second.calls))
	}
	after, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("second run changed the output file")
	}
}

func TestRunResumesFromInterruptedLineFile(t *testing.T) {
	dir := makeImageDir(t, "a.png", "b.png", "c.png")
	out := filepath.Join(t.TempDir(), "preds.json")

	// Simulate a run killed after one image: line form, no normalization.
	interrupted := "{\"imagename\":\"a.png\",\"answer\":\"done earlier\"}\n"
	if err := os.WriteFile(out, []byte(interrupted), 0o644); err != nil {
		t.Fatal(err)
	}

	inf := &fakeInferencer{}
	if err := Run(config.DefaultConfig(), inf, dir, out, ""); err != nil {
		t.Fatal(err)
	}

	if len(inf.calls) != 2 {
		t.Errorf("resumed run invoked inference %d times, want 2", len(inf.calls))
	}
	records := readRecords(t, out)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].Imagename != "a.png" || records[0].Answer != "done earlier" {
		t.Errorf("prior record was not preserved: %+v", records[0])
	}
}

func TestRunResumesFromNormalizedArray(t *testing.T) {
	dir := makeImageDir(t, "a.png", "b.png")
	out := filepath.Join(t.TempDir(), "preds.json")
	prior := `[{"imagename": "a.png", "answer": "kept"}]`
	if err := os.WriteFile(out, []byte(prior), 0o644); err != nil {
		t.Fatal(err)
	}

	inf := &fakeInferencer{}
	if err := Run(config.DefaultConfig(), inf, dir, out, ""); err != nil {
		t.Fatal(err)
	}
	if len(inf.calls) != 1 || inf.calls[0] != "b.png" {
		t.Errorf("calls = %v, want just b.png", inf.calls)
	}
	if records := readRecords(t, out); len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestRunCorruptPriorStateIsRedone(t *testing.T) {
	dir := makeImageDir(t, "a.png", "b.png")
	out := filepath.Join(t.TempDir(), "preds.json")
	if err := os.WriteFile(out, []byte("%%% garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	inf := &fakeInferencer{}
	if err := Run(config.DefaultConfig(), inf, dir, out, ""); err != nil {
		t.Fatal(err)
	}
	if len(inf.calls) != 2 {
		t.Errorf("corrupt prior state: %d calls, want 2 (all redone)", len(inf.calls))
	}
	if records := readRecords(t, out); len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestRunIsolatesInferenceFailures(t *testing.T) {
	dir := makeImageDir(t, "a.png", "b.png", "c.png")
	out := filepath.Join(t.TempDir(), "preds.json")
	inf := &fakeInferencer{fail: map[string]error{"b.png": fmt.Errorf("CUDA out of memory")}}

	if err := Run(config.DefaultConfig(), inf, dir, out, ""); err != nil {
		t.Fatalf("Run() must not fail on a per-image error: %v", err)
	}

	records := readRecords(t, out)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	byName := map[string]string{}
	for _, rec := range records {
		byName[rec.Imagename] = rec.Answer
	}
	if byName["b.png"] != "Error: CUDA out of memory" {
		t.Errorf("failed record answer = %q, want error sentinel", byName["b.png"])
	}
	if strings.HasPrefix(byName["c.png"], "Error:") {
		t.Errorf("c.png should have succeeded, got %q", byName["c.png"])
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "preds.json")

	if err := Run(config.DefaultConfig(), &fakeInferencer{}, dir, out, ""); err != nil {
		t.Fatal(err)
	}
	if records := readRecords(t, out); len(records) != 0 {
		t.Errorf("empty directory: got %d records, want empty array", len(records))
	}
}

func TestRunMissingImageDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "preds.json")
	err := Run(config.DefaultConfig(), &fakeInferencer{}, filepath.Join(t.TempDir(), "nope"), out, "")
	if err == nil {
		t.Fatal("Run() expected error for missing image directory")
	}
}

func TestRunWritesSummary(t *testing.T) {
	dir := makeImageDir(t, "a.png", "b.png")
	tmp := t.TempDir()
	out := filepath.Join(tmp, "preds.json")
	summary := filepath.Join(tmp, "summary.csv")
	inf := &fakeInferencer{fail: map[string]error{"a.png": fmt.Errorf("boom")}}

	if err := Run(config.DefaultConfig(), inf, dir, out, summary); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(summary)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 { // header + one row per image processed this run
		t.Fatalf("summary has %d lines, want 3: %q", len(lines), string(data))
	}
	if !strings.Contains(lines[1], "a.png") || !strings.Contains(lines[1], "error") {
		t.Errorf("summary row for a.png = %q, want error status", lines[1])
	}
}
