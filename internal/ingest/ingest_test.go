package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hackiado/eikyu/internal/cube"
)

func setupRepo(t *testing.T) (repoRoot, cubePath string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("write a.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("world"), 0644); err != nil {
		t.Fatalf("write b.txt: %v", err)
	}
	return dir, filepath.Join(t.TempDir(), "a.cube")
}

// S5 — two files ingested, re-ingest is a no-op, editing one file produces
// exactly one new record.
func TestIngestThenReingestIsNoop(t *testing.T) {
	root, cubePath := setupRepo(t)

	w, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	sum, err := Run(w, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Scanned != 2 || sum.Changed != 2 {
		t.Fatalf("first run: got %+v, want 2 scanned/2 changed", sum)
	}

	sum2, err := Run(w, root)
	if err != nil {
		t.Fatalf("Run (2nd): %v", err)
	}
	if sum2.Changed != 0 {
		t.Fatalf("re-ingest: got %d changed, want 0", sum2.Changed)
	}

	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello, updated"), 0644); err != nil {
		t.Fatalf("rewrite a.txt: %v", err)
	}
	sum3, err := Run(w, root)
	if err != nil {
		t.Fatalf("Run (3rd): %v", err)
	}
	if sum3.Changed != 1 {
		t.Fatalf("after edit: got %d changed, want 1", sum3.Changed)
	}

	events, err := cube.ReadAll(cubePath)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	last := events[len(events)-1]
	if last.Phenomenon != "a.txt" || last.Noumenon != "hello, updated" {
		t.Fatalf("last event = %+v", last)
	}
}

// Property 6: dedup is idempotent across a fresh writer re-opening the same
// cube (the seen map is rebuilt from scratch each run, never persisted).
func TestIngestDedupAcrossReopen(t *testing.T) {
	root, cubePath := setupRepo(t)

	w1, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := Run(w1, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer w2.Close()

	sum, err := Run(w2, root)
	if err != nil {
		t.Fatalf("Run after reopen: %v", err)
	}
	if sum.Changed != 0 {
		t.Fatalf("got %d changed after reopen with no file changes, want 0", sum.Changed)
	}
}

func TestIngestSkipsBinaryContent(t *testing.T) {
	root, cubePath := setupRepo(t)
	if err := os.WriteFile(filepath.Join(root, "bin.dat"), []byte{0xff, 0xfe, 0x00, 0xff}, 0644); err != nil {
		t.Fatalf("write bin.dat: %v", err)
	}

	w, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	sum, err := Run(w, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Changed != 2 {
		t.Fatalf("got %d changed, want 2 (binary file skipped)", sum.Changed)
	}
	if len(sum.SkippedBytes) != 1 || sum.SkippedBytes[0] != "bin.dat" {
		t.Fatalf("skipped = %v, want [bin.dat]", sum.SkippedBytes)
	}
}

// A per-file append failure is reported in Summary.Failed and does not abort
// the rest of the batch (spec §4.3 step 5, §7): every candidate file is
// still attempted even once every Append call is failing.
func TestIngestContinuesBatchAfterPerFileAppendFailure(t *testing.T) {
	root, cubePath := setupRepo(t)

	w, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Close the underlying file handle out from under the writer: every
	// subsequent Append call fails, but Run must still visit both files
	// instead of aborting on the first one.
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sum, err := Run(w, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Scanned != 2 || sum.Changed != 0 {
		t.Fatalf("got %+v, want 2 scanned/0 changed", sum)
	}
	if len(sum.Failed) != 2 {
		t.Fatalf("failed = %v, want 2 entries", sum.Failed)
	}
}

func TestIngestHonoursGitignore(t *testing.T) {
	root, cubePath := setupRepo(t)
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("b.txt\n"), 0644); err != nil {
		t.Fatalf("write .gitignore: %v", err)
	}

	w, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	sum, err := Run(w, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Changed != 1 {
		t.Fatalf("got %d changed, want 1 (b.txt ignored)", sum.Changed)
	}
}
