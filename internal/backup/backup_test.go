package backup

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/hackiado/eikyu/internal/cube"
)

func TestExportLocalProducesArchiveAndManifest(t *testing.T) {
	root := t.TempDir()
	cubePath := filepath.Join(root, "a.cube")

	w, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := w.Append("k", "v"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	destDir := filepath.Join(root, "backups")
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	if err := ExportLocal(cubePath, destDir, now); err != nil {
		t.Fatalf("ExportLocal: %v", err)
	}

	archivePath := filepath.Join(destDir, "a.cube.lz4")
	compressed, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatalf("ReadFile archive: %v", err)
	}

	zr := lz4.NewReader(bytes.NewReader(compressed))
	decompressed, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress archive: %v", err)
	}

	original, err := os.ReadFile(cubePath)
	if err != nil {
		t.Fatalf("ReadFile original: %v", err)
	}
	if string(decompressed) != string(original) {
		t.Fatalf("decompressed archive does not match original cube")
	}

	manifestPath := filepath.Join(destDir, "a.cube.manifest.json")
	manifestData, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("ReadFile manifest: %v", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		t.Fatalf("Unmarshal manifest: %v", err)
	}
	if manifest.SourceSize != int64(len(original)) {
		t.Fatalf("manifest source size = %d, want %d", manifest.SourceSize, len(original))
	}
	if manifest.SourcePath != cubePath {
		t.Fatalf("manifest source path = %q, want %q", manifest.SourcePath, cubePath)
	}
}
