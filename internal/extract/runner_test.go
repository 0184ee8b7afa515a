package extract

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/chishiki/internal/config"
	"github.com/hyperjump/chishiki/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Paths.PDFDir = t.TempDir()
	cfg.Paths.ExtractedDir = filepath.Join(t.TempDir(), "extracted")
	return cfg
}

func TestRunner_EmptySourceDir(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, nil)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
}

func TestRunner_SkipsExistingOutput(t *testing.T) {
	cfg := testConfig(t)
	// A PDF whose output already exists is never opened, so an invalid file
	// here proves the resume path short-circuits before rendering.
	if err := os.WriteFile(filepath.Join(cfg.Paths.PDFDir, "done.pdf"), []byte("not a real pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(cfg.Paths.ExtractedDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.ExtractedDir, "done.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(cfg, nil)
	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 1 || stats.Documents != 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 1 skipped", stats)
	}
}

func TestRunner_FailedDocumentContinues(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Paths.PDFDir, "broken.pdf"), []byte("not a real pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(cfg, nil)
	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("a broken document must not fail the run: %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("stats = %+v, want 1 failed", stats)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.ExtractedDir, "broken.json")); !os.IsNotExist(err) {
		t.Error("no output should be written for a failed document")
	}
}

func TestWriteBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	id := 0
	blocks := []models.Block{
		{Type: models.BlockTypeText, Content: "hello", ID: &id, DocID: "doc", Page: 1},
	}
	if err := writeBlocks(path, blocks); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back []models.Block
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0].Content != "hello" || back[0].DocID != "doc" {
		t.Errorf("round trip mismatch: %+v", back)
	}
}
