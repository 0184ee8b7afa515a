package encoder

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/chishiki/internal/embedding"
	"github.com/hyperjump/chishiki/internal/models"
)

func TestEncoder_Run(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	blocks := `[
		{"type": "header", "content": "1. Introduction", "id": 0, "doc_id": "paper1", "page": 1},
		{"type": "table", "caption": "Table 1", "content": "| a |", "id": 1, "doc_id": "paper1", "page": 1},
		{"type": "error_parsing", "raw_content": "garbage", "doc_id": "paper1", "page": 2},
		{"type": "text", "content": "   ", "id": 2, "doc_id": "paper1", "page": 2}
	]`
	if err := os.WriteFile(filepath.Join(inputDir, "paper1.json"), []byte(blocks), 0o644); err != nil {
		t.Fatal(err)
	}

	enc := New(embedding.NewMockEmbedder(8), 2)
	stats, err := enc.Run(context.Background(), inputDir, outputDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 1 {
		t.Errorf("Files=%d, want 1", stats.Files)
	}
	// Parse-error and whitespace blocks carry no embeddable text.
	if stats.Records != 2 {
		t.Errorf("Records=%d, want 2", stats.Records)
	}

	records, err := LoadGob(filepath.Join(outputDir, "paper1.gob"))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in gob, got %d", len(records))
	}
	if records[0].EmbeddedText != "1. Introduction" {
		t.Errorf("unexpected embedded text: %q", records[0].EmbeddedText)
	}
	if records[1].EmbeddedText != "Table 1\n| a |" {
		t.Errorf("caption should prefix content: %q", records[1].EmbeddedText)
	}
	for _, rec := range records {
		if len(rec.Embedding) != 8 {
			t.Errorf("embedding dims = %d, want 8", len(rec.Embedding))
		}
	}

	f, err := os.Open(filepath.Join(outputDir, "paper1.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(scanner.Bytes(), &fields); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if _, ok := fields["embedding"]; ok {
			t.Error("JSONL records must not carry embeddings")
		}
		if _, ok := fields["embedded_text"]; !ok {
			t.Error("JSONL records must carry embedded_text")
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 JSONL lines, got %d", lines)
	}
}

func TestEncoder_SkipsMalformedFile(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(inputDir, "bad.json"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	good := `[{"type": "text", "content": "ok", "id": 0, "doc_id": "good", "page": 1}]`
	if err := os.WriteFile(filepath.Join(inputDir, "good.json"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}

	enc := New(embedding.NewMockEmbedder(8), 32)
	stats, err := enc.Run(context.Background(), inputDir, outputDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 file and 1 skipped", stats)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "bad.gob")); !os.IsNotExist(err) {
		t.Error("no output should be written for the malformed file")
	}
}

func TestEncoder_EmptyInputDir(t *testing.T) {
	enc := New(embedding.NewMockEmbedder(8), 32)
	stats, err := enc.Run(context.Background(), t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 0 || stats.Records != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
}

func TestEncoder_BatchesMatchSingle(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	var blocks []models.Block
	for i := 0; i < 5; i++ {
		id := i
		blocks = append(blocks, models.Block{
			Type: models.BlockTypeText, Content: string(rune('a' + i)), ID: &id, DocID: "doc", Page: 1,
		})
	}
	data, _ := json.Marshal(blocks)
	if err := os.WriteFile(filepath.Join(inputDir, "doc.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	embedder := embedding.NewMockEmbedder(8)
	enc := New(embedder, 2) // 5 records over batches of 2
	if _, err := enc.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatal(err)
	}

	records, err := LoadGob(filepath.Join(outputDir, "doc.gob"))
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		want, _ := embedder.Embed(context.Background(), rec.EmbeddedText)
		for i := range want {
			if rec.Embedding[i] != want[i] {
				t.Fatalf("batched embedding differs from single for %q", rec.EmbeddedText)
			}
		}
	}
}
