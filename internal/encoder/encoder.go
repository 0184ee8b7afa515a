// Package encoder runs the embedding stage: it reads per-document block
// files, embeds each block's text, and writes the vectors alongside a
// human-readable JSONL copy of the records.
package encoder

import (
	"bufio"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/chishiki/internal/embedding"
	"github.com/hyperjump/chishiki/internal/models"
)

// Stats summarizes one encoding run.
type Stats struct {
	Files   int
	Skipped int
	Records int
}

// Encoder embeds extracted blocks. For every {doc_id}.json in the input
// directory it writes {doc_id}.gob (records with embeddings) and
// {doc_id}.jsonl (the same records without vectors, one per line).
type Encoder struct {
	embedder  embedding.Embedder
	batchSize int
	logger    *zap.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Encoder) { e.logger = logger }
}

// New creates an Encoder using the given embedder. batchSize bounds how many
// texts are embedded per call (32 when non-positive).
func New(embedder embedding.Embedder, batchSize int, opts ...Option) *Encoder {
	if batchSize <= 0 {
		batchSize = 32
	}
	e := &Encoder{
		embedder:  embedder,
		batchSize: batchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run encodes every block file in inputDir into outputDir. Files that fail to
// parse are logged and skipped; blocks with empty embeddable text (including
// parse-error blocks, which carry no content) are dropped.
func (e *Encoder) Run(ctx context.Context, inputDir, outputDir string) (Stats, error) {
	var stats Stats

	paths, err := filepath.Glob(filepath.Join(inputDir, "*.json"))
	if err != nil {
		return stats, fmt.Errorf("list block files: %w", err)
	}
	if len(paths) == 0 {
		e.logger.Warn("No block files found", zap.String("dir", inputDir))
		return stats, nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output directory: %w", err)
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		records, err := e.encodeFile(ctx, path)
		if err != nil {
			e.logger.Warn("Failed to encode file, skipping",
				zap.String("file", path), zap.Error(err))
			stats.Skipped++
			continue
		}

		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := writeGob(filepath.Join(outputDir, base+".gob"), records); err != nil {
			return stats, fmt.Errorf("write %s.gob: %w", base, err)
		}
		if err := writeJSONL(filepath.Join(outputDir, base+".jsonl"), records); err != nil {
			return stats, fmt.Errorf("write %s.jsonl: %w", base, err)
		}

		stats.Files++
		stats.Records += len(records)
		e.logger.Info("Encoded document",
			zap.String("doc_id", base), zap.Int("records", len(records)))
	}

	e.logger.Info("Encoding run complete",
		zap.Int("files", stats.Files),
		zap.Int("skipped", stats.Skipped),
		zap.Int("records", stats.Records))
	return stats, nil
}

// encodeFile parses one block file and embeds its blocks in batches.
func (e *Encoder) encodeFile(ctx context.Context, path string) ([]models.EncodedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var blocks []models.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("parse blocks: %w", err)
	}

	records := make([]models.EncodedRecord, 0, len(blocks))
	for _, b := range blocks {
		text := b.EmbeddedText()
		if text == "" {
			continue
		}
		records = append(records, models.EncodedRecord{Block: b, EmbeddedText: text})
	}

	for start := 0; start < len(records); start += e.batchSize {
		end := start + e.batchSize
		if end > len(records) {
			end = len(records)
		}
		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = records[i].EmbeddedText
		}
		embeddings, err := e.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch: %w", err)
		}
		for i := start; i < end; i++ {
			records[i].Embedding = embeddings[i-start]
		}
	}
	return records, nil
}

// LoadGob reads back the records written by Run.
func LoadGob(path string) ([]models.EncodedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	var records []models.EncodedRecord
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func writeGob(path string, records []models.EncodedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(records); err != nil {
		return err
	}
	return w.Flush()
}

func writeJSONL(path string, records []models.EncodedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec.WithoutEmbedding()); err != nil {
			return err
		}
	}
	return w.Flush()
}
