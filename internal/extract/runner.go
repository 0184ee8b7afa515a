package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/chishiki/internal/config"
	"github.com/hyperjump/chishiki/internal/models"
	"github.com/hyperjump/chishiki/internal/vlm"
)

// BlockCatalog records extracted blocks for status reporting. Implemented by
// the SQLite catalog; nil disables cataloging.
type BlockCatalog interface {
	InsertBlocks(docID string, blocks []models.Block) error
}

// Stats summarizes one extraction run.
type Stats struct {
	Documents int
	Skipped   int
	Pages     int
	Blocks    int
	Failed    int
}

// Runner drives the extraction stage: for each PDF in the source directory it
// renders pages, sends them to the model, parses the output into blocks, and
// writes one {doc_id}.json file. Documents whose output already exists are
// skipped, so an interrupted run resumes where it stopped.
type Runner struct {
	cfg       *config.Config
	extractor vlm.PageExtractor
	catalog   BlockCatalog
	logger    *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCatalog records extracted blocks in the given catalog.
func WithCatalog(c BlockCatalog) RunnerOption {
	return func(r *Runner) { r.catalog = c }
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a Runner over the configured PDF and output directories.
func NewRunner(cfg *config.Config, extractor vlm.PageExtractor, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:       cfg,
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every PDF in the source directory. Page-level failures
// (rendering, model, parsing) are logged and skipped; the run only fails when
// no documents can be listed or an output file cannot be written.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	paths, err := filepath.Glob(filepath.Join(r.cfg.Paths.PDFDir, "*.pdf"))
	if err != nil {
		return stats, fmt.Errorf("list PDFs: %w", err)
	}
	if len(paths) == 0 {
		r.logger.Warn("No PDFs found", zap.String("dir", r.cfg.Paths.PDFDir))
		return stats, nil
	}

	if err := os.MkdirAll(r.cfg.Paths.ExtractedDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output directory: %w", err)
	}

	runID := uuid.New().String()
	r.logger.Info("Starting extraction run",
		zap.String("run_id", runID),
		zap.Int("documents", len(paths)),
		zap.Int("dpi", r.cfg.VLM.DPI))

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outPath := filepath.Join(r.cfg.Paths.ExtractedDir, docID+".json")
		if _, err := os.Stat(outPath); err == nil {
			r.logger.Debug("Output exists, skipping", zap.String("doc_id", docID))
			stats.Skipped++
			continue
		}

		blocks, pages, err := r.extractDocument(ctx, path, docID)
		if err != nil {
			r.logger.Error("Failed to extract document",
				zap.String("doc_id", docID), zap.Error(err))
			stats.Failed++
			continue
		}

		if err := writeBlocks(outPath, blocks); err != nil {
			return stats, fmt.Errorf("write %s: %w", outPath, err)
		}
		if r.catalog != nil {
			if err := r.catalog.InsertBlocks(docID, blocks); err != nil {
				r.logger.Warn("Failed to catalog blocks",
					zap.String("doc_id", docID), zap.Error(err))
			}
		}

		stats.Documents++
		stats.Pages += pages
		stats.Blocks += len(blocks)
		r.logger.Info("Extracted document",
			zap.String("doc_id", docID),
			zap.Int("pages", pages),
			zap.Int("blocks", len(blocks)))
	}

	r.logger.Info("Extraction run complete",
		zap.String("run_id", runID),
		zap.Int("documents", stats.Documents),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("blocks", stats.Blocks))
	return stats, nil
}

// extractDocument renders and digitizes every page of one PDF. Block IDs run
// 0..n-1 across the whole document in reading order; parse-error blocks are
// kept but receive no ID. A failing page is logged and skipped.
func (r *Runner) extractDocument(ctx context.Context, path, docID string) ([]models.Block, int, error) {
	renderer, err := OpenPDF(path)
	if err != nil {
		return nil, 0, err
	}
	defer renderer.Close()

	blocks := []models.Block{}
	nextID := 0
	numPages := renderer.NumPages()

	for page := 0; page < numPages; page++ {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}

		img, err := renderer.RenderPNG(page, r.cfg.VLM.DPI)
		if err != nil {
			r.logger.Warn("Failed to render page, skipping",
				zap.String("doc_id", docID), zap.Int("page", page+1), zap.Error(err))
			continue
		}

		raw, err := r.extractor.ExtractPage(ctx, img)
		if err != nil {
			r.logger.Warn("Model failed on page, skipping",
				zap.String("doc_id", docID), zap.Int("page", page+1), zap.Error(err))
			continue
		}

		pageBlocks, repaired := vlm.ParseBlocks(raw)
		if repaired {
			r.logger.Debug("Repaired model JSON",
				zap.String("doc_id", docID), zap.Int("page", page+1))
		}

		for i := range pageBlocks {
			pageBlocks[i].DocID = docID
			pageBlocks[i].Page = page + 1
			if !pageBlocks[i].IsParseError() {
				id := nextID
				nextID++
				pageBlocks[i].ID = &id
			}
		}
		blocks = append(blocks, pageBlocks...)
	}

	return blocks, numPages, nil
}

// RunTextOnly extracts plain text without a model or page renderer, writing
// the same per-document JSON files the full pipeline produces.
func (r *Runner) RunTextOnly(ctx context.Context) (Stats, error) {
	var stats Stats

	paths, err := filepath.Glob(filepath.Join(r.cfg.Paths.PDFDir, "*.pdf"))
	if err != nil {
		return stats, fmt.Errorf("list PDFs: %w", err)
	}
	if err := os.MkdirAll(r.cfg.Paths.ExtractedDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output directory: %w", err)
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outPath := filepath.Join(r.cfg.Paths.ExtractedDir, docID+".json")
		if _, err := os.Stat(outPath); err == nil {
			stats.Skipped++
			continue
		}

		blocks, err := TextBlocks(path, docID)
		if err != nil {
			r.logger.Error("Failed to extract text",
				zap.String("doc_id", docID), zap.Error(err))
			stats.Failed++
			continue
		}
		if err := writeBlocks(outPath, blocks); err != nil {
			return stats, fmt.Errorf("write %s: %w", outPath, err)
		}
		if r.catalog != nil {
			if err := r.catalog.InsertBlocks(docID, blocks); err != nil {
				r.logger.Warn("Failed to catalog blocks",
					zap.String("doc_id", docID), zap.Error(err))
			}
		}
		stats.Documents++
		stats.Blocks += len(blocks)
	}
	return stats, nil
}

func writeBlocks(path string, blocks []models.Block) error {
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
