// Package keyword provides a Bleve BM25 index over corpus entries, the third
// retrieval mode next to dense vectors and noun overlap.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/chishiki/internal/models"
)

// indexEntry is the document shape stored in Bleve.
type indexEntry struct {
	Content string `json:"content"`
}

// Index is a Bleve full-text index keyed by corpus entry ID.
type Index struct {
	index bleve.Index
}

// NewIndex creates or opens a Bleve index at path. An existing index is
// opened and reused; remove the directory to force a rebuild after a mapping
// change.
func NewIndex(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	contentMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query term
	// only matches the exact word it was typed as.
	contentMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", contentMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// IndexEntries indexes contents under their numeric IDs. Both slices must be
// the same length. Indexing an existing ID replaces it.
func (b *Index) IndexEntries(ctx context.Context, ids []int64, contents []string) error {
	if len(ids) != len(contents) {
		return fmt.Errorf("ids and contents length mismatch: %d vs %d", len(ids), len(contents))
	}
	batch := b.index.NewBatch()
	for i, id := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := batch.Index(strconv.FormatInt(id, 10), indexEntry{Content: contents[i]}); err != nil {
			return fmt.Errorf("failed to batch entry %d: %w", id, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index batch: %w", err)
	}
	return nil
}

// Search runs a match query over content and returns up to limit hits in
// descending score order.
func (b *Index) Search(ctx context.Context, query string, limit int) ([]models.KeywordResult, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]models.KeywordResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, models.KeywordResult{ID: id, Score: hit.Score})
	}
	return out, nil
}

// DocCount returns the number of indexed entries.
func (b *Index) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the underlying index.
func (b *Index) Close() error {
	return b.index.Close()
}
