// Package search dispatches queries to the retrieval engines by mode.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/chishiki/internal/keyword"
	"github.com/hyperjump/chishiki/internal/models"
	"github.com/hyperjump/chishiki/internal/nouns"
	"github.com/hyperjump/chishiki/internal/vector"
)

// Searcher routes a query to the engine selected by the request mode:
// semantic (dense vectors), nouns (lexical overlap), or keyword (BM25).
// The keyword index is optional.
type Searcher struct {
	vectors  *vector.Engine
	nouns    *nouns.Engine
	keywords *keyword.Index
	maxK     int
	logger   *zap.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithKeywordIndex enables keyword mode.
func WithKeywordIndex(idx *keyword.Index) Option {
	return func(s *Searcher) { s.keywords = idx }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Searcher) { s.logger = logger }
}

// NewSearcher creates a Searcher over the given engines. maxK caps the
// requested result count (100 when non-positive).
func NewSearcher(vectors *vector.Engine, nounEngine *nouns.Engine, maxK int, opts ...Option) *Searcher {
	if maxK <= 0 {
		maxK = 100
	}
	s := &Searcher{
		vectors: vectors,
		nouns:   nounEngine,
		maxK:    maxK,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the request against the engine its mode selects. Defaults are
// applied first (k=5, mode=semantic); k is clamped to the configured maximum.
func (s *Searcher) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	req.Normalize()
	if req.K > s.maxK {
		req.K = s.maxK
	}

	resp := &models.SearchResponse{Query: req.Query, Mode: req.Mode}
	start := time.Now()

	switch req.Mode {
	case models.ModeSemantic:
		results, err := s.vectors.Query(ctx, req.Query, req.K)
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		resp.VectorResults = results
	case models.ModeNouns:
		results, err := s.nouns.Search(req.Query, req.K)
		if err != nil {
			return nil, fmt.Errorf("noun search: %w", err)
		}
		resp.NounResults = results
	case models.ModeKeyword:
		if s.keywords == nil {
			return nil, fmt.Errorf("keyword index not configured")
		}
		results, err := s.keywords.Search(ctx, req.Query, req.K)
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		resp.KeywordResults = results
	default:
		return nil, fmt.Errorf("unknown search mode: %q", req.Mode)
	}

	resp.QueryTimeMs = time.Since(start).Milliseconds()
	s.logger.Debug("Search complete",
		zap.String("mode", req.Mode),
		zap.String("query", req.Query),
		zap.Int64("time_ms", resp.QueryTimeMs))
	return resp, nil
}

// VectorIndexSize returns the number of entries in the dense index.
func (s *Searcher) VectorIndexSize() int {
	return s.vectors.Size()
}

// NounDocumentCount returns the number of documents in the noun index.
func (s *Searcher) NounDocumentCount() int {
	return s.nouns.DocumentCount()
}

// KeywordDocCount returns the keyword index size, or 0 when not configured.
func (s *Searcher) KeywordDocCount() uint64 {
	if s.keywords == nil {
		return 0
	}
	n, err := s.keywords.DocCount()
	if err != nil {
		return 0
	}
	return n
}
