package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/chishiki/internal/corpus"
	"github.com/hyperjump/chishiki/internal/embedding"
	"github.com/hyperjump/chishiki/internal/models"
	"go.uber.org/zap"
)

// Engine composes an embedder, a flat index, and the document registry:
// parallel lists of (text, id, url) whose order matches the index's vector
// order. The registry is append-only; there is no delete or update.
//
// Invariant: len(texts) == len(ids) == len(urls) == index.Size() whenever the
// index is set.
type Engine struct {
	embedder embedding.Embedder
	index    *FlatIndex // nil until BuildFromJSON or the first Insert
	texts    []string
	ids      []int64
	urls     []string
	seen     map[string]struct{} // exact-text dedup across build and insert
	logger   *zap.Logger
	mu       sync.RWMutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for build/insert/query events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a retrieval engine around the given embedder. The engine
// is constructed once at startup and owns no background resources beyond the
// embedder it was handed.
func NewEngine(embedder embedding.Embedder, opts ...EngineOption) *Engine {
	e := &Engine{
		embedder: embedder,
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildFromJSON builds the registry and index from a corpus JSON file: load,
// filter duplicates, encode all texts in one batch, and fill a fresh flat
// index. An empty filtered corpus is logged and leaves the index unset; it is
// not an error.
func (e *Engine) BuildFromJSON(ctx context.Context, path string) error {
	filtered, err := corpus.LoadFiltered(path)
	if err != nil {
		return err
	}
	return e.Build(ctx, filtered)
}

// Build is BuildFromJSON over already-filtered lists.
func (e *Engine) Build(ctx context.Context, filtered *corpus.Filtered) error {
	if filtered.Len() == 0 {
		if e.logger != nil {
			e.logger.Warn("corpus contains no usable content; index left unset")
		}
		return nil
	}
	embeddings, err := e.embedder.EmbedBatch(ctx, filtered.Texts)
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	index, err := NewFlatIndex(e.embedder.Dimensions())
	if err != nil {
		return err
	}
	if err := index.Add(embeddings); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = index
	e.texts = filtered.Texts
	e.ids = filtered.IDs
	e.urls = filtered.URLs
	e.seen = make(map[string]struct{}, len(filtered.Texts))
	for _, t := range filtered.Texts {
		e.seen[t] = struct{}{}
	}
	if e.logger != nil {
		e.logger.Info("index built", zap.Int("vectors", index.Size()))
	}
	return nil
}

// Insert adds new texts to the registry and index. Exact duplicates of
// already-stored texts are dropped, as are repeats within the argument (first
// occurrence wins, input order preserved). New ids are assigned contiguously
// starting at max(existing)+1, or 0 when the registry is empty. Encoding runs
// before any index mutation, so a failed encode leaves the engine unchanged.
// Returns the number of texts actually inserted.
func (e *Engine) Insert(ctx context.Context, newTexts []string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fresh := make([]string, 0, len(newTexts))
	inBatch := make(map[string]struct{}, len(newTexts))
	for _, t := range newTexts {
		if _, dup := e.seen[t]; dup {
			continue
		}
		if _, dup := inBatch[t]; dup {
			continue
		}
		inBatch[t] = struct{}{}
		fresh = append(fresh, t)
	}
	if len(fresh) == 0 {
		if e.logger != nil {
			e.logger.Debug("insert: no new unique texts")
		}
		return 0, nil
	}

	embeddings, err := e.embedder.EmbedBatch(ctx, fresh)
	if err != nil {
		return 0, fmt.Errorf("encode batch: %w", err)
	}

	if e.index == nil {
		index, err := NewFlatIndex(e.embedder.Dimensions())
		if err != nil {
			return 0, err
		}
		e.index = index
	}
	if err := e.index.Add(embeddings); err != nil {
		return 0, err
	}

	startID := int64(0)
	for _, id := range e.ids {
		if id >= startID {
			startID = id + 1
		}
	}
	for i, t := range fresh {
		e.texts = append(e.texts, t)
		e.ids = append(e.ids, startID+int64(i))
		e.urls = append(e.urls, "")
		e.seen[t] = struct{}{}
	}
	if e.logger != nil {
		e.logger.Info("inserted documents",
			zap.Int("inserted", len(fresh)),
			zap.Int("vectors", e.index.Size()))
	}
	return len(fresh), nil
}

// Query encodes the query text and returns the k nearest stored documents as
// {id, score, text, url}, rank-ordered by ascending squared-L2 distance
// (lower is more similar). An empty or unset index returns an empty list
// without error; k larger than the index returns everything.
func (e *Engine) Query(ctx context.Context, query string, k int) ([]models.VectorResult, error) {
	e.mu.RLock()
	index := e.index
	e.mu.RUnlock()
	if index == nil || index.Size() == 0 {
		if e.logger != nil {
			e.logger.Debug("query against empty index", zap.String("query", query))
		}
		return []models.VectorResult{}, nil
	}

	queryEmbedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	positions, distances, err := e.index.Search(queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	results := make([]models.VectorResult, 0, len(positions))
	for i, pos := range positions {
		if pos >= len(e.texts) {
			continue
		}
		results = append(results, models.VectorResult{
			ID:    e.ids[pos],
			Score: distances[i],
			Text:  e.texts[pos],
			URL:   e.urls[pos],
		})
	}
	return results, nil
}

// Size returns the number of registry entries (== index vectors).
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.texts)
}

// Texts returns a copy of the stored texts, in registry order.
func (e *Engine) Texts() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.texts))
	copy(out, e.texts)
	return out
}
