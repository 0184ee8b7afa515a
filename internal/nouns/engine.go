package nouns

import (
	"fmt"
	"os"
	"sort"

	"github.com/hyperjump/chishiki/internal/corpus"
	"github.com/hyperjump/chishiki/internal/models"
	"go.uber.org/zap"
)

// Engine answers queries by counting nouns shared between the query and each
// document. Scores are raw overlap counts: unweighted and not normalized by
// document length.
type Engine struct {
	tagger        Tagger
	documents     map[int64]string
	invertedIndex map[string]map[int64]struct{}
	logger        *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for index-build and query events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine reads the corpus JSON at path and builds the inverted noun index.
// Unlike the soft-failure loaders elsewhere, a missing or unreadable corpus
// here is an error: without an index the engine is useless.
func NewEngine(path string, tagger Tagger, opts ...EngineOption) (*Engine, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("corpus file: %w", err)
	}
	e := &Engine{
		tagger:        tagger,
		documents:     make(map[int64]string),
		invertedIndex: make(map[string]map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.buildIndex(path); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) buildIndex(path string) error {
	records, err := corpus.Load(path)
	if err != nil {
		return err
	}
	for _, rec := range records {
		content := rec.Text()
		if content == "" {
			continue
		}
		set, err := ExtractNouns(e.tagger, content)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("tagging failed; document skipped",
					zap.Int64("doc_id", rec.DocID), zap.Error(err))
			}
			continue
		}
		e.documents[rec.DocID] = content
		for noun := range set {
			ids, ok := e.invertedIndex[noun]
			if !ok {
				ids = make(map[int64]struct{})
				e.invertedIndex[noun] = ids
			}
			ids[rec.DocID] = struct{}{}
		}
	}
	if e.logger != nil {
		e.logger.Info("noun index built",
			zap.Int("documents", len(e.documents)),
			zap.Int("unique_nouns", len(e.invertedIndex)))
	}
	return nil
}

// Search extracts the query's nouns and scores each candidate document by the
// count of overlapping nouns. Returns up to topK results ordered by
// descending score, ties broken by ascending document id so rankings are
// deterministic across rebuilds. Documents sharing no noun score 0 and are
// never returned.
func (e *Engine) Search(query string, topK int) ([]models.NounResult, error) {
	queryNouns, err := ExtractNouns(e.tagger, query)
	if err != nil {
		return nil, fmt.Errorf("tag query: %w", err)
	}
	if len(queryNouns) == 0 {
		if e.logger != nil {
			e.logger.Debug("query contains no nouns", zap.String("query", query))
		}
		return []models.NounResult{}, nil
	}

	scores := make(map[int64]int)
	for noun := range queryNouns {
		for docID := range e.invertedIndex[noun] {
			scores[docID]++
		}
	}

	ranked := make([]models.NounResult, 0, len(scores))
	for docID, score := range scores {
		ranked = append(ranked, models.NounResult{
			ID:      docID,
			Score:   score,
			Content: e.documents[docID],
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// DocumentCount returns the number of indexed documents.
func (e *Engine) DocumentCount() int {
	return len(e.documents)
}

// NounCount returns the number of unique nouns in the inverted index.
func (e *Engine) NounCount() int {
	return len(e.invertedIndex)
}
