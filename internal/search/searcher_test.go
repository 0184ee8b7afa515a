package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/chishiki/internal/embedding"
	"github.com/hyperjump/chishiki/internal/keyword"
	"github.com/hyperjump/chishiki/internal/models"
	"github.com/hyperjump/chishiki/internal/nouns"
	"github.com/hyperjump/chishiki/internal/vector"
)

// everyWordTagger tags every multi-character word as a noun.
type everyWordTagger struct{}

func (everyWordTagger) Tag(text string) ([]nouns.TaggedToken, error) {
	words := strings.Fields(text)
	out := make([]nouns.TaggedToken, len(words))
	for i, w := range words {
		out[i] = nouns.TaggedToken{Text: w, Tag: "NN"}
	}
	return out, nil
}

func newTestSearcher(t *testing.T) *Searcher {
	t.Helper()
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	corpus := `[
		{"content": "bayesian optimization methods", "doc_id": 1},
		{"content": "market analysis report", "doc_id": 2}
	]`
	if err := os.WriteFile(corpusPath, []byte(corpus), 0o644); err != nil {
		t.Fatal(err)
	}

	vectors := vector.NewEngine(embedding.NewMockEmbedder(16))
	if err := vectors.BuildFromJSON(context.Background(), corpusPath); err != nil {
		t.Fatal(err)
	}
	nounEngine, err := nouns.NewEngine(corpusPath, everyWordTagger{})
	if err != nil {
		t.Fatal(err)
	}
	return NewSearcher(vectors, nounEngine, 10)
}

func TestSearcher_SemanticMode(t *testing.T) {
	s := newTestSearcher(t)
	resp, err := s.Search(context.Background(), &models.SearchRequest{
		Query: "bayesian optimization methods", Mode: models.ModeSemantic, K: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Mode != models.ModeSemantic {
		t.Errorf("mode = %q", resp.Mode)
	}
	if len(resp.VectorResults) != 1 || resp.VectorResults[0].ID != 1 {
		t.Errorf("unexpected vector results: %+v", resp.VectorResults)
	}
	if resp.NounResults != nil || resp.KeywordResults != nil {
		t.Error("only the requested mode's results should be populated")
	}
}

func TestSearcher_NounMode(t *testing.T) {
	s := newTestSearcher(t)
	resp, err := s.Search(context.Background(), &models.SearchRequest{
		Query: "market report", Mode: models.ModeNouns, K: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.NounResults) != 1 || resp.NounResults[0].ID != 2 {
		t.Errorf("unexpected noun results: %+v", resp.NounResults)
	}
	if resp.NounResults[0].Score != 2 {
		t.Errorf("expected 2 shared nouns, got %d", resp.NounResults[0].Score)
	}
}

func TestSearcher_DefaultsApplied(t *testing.T) {
	s := newTestSearcher(t)
	req := &models.SearchRequest{Query: "anything"}
	resp, err := s.Search(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Mode != models.ModeSemantic {
		t.Errorf("default mode should be semantic, got %q", resp.Mode)
	}
	if req.K != 5 {
		t.Errorf("default k should be 5, got %d", req.K)
	}
}

func TestSearcher_ClampsK(t *testing.T) {
	s := newTestSearcher(t)
	req := &models.SearchRequest{Query: "anything", K: 9999}
	if _, err := s.Search(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if req.K != 10 {
		t.Errorf("k should clamp to maxK 10, got %d", req.K)
	}
}

func TestSearcher_UnknownMode(t *testing.T) {
	s := newTestSearcher(t)
	if _, err := s.Search(context.Background(), &models.SearchRequest{Query: "q", Mode: "fuzzy"}); err == nil {
		t.Error("unknown mode must be an error")
	}
}

func TestSearcher_KeywordMode(t *testing.T) {
	s := newTestSearcher(t)
	idx, err := keyword.NewIndex(filepath.Join(t.TempDir(), "keyword.bleve"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()
	if err := idx.IndexEntries(ctx,
		[]int64{1, 2},
		[]string{"bayesian optimization methods", "market analysis report"}); err != nil {
		t.Fatal(err)
	}
	WithKeywordIndex(idx)(s)

	resp, err := s.Search(ctx, &models.SearchRequest{
		Query: "bayesian", Mode: models.ModeKeyword, K: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Mode != models.ModeKeyword {
		t.Errorf("mode = %q", resp.Mode)
	}
	if len(resp.KeywordResults) != 1 || resp.KeywordResults[0].ID != 1 {
		t.Errorf("unexpected keyword results: %+v", resp.KeywordResults)
	}
	if resp.VectorResults != nil || resp.NounResults != nil {
		t.Error("only the requested mode's results should be populated")
	}
}

func TestSearcher_KeywordModeUnconfigured(t *testing.T) {
	s := newTestSearcher(t)
	if _, err := s.Search(context.Background(), &models.SearchRequest{Query: "q", Mode: models.ModeKeyword}); err == nil {
		t.Error("keyword mode without an index must be an error")
	}
}
