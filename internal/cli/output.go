// Package cli provides output formatting for the command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/chishiki/internal/models"
	"github.com/hyperjump/chishiki/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, resp *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	default:
		writeSearchResultsText(w, resp)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, resp *models.SearchResponse) {
	total := len(resp.VectorResults) + len(resp.NounResults) + len(resp.KeywordResults)
	fmt.Fprintf(w, "\nFound %d results in %dms (mode: %s)\n\n", total, resp.QueryTimeMs, resp.Mode)

	for rank, r := range resp.VectorResults {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | ID: %d | Distance: %.4f\n", rank+1, r.ID, r.Score)
		if r.URL != "" {
			fmt.Fprintf(w, "URL: %s\n", r.URL)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Text, 200))
	}
	for rank, r := range resp.NounResults {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | ID: %d | Shared nouns: %d\n", rank+1, r.ID, r.Score)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Content, 200))
	}
	for rank, r := range resp.KeywordResults {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | ID: %d | Score: %.4f\n", rank+1, r.ID, r.Score)
	}
}
