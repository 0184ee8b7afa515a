// Package corpus loads, filters, and converts corpus files between the
// pipeline stages.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/chishiki/internal/models"
)

// Filtered holds the parallel lists produced by loading a corpus file:
// unique texts with their document ids and source URLs, in input order.
// Invariant: the three slices always have equal length.
type Filtered struct {
	Texts []string
	IDs   []int64
	URLs  []string
}

// Len returns the number of retained records.
func (f *Filtered) Len() int { return len(f.Texts) }

// Load reads a JSON array of corpus records from path and returns them unfiltered.
func Load(path string) ([]models.CorpusRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var records []models.CorpusRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return records, nil
}

// LoadFiltered reads a corpus file and retains, per record with non-empty
// content not seen before (exact string match), the content, doc_id, and url
// (empty string when absent). Order follows the input. No normalization is
// applied beyond the source's own trimming.
func LoadFiltered(path string) (*Filtered, error) {
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Filter(records), nil
}

// Filter applies the dedup-by-content rule to already-loaded records.
func Filter(records []models.CorpusRecord) *Filtered {
	out := &Filtered{}
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		text := rec.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out.Texts = append(out.Texts, text)
		out.IDs = append(out.IDs, rec.DocID)
		out.URLs = append(out.URLs, rec.URL)
	}
	return out
}
