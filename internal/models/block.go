// Package models defines core data structures for content blocks, corpus records, and search results.
package models

import (
	"encoding/json"
	"strings"
)

// Block types produced by the VLM extraction stage.
const (
	BlockTypeHeader = "header"
	BlockTypeText   = "text"
	BlockTypeTable  = "table"
	BlockTypeFigure = "figure"
	// BlockTypeParseError marks model output that could not be parsed as JSON.
	// Such blocks carry the raw output and are assigned no block ID.
	BlockTypeParseError = "error_parsing"
)

// Block is one unit of structured content extracted from a PDF page.
// Tables and figures carry a caption alongside the content; parse failures
// preserve the raw model output in RawContent.
type Block struct {
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
	Caption    string `json:"caption,omitempty"`
	RawContent string `json:"raw_content,omitempty"`
	// ID is the per-document block counter, in reading order. Parse-error
	// blocks have no ID; the pointer distinguishes 0 from unset.
	ID    *int   `json:"id,omitempty"`
	DocID string `json:"doc_id,omitempty"`
	Page  int    `json:"page,omitempty"`
}

// IsParseError reports whether the block records a JSON parse failure.
func (b *Block) IsParseError() bool {
	return b.Type == BlockTypeParseError
}

// EmbeddedText returns the text the encoder stage embeds for this block:
// caption and content joined by a newline when a caption is present, else the
// content alone. Whitespace-only parts are dropped; result may be empty.
func (b *Block) EmbeddedText() string {
	content := strings.TrimSpace(b.Content)
	caption := strings.TrimSpace(b.Caption)
	if caption != "" && content != "" {
		return caption + "\n" + content
	}
	if caption != "" {
		return caption
	}
	return content
}

// UnmarshalJSON accepts content values that are not strings (lists are joined
// with spaces, scalars stringified), mirroring the tolerant corpus conversion.
func (b *Block) UnmarshalJSON(data []byte) error {
	type alias Block
	aux := struct {
		Content json.RawMessage `json:"content,omitempty"`
		*alias
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Content) > 0 {
		b.Content = CoerceContent(aux.Content)
	}
	return nil
}
