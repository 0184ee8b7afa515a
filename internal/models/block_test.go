package models

import (
	"encoding/json"
	"testing"
)

func TestBlock_EmbeddedText(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{"content only", Block{Type: BlockTypeText, Content: "body"}, "body"},
		{"caption and content", Block{Type: BlockTypeTable, Caption: "Table 1", Content: "| a |"}, "Table 1\n| a |"},
		{"caption only", Block{Type: BlockTypeFigure, Caption: "Figure 2"}, "Figure 2"},
		{"whitespace content", Block{Type: BlockTypeText, Content: "   "}, ""},
		{"parse error", Block{Type: BlockTypeParseError, RawContent: "garbage"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.EmbeddedText(); got != tt.want {
				t.Errorf("EmbeddedText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlock_UnmarshalTolerantContent(t *testing.T) {
	var b Block
	if err := json.Unmarshal([]byte(`{"type": "text", "content": ["a", "b"], "id": 3}`), &b); err != nil {
		t.Fatal(err)
	}
	if b.Content != "a b" {
		t.Errorf("list content should join, got %q", b.Content)
	}
	if b.ID == nil || *b.ID != 3 {
		t.Errorf("id not parsed: %v", b.ID)
	}
}

func TestBlock_IDZeroVsUnset(t *testing.T) {
	var withZero, without Block
	if err := json.Unmarshal([]byte(`{"type": "text", "content": "x", "id": 0}`), &withZero); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"type": "error_parsing", "raw_content": "x"}`), &without); err != nil {
		t.Fatal(err)
	}
	if withZero.ID == nil || *withZero.ID != 0 {
		t.Errorf("id 0 should be set: %v", withZero.ID)
	}
	if without.ID != nil {
		t.Errorf("absent id should stay nil: %v", without.ID)
	}
}
