package models

import (
	"encoding/json"
	"testing"
)

func TestCorpusRecord_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantNil bool
		wantID  int64
	}{
		{"string content", `{"content": "hello", "doc_id": 1}`, "hello", false, 1},
		{"null content", `{"content": null, "doc_id": 2}`, "", true, 2},
		{"list content", `{"content": ["a", "b"], "doc_id": 3}`, "a b", false, 3},
		{"numeric string id", `{"content": "x", "doc_id": "17"}`, "x", false, 17},
		{"float id", `{"content": "x", "doc_id": 4.0}`, "x", false, 4},
		{"missing id", `{"content": "x"}`, "x", false, 0},
		{"non-numeric id", `{"content": "x", "doc_id": "abc"}`, "x", false, 0},
		{"whitespace preserved", `{"content": " x ", "doc_id": 8}`, " x ", false, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec CorpusRecord
			if err := json.Unmarshal([]byte(tt.input), &rec); err != nil {
				t.Fatal(err)
			}
			if tt.wantNil != (rec.Content == nil) {
				t.Errorf("content nil = %v, want %v", rec.Content == nil, tt.wantNil)
			}
			if rec.Text() != tt.want {
				t.Errorf("Text() = %q, want %q", rec.Text(), tt.want)
			}
			if rec.DocID != tt.wantID {
				t.Errorf("DocID = %d, want %d", rec.DocID, tt.wantID)
			}
		})
	}
}

func TestCorpusRecord_MarshalRoundTrip(t *testing.T) {
	input := `{"content": "hello", "doc_id": 5, "url": "http://x", "custom": {"nested": true}}`
	var rec CorpusRecord
	if err := json.Unmarshal([]byte(input), &rec); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var again CorpusRecord
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatal(err)
	}
	if again.Text() != "hello" || again.DocID != 5 || again.URL != "http://x" {
		t.Errorf("round trip lost fields: %+v", again)
	}
	if _, ok := again.Extra["custom"]; !ok {
		t.Error("passthrough field lost in round trip")
	}
}

func TestSearchRequest_Normalize(t *testing.T) {
	req := SearchRequest{Query: "q"}
	req.Normalize()
	if req.K != 5 || req.Mode != ModeSemantic {
		t.Errorf("defaults not applied: %+v", req)
	}

	req = SearchRequest{Query: "q", K: 20, Mode: ModeNouns}
	req.Normalize()
	if req.K != 20 || req.Mode != ModeNouns {
		t.Errorf("explicit values must be kept: %+v", req)
	}
}

func TestEncodedRecord_WithoutEmbedding(t *testing.T) {
	rec := EncodedRecord{
		Block:        Block{Type: BlockTypeText, Content: "x"},
		Embedding:    []float32{1, 2, 3},
		EmbeddedText: "x",
	}
	stripped := rec.WithoutEmbedding()
	if stripped.Embedding != nil {
		t.Error("embedding should be dropped")
	}
	if rec.Embedding == nil {
		t.Error("original must be unchanged")
	}
	if stripped.EmbeddedText != "x" {
		t.Error("embedded text should be kept")
	}
}
