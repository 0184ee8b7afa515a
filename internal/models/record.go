package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CorpusRecord is one element of the corpus JSON array consumed by the
// retrieval engines. Content may be null; DocID and URL are optional.
// Fields other than content/doc_id/url pass through Extra untouched.
type CorpusRecord struct {
	Content *string
	DocID   int64
	URL     string
	Extra   map[string]json.RawMessage
}

// UnmarshalJSON tolerates the looseness of upstream corpus files: content may
// be a string, null, or a list (joined with spaces); doc_id may be a JSON
// number or a numeric string. Non-numeric doc_id values parse as 0.
func (r *CorpusRecord) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["content"]; ok {
		delete(fields, "content")
		if string(raw) != "null" {
			text := CoerceContent(raw)
			r.Content = &text
		}
	}
	if raw, ok := fields["doc_id"]; ok {
		delete(fields, "doc_id")
		r.DocID = coerceID(raw)
	}
	if raw, ok := fields["url"]; ok {
		delete(fields, "url")
		_ = json.Unmarshal(raw, &r.URL)
	}
	if len(fields) > 0 {
		r.Extra = fields
	}
	return nil
}

// MarshalJSON writes content (null when unset), doc_id, url, and the
// passthrough fields back out.
func (r CorpusRecord) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.Extra)+3)
	for k, v := range r.Extra {
		fields[k] = v
	}
	content, err := json.Marshal(r.Content)
	if err != nil {
		return nil, err
	}
	fields["content"] = content
	if r.DocID != 0 {
		fields["doc_id"] = json.RawMessage(strconv.FormatInt(r.DocID, 10))
	}
	if r.URL != "" {
		u, err := json.Marshal(r.URL)
		if err != nil {
			return nil, err
		}
		fields["url"] = u
	}
	return json.Marshal(fields)
}

// Text returns the record's content, or "" when content is null.
func (r *CorpusRecord) Text() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

// EncodedRecord is a block enriched by the encoder stage with its embedding
// and the exact text that was embedded.
type EncodedRecord struct {
	Block
	Embedding    []float32 `json:"embedding,omitempty"`
	EmbeddedText string    `json:"embedded_text"`
}

// WithoutEmbedding returns a copy suitable for the human-readable JSONL
// output (the vector is dropped to keep the file small).
func (r EncodedRecord) WithoutEmbedding() EncodedRecord {
	r.Embedding = nil
	return r
}

// CoerceContent normalizes a raw JSON content value to one string: lists are
// joined with single spaces (elements stringified), scalars stringified,
// strings kept as-is. The string itself is never trimmed; whitespace is part
// of the content, so texts differing only in whitespace stay distinct.
func CoerceContent(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, len(list))
		for i, v := range list {
			parts[i] = stringify(v)
		}
		return strings.Join(parts, " ")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil && v != nil {
		return stringify(v)
	}
	return ""
}

func coerceID(raw json.RawMessage) int64 {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
