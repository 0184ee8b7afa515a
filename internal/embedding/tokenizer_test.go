package embedding

import "testing"

func TestWordTokenizer_SpecialTokens(t *testing.T) {
	tok := &WordTokenizer{}
	ids, mask, types := tok.Tokenize("hello world", 8)

	if len(ids) != 8 || len(mask) != 8 || len(types) != 8 {
		t.Fatalf("all slices must have maxTokens length, got %d %d %d", len(ids), len(mask), len(types))
	}
	if ids[0] != 101 {
		t.Errorf("first token should be [CLS], got %d", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("token after words should be [SEP], got %d", ids[3])
	}
	for i := 0; i < 4; i++ {
		if mask[i] != 1 {
			t.Errorf("mask[%d] should be 1", i)
		}
	}
	for i := 4; i < 8; i++ {
		if mask[i] != 0 || ids[i] != 0 {
			t.Errorf("padding at %d should be zero", i)
		}
	}
}

func TestWordTokenizer_Truncates(t *testing.T) {
	tok := &WordTokenizer{}
	ids, mask, _ := tok.Tokenize("a b c d e f g h i j", 4)
	if len(ids) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(ids))
	}
	if mask[3] != 1 || ids[3] != 102 {
		t.Errorf("last slot should hold [SEP], got id %d mask %d", ids[3], mask[3])
	}
}

func TestWordTokenizer_Deterministic(t *testing.T) {
	tok := &WordTokenizer{}
	a, _, _ := tok.Tokenize("same text", 16)
	b, _, _ := tok.Tokenize("same text", 16)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("tokenization must be deterministic")
		}
	}
}

func TestHashString_NonNegative(t *testing.T) {
	for _, s := range []string{"", "a", "hello", "ümläut", "a longer sentence with many words"} {
		if HashString(s) < 0 {
			t.Errorf("HashString(%q) is negative", s)
		}
	}
}
