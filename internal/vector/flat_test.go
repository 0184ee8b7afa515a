package vector

import "testing"

func TestFlatIndex_AddSearch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	if err := idx.Add(vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	positions, distances, err := idx.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 results, got %d", len(positions))
	}
	if positions[0] != 0 {
		t.Errorf("top result should be position 0, got %d", positions[0])
	}
	if distances[0] != 0 {
		t.Errorf("exact match distance should be 0, got %f", distances[0])
	}
	if distances[0] > distances[1] {
		t.Errorf("distances not ascending: %v", distances)
	}
}

func TestFlatIndex_KLargerThanIndex(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	_ = idx.Add([][]float32{{1, 0}, {0, 1}})
	positions, _, err := idx.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 2 {
		t.Errorf("expected all 2 vectors, got %d", len(positions))
	}
}

func TestFlatIndex_TieBreakByPosition(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	// Two identical vectors: equal distance, lower position first.
	_ = idx.Add([][]float32{{0, 1}, {1, 0}, {1, 0}})
	positions, distances, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if positions[0] != 1 || positions[1] != 2 {
		t.Errorf("tie should resolve to ascending positions, got %v", positions)
	}
	if distances[0] != distances[1] {
		t.Errorf("expected equal distances for identical vectors, got %v", distances)
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(3)
	if err := idx.Add([][]float32{{1, 0}}); err == nil {
		t.Error("expected error adding 2-dim vector to 3-dim index")
	}
	_ = idx.Add([][]float32{{1, 0, 0}})
	if _, _, err := idx.Search([]float32{1, 0}, 1); err == nil {
		t.Error("expected error searching with 2-dim query")
	}
}

func TestFlatIndex_EmptySearch(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	positions, distances, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 0 || len(distances) != 0 {
		t.Errorf("empty index should return nothing, got %v %v", positions, distances)
	}
}
