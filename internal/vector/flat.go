// Package vector provides the dense retrieval engine: a flat exact similarity
// index and the document registry built on top of it.
package vector

import (
	"fmt"
	"sort"
)

// FlatIndex is an exact (non-approximate) vector index using brute-force
// squared-Euclidean distance. Vectors are append-only: the vector at position
// i always corresponds to registry entry i.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
}

// NewFlatIndex creates a flat index with the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Add appends vectors to the index in order.
func (f *FlatIndex) Add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != f.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(v), f.dimensions)
		}
	}
	for _, v := range vectors {
		vec := make([]float32, f.dimensions)
		copy(vec, v)
		f.vectors = append(f.vectors, vec)
	}
	return nil
}

// Search returns the positions and squared-L2 distances of the k nearest
// vectors, rank-ordered by ascending distance. When k exceeds the number of
// stored vectors, all of them are returned.
func (f *FlatIndex) Search(query []float32, k int) ([]int, []float32, error) {
	if len(query) != f.dimensions {
		return nil, nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil, nil
	}
	type scored struct {
		pos  int
		dist float32
	}
	scores := make([]scored, len(f.vectors))
	for i, vec := range f.vectors {
		var dist float32
		for j := 0; j < f.dimensions; j++ {
			d := query[j] - vec[j]
			dist += d * d
		}
		scores[i] = scored{pos: i, dist: dist}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].dist != scores[j].dist {
			return scores[i].dist < scores[j].dist
		}
		return scores[i].pos < scores[j].pos
	})
	if k > len(scores) {
		k = len(scores)
	}
	positions := make([]int, k)
	distances := make([]float32, k)
	for i := 0; i < k; i++ {
		positions[i] = scores[i].pos
		distances[i] = scores[i].dist
	}
	return positions, distances, nil
}

// Size returns the number of stored vectors.
func (f *FlatIndex) Size() int {
	return len(f.vectors)
}

// Dimensions returns the vector dimension.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// At returns the vector stored at position i (not copied; callers must not mutate).
func (f *FlatIndex) At(i int) []float32 {
	return f.vectors[i]
}
