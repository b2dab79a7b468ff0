package vectorindex

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchExactMatchRanksFirst(t *testing.T) {
	idx := New(3)
	require.NoError(t, idx.Insert(0, []float32{1, 0, 0}))
	require.NoError(t, idx.Insert(1, []float32{0, 1, 0}))
	require.NoError(t, idx.Insert(2, []float32{0.7, 0.7, 0}))
	idx.Seal()

	hits, err := idx.Search([]float32{0, 2, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// A query identical in direction to a stored vector scores 1.0 and
	// ranks first.
	assert.Equal(t, 1, hits[0].ChunkIndex)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-5)
	assert.Equal(t, 2, hits[1].ChunkIndex)
	assert.Equal(t, 0, hits[2].ChunkIndex)
}

func TestSearchTieBreaksOnLowerChunkIndex(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Insert(5, []float32{1, 0}))
	require.NoError(t, idx.Insert(2, []float32{1, 0}))
	require.NoError(t, idx.Insert(9, []float32{1, 0}))
	idx.Seal()

	hits, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, 2, hits[0].ChunkIndex)
	assert.Equal(t, 5, hits[1].ChunkIndex)
	assert.Equal(t, 9, hits[2].ChunkIndex)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New(4)
	idx.Seal()

	hits, err := idx.Search([]float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchTruncatesToK(t *testing.T) {
	idx := New(2)
	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Insert(i, []float32{1, float32(i)}))
	}
	idx.Seal()

	hits, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	hits, err = idx.Search([]float32{1, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, hits, 10)
}

func TestDimensionMismatch(t *testing.T) {
	idx := New(3)

	err := idx.Insert(0, []float32{1, 0})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	require.NoError(t, idx.Insert(0, []float32{1, 0, 0}))
	_, err = idx.Search([]float32{1, 0, 0, 0}, 1)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestZeroQueryVector(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Insert(0, []float32{1, 0}))
	require.NoError(t, idx.Insert(1, []float32{0, 1}))
	idx.Seal()

	hits, err := idx.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// Everything scores zero; ordering falls back to chunk index.
	assert.Equal(t, 0, hits[0].ChunkIndex)
	assert.InDelta(t, 0.0, float64(hits[0].Score), 1e-6)
}

func TestSealBelowThresholdStaysExact(t *testing.T) {
	idx := New(2)
	for i := 0; i < 20; i++ {
		require.NoError(t, idx.Insert(i, []float32{float32(i), 1}))
	}
	idx.Seal()
	assert.False(t, idx.Approximate())
}

// TestIVFRecall documents the approximate searcher's contract: above the
// ANN threshold it must return the true top-k with recall >= 0.95 on
// clustered embeddings, not exactly.
func TestIVFRecall(t *testing.T) {
	const (
		dim      = 16
		clusters = 24
		perClust = 20
		k        = 10
		queries  = 30
	)
	rng := rand.New(rand.NewSource(42))

	centers := make([][]float32, clusters)
	for c := range centers {
		centers[c] = randomUnit(rng, dim)
	}

	var vectors [][]float32
	for c := 0; c < clusters; c++ {
		for i := 0; i < perClust; i++ {
			vectors = append(vectors, perturb(rng, centers[c], 0.1))
		}
	}

	approx := New(dim, WithANNThreshold(100))
	exact := New(dim, WithANNThreshold(0))
	for i, v := range vectors {
		require.NoError(t, approx.Insert(i, v))
		require.NoError(t, exact.Insert(i, v))
	}
	approx.Seal()
	exact.Seal()
	require.True(t, approx.Approximate())
	require.False(t, exact.Approximate())

	var totalRecall float64
	for q := 0; q < queries; q++ {
		query := perturb(rng, centers[q%clusters], 0.1)

		truth, err := exact.Search(query, k)
		require.NoError(t, err)
		got, err := approx.Search(query, k)
		require.NoError(t, err)

		truthSet := make(map[int]bool, len(truth))
		for _, h := range truth {
			truthSet[h.ChunkIndex] = true
		}
		found := 0
		for _, h := range got {
			if truthSet[h.ChunkIndex] {
				found++
			}
		}
		totalRecall += float64(found) / float64(len(truth))
	}

	recall := totalRecall / queries
	assert.GreaterOrEqual(t, recall, 0.95, "IVF recall %v below bound", recall)
}

func TestIVFDeterministic(t *testing.T) {
	const dim = 8
	rng := rand.New(rand.NewSource(7))
	vectors := make([][]float32, 300)
	for i := range vectors {
		vectors[i] = randomUnit(rng, dim)
	}

	build := func() *Index {
		idx := New(dim)
		for i, v := range vectors {
			require.NoError(t, idx.Insert(i, v))
		}
		idx.Seal()
		return idx
	}

	a, b := build(), build()
	require.True(t, a.Approximate())

	query := randomUnit(rand.New(rand.NewSource(9)), dim)
	ha, err := a.Search(query, 10)
	require.NoError(t, err)
	hb, err := b.Search(query, 10)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func randomUnit(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return normalize(v)
}

func perturb(rng *rand.Rand, base []float32, scale float64) []float32 {
	v := make([]float32, len(base))
	for i := range v {
		v[i] = base[i] + float32(rng.NormFloat64()*scale)
	}
	return v
}
