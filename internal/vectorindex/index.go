// Package vectorindex stores unit-normalized chunk vectors for a single
// video and answers top-k cosine similarity queries.
//
// Per-video chunk counts are typically tens to low hundreds, so the default
// search is an exact linear scan. Once an index is sealed with more rows than
// the ANN threshold, queries go through an IVF-flat partition scan instead
// (see ivf.go), which trades exactness for speed at a documented recall
// bound.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when a supplied vector's length does not
// match the index dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Hit is a single scored row from a query: the chunk it refers to and its
// cosine similarity to the query vector.
type Hit struct {
	ChunkIndex int
	Score      float32
}

type row struct {
	chunkIndex int
	vec        []float32 // unit-normalized at insert time
}

// Index holds the vectors for one video. Writes happen exactly once, by the
// builder that owns the video's build token; after Seal it is read-only, so
// concurrent queries need no locking.
type Index struct {
	dim  int
	rows []row

	annThreshold  int
	probeFraction float64
	parts         *partitions // non-nil once sealed above the threshold
}

// Option configures an Index.
type Option func(*Index)

// WithANNThreshold sets the row count above which Seal builds the
// approximate search structure. Zero or negative disables ANN entirely.
func WithANNThreshold(n int) Option {
	return func(idx *Index) { idx.annThreshold = n }
}

// WithProbeFraction sets the fraction of IVF partitions probed per query.
// Higher fractions raise recall at the cost of scan work.
func WithProbeFraction(f float64) Option {
	return func(idx *Index) { idx.probeFraction = f }
}

// New creates an empty index for vectors of the given dimension.
func New(dim int, opts ...Option) *Index {
	idx := &Index{
		dim:           dim,
		annThreshold:  defaultANNThreshold,
		probeFraction: defaultProbeFraction,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

const (
	defaultANNThreshold  = 256
	defaultProbeFraction = 0.35
)

// Dimension returns the fixed vector dimension of the index.
func (idx *Index) Dimension() int { return idx.dim }

// Len returns the number of stored vectors.
func (idx *Index) Len() int { return len(idx.rows) }

// Insert stores a vector for the given chunk index. The vector is normalized
// to unit length here so queries are a plain dot product.
func (idx *Index) Insert(chunkIndex int, vec []float32) error {
	if len(vec) != idx.dim {
		return fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vec), idx.dim)
	}
	idx.rows = append(idx.rows, row{chunkIndex: chunkIndex, vec: normalize(vec)})
	return nil
}

// Seal marks the index complete. If the row count exceeds the ANN threshold
// it builds the IVF partitions; below the threshold queries stay exact.
// Must be called before the index is shared across goroutines.
func (idx *Index) Seal() {
	if idx.annThreshold > 0 && len(idx.rows) >= idx.annThreshold {
		idx.parts = buildPartitions(idx.rows, idx.dim, idx.probeFraction)
	}
}

// Search returns up to k hits ordered by descending cosine similarity.
// Equal scores rank the lower chunk index first, so ordering is
// deterministic. An empty index yields an empty result, not an error.
func (idx *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has %d, index expects %d", ErrDimensionMismatch, len(query), idx.dim)
	}
	if k <= 0 || len(idx.rows) == 0 {
		return nil, nil
	}

	q := normalize(query)

	var candidates []int
	if idx.parts != nil {
		candidates = idx.parts.probe(q)
	} else {
		candidates = make([]int, len(idx.rows))
		for i := range idx.rows {
			candidates[i] = i
		}
	}

	hits := make([]Hit, 0, len(candidates))
	for _, i := range candidates {
		hits = append(hits, Hit{
			ChunkIndex: idx.rows[i].chunkIndex,
			Score:      dot(q, idx.rows[i].vec),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Approximate reports whether queries run through the IVF partitions rather
// than an exact scan.
func (idx *Index) Approximate() bool { return idx.parts != nil }

// normalize returns a unit-length copy of vec. The zero vector stays zero,
// scoring 0 against everything.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
