package vectorindex

import (
	"math"
	"sort"
)

// partitions is an IVF-flat structure: rows are clustered around centroids,
// and a query only scans the lists whose centroids score highest. With the
// default probe fraction this returns the true top-k with recall >= 0.95 on
// realistic embedding distributions (see TestIVFRecall); exactness is not
// guaranteed.
type partitions struct {
	centroids [][]float32
	lists     [][]int // row offsets per centroid
	nprobe    int
}

const lloydIterations = 5

// buildPartitions clusters the rows with a fixed-iteration Lloyd pass.
// Centroids are seeded from evenly spaced rows, so the whole construction is
// deterministic for a given insert order - a requirement for idempotent
// rebuilds.
func buildPartitions(rows []row, dim int, probeFraction float64) *partitions {
	nlist := int(math.Sqrt(float64(len(rows))))
	if nlist < 1 {
		nlist = 1
	}

	centroids := make([][]float32, nlist)
	for c := 0; c < nlist; c++ {
		seed := rows[c*len(rows)/nlist].vec
		centroids[c] = append([]float32(nil), seed...)
	}

	assign := make([]int, len(rows))
	for iter := 0; iter < lloydIterations; iter++ {
		for i := range rows {
			assign[i] = nearestCentroid(rows[i].vec, centroids)
		}

		sums := make([][]float64, nlist)
		counts := make([]int, nlist)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i := range rows {
			c := assign[i]
			counts[c]++
			for d, v := range rows[i].vec {
				sums[c][d] += float64(v)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue // empty cluster keeps its old centroid
			}
			mean := make([]float32, dim)
			for d := range mean {
				mean[d] = float32(sums[c][d] / float64(counts[c]))
			}
			centroids[c] = normalize(mean)
		}
	}

	lists := make([][]int, nlist)
	for i := range rows {
		c := nearestCentroid(rows[i].vec, centroids)
		lists[c] = append(lists[c], i)
	}

	nprobe := int(math.Ceil(float64(nlist) * probeFraction))
	if nprobe < 1 {
		nprobe = 1
	}
	if nprobe > nlist {
		nprobe = nlist
	}

	return &partitions{centroids: centroids, lists: lists, nprobe: nprobe}
}

// probe returns the row offsets in the nprobe lists closest to the query.
func (p *partitions) probe(q []float32) []int {
	type scored struct {
		c     int
		score float32
	}
	order := make([]scored, len(p.centroids))
	for c := range p.centroids {
		order[c] = scored{c: c, score: dot(q, p.centroids[c])}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].c < order[j].c
	})

	var out []int
	for _, s := range order[:p.nprobe] {
		out = append(out, p.lists[s.c]...)
	}
	return out
}

func nearestCentroid(vec []float32, centroids [][]float32) int {
	best, bestScore := 0, float32(math.Inf(-1))
	for c, cent := range centroids {
		if s := dot(vec, cent); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
