package metrics

import (
	"github.com/Iron-Ham/archmetrics/internal/decomposition"
)

// CyclicIndependence is the share of partition pairs without a reciprocal
// dependency.
type CyclicIndependence struct {
	Value       float64
	Partitions  int
	CyclicPairs int
	TotalPairs  int
}

// ComputeCyclicIndependence counts the unordered partition pairs (P, Q) where
// P depends on Q and Q depends on P. CiD = 1 - cyclic/total, and 1 when there
// are fewer than two partitions.
func ComputeCyclicIndependence(pg *decomposition.PartitionGraph) CyclicIndependence {
	n := pg.Len()
	res := CyclicIndependence{
		Value:      1.0,
		Partitions: n,
		TotalPairs: n * (n - 1) / 2,
	}
	if res.TotalPairs == 0 {
		return res
	}

	for p := 0; p < n; p++ {
		for _, q := range pg.Successors(p) {
			if q > p && pg.Adjacent(q, p) {
				res.CyclicPairs++
			}
		}
	}

	res.Value = 1 - float64(res.CyclicPairs)/float64(res.TotalPairs)
	return res
}
