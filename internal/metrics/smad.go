package metrics

import (
	"github.com/Iron-Ham/archmetrics/internal/decomposition"
	"github.com/Iron-Ham/archmetrics/internal/errors"
	"github.com/Iron-Ham/archmetrics/internal/stats"
)

// SizeDispersion describes how evenly nodes are spread over partitions.
type SizeDispersion struct {
	Value      float64
	MAD        float64
	MedianSize float64
	Services   int
	MinSize    int
	MaxSize    int
}

// ComputeSizeDispersion returns 1 - MAD/(MAD+k) over the declared partition
// sizes, edge-less partitions included. It fails with ErrNoPartitions when
// the decomposition is empty.
func ComputeSizeDispersion(g *decomposition.Graph, k float64) (SizeDispersion, error) {
	sizes := stats.Floats(g.Sizes())
	res := SizeDispersion{Services: len(sizes)}

	mad, median, err := stats.MAD(sizes)
	if err != nil {
		return res, errors.NewMetricError(NameSMAD, errors.ErrNoPartitions)
	}
	lo, hi, err := stats.Range(sizes)
	if err != nil {
		return res, errors.NewMetricError(NameSMAD, errors.ErrNoPartitions)
	}

	res.MAD = mad
	res.MedianSize = median
	res.MinSize = int(lo)
	res.MaxSize = int(hi)
	res.Value = stats.DispersionScore(mad, k)
	return res, nil
}
