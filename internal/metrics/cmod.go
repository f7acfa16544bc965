package metrics

import (
	"github.com/Iron-Ham/archmetrics/internal/decomposition"
	"github.com/Iron-Ham/archmetrics/internal/errors"
	"github.com/Iron-Ham/archmetrics/internal/stats"
)

// ClusterFactor is the cohesion score of one partition.
type ClusterFactor struct {
	Partition string
	Value     float64
}

// Modularity is the mean cluster factor over partitions that touch an edge.
type Modularity struct {
	Value   float64
	Factors []ClusterFactor
}

// PartitionClusterFactor returns 2i / (2i + e) for i internal edges and e
// external weight, 1 for a partition with internal edges only, and false for
// a partition with neither.
func PartitionClusterFactor(s decomposition.PartitionStats) (float64, bool) {
	external := s.External()
	switch {
	case s.Internal == 0 && external == 0:
		return 0, false
	case external == 0:
		return 1.0, true
	default:
		twice := 2 * float64(s.Internal)
		return twice / (twice + external), true
	}
}

// ComputeModularity averages the cluster factors in document order. It fails
// with ErrNoClusteredPartitions when no partition has any edge.
func ComputeModularity(pg *decomposition.PartitionGraph) (Modularity, error) {
	var res Modularity
	values := make([]float64, 0, pg.Len())

	for p := 0; p < pg.Len(); p++ {
		s := pg.Stats(p)
		cf, ok := PartitionClusterFactor(s)
		if !ok {
			continue
		}
		res.Factors = append(res.Factors, ClusterFactor{Partition: s.ID, Value: cf})
		values = append(values, cf)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return res, errors.NewMetricError(NameCMod, errors.ErrNoClusteredPartitions)
	}
	res.Value = mean
	return res, nil
}
