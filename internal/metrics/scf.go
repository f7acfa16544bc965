package metrics

import (
	"math"

	"github.com/Iron-Ham/archmetrics/internal/decomposition"
)

// CouplingFactor relates the number of services to the number of
// cross-service edges.
type CouplingFactor struct {
	Value         float64
	Services      int
	ExternalEdges int
}

// ComputeCouplingFactor returns sqrt(S / (S + E)) for S partitions and E
// cross-partition edges, or 0 when both are zero.
//
// The value rises as cross-partition edges shrink relative to the number of
// partitions, the opposite direction of the usual E / (E + S) coupling factor.
// Published results depend on this exact formula.
func ComputeCouplingFactor(pg *decomposition.PartitionGraph) CouplingFactor {
	res := CouplingFactor{
		Services:      pg.Len(),
		ExternalEdges: pg.CrossEdges(),
	}
	denom := res.Services + res.ExternalEdges
	if denom == 0 {
		return res
	}
	res.Value = math.Sqrt(float64(res.Services) / float64(denom))
	return res
}
