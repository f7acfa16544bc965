package decomposition

import (
	"github.com/bits-and-blooms/bitset"
)

// PartitionStats holds the edge aggregates of one partition.
type PartitionStats struct {
	ID   string `json:"id"`
	Size int    `json:"size"`

	// Internal counts edges with both endpoints in the partition.
	Internal int `json:"internal"`

	// Outgoing and Incoming sum the weights of cross-partition edges
	// leaving and entering the partition.
	Outgoing float64 `json:"outgoing"`
	Incoming float64 `json:"incoming"`
}

// External returns the total cross-partition weight touching the partition.
func (s PartitionStats) External() float64 {
	return s.Outgoing + s.Incoming
}

// HasEdges reports whether any edge touches the partition.
func (s PartitionStats) HasEdges() bool {
	return s.Internal > 0 || s.External() > 0
}

// PartitionGraph aggregates a Graph per partition. It is computed once per
// document so every metric sees the same edge interpretation.
type PartitionGraph struct {
	graph      *Graph
	stats      []PartitionStats
	adjacency  []*bitset.BitSet // adjacency[p] has bit q set iff some edge goes p -> q, p != q
	crossEdges int
}

// NewPartitionGraph computes the per-partition aggregates of g.
func NewPartitionGraph(g *Graph) *PartitionGraph {
	n := g.NumPartitions()
	pg := &PartitionGraph{
		graph:     g,
		stats:     make([]PartitionStats, n),
		adjacency: make([]*bitset.BitSet, n),
	}

	for i, p := range g.partitions {
		pg.stats[i] = PartitionStats{ID: p.ID, Size: p.Size()}
		pg.adjacency[i] = bitset.New(uint(n))
	}

	for _, e := range g.edges {
		if !e.Cross() {
			pg.stats[e.From].Internal++
			continue
		}
		pg.crossEdges++
		pg.stats[e.From].Outgoing += e.Weight
		pg.stats[e.To].Incoming += e.Weight
		pg.adjacency[e.From].Set(uint(e.To))
	}

	return pg
}

// Graph returns the underlying decomposition graph.
func (pg *PartitionGraph) Graph() *Graph {
	return pg.graph
}

// Len returns the number of partitions.
func (pg *PartitionGraph) Len() int {
	return len(pg.stats)
}

// Stats returns the aggregates of partition p.
func (pg *PartitionGraph) Stats(p int) PartitionStats {
	return pg.stats[p]
}

// CrossEdges returns the number of resolved edges between different
// partitions. Every link entry counts, including repeats of the same pair.
func (pg *PartitionGraph) CrossEdges() int {
	return pg.crossEdges
}

// Adjacent reports whether some cross-partition edge goes from p to q.
func (pg *PartitionGraph) Adjacent(p, q int) bool {
	return pg.adjacency[p].Test(uint(q))
}

// Successors returns the partitions adjacent from p, ascending.
func (pg *PartitionGraph) Successors(p int) []int {
	row := pg.adjacency[p]
	out := make([]int, 0, row.Count())
	for i, ok := row.NextSet(0); ok; i, ok = row.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// ServiceEdges returns the number of distinct ordered partition pairs (p, q)
// with p adjacent to q.
func (pg *PartitionGraph) ServiceEdges() int {
	total := 0
	for _, row := range pg.adjacency {
		total += int(row.Count())
	}
	return total
}
