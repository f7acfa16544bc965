package decomposition

import (
	"slices"
)

// -----------------------------------------------------------------------------
// Parse Options
// -----------------------------------------------------------------------------

// Default layer keys and story marker.
const (
	DefaultStructuralLayer = "1_structural_static"
	DefaultBusinessLayer   = "3_business_use_cases"
	DefaultUseCaseMarker   = "USE CASE"
)

// Options controls how a document is read.
type Options struct {
	// StructuralLayer is the top-level key holding partitions and links.
	StructuralLayer string

	// BusinessLayer is the top-level key holding story-to-node links.
	BusinessLayer string

	// UseCaseMarker must appear in a story label, ignoring case, for the
	// story's links to become use-case edges.
	UseCaseMarker string
}

// DefaultOptions returns the default layer keys and use-case marker.
func DefaultOptions() Options {
	return Options{
		StructuralLayer: DefaultStructuralLayer,
		BusinessLayer:   DefaultBusinessLayer,
		UseCaseMarker:   DefaultUseCaseMarker,
	}
}

// withDefaults fills empty fields with their defaults.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StructuralLayer == "" {
		o.StructuralLayer = d.StructuralLayer
	}
	if o.BusinessLayer == "" {
		o.BusinessLayer = d.BusinessLayer
	}
	if o.UseCaseMarker == "" {
		o.UseCaseMarker = d.UseCaseMarker
	}
	return o
}

// -----------------------------------------------------------------------------
// Graph Types
// -----------------------------------------------------------------------------

// Partition is one architectural unit (service, module) and the node ids
// declared under it, in document order. Duplicate declarations are kept, so
// len(Nodes) is the declared size.
type Partition struct {
	ID    string   `json:"id"`
	Nodes []string `json:"nodes"`
}

// Size returns the number of node descriptors declared under the partition.
func (p Partition) Size() int {
	return len(p.Nodes)
}

// Edge is a structural dependency whose endpoints both resolved to a partition.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`

	// From and To are the partition positions of Source and Target.
	From int `json:"from"`
	To   int `json:"to"`
}

// Cross reports whether the edge connects two different partitions.
func (e Edge) Cross() bool {
	return e.From != e.To
}

// UseCaseEdge links a use-case story to a node it touches directly.
// The target may not resolve to any partition.
type UseCaseEdge struct {
	Story  string `json:"story"`
	Target string `json:"target"`
}

// Story is a use-case story together with the partitions it touches directly.
type Story struct {
	Label string

	// Partitions holds partition positions, ascending and unique.
	Partitions []int
}

// Graph is the normalized decomposition of one document. It is immutable once
// built by Parse; accessors return copies where mutation would leak.
type Graph struct {
	partitions []Partition
	index      map[string]int // partition id -> position
	nodes      map[string]int // node id -> partition position
	edges      []Edge
	useCases   []UseCaseEdge
	discarded  int
}

// Partitions returns the partitions in document order.
func (g *Graph) Partitions() []Partition {
	return slices.Clone(g.partitions)
}

// NumPartitions returns the number of partitions.
func (g *Graph) NumPartitions() int {
	return len(g.partitions)
}

// Partition returns the partition at position i.
func (g *Graph) Partition(i int) Partition {
	return g.partitions[i]
}

// PartitionOf returns the position of the partition that node belongs to.
func (g *Graph) PartitionOf(node string) (int, bool) {
	i, ok := g.nodes[node]
	return i, ok
}

// NumNodes returns the number of distinct node ids with a partition.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Sizes returns the declared size of every partition, in document order.
func (g *Graph) Sizes() []int {
	sizes := make([]int, len(g.partitions))
	for i, p := range g.partitions {
		sizes[i] = p.Size()
	}
	return sizes
}

// Edges returns the structural edges whose endpoints both resolved.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// DiscardedEdges returns the number of links dropped because an endpoint is
// not a known node.
func (g *Graph) DiscardedEdges() int {
	return g.discarded
}

// UseCaseEdges returns the use-case edges whose story label carries the marker.
func (g *Graph) UseCaseEdges() []UseCaseEdge {
	return slices.Clone(g.useCases)
}

// Stories groups use-case edges by story, in order of each story's first
// resolved edge. Targets that are not known nodes are ignored, and a story
// with no resolved target is dropped.
func (g *Graph) Stories() []Story {
	var order []string
	touched := make(map[string][]int)

	for _, uc := range g.useCases {
		p, ok := g.nodes[uc.Target]
		if !ok {
			continue
		}
		parts, seen := touched[uc.Story]
		if !seen {
			order = append(order, uc.Story)
		}
		if !slices.Contains(parts, p) {
			touched[uc.Story] = append(parts, p)
		}
	}

	stories := make([]Story, 0, len(order))
	for _, label := range order {
		parts := touched[label]
		slices.Sort(parts)
		stories = append(stories, Story{Label: label, Partitions: parts})
	}
	return stories
}
