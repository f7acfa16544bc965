// Package decomposition turns a raw decomposition document into an immutable
// graph model shared by every architecture metric.
//
// A decomposition document groups code elements (nodes) into architectural
// partitions and lists directed, weighted dependency links between nodes. An
// optional business layer links use-case stories to the nodes they touch.
//
// # Structure
//
//   - [Graph] is the validated, normalized document: partitions in document
//     order, a node-to-partition map, resolved edges and use-case edges.
//   - [PartitionGraph] aggregates a Graph per partition: internal edge counts,
//     cross-partition weight sums and the partition adjacency relation.
//   - [PathSearch] finds the longest simple path in the partition adjacency
//     graph from a given partition.
//
// Structural validation happens once, in [Parse]. Everything downstream works
// on the typed model and never re-inspects the JSON.
//
// # Usage
//
//	g, err := decomposition.Parse(data, decomposition.DefaultOptions())
//	if err != nil {
//	    // document-level failure: every metric is unavailable
//	}
//	pg := decomposition.NewPartitionGraph(g)
//	search := decomposition.NewPathSearch(ctx, pg, 0)
//	depth, err := search.Longest(0)
package decomposition
