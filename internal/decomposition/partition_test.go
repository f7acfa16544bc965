package decomposition

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serviceDocument builds a document in which every partition holds a single
// node named after it, and each link "A>B" connects the nodes of A and B.
func serviceDocument(partitions []string, links ...string) string {
	var sb strings.Builder
	sb.WriteString(`{"1_structural_static": {"decomposition": {`)
	for i, p := range partitions {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `%s: [{"id": %s}]`, strconv.Quote(p), strconv.Quote(p))
	}
	sb.WriteString(`}, "links": [`)
	for i, link := range links {
		from, to, _ := strings.Cut(link, ">")
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `{"source": %s, "target": %s}`, strconv.Quote(from), strconv.Quote(to))
	}
	sb.WriteString(`]}}`)
	return sb.String()
}

func TestNewPartitionGraph_Aggregates(t *testing.T) {
	g := mustParse(t, shopDocument)
	pg := NewPartitionGraph(g)

	require.Equal(t, 4, pg.Len())
	assert.Same(t, g, pg.Graph())

	orders := pg.Stats(0)
	assert.Equal(t, "orders", orders.ID)
	assert.Equal(t, 2, orders.Size)
	assert.Equal(t, 1, orders.Internal)
	assert.InDelta(t, 3.5, orders.Outgoing, 1e-12, "0.5 to billing + 3 to catalog")
	assert.InDelta(t, 1.0, orders.Incoming, 1e-12)
	assert.InDelta(t, 4.5, orders.External(), 1e-12)

	catalog := pg.Stats(2)
	assert.Equal(t, 1, catalog.Internal)
	assert.Zero(t, catalog.Outgoing)
	assert.InDelta(t, 3.0, catalog.Incoming, 1e-12)

	empty := pg.Stats(3)
	assert.False(t, empty.HasEdges())
	assert.True(t, orders.HasEdges())

	assert.Equal(t, 3, pg.CrossEdges())
}

func TestPartitionGraph_Adjacency(t *testing.T) {
	g := mustParse(t, serviceDocument(
		[]string{"A", "B", "C", "D"},
		"A>B", "A>B", "B>A", "B>C", "C>C", "D>Z",
	))
	pg := NewPartitionGraph(g)

	assert.True(t, pg.Adjacent(0, 1))
	assert.True(t, pg.Adjacent(1, 0))
	assert.True(t, pg.Adjacent(1, 2))
	assert.False(t, pg.Adjacent(2, 1), "direction is preserved")
	assert.False(t, pg.Adjacent(2, 2), "self loops are internal edges")

	assert.Equal(t, []int{1}, pg.Successors(0))
	assert.Equal(t, []int{0, 2}, pg.Successors(1))
	assert.Empty(t, pg.Successors(3))

	assert.Equal(t, 4, pg.CrossEdges(), "repeated links each count")
	assert.Equal(t, 3, pg.ServiceEdges(), "distinct ordered pairs")
	assert.Equal(t, 1, pg.Stats(2).Internal)
	assert.Equal(t, 1, g.DiscardedEdges())
}

func TestPartitionGraph_ZeroWeightCrossEdge(t *testing.T) {
	doc := `{"1_structural_static": {
		"decomposition": {"a": [{"id": "x"}], "b": [{"id": "y"}]},
		"links": [{"source": "x", "target": "y", "weight": 0}]
	}}`
	pg := NewPartitionGraph(mustParse(t, doc))

	assert.True(t, pg.Adjacent(0, 1), "adjacency ignores weight")
	assert.Equal(t, 1, pg.CrossEdges())
	assert.False(t, pg.Stats(0).HasEdges(), "no internal edge and no external weight")
}
