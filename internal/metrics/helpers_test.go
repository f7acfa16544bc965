package metrics

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/archmetrics/internal/decomposition"
)

// docBuilder assembles decomposition documents for tests. Partitions keep
// insertion order.
type docBuilder struct {
	partitions []string
	nodes      map[string][]string
	links      []map[string]any
	stories    []map[string]any
}

func newDoc() *docBuilder {
	return &docBuilder{nodes: make(map[string][]string)}
}

// partition declares a partition with the given nodes.
func (b *docBuilder) partition(id string, nodes ...string) *docBuilder {
	b.partitions = append(b.partitions, id)
	b.nodes[id] = nodes
	return b
}

// service declares a partition holding one node with the same name.
func (b *docBuilder) service(ids ...string) *docBuilder {
	for _, id := range ids {
		b.partition(id, id)
	}
	return b
}

func (b *docBuilder) link(source, target string) *docBuilder {
	b.links = append(b.links, map[string]any{"source": source, "target": target})
	return b
}

func (b *docBuilder) weighted(source, target string, weight float64) *docBuilder {
	b.links = append(b.links, map[string]any{"source": source, "target": target, "weight": weight})
	return b
}

// chain links every consecutive pair written as "A>B>C".
func (b *docBuilder) chain(path string) *docBuilder {
	parts := strings.Split(path, ">")
	for i := 0; i+1 < len(parts); i++ {
		b.link(parts[i], parts[i+1])
	}
	return b
}

func (b *docBuilder) story(label string, targets ...string) *docBuilder {
	for _, target := range targets {
		b.stories = append(b.stories, map[string]any{"source": label, "target": target})
	}
	return b
}

func (b *docBuilder) bytes(t *testing.T) []byte {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(`{"1_structural_static": {"decomposition": {`)
	for i, id := range b.partitions {
		if i > 0 {
			sb.WriteString(",")
		}
		nodes := make([]map[string]string, 0, len(b.nodes[id]))
		for _, n := range b.nodes[id] {
			nodes = append(nodes, map[string]string{"id": n})
		}
		key, err := json.Marshal(id)
		require.NoError(t, err)
		value, err := json.Marshal(nodes)
		require.NoError(t, err)
		fmt.Fprintf(&sb, "%s: %s", key, value)
	}
	links, err := json.Marshal(append([]map[string]any{}, b.links...))
	require.NoError(t, err)
	fmt.Fprintf(&sb, `}, "links": %s}`, links)

	if b.stories != nil {
		stories, err := json.Marshal(b.stories)
		require.NoError(t, err)
		fmt.Fprintf(&sb, `, "3_business_use_cases": {"links": %s}`, stories)
	}
	sb.WriteString("}")
	return []byte(sb.String())
}

func (b *docBuilder) graph(t *testing.T) *decomposition.PartitionGraph {
	t.Helper()
	g, err := decomposition.Parse(b.bytes(t), decomposition.DefaultOptions())
	require.NoError(t, err)
	return decomposition.NewPartitionGraph(g)
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	engine, err := NewEngine(opts, nil)
	require.NoError(t, err)
	return engine
}
