package decomposition

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Iron-Ham/archmetrics/internal/errors"
)

// Field names inside a layer.
const (
	fieldDecomposition = "decomposition"
	fieldLinks         = "links"
	fieldID            = "id"
	fieldSource        = "source"
	fieldTarget        = "target"
	fieldWeight        = "weight"
)

// defaultWeight applies to links whose weight is absent or unusable.
const defaultWeight = 1.0

// Parse validates a decomposition document and builds its Graph.
//
// The returned error is always a *errors.DocumentError: invalid JSON, a
// missing or non-object structural layer, or a field of the wrong type. Links
// with an unknown endpoint are not errors; they are counted and dropped. A
// missing or malformed business layer yields a graph without use-case edges.
func Parse(data []byte, opts Options) (*Graph, error) {
	opts = opts.withDefaults()

	if !gjson.ValidBytes(data) {
		return nil, errors.NewDocumentError("document is not valid JSON", errors.ErrInvalidJSON)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.NewDocumentError("document root is not an object", errors.ErrInvalidStructure)
	}

	structural := member(root, opts.StructuralLayer)
	if !structural.Exists() {
		return nil, errors.NewDocumentError("structural layer missing", errors.ErrLayerMissing).
			WithLayer(opts.StructuralLayer)
	}
	if !structural.IsObject() {
		return nil, errors.NewDocumentError("structural layer is not an object", errors.ErrInvalidStructure).
			WithLayer(opts.StructuralLayer)
	}

	g := &Graph{
		index: make(map[string]int),
		nodes: make(map[string]int),
	}

	if err := g.readPartitions(member(structural, fieldDecomposition)); err != nil {
		return nil, err.WithLayer(opts.StructuralLayer)
	}
	if err := g.readLinks(member(structural, fieldLinks)); err != nil {
		return nil, err.WithLayer(opts.StructuralLayer)
	}
	g.readUseCases(member(root, opts.BusinessLayer), opts.UseCaseMarker)

	return g, nil
}

// readPartitions fills partitions and the node map. A duplicated partition key
// keeps its first position and its last node list, and a node declared in
// several partitions belongs to the last one.
func (g *Graph) readPartitions(decomp gjson.Result) *errors.DocumentError {
	if !decomp.Exists() {
		return nil
	}
	if !decomp.IsObject() {
		return errors.NewDocumentError("decomposition is not an object", errors.ErrInvalidStructure).
			WithField(fieldDecomposition)
	}

	var err *errors.DocumentError
	decomp.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		field := fieldDecomposition + "." + id
		if !value.IsArray() {
			err = errors.NewDocumentError("partition is not an array", errors.ErrInvalidStructure).
				WithField(field)
			return false
		}

		nodes := make([]string, 0)
		for i, node := range value.Array() {
			nodeID, ok := nodeIdentity(node)
			if !ok {
				err = errors.NewDocumentError("node has no scalar id", errors.ErrInvalidStructure).
					WithField(fmt.Sprintf("%s[%d]", field, i))
				return false
			}
			nodes = append(nodes, nodeID)
		}

		if pos, dup := g.index[id]; dup {
			g.partitions[pos].Nodes = nodes
			return true
		}
		g.index[id] = len(g.partitions)
		g.partitions = append(g.partitions, Partition{ID: id, Nodes: nodes})
		return true
	})
	if err != nil {
		return err
	}

	for pos, p := range g.partitions {
		for _, node := range p.Nodes {
			g.nodes[node] = pos
		}
	}
	return nil
}

// readLinks resolves structural links against the node map.
func (g *Graph) readLinks(links gjson.Result) *errors.DocumentError {
	if !links.Exists() {
		return nil
	}
	if !links.IsArray() {
		return errors.NewDocumentError("links is not an array", errors.ErrInvalidStructure).
			WithField(fieldLinks)
	}

	for i, link := range links.Array() {
		if !link.IsObject() {
			return errors.NewDocumentError("link is not an object", errors.ErrInvalidStructure).
				WithField(fmt.Sprintf("%s[%d]", fieldLinks, i))
		}

		source, okSource := scalarString(member(link, fieldSource))
		target, okTarget := scalarString(member(link, fieldTarget))
		from, knownSource := g.nodes[source]
		to, knownTarget := g.nodes[target]
		if !okSource || !okTarget || !knownSource || !knownTarget {
			g.discarded++
			continue
		}

		g.edges = append(g.edges, Edge{
			Source: source,
			Target: target,
			Weight: linkWeight(member(link, fieldWeight)),
			From:   from,
			To:     to,
		})
	}
	return nil
}

// readUseCases collects story links whose label carries the marker.
func (g *Graph) readUseCases(business gjson.Result, marker string) {
	if !business.IsObject() {
		return
	}
	links := member(business, fieldLinks)
	if !links.IsArray() {
		return
	}

	upper := cases.Upper(language.Und)
	want := upper.String(marker)

	for _, link := range links.Array() {
		if !link.IsObject() {
			continue
		}
		story := member(link, fieldSource)
		if story.Type != gjson.String || !strings.Contains(upper.String(story.Str), want) {
			continue
		}
		target, ok := scalarString(member(link, fieldTarget))
		if !ok {
			continue
		}
		g.useCases = append(g.useCases, UseCaseEdge{Story: story.Str, Target: target})
	}
}

// member returns the value of key in obj. As with most JSON decoders, the
// last occurrence of a duplicated key wins.
func member(obj gjson.Result, key string) gjson.Result {
	var found gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v
		}
		return true
	})
	return found
}

// nodeIdentity returns the scalar id of a node descriptor.
func nodeIdentity(node gjson.Result) (string, bool) {
	if !node.IsObject() {
		return "", false
	}
	return scalarString(member(node, fieldID))
}

// scalarString renders a string, number or boolean in its canonical string
// form, so that 7 and "7" name the same node. Integers keep every digit.
func scalarString(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, true
	case gjson.Number:
		if !strings.ContainsAny(v.Raw, ".eE") {
			if n, ok := new(big.Int).SetString(v.Raw, 10); ok {
				return n.String(), true
			}
		}
		s, err := cast.ToStringE(v.Float())
		if err != nil {
			return "", false
		}
		return s, true
	case gjson.True, gjson.False:
		s, err := cast.ToStringE(v.Value())
		if err != nil {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

// linkWeight parses a link weight, falling back to 1.0 when the weight is
// absent, null, not numeric, negative or not finite.
func linkWeight(v gjson.Result) float64 {
	if !v.Exists() || v.Type == gjson.Null || v.IsObject() || v.IsArray() {
		return defaultWeight
	}
	w, err := cast.ToFloat64E(v.Value())
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return defaultWeight
	}
	return w
}
