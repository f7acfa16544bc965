package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/archmetrics/internal/decomposition"
	"github.com/Iron-Ham/archmetrics/internal/logging"
)

func shopDoc() *docBuilder {
	return newDoc().
		partition("orders", "Order", "OrderLine").
		partition("billing", "Invoice").
		partition("catalog", "Product", "Price", "Stock").
		link("Order", "OrderLine").
		link("Order", "Invoice").
		link("Invoice", "Order").
		link("OrderLine", "Product").
		link("Price", "Stock").
		link("Stock", "Nowhere").
		story("USE CASE: checkout", "Order").
		story("USE CASE: browse", "Product")
}

func TestEngine_Compute(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	rec := engine.Compute(context.Background(), "shop_candidate1.json", shopDoc().bytes(t))

	assert.Empty(t, rec.Error)
	assert.Empty(t, rec.Reasons)
	assert.Equal(t, "shop", rec.Project)
	assert.Equal(t, "candidate1", rec.Candidate)
	assert.Equal(t, 5, rec.Available())

	// orders<->billing is the only reciprocal pair of three
	assert.Equal(t, "0.6667", rec.CiD.Format(ScorePrecision))
	// S=3, E=3
	assert.Equal(t, "0.7071", rec.SCF.Format(ScorePrecision))
	// sizes 2 1 3: median 2, MAD 1
	assert.Equal(t, "0.8750", rec.SMAD.Format(ScorePrecision))
	// depths: checkout orders->catalog = 1 (billing->orders is visited), browse = 0
	assert.Equal(t, "0.800000", rec.DCCMD.Format(DepthPrecision))

	// orders: 2/(2+3)=0.4, billing: 0, catalog: 2/(2+1)
	cmod, ok := rec.CMod.Get()
	require.True(t, ok)
	assert.InDelta(t, (0.4+0+2.0/3.0)/3, cmod, 1e-12)

	d := rec.Diagnostics
	assert.Equal(t, "3", d.Partitions.String())
	assert.Equal(t, "1", d.CyclicPairs.String())
	assert.Equal(t, "3", d.TotalPairs.String())
	assert.Equal(t, "3", d.ClusteredPartitions.String())
	assert.Equal(t, "3", d.ExternalEdges.String())
	assert.Equal(t, "1", d.DiscardedEdges.String())
	assert.Equal(t, "2", d.Stories.String())
	assert.Equal(t, "1", d.MinSize.String())
	assert.Equal(t, "3", d.MaxSize.String())
	assert.Equal(t, []StoryDepth{{"USE CASE: checkout", 1}, {"USE CASE: browse", 0}}, rec.StoryDepths)
}

func TestEngine_MalformedDocument(t *testing.T) {
	var buf bytes.Buffer
	engine, err := NewEngine(DefaultOptions(), logging.NewWriterLogger(&buf, logging.LevelDebug))
	require.NoError(t, err)

	for _, doc := range []string{`not json`, `{"other": {}}`, `{"1_structural_static": {"links": 3}}`} {
		rec := engine.Compute(context.Background(), "broken_c1.json", []byte(doc))

		assert.NotEmpty(t, rec.Error, doc)
		assert.Contains(t, rec.Error, "document=broken_c1.json")
		assert.Zero(t, rec.Available(), doc)
		assert.False(t, rec.Diagnostics.Partitions.Valid())
		assert.Equal(t, "broken", rec.Project)
	}
	assert.Contains(t, buf.String(), `"msg":"document not available"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestEngine_IndependentMetrics(t *testing.T) {
	var buf bytes.Buffer
	engine, err := NewEngine(DefaultOptions(), logging.NewWriterLogger(&buf, logging.LevelDebug))
	require.NoError(t, err)

	// No stories and no edges: CMod and DCCMD are unavailable, the rest are not.
	doc := newDoc().service("A", "B").bytes(t)
	rec := engine.Compute(context.Background(), "lonely.json", doc)

	assert.Empty(t, rec.Error)
	assert.Equal(t, 1.0, mustGet(t, rec.CiD))
	assert.Equal(t, 1.0, mustGet(t, rec.SCF))
	assert.Equal(t, 1.0, mustGet(t, rec.SMAD))
	assert.False(t, rec.CMod.Valid())
	assert.False(t, rec.DCCMD.Valid())
	assert.Equal(t, "no partition has edges", rec.Reasons[NameCMod])
	assert.Equal(t, "no use-case stories", rec.Reasons[NameDCCMD])
	assert.Equal(t, "2", rec.Diagnostics.Partitions.String())
	assert.Empty(t, rec.Project, "no underscore, no identity")

	assert.Contains(t, buf.String(), `"metric":"DCCMD"`)
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestEngine_LogsGraphSummary(t *testing.T) {
	var buf bytes.Buffer
	engine, err := NewEngine(DefaultOptions(), logging.NewWriterLogger(&buf, logging.LevelDebug))
	require.NoError(t, err)

	engine.Compute(context.Background(), "shop_c.json", shopDoc().bytes(t))

	var summary map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "document computed" {
			summary = entry
		}
	}
	require.NotNil(t, summary)
	assert.Equal(t, "shop_c.json", summary["document"])
	assert.Equal(t, 3.0, summary["service_edges"])
	assert.Equal(t, 2.0, summary["use_case_edges"])
	assert.NotContains(t, buf.String(), `"level":"ERROR"`)
}

func TestEngine_EmptyDecomposition(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	rec := engine.Compute(context.Background(), "empty_c.json", []byte(`{"1_structural_static": {}}`))

	assert.Empty(t, rec.Error)
	assert.Equal(t, 1.0, mustGet(t, rec.CiD))
	assert.Equal(t, 0.0, mustGet(t, rec.SCF))
	assert.False(t, rec.SMAD.Valid())
	assert.False(t, rec.CMod.Valid())
	assert.False(t, rec.DCCMD.Valid())
	assert.Contains(t, rec.Reasons[NameSMAD], "no partitions")
}

func TestEngine_SelectedMetrics(t *testing.T) {
	opts := DefaultOptions()
	opts.Metrics = []string{"dccmd", "cid", "CiD"}
	engine := newTestEngine(t, opts)

	assert.Equal(t, []string{NameCiD, NameDCCMD}, engine.Metrics())

	rec := engine.Compute(context.Background(), "shop_c.json", shopDoc().bytes(t))
	assert.True(t, rec.CiD.Valid())
	assert.True(t, rec.DCCMD.Valid())
	assert.False(t, rec.SCF.Valid())
	assert.Empty(t, rec.Reasons, "metrics that were not requested have no reason")

	_, err := NewEngine(Options{Metrics: []string{"lcom"}}, nil)
	assert.Error(t, err)
}

func TestEngine_BudgetOnlyAffectsDCCMD(t *testing.T) {
	names := []string{"A", "B", "C", "D", "E", "F"}
	doc := newDoc().service(names...).story("USE CASE", "A")
	for _, a := range names {
		for _, b := range names {
			if a != b {
				doc.link(a, b)
			}
		}
	}

	opts := DefaultOptions()
	opts.PathSearchBudget = 3
	rec := newTestEngine(t, opts).Compute(context.Background(), "dense_c.json", doc.bytes(t))

	assert.False(t, rec.DCCMD.Valid())
	assert.Contains(t, rec.Reasons[NameDCCMD], "budget")
	assert.Equal(t, 4, rec.Available())
}

func TestEngine_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := newTestEngine(t, DefaultOptions()).Compute(ctx, "shop_c.json", shopDoc().bytes(t))
	assert.False(t, rec.DCCMD.Valid())
	assert.Contains(t, rec.Reasons[NameDCCMD], "canceled")
	assert.True(t, rec.CiD.Valid())
}

func TestEngine_CustomConstantsAndLayers(t *testing.T) {
	opts := DefaultOptions()
	opts.SizeConstant = 1
	opts.Parse = decomposition.Options{StructuralLayer: "structure"}
	engine := newTestEngine(t, opts)

	doc := strings.Replace(string(newDoc().partition("A", "a", "b", "c").partition("B", "d").bytes(t)),
		"1_structural_static", "structure", 1)
	rec := engine.Compute(context.Background(), "x_y.json", []byte(doc))

	// sizes 3 1: median 2, MAD 1, K 1
	assert.Equal(t, 0.5, mustGet(t, rec.SMAD))
}

func TestEngine_Idempotent(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	data := shopDoc().bytes(t)

	first, err := json.Marshal(engine.Compute(context.Background(), "shop_c.json", data))
	require.NoError(t, err)
	for range 5 {
		again, err := json.Marshal(engine.Compute(context.Background(), "shop_c.json", data))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func mustGet(t *testing.T, v Value) float64 {
	t.Helper()
	f, ok := v.Get()
	require.True(t, ok, "value should be available")
	return f
}
