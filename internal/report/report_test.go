package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/archmetrics/internal/metrics"
)

const shopDoc = `{
  "1_structural_static": {
    "decomposition": {
      "orders": [{"id": "Order"}, {"id": "OrderLine"}],
      "billing": [{"id": "Invoice"}],
      "catalog": [{"id": "Product"}, {"id": "Price"}, {"id": "Stock"}]
    },
    "links": [
      {"source": "Order", "target": "OrderLine"},
      {"source": "Order", "target": "Invoice"},
      {"source": "Invoice", "target": "Order"},
      {"source": "OrderLine", "target": "Product"},
      {"source": "Price", "target": "Stock"}
    ]
  },
  "3_business_use_cases": {
    "links": [
      {"source": "USE CASE: checkout", "target": "Order"},
      {"source": "USE CASE: browse", "target": "Product"}
    ]
  }
}`

func sampleRecords(t *testing.T) []metrics.Record {
	t.Helper()
	engine, err := metrics.NewEngine(metrics.DefaultOptions(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	return []metrics.Record{
		engine.Compute(ctx, "shop_c1.json", []byte(shopDoc)),
		engine.Compute(ctx, "broken_c2.json", []byte(`[]`)),
	}
}

func readCSV(t *testing.T, s string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV_Layouts(t *testing.T) {
	records := sampleRecords(t)

	tests := []struct {
		layout string
		want   [][]string
	}{
		{LayoutCiD, [][]string{
			{"file", "CiD", "partitions", "cyclic_pairs", "total_pairs"},
			{"shop_c1.json", "0.6667", "3", "1", "3"},
			{"broken_c2.json", "NA", "NA", "NA", "NA"},
		}},
		{LayoutCMod, [][]string{
			{"file", "CMod"},
			{"shop_c1.json", "0.3556"},
			{"broken_c2.json", "NA"},
		}},
		{LayoutSCF, [][]string{
			{"file", "SCF", "services", "external_edges"},
			{"shop_c1.json", "0.7071", "3", "3"},
			{"broken_c2.json", "NA", "NA", "NA"},
		}},
		{LayoutSMAD, [][]string{
			{"file", "SMAD", "services", "MAD_raw", "medSize", "min", "max"},
			{"shop_c1.json", "0.8750", "3", "1", "2", "1", "3"},
			{"broken_c2.json", "NA", "NA", "NA", "NA", "NA", "NA"},
		}},
		{LayoutDCCMD, [][]string{
			{"file", "DCCMD", "stories", "svc", "medDepth", "MADraw"},
			{"shop_c1.json", "0.800000", "2", "3", "0.500000", "0.500000"},
			{"broken_c2.json", "NA", "NA", "NA", "NA", "NA"},
		}},
		{LayoutDCCMDLong, [][]string{
			{"file", "story", "depth"},
			{"shop_c1.json", "USE CASE: checkout", "1"},
			{"shop_c1.json", "USE CASE: browse", "0"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			layout, err := LookupLayout(tt.layout)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, layout, records))
			assert.Equal(t, tt.want, readCSV(t, buf.String()))
		})
	}
}

func TestWriteCSV_Wide(t *testing.T) {
	layout, err := LookupLayout(LayoutWide)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, layout, sampleRecords(t)))
	rows := readCSV(t, buf.String())
	require.Len(t, rows, 3)

	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}

	shop, broken := rows[1], rows[2]
	assert.Equal(t, "shop", shop[col("project")])
	assert.Equal(t, "c1", shop[col("candidate")])
	assert.Equal(t, "0.6667", shop[col("CiD")])
	assert.Equal(t, "0.800000", shop[col("DCCMD")])
	assert.Empty(t, shop[col("error")])

	assert.Equal(t, "NA", broken[col("SMAD")])
	assert.NotEmpty(t, broken[col("error")])
}

func TestLookupLayout(t *testing.T) {
	assert.Equal(t, []string{"wide", "cid", "cmod", "scf", "smad", "dccmd", "dccmd_long"}, Layouts())

	_, err := LookupLayout("narrow")
	assert.Error(t, err)

	layout, err := MetricLayout("smad")
	require.NoError(t, err)
	assert.Equal(t, LayoutSMAD, layout.Name)

	layout, err = MetricLayout("DCCMD")
	require.NoError(t, err)
	assert.Equal(t, LayoutDCCMD, layout.Name)

	_, err = MetricLayout("lcom")
	assert.Error(t, err)
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRecords(t), Options{Format: FormatJSON}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.InDelta(t, 0.875, decoded[0]["SMAD"], 1e-12)
	assert.Nil(t, decoded[1]["SMAD"])
	assert.NotEmpty(t, decoded[1]["error"])

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRecords(t), Options{Format: FormatYAML}))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "shop_c1.json", decoded[0]["file"])
	assert.Equal(t, 0.875, decoded[0]["SMAD"])
	assert.Nil(t, decoded[1]["CiD"])
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRecords(t), Options{Format: FormatTable, Width: 160}))

	out := buf.String()
	assert.Contains(t, out, "shop_c1.json")
	assert.Contains(t, out, "0.6667")
	assert.Contains(t, out, "0.800000")
	assert.Contains(t, out, "NA")
	assert.Contains(t, out, "Notes")
}

func TestRenderTable_SelectedMetrics(t *testing.T) {
	out := RenderTable(sampleRecords(t)[:1], []string{metrics.NameSCF}, 100)
	assert.Contains(t, out, "SCF")
	assert.NotContains(t, out, "DCCMD")
	assert.Contains(t, out, "0.7071")
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, nil, Options{Format: "xml"})
	assert.ErrorContains(t, err, "xml")

	err = Write(&bytes.Buffer{}, nil, Options{Format: FormatCSV, Layout: "narrow"})
	assert.Error(t, err)
}

func TestNotes(t *testing.T) {
	rec := metrics.NewRecord("x_y.json")
	assert.Empty(t, notes(&rec))

	rec.Reasons = map[string]string{"SMAD": "no partitions", "CMod": "no partition has edges"}
	assert.Equal(t, "CMod: no partition has edges; SMAD: no partitions", notes(&rec))

	rec.Error = "invalid JSON"
	assert.Equal(t, "invalid JSON", notes(&rec))
}
