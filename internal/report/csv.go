package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/Iron-Ham/archmetrics/internal/errors"
	"github.com/Iron-Ham/archmetrics/internal/metrics"
)

// CSV layout names. LayoutWide carries every metric and diagnostic; the
// per-metric layouts keep the column order of the standalone metric reports
// so their files can be aggregated together.
const (
	LayoutWide      = "wide"
	LayoutCiD       = "cid"
	LayoutCMod      = "cmod"
	LayoutSCF       = "scf"
	LayoutSMAD      = "smad"
	LayoutDCCMD     = "dccmd"
	LayoutDCCMDLong = "dccmd_long"
)

// Layout is a CSV column set and the rows one record contributes to it.
type Layout struct {
	Name   string
	Header []string
	rows   func(rec *metrics.Record) [][]string
}

// Rows returns the CSV rows contributed by rec.
func (l Layout) Rows(rec *metrics.Record) [][]string {
	return l.rows(rec)
}

var layouts = []Layout{
	{
		Name: LayoutWide,
		Header: []string{
			"file", "project", "candidate",
			metrics.NameCiD, metrics.NameCMod, metrics.NameSCF, metrics.NameSMAD, metrics.NameDCCMD,
			"partitions", "cyclic_pairs", "total_pairs", "clustered_partitions", "external_edges",
			"discarded_edges", "stories", "median_depth", "depth_MAD", "size_MAD", "median_size",
			"min_size", "max_size", "error",
		},
		rows: func(r *metrics.Record) [][]string {
			d := r.Diagnostics
			return [][]string{{
				r.File, r.Project, r.Candidate,
				r.CiD.Format(metrics.ScorePrecision),
				r.CMod.Format(metrics.ScorePrecision),
				r.SCF.Format(metrics.ScorePrecision),
				r.SMAD.Format(metrics.ScorePrecision),
				r.DCCMD.Format(metrics.DepthPrecision),
				d.Partitions.String(), d.CyclicPairs.String(), d.TotalPairs.String(),
				d.ClusteredPartitions.String(), d.ExternalEdges.String(), d.DiscardedEdges.String(),
				d.Stories.String(),
				d.MedianDepth.Format(metrics.DepthPrecision),
				d.DepthMAD.Format(metrics.DepthPrecision),
				d.SizeMAD.Format(-1),
				d.MedianSize.Format(-1),
				d.MinSize.String(), d.MaxSize.String(),
				r.Error,
			}}
		},
	},
	{
		Name:   LayoutCiD,
		Header: []string{"file", metrics.NameCiD, "partitions", "cyclic_pairs", "total_pairs"},
		rows: func(r *metrics.Record) [][]string {
			d := r.Diagnostics
			return [][]string{{
				r.File, r.CiD.Format(metrics.ScorePrecision),
				d.Partitions.String(), d.CyclicPairs.String(), d.TotalPairs.String(),
			}}
		},
	},
	{
		Name:   LayoutCMod,
		Header: []string{"file", metrics.NameCMod},
		rows: func(r *metrics.Record) [][]string {
			return [][]string{{r.File, r.CMod.Format(metrics.ScorePrecision)}}
		},
	},
	{
		Name:   LayoutSCF,
		Header: []string{"file", metrics.NameSCF, "services", "external_edges"},
		rows: func(r *metrics.Record) [][]string {
			d := r.Diagnostics
			return [][]string{{
				r.File, r.SCF.Format(metrics.ScorePrecision), d.Partitions.String(), d.ExternalEdges.String(),
			}}
		},
	},
	{
		Name:   LayoutSMAD,
		Header: []string{"file", metrics.NameSMAD, "services", "MAD_raw", "medSize", "min", "max"},
		rows: func(r *metrics.Record) [][]string {
			d := r.Diagnostics
			services := d.Partitions.String()
			if !r.SMAD.Valid() {
				services = metrics.NotAvailable
			}
			return [][]string{{
				r.File, r.SMAD.Format(metrics.ScorePrecision), services,
				d.SizeMAD.Format(-1), d.MedianSize.Format(-1), d.MinSize.String(), d.MaxSize.String(),
			}}
		},
	},
	{
		Name:   LayoutDCCMD,
		Header: []string{"file", metrics.NameDCCMD, "stories", "svc", "medDepth", "MADraw"},
		rows: func(r *metrics.Record) [][]string {
			d := r.Diagnostics
			return [][]string{{
				r.File, r.DCCMD.Format(metrics.DepthPrecision), d.Stories.String(), d.Partitions.String(),
				d.MedianDepth.Format(metrics.DepthPrecision), d.DepthMAD.Format(metrics.DepthPrecision),
			}}
		},
	},
	{
		Name:   LayoutDCCMDLong,
		Header: []string{"file", "story", "depth"},
		rows: func(r *metrics.Record) [][]string {
			rows := make([][]string, 0, len(r.StoryDepths))
			for _, sd := range r.StoryDepths {
				rows = append(rows, []string{r.File, sd.Story, strconv.Itoa(sd.Depth)})
			}
			return rows
		},
	},
}

// Layouts returns the names of every CSV layout.
func Layouts() []string {
	names := make([]string, len(layouts))
	for i, l := range layouts {
		names[i] = l.Name
	}
	return names
}

// LookupLayout returns the named layout.
func LookupLayout(name string) (Layout, error) {
	i := slices.IndexFunc(layouts, func(l Layout) bool { return l.Name == name })
	if i < 0 {
		return Layout{}, fmt.Errorf("%w: unknown CSV layout %q", errors.ErrInvalidInput, name)
	}
	return layouts[i], nil
}

// MetricLayout returns the per-metric layout for a metric name.
func MetricLayout(metric string) (Layout, error) {
	name, err := metrics.Canonical(metric)
	if err != nil {
		return Layout{}, err
	}
	switch name {
	case metrics.NameCiD:
		return LookupLayout(LayoutCiD)
	case metrics.NameCMod:
		return LookupLayout(LayoutCMod)
	case metrics.NameSCF:
		return LookupLayout(LayoutSCF)
	case metrics.NameSMAD:
		return LookupLayout(LayoutSMAD)
	default:
		return LookupLayout(LayoutDCCMD)
	}
}

// WriteCSV writes records to w in the given layout.
func WriteCSV(w io.Writer, layout Layout, records []metrics.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(layout.Header); err != nil {
		return err
	}
	for i := range records {
		if err := cw.WriteAll(layout.Rows(&records[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
