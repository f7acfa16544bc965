package report

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/Iron-Ham/archmetrics/internal/metrics"
)

// DefaultAggregateFile is the output name used when none is given.
const DefaultAggregateFile = "metrics_agg.csv"

// aggregateHeader is the column order of an aggregated table.
var aggregateHeader = []string{"Project", "Candidate",
	metrics.NameCiD, metrics.NameCMod, metrics.NameSCF, metrics.NameSMAD, metrics.NameDCCMD}

// Column names recognised for each metric, in order of preference.
var metricAliases = map[string][]string{
	metrics.NameCiD:   {metrics.NameCiD},
	metrics.NameCMod:  {metrics.NameCMod, "overall_modularity", "overall_mod"},
	metrics.NameSCF:   {metrics.NameSCF},
	metrics.NameSMAD:  {metrics.NameSMAD},
	metrics.NameDCCMD: {metrics.NameDCCMD},
}

// Constant-suffixed columns, with the suffix preferred when several exist.
var (
	smadVariant  = regexp.MustCompile(`^SMAD_c[\d.]+$`)
	dccmdVariant = regexp.MustCompile(`^DCCMD_c[\d.]+$`)
)

const (
	preferredSMAD  = "SMAD_c7"
	preferredDCCMD = "DCCMD_c2.0"
)

// AggregateRow is one (project, candidate) line of an aggregated table.
// Values are already formatted; missing metrics are NA.
type AggregateRow struct {
	Project   string
	Candidate string
	Values    map[string]string
}

// Value returns the formatted value of the named metric.
func (r AggregateRow) Value(metric string) string {
	if v, ok := r.Values[metric]; ok {
		return v
	}
	return metrics.NotAvailable
}

type identity struct {
	project   string
	candidate string
}

// Aggregator merges metric tables keyed by (project, candidate). Later input
// overrides earlier input for the same key and metric, NA included.
type Aggregator struct {
	precision int
	rows      map[identity]map[string]string
}

// NewAggregator creates an Aggregator that renders numbers with precision
// decimals.
func NewAggregator(precision int) *Aggregator {
	return &Aggregator{precision: precision, rows: make(map[identity]map[string]string)}
}

// AddCSV merges one CSV table. A table without a "file" column or without
// any recognised metric column is ignored. It returns the number of rows
// merged.
func (a *Aggregator) AddCSV(r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	fileCol := slices.Index(header, "file")
	columns := metricColumns(header)
	if fileCol < 0 || len(columns) == 0 {
		return 0, nil
	}

	merged := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return merged, nil
		}
		if err != nil {
			return merged, err
		}

		project, candidate, ok := metrics.ParseIdentity(field(row, fileCol))
		if !ok {
			continue
		}
		values := a.entry(project, candidate)
		for _, metric := range metrics.Names() {
			if col, ok := columns[metric]; ok {
				values[metric] = a.Format(field(row, col))
			}
		}
		merged++
	}
}

// AddRecord merges a computed record. Records without an identity are
// ignored.
func (a *Aggregator) AddRecord(rec metrics.Record) bool {
	if rec.Project == "" || rec.Candidate == "" {
		return false
	}
	values := a.entry(rec.Project, rec.Candidate)
	for _, metric := range metrics.Names() {
		values[metric] = rec.Value(metric).Format(a.precision)
	}
	return true
}

func (a *Aggregator) entry(project, candidate string) map[string]string {
	key := identity{project: project, candidate: candidate}
	values, ok := a.rows[key]
	if !ok {
		values = make(map[string]string, len(metricAliases))
		a.rows[key] = values
	}
	return values
}

// Len returns the number of distinct identities merged so far.
func (a *Aggregator) Len() int {
	return len(a.rows)
}

// Rows returns the merged table sorted by project, then candidate.
func (a *Aggregator) Rows() []AggregateRow {
	rows := make([]AggregateRow, 0, len(a.rows))
	for key, values := range a.rows {
		row := AggregateRow{Project: key.project, Candidate: key.candidate, Values: make(map[string]string)}
		for _, metric := range metrics.Names() {
			row.Values[metric] = cmp.Or(values[metric], metrics.NotAvailable)
		}
		rows = append(rows, row)
	}
	slices.SortFunc(rows, func(x, y AggregateRow) int {
		return cmp.Or(cmp.Compare(x.Project, y.Project), cmp.Compare(x.Candidate, y.Candidate))
	})
	return rows
}

// WriteCSV writes the merged table as Project,Candidate,CiD,CMod,SCF,SMAD,DCCMD.
func (a *Aggregator) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(aggregateHeader); err != nil {
		return err
	}
	for _, row := range a.Rows() {
		line := []string{row.Project, row.Candidate}
		for _, metric := range metrics.Names() {
			line = append(line, row.Value(metric))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Format renders a raw cell: numbers get the aggregator's precision, blank
// and NA cells become NA, anything else is kept as is.
func (a *Aggregator) Format(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, metrics.NotAvailable) {
		return metrics.NotAvailable
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return s
	}
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', a.precision, 64)
}

// AggregateDir merges every *.csv file directly inside dir, in name order,
// skipping the file at out. It returns the names of the files that
// contributed rows.
func (a *Aggregator) AggregateDir(fs afero.Fs, dir, out string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", dir, err)
	}

	outAbs := absPath(out)
	var used []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if out != "" && absPath(path) == outAbs {
			continue
		}

		n, err := a.addFile(fs, path)
		if err != nil {
			return used, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		if n > 0 {
			used = append(used, entry.Name())
		}
	}
	return used, nil
}

func (a *Aggregator) addFile(fs afero.Fs, path string) (int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return a.AddCSV(f)
}

// metricColumns maps each metric to the index of the header column that
// carries it.
func metricColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for metric, aliases := range metricAliases {
		for _, alias := range aliases {
			if i := slices.Index(header, alias); i >= 0 {
				columns[metric] = i
				break
			}
		}
	}
	if _, ok := columns[metrics.NameSMAD]; !ok {
		if i := variantColumn(header, smadVariant, preferredSMAD); i >= 0 {
			columns[metrics.NameSMAD] = i
		}
	}
	if _, ok := columns[metrics.NameDCCMD]; !ok {
		if i := variantColumn(header, dccmdVariant, preferredDCCMD); i >= 0 {
			columns[metrics.NameDCCMD] = i
		}
	}
	return columns
}

func variantColumn(header []string, pattern *regexp.Regexp, preferred string) int {
	if i := slices.Index(header, preferred); i >= 0 {
		return i
	}
	return slices.IndexFunc(header, pattern.MatchString)
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
