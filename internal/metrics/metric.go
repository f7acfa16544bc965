// Package metrics computes architecture quality metrics from a decomposition
// graph: Cyclic Independence (CiD), Code Modularity (CMod), Service Coupling
// Factor (SCF), Size MAD (SMAD) and Depth/Call-Chain MAD (DCCMD).
//
// The [Engine] parses a document once and evaluates every requested metric
// against the same immutable graph. It never fails: a malformed document or an
// unmet precondition becomes a "not available" value on the [Record].
package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/archmetrics/internal/errors"
)

// Metric names, as they appear in record fields and CSV headers.
const (
	NameCiD   = "CiD"
	NameCMod  = "CMod"
	NameSCF   = "SCF"
	NameSMAD  = "SMAD"
	NameDCCMD = "DCCMD"
)

// Fixed constants of the dispersion metrics.
const (
	DefaultSizeConstant  = 7.0
	DefaultDepthConstant = 2.0
)

// Decimal places used when a metric value is rendered as text.
const (
	ScorePrecision = 4
	DepthPrecision = 6
)

// Names returns every metric name in report order.
func Names() []string {
	return []string{NameCiD, NameCMod, NameSCF, NameSMAD, NameDCCMD}
}

// Precision returns the number of decimals used to render the named metric.
func Precision(name string) int {
	if name == NameDCCMD {
		return DepthPrecision
	}
	return ScorePrecision
}

// Canonical resolves a metric name case-insensitively ("dccmd" -> "DCCMD").
func Canonical(name string) (string, error) {
	want := strings.TrimSpace(name)
	for _, n := range Names() {
		if strings.EqualFold(n, want) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%q: %w (valid: %s)", name, errors.ErrUnknownMetric, strings.Join(Names(), ", "))
}

// Resolve canonicalizes a list of metric names, dropping duplicates and
// keeping report order. An empty list selects every metric.
func Resolve(names []string) ([]string, error) {
	if len(names) == 0 {
		return Names(), nil
	}
	selected := make([]string, 0, len(names))
	for _, name := range names {
		n, err := Canonical(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, n)
	}

	ordered := make([]string, 0, len(selected))
	for _, n := range Names() {
		if slices.Contains(selected, n) {
			ordered = append(ordered, n)
		}
	}
	return ordered, nil
}
