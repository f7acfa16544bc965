package metrics

import (
	"context"

	"github.com/Iron-Ham/archmetrics/internal/decomposition"
	"github.com/Iron-Ham/archmetrics/internal/errors"
	"github.com/Iron-Ham/archmetrics/internal/logging"
)

// Options configures an Engine.
type Options struct {
	// Parse selects the layer keys and the use-case marker.
	Parse decomposition.Options

	// SizeConstant is K in SMAD = 1 - MAD/(MAD+K).
	SizeConstant float64

	// DepthConstant is c' in DCCMD = 1 - MAD/(MAD+c').
	DepthConstant float64

	// PathSearchBudget caps DCCMD's path search expansions per document.
	// 0 means unlimited.
	PathSearchBudget int

	// Metrics selects the metrics to compute. Empty means all of them.
	Metrics []string
}

// DefaultOptions returns the constants of the published metric definitions.
func DefaultOptions() Options {
	return Options{
		Parse:         decomposition.DefaultOptions(),
		SizeConstant:  DefaultSizeConstant,
		DepthConstant: DefaultDepthConstant,
	}
}

// Engine computes metric records from decomposition documents. It holds no
// per-document state and is safe for concurrent use.
type Engine struct {
	opts    Options
	metrics []string
	logger  *logging.Logger
}

// NewEngine creates an Engine. It fails only for unknown metric names.
func NewEngine(opts Options, logger *logging.Logger) (*Engine, error) {
	selected, err := Resolve(opts.Metrics)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	if opts.SizeConstant == 0 {
		opts.SizeConstant = DefaultSizeConstant
	}
	if opts.DepthConstant == 0 {
		opts.DepthConstant = DefaultDepthConstant
	}
	return &Engine{opts: opts, metrics: selected, logger: logger}, nil
}

// Metrics returns the names of the metrics the engine computes.
func (e *Engine) Metrics() []string {
	return append([]string(nil), e.metrics...)
}

// Compute parses one document and evaluates the selected metrics.
//
// Compute never fails. A malformed document yields a record with every metric
// unavailable and Error set; a metric whose preconditions are not met is
// unavailable on its own, with the reason in Reasons.
func (e *Engine) Compute(ctx context.Context, name string, data []byte) Record {
	rec := NewRecord(name)
	log := e.logger.WithDocument(name)

	g, err := decomposition.Parse(data, e.opts.Parse)
	if err != nil {
		var docErr *errors.DocumentError
		if errors.As(err, &docErr) {
			docErr.WithDocument(name)
		}
		rec.Error = err.Error()
		log.Warn("document not available", "error", err.Error())
		return rec
	}

	return e.evaluate(ctx, rec, g, log)
}

func (e *Engine) evaluate(ctx context.Context, rec Record, g *decomposition.Graph, log *logging.Logger) Record {
	pg := decomposition.NewPartitionGraph(g)
	rec.Diagnostics.Partitions = CountOf(pg.Len())
	rec.Diagnostics.DiscardedEdges = CountOf(g.DiscardedEdges())

	for _, name := range e.metrics {
		if err := e.evaluateMetric(ctx, name, pg, &rec); err != nil {
			rec.SetValue(name, NA())
			rec.setReason(name, reason(err))

			metricLog := log.WithMetric(name)
			switch {
			case !errors.IsUnavailable(err):
				metricLog.Error("metric failed", "error", err.Error())
			case errors.GetSeverity(err) >= errors.SeverityWarning:
				metricLog.Warn("metric not available", "reason", reason(err))
			default:
				metricLog.Debug("metric not available", "reason", reason(err))
			}
		}
	}

	log.Debug("document computed",
		"partitions", pg.Len(),
		"service_edges", pg.ServiceEdges(),
		"use_case_edges", len(g.UseCaseEdges()),
		"available", rec.Available())
	return rec
}

func (e *Engine) evaluateMetric(ctx context.Context, name string, pg *decomposition.PartitionGraph, rec *Record) error {
	d := &rec.Diagnostics

	switch name {
	case NameCiD:
		res := ComputeCyclicIndependence(pg)
		rec.CiD = Of(res.Value)
		d.CyclicPairs = CountOf(res.CyclicPairs)
		d.TotalPairs = CountOf(res.TotalPairs)

	case NameCMod:
		res, err := ComputeModularity(pg)
		d.ClusteredPartitions = CountOf(len(res.Factors))
		if err != nil {
			return err
		}
		rec.CMod = Of(res.Value)

	case NameSCF:
		res := ComputeCouplingFactor(pg)
		rec.SCF = Of(res.Value)
		d.ExternalEdges = CountOf(res.ExternalEdges)

	case NameSMAD:
		res, err := ComputeSizeDispersion(pg.Graph(), e.opts.SizeConstant)
		if err != nil {
			return err
		}
		rec.SMAD = Of(res.Value)
		d.SizeMAD = Of(res.MAD)
		d.MedianSize = Of(res.MedianSize)
		d.MinSize = CountOf(res.MinSize)
		d.MaxSize = CountOf(res.MaxSize)

	case NameDCCMD:
		res, err := ComputeDepthDispersion(ctx, pg, e.opts.DepthConstant, e.opts.PathSearchBudget)
		if err != nil {
			return err
		}
		rec.DCCMD = Of(res.Value)
		rec.StoryDepths = res.Depths
		d.Stories = CountOf(len(res.Depths))
		d.MedianDepth = Of(res.MedianDepth)
		d.DepthMAD = Of(res.MAD)

	default:
		return errors.NewMetricError(name, errors.ErrUnknownMetric).WithSeverity(errors.SeverityError)
	}
	return nil
}

// reason returns the cause of a metric error without the metric prefix.
func reason(err error) string {
	var metricErr *errors.MetricError
	if errors.As(err, &metricErr) {
		if cause := errors.Unwrap(metricErr); cause != nil {
			return cause.Error()
		}
	}
	return err.Error()
}
