// Package batch runs the metrics engine over every document of a source with a
// bounded worker pool.
//
// Documents are independent: each one is read, parsed and measured on a single
// worker, and the records come back in source order regardless of which worker
// finished first. A document that cannot be read, parsed or measured in time
// produces a record with unavailable values; it never stops the batch.
package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sourcegraph/conc/iter"

	"github.com/Iron-Ham/archmetrics/internal/logging"
	"github.com/Iron-Ham/archmetrics/internal/metrics"
	"github.com/Iron-Ham/archmetrics/internal/source"
)

// Source supplies documents to a Runner.
type Source interface {
	List() ([]source.Document, error)
	Read(doc source.Document) ([]byte, error)
}

// Options configures a Runner.
type Options struct {
	// Workers bounds the number of documents processed at once.
	// Zero or negative uses GOMAXPROCS.
	Workers int

	// DocumentTimeout bounds the computation of one document. Zero means no
	// bound. A document that runs out of time keeps the metrics it finished.
	DocumentTimeout time.Duration

	// CacheSize is the number of records remembered by content hash across
	// runs of the same Runner. Zero disables the cache.
	CacheSize int
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Records  []metrics.Record
	Started  time.Time
	Finished time.Time

	// Cached counts records served from the content cache.
	Cached int
	// Failed counts documents that could not be read or parsed.
	Failed int
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Runner computes records for a batch of documents.
type Runner struct {
	engine *metrics.Engine
	opts   Options
	cache  *lru.Cache[string, metrics.Record]
	logger *logging.Logger
}

// NewRunner creates a Runner. A nil logger discards logs.
func NewRunner(engine *metrics.Engine, opts Options, logger *logging.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if opts.Workers < 0 {
		opts.Workers = 0
	}
	r := &Runner{engine: engine, opts: opts, logger: logger}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, metrics.Record](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}
	return r, nil
}

// Run lists src and computes a record for every document in it. The only
// error Run returns is a failure to list the source.
func (r *Runner) Run(ctx context.Context, src Source) (*Result, error) {
	docs, err := src.List()
	if err != nil {
		return nil, err
	}
	return r.RunDocuments(ctx, src, docs), nil
}

// RunDocuments computes a record for each of docs, in order.
func (r *Runner) RunDocuments(ctx context.Context, src Source, docs []source.Document) *Result {
	res := &Result{RunID: uuid.New().String(), Started: time.Now()}
	log := r.logger.WithRun(res.RunID)
	log.Info("run started", "documents", len(docs), "metrics", r.engine.Metrics())

	var cached atomic.Int64
	mapper := iter.Mapper[source.Document, metrics.Record]{MaxGoroutines: r.opts.Workers}
	res.Records = mapper.Map(docs, func(doc *source.Document) metrics.Record {
		rec, hit := r.compute(ctx, src, *doc, log)
		if hit {
			cached.Add(1)
		}
		return rec
	})

	for _, rec := range res.Records {
		if rec.Error != "" {
			res.Failed++
		}
	}
	res.Cached = int(cached.Load())
	res.Finished = time.Now()

	log.Info("run finished",
		"documents", len(docs),
		"failed", res.Failed,
		"cached", res.Cached,
		"duration_ms", res.Duration().Milliseconds(),
	)
	return res
}

// compute produces the record of one document and reports whether it came
// from the cache.
func (r *Runner) compute(ctx context.Context, src Source, doc source.Document, log *logging.Logger) (metrics.Record, bool) {
	data, err := src.Read(doc)
	if err != nil {
		log.WithDocument(doc.Name).Warn("document not readable", "error", err.Error())
		rec := metrics.NewRecord(doc.Name)
		rec.Error = err.Error()
		return rec, false
	}

	key := cacheKey(doc.Name, data)
	if r.cache != nil {
		if rec, ok := r.cache.Get(key); ok {
			return rec.Clone(), true
		}
	}

	docCtx := ctx
	if r.opts.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		docCtx, cancel = context.WithTimeout(ctx, r.opts.DocumentTimeout)
		defer cancel()
	}

	rec := r.engine.Compute(docCtx, doc.Name, data)

	// A record cut short by cancellation says nothing about the document.
	if r.cache != nil && docCtx.Err() == nil {
		r.cache.Add(key, rec.Clone())
	}
	return rec, false
}

// cacheKey identifies a document by name and content. The name is part of the
// key because it determines the record's identity columns.
func cacheKey(name string, data []byte) string {
	sum := sha256.Sum256(data)
	return name + "\x00" + hex.EncodeToString(sum[:])
}
