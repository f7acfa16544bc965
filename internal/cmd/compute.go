package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/archmetrics/internal/batch"
	"github.com/Iron-Ham/archmetrics/internal/metrics"
	"github.com/Iron-Ham/archmetrics/internal/report"
	"github.com/Iron-Ham/archmetrics/internal/source"
	"github.com/Iron-Ham/archmetrics/internal/store"
	"github.com/Iron-Ham/archmetrics/internal/watch"
)

// outputFlags are shared by the commands that emit records.
type outputFlags struct {
	format  string
	layout  string
	out     string
	store   string
	metrics []string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "",
		"output format: "+strings.Join(report.Formats(), ", ")+" (default from config)")
	cmd.Flags().StringVar(&f.layout, "layout", report.LayoutWide,
		"CSV layout: "+strings.Join(report.Layouts(), ", "))
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write output to this file instead of stdout")
	cmd.Flags().StringVar(&f.store, "store", "", "also save results to the SQLite store at this path")
	cmd.Flags().Lookup("store").NoOptDefVal = defaultStoreSentinel
}

func newComputeCmd() *cobra.Command {
	var (
		flags   outputFlags
		watchIt bool
	)

	cmd := &cobra.Command{
		Use:   "compute <folder>",
		Short: "Compute every metric for each document in a folder",
		Long: `Compute CiD, CMod, SCF, SMAD and DCCMD for every decomposition document
(*.json by default) in a folder. One record is produced per document, in file
name order.

With --watch, the folder is watched and the records are recomputed whenever
a document is created, changed or removed. Unchanged documents are served
from a content-hash cache.`,
		Example: `  archmetrics compute ./decompositions
  archmetrics compute ./decompositions -f csv -o metrics.csv
  archmetrics compute ./decompositions -f csv --layout dccmd_long
  archmetrics compute ./decompositions --metrics cid,scf --store
  archmetrics compute ./decompositions --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeFlag := cmd.Flags().Changed("store")
			if watchIt {
				return runComputeWatch(cmd, args[0], flags, storeFlag)
			}
			return runCompute(cmd, args[0], flags, storeFlag)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&flags.metrics, "metrics", "m", nil,
		"metrics to compute: "+strings.Join(metrics.Names(), ", ")+" (default all)")
	cmd.Flags().BoolVarP(&watchIt, "watch", "w", false, "recompute when documents change")

	return cmd
}

func runCompute(cmd *cobra.Command, dir string, flags outputFlags, storeFlag bool) error {
	rt, err := newRuntime(flags.metrics)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	src, err := rt.source(dir)
	if err != nil {
		return err
	}

	res, err := computeOnce(cmd.Context(), rt, src)
	if err != nil {
		return err
	}
	return emit(cmd, rt, res, flags, storeFlag)
}

func runComputeWatch(cmd *cobra.Command, dir string, flags outputFlags, storeFlag bool) error {
	rt, err := newRuntime(flags.metrics)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	src, err := rt.source(dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresh := func(ctx context.Context) {
		res, err := rt.runner.Run(ctx, src)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		if err := emit(cmd, rt, res, flags, storeFlag); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	w, err := watch.New(src.Dir(), src.Matches, rt.cfg.Watch.Debounce(), rt.logger)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", src.Dir(), err)
	}

	refresh(ctx)
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", src.Dir())

	return w.Run(ctx, func(ctx context.Context, paths []string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d document(s) changed, recomputing\n", len(paths))
		refresh(ctx)
	})
}

// computeOnce runs the batch and fails when the folder has no documents.
func computeOnce(ctx context.Context, rt *runtime, src *source.Source) (*batch.Result, error) {
	docs, err := src.List()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents matching %s found in %s", rt.cfg.Batch.Pattern, src.Dir())
	}
	return rt.runner.RunDocuments(cmdContextOr(ctx), src, docs), nil
}

// emit writes the records of res and saves them to the store when enabled.
func emit(cmd *cobra.Command, rt *runtime, res *batch.Result, flags outputFlags, storeFlag bool) error {
	format := flags.format
	if format == "" {
		format = rt.cfg.Output.Format
	}
	opts := report.Options{Format: format, Layout: flags.layout, Metrics: rt.engine.Metrics()}
	if err := writeOutput(cmd.OutOrStdout(), flags.out, res.Records, opts); err != nil {
		return err
	}

	path := storePath(flags.store, storeFlag, rt.cfg)
	if path == "" {
		return nil
	}
	return saveResults(cmdContextOr(cmd.Context()), path, res, cmd.ErrOrStderr())
}

// writeOutput renders records to the file at path, or to w when path is empty.
func writeOutput(w io.Writer, path string, records []metrics.Record, opts report.Options) error {
	if path == "" {
		return report.Write(w, records, opts)
	}

	var buf bytes.Buffer
	if opts.Width == 0 {
		opts.Width = report.DefaultTableWidth
	}
	if err := report.Write(&buf, records, opts); err != nil {
		return err
	}
	if err := afero.WriteFile(appFs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func saveResults(ctx context.Context, path string, res *batch.Result, status io.Writer) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	n, err := s.Upsert(ctx, res.RunID, res.Records)
	if err != nil {
		return err
	}
	fmt.Fprintf(status, "Saved %d result(s) to %s\n", n, path)
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	return cmdContextOr(cmd.Context())
}

func cmdContextOr(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
