package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/archmetrics/internal/config"
	"github.com/Iron-Ham/archmetrics/internal/report"
	"github.com/Iron-Ham/archmetrics/internal/store"
)

func newAggregateCmd() *cobra.Command {
	var (
		out       string
		storeFlag string
		precision int
	)

	cmd := &cobra.Command{
		Use:   "aggregate [folder]",
		Short: "Merge metric CSV files into one Project/Candidate table",
		Long: `Merge every *.csv file in a folder (default: the current directory) into
one table with the columns Project,Candidate,CiD,CMod,SCF,SMAD,DCCMD.

Rows are keyed by the (project, candidate) pair parsed from each row's file
column ("project_candidate.json"). Files are read in name order and later
files override earlier ones. Columns named overall_modularity or overall_mod
count as CMod; SMAD_c<k> and DCCMD_c<k> columns count as SMAD and DCCMD,
preferring SMAD_c7 and DCCMD_c2.0. Values are rounded to the configured
precision and missing values are NA. The output file itself is never read.

With --store, rows saved by 'compute --store' are merged last.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if !cmd.Flags().Changed("precision") {
				precision = cfg.Output.AggregatePrecision
			}

			outPath := out
			if !filepath.IsAbs(outPath) {
				outPath = filepath.Join(dir, outPath)
			}

			agg := report.NewAggregator(precision)
			used, err := agg.AggregateDir(appFs, dir, outPath)
			if err != nil {
				return err
			}

			if path := storePath(storeFlag, cmd.Flags().Changed("store"), cfg); path != "" {
				n, err := mergeStore(cmd, agg, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Merged %d stored result(s) from %s\n", n, path)
			}

			if len(used) == 0 && agg.Len() == 0 {
				return fmt.Errorf("no metric CSV files found in %s", dir)
			}

			var buf bytes.Buffer
			if err := agg.WriteCSV(&buf); err != nil {
				return err
			}
			if err := afero.WriteFile(appFs, outPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote aggregated metrics (%d rows, %d decimals): %s\n",
				agg.Len(), precision, outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", report.DefaultAggregateFile, "output CSV path (relative to the folder)")
	cmd.Flags().IntVar(&precision, "precision", 2, "decimals in the output (default from config)")
	cmd.Flags().StringVar(&storeFlag, "store", "", "also merge results saved in the SQLite store at this path")
	cmd.Flags().Lookup("store").NoOptDefVal = defaultStoreSentinel

	return cmd
}

func mergeStore(cmd *cobra.Command, agg *report.Aggregator, path string) (int, error) {
	s, err := store.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.Close() }()

	entries, err := s.List(cmdContext(cmd))
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		agg.AddRecord(e.Record)
	}
	return len(entries), nil
}
