package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/archmetrics/internal/metrics"
	"github.com/Iron-Ham/archmetrics/internal/report"
)

func newMetricCmd() *cobra.Command {
	var (
		flags outputFlags
		long  bool
	)

	cmd := &cobra.Command{
		Use:   "metric <" + strings.ToLower(strings.Join(metrics.Names(), "|")) + "> <folder>",
		Short: "Compute a single metric for each document in a folder",
		Long: `Compute one metric for every document in a folder and write it as CSV
in that metric's own column layout:

  cid    file,CiD,partitions,cyclic_pairs,total_pairs
  cmod   file,CMod
  scf    file,SCF,services,external_edges
  smad   file,SMAD,services,MAD_raw,medSize,min,max
  dccmd  file,DCCMD,stories,svc,medDepth,MADraw

With --long, dccmd writes one row per use-case story: file,story,depth.
Per-metric CSV files can be merged with 'archmetrics aggregate'.`,
		Example: `  archmetrics metric cid ./decompositions -o cid.csv
  archmetrics metric dccmd ./decompositions --long`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := metrics.Canonical(args[0])
			if err != nil {
				return err
			}
			if long && name != metrics.NameDCCMD {
				return fmt.Errorf("--long is only supported for %s", metrics.NameDCCMD)
			}

			layout, err := report.MetricLayout(name)
			if err != nil {
				return err
			}
			flags.layout = layout.Name
			if long {
				flags.layout = report.LayoutDCCMDLong
			}
			if flags.format == "" {
				flags.format = report.FormatCSV
			}
			flags.metrics = []string{name}

			return runCompute(cmd, args[1], flags, cmd.Flags().Changed("store"))
		},
	}

	flags.register(cmd)
	// The layout follows the metric.
	_ = cmd.Flags().MarkHidden("layout")
	cmd.Flags().BoolVar(&long, "long", false, "dccmd only: one row per use-case story")

	return cmd
}
