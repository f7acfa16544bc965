package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/archmetrics/internal/config"
	"github.com/Iron-Ham/archmetrics/internal/metrics"
	"github.com/Iron-Ham/archmetrics/internal/report"
	"github.com/Iron-Ham/archmetrics/internal/store"
)

func newStoreCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the SQLite results store",
		Long: `Inspect the results saved by 'compute --store'.

The store keeps one row per (project, candidate). Each run only overwrites
the metrics it could compute, so separate runs merge into one row.`,
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "database path (default from config, else the config directory)")

	open := func() (*store.Store, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		p := path
		if p == "" {
			p = storePath("", true, cfg)
		}
		return store.Open(p)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			entries, err := s.List(cmdContext(cmd))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No stored results in %s\n", s.Path())
				return nil
			}

			records := make([]metrics.Record, len(entries))
			for i, e := range entries {
				records[i] = e.Record
			}
			return report.Write(cmd.OutOrStdout(), records, report.Options{Format: report.FormatTable})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <project> <candidate>",
		Short: "Delete one stored result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			deleted, err := s.Delete(cmdContext(cmd), args[0], args[1])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no stored result for %s_%s", args[0], args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s_%s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(listCmd, deleteCmd)
	return cmd
}
