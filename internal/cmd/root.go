package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/archmetrics/internal/cmd/config"
	appconfig "github.com/Iron-Ham/archmetrics/internal/config"
)

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

// newRootCmd builds the command tree. A fresh tree per invocation keeps flag
// values from leaking between runs.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "archmetrics",
		Short: "Architecture quality metrics for service decompositions",
		Long: `archmetrics computes architecture quality metrics from decomposition
documents: Cyclic Independence (CiD), Code Modularity (CMod), Service Coupling
Factor (SCF), Size MAD (SMAD) and Depth/Call-Chain MAD (DCCMD).

Each *.json document in a folder is measured independently. A malformed
document or an unmet metric precondition is reported as NA and never stops
the batch.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig(cmd)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/archmetrics/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(
		newComputeCmd(),
		newMetricCmd(),
		newAggregateCmd(),
		newStoreCmd(),
		newVersionCmd(),
	)
	config.Register(rootCmd)

	return rootCmd
}

func initConfig(cmd *cobra.Command) {
	flags := cmd.Root().PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.file", flags.Lookup("log-file"))

	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/archmetrics")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ARCHMETRICS")
	// Replace dots with underscores for nested keys in env vars
	// e.g., ARCHMETRICS_BATCH_WORKERS for batch.workers
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
