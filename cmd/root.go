package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/xlog"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "qplain",
	Short: "qplain explains PostgreSQL query plan costs",
	Long:  "qplain walks EXPLAIN output and derives textbook cost formulas for every plan operator, comparing them against the planner's own estimates.",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		xlog.SetLevel(logLevel)
		return applyConfigPath(cfgPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (JSON or YAML); falls back to $QPLAIN_CONFIG")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

func applyConfigPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("QPLAIN_CONFIG"))
	}
	return config.Apply(path)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		xlog.Zero.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
