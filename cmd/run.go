package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mickamy/qplain/internal/runner"
)

var (
	runURL     string
	runSQLPath string
	runOut     string
	runTimeout time.Duration
	runAnalyze bool
)

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "PostgreSQL connection string; defaults to $DATABASE_URL")
	runCmd.Flags().StringVar(&runSQLPath, "sql", "", "path to the SQL file to EXPLAIN")
	runCmd.Flags().StringVar(&runOut, "out", "", "path to write the resulting JSON (defaults to stdout)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "optional execution timeout, e.g. 45s")
	runCmd.Flags().BoolVar(&runAnalyze, "analyze", false, "run EXPLAIN ANALYZE instead of plain EXPLAIN")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run --url <url> --sql <file> [--out plan.json]",
	Short: "Execute EXPLAIN (FORMAT JSON) for a query and emit the plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		connection := strings.TrimSpace(runURL)
		if connection == "" {
			connection = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if connection == "" {
			return fmt.Errorf("--url is required or set $DATABASE_URL")
		}
		if runSQLPath == "" {
			return fmt.Errorf("--sql is required")
		}

		sqlBytes, err := os.ReadFile(runSQLPath)
		if err != nil {
			return fmt.Errorf("read sql file: %w", err)
		}

		result, err := runner.Run(cmd.Context(), connection, string(sqlBytes), runner.Options{
			Timeout: runTimeout,
			Analyze: runAnalyze,
		})
		if err != nil {
			return err
		}

		pretty, err := indentJSON(result)
		if err != nil {
			return err
		}

		if runOut == "" {
			_, err = os.Stdout.Write(pretty)
			return err
		}
		return os.WriteFile(runOut, pretty, 0o644)
	},
}

func indentJSON(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return nil, fmt.Errorf("indent json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
