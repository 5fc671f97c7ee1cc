package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/mickamy/qplain/internal/analyzer"
	"github.com/mickamy/qplain/internal/runner"
	"github.com/mickamy/qplain/internal/stats"
	"github.com/mickamy/qplain/internal/xlog"
)

var (
	analyzeURL        string
	analyzeSQLPath    string
	analyzeInlineSQL  string
	analyzeMode       string
	analyzeOut        string
	analyzeTitle      string
	analyzeColor      bool
	analyzeMaxDepth   int
	analyzeIncludeCSS bool
	analyzeTimeout    time.Duration
	analyzeExec       bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "PostgreSQL connection string; defaults to $DATABASE_URL")
	analyzeCmd.Flags().StringVar(&analyzeSQLPath, "sql", "", "path to the SQL file to EXPLAIN")
	analyzeCmd.Flags().StringVar(&analyzeInlineSQL, "query", "", "inline SQL string to EXPLAIN")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "tui", "output mode: text, tui, or html")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "output path (stdout if omitted)")
	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "qplain report", "report title (HTML)")
	analyzeCmd.Flags().BoolVar(&analyzeColor, "color", true, "enable ANSI colors for TUI output")
	analyzeCmd.Flags().IntVar(&analyzeMaxDepth, "max-depth", 0, "limit tree depth (TUI)")
	analyzeCmd.Flags().BoolVar(&analyzeIncludeCSS, "css", true, "include inline styles (HTML)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "optional execution timeout, e.g. 45s")
	analyzeCmd.Flags().BoolVar(&analyzeExec, "exec", false, "run EXPLAIN ANALYZE to capture actual runtimes")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze --url <url> (--sql file.sql | --query \"SELECT ...\") [--mode tui|html]",
	Short: "Run EXPLAIN and render a cost report in one step",
	RunE: func(cmd *cobra.Command, args []string) error {
		connection := strings.TrimSpace(analyzeURL)
		if connection == "" {
			connection = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if connection == "" {
			return fmt.Errorf("--url is required or set $DATABASE_URL")
		}
		if analyzeSQLPath != "" && analyzeInlineSQL != "" {
			return fmt.Errorf("specify only one of --sql or --query")
		}

		var sqlText string
		switch {
		case analyzeSQLPath != "":
			data, err := os.ReadFile(analyzeSQLPath)
			if err != nil {
				return fmt.Errorf("read sql file: %w", err)
			}
			sqlText = string(data)
		case analyzeInlineSQL != "":
			sqlText = analyzeInlineSQL
		default:
			return fmt.Errorf("--sql or --query is required")
		}

		ctx := cmd.Context()
		conn, err := pgx.Connect(ctx, connection)
		if err != nil {
			return fmt.Errorf("%s", analyzer.FailureMessage(fmt.Errorf("%w: %v", runner.ErrSourceUnavailable, err)))
		}
		defer func() {
			if err := conn.Close(ctx); err != nil {
				xlog.Zero.Debug().Err(err).Msg("close connection")
			}
		}()

		result, err := runner.RunConn(ctx, conn, sqlText, runner.Options{
			Timeout: analyzeTimeout,
			Analyze: analyzeExec,
		})
		if err != nil {
			return fmt.Errorf("%s", analyzer.FailureMessage(err))
		}

		// The same session serves catalog lookups for the manual formulas.
		_, report, err := analyzeReader(ctx, bytes.NewReader(result), stats.NewCatalog(conn))
		if err != nil {
			return fmt.Errorf("%s", analyzer.FailureMessage(err))
		}

		return renderReport(report, renderOptions{
			mode:       analyzeMode,
			outPath:    analyzeOut,
			title:      analyzeTitle,
			color:      analyzeColor,
			maxDepth:   analyzeMaxDepth,
			includeCSS: analyzeIncludeCSS,
		})
	},
}
