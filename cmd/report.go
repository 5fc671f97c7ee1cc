package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mickamy/qplain/internal/analyzer"
)

var (
	reportInput      string
	reportMode       string
	reportOut        string
	reportTitle      string
	reportColor      bool
	reportMaxDepth   int
	reportIncludeCSS bool
)

func init() {
	reportCmd.Flags().StringVar(&reportInput, "input", "", "path to EXPLAIN JSON input")
	reportCmd.Flags().StringVar(&reportMode, "mode", "tui", "output mode: text, tui, or html")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output path (stdout if omitted)")
	reportCmd.Flags().StringVar(&reportTitle, "title", "qplain report", "report title (HTML)")
	reportCmd.Flags().BoolVar(&reportColor, "color", true, "enable ANSI colors for TUI output")
	reportCmd.Flags().IntVar(&reportMaxDepth, "max-depth", 0, "limit tree depth (TUI)")
	reportCmd.Flags().BoolVar(&reportIncludeCSS, "css", true, "include inline styles (HTML)")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report --input plan.json [--mode tui|html] [--out file]",
	Short: "Render a cost report from a saved plan (no catalog access)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportInput == "" {
			return fmt.Errorf("--input is required")
		}

		_, report, err := loadReport(cmd.Context(), reportInput)
		if err != nil {
			return fmt.Errorf("%s", analyzer.FailureMessage(err))
		}

		return renderReport(report, renderOptions{
			mode:       reportMode,
			outPath:    reportOut,
			title:      reportTitle,
			color:      reportColor,
			maxDepth:   reportMaxDepth,
			includeCSS: reportIncludeCSS,
		})
	},
}
