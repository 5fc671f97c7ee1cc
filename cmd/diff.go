package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mickamy/qplain/internal/diff"
)

var (
	diffBase     string
	diffTarget   string
	diffFormat   string
	diffOut      string
	diffMinDelta float64
	diffMaxItems int
)

func init() {
	diffCmd.Flags().StringVar(&diffBase, "base", "", "path to baseline EXPLAIN JSON")
	diffCmd.Flags().StringVar(&diffTarget, "target", "", "path to target EXPLAIN JSON")
	diffCmd.Flags().StringVar(&diffFormat, "format", "md", "output format: md or json")
	diffCmd.Flags().StringVar(&diffOut, "out", "", "output path (stdout if omitted)")
	diffCmd.Flags().Float64Var(&diffMinDelta, "min-delta", 0, "minimum reported cost delta to include")
	diffCmd.Flags().IntVar(&diffMaxItems, "limit", 0, "maximum rows per section")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff --base base.json --target target.json [--format md]",
	Short: "Compare two plans by operator signature and emit a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		if diffBase == "" || diffTarget == "" {
			return fmt.Errorf("--base and --target are required")
		}

		ctx := cmd.Context()
		_, baseReport, err := loadReport(ctx, diffBase)
		if err != nil {
			return fmt.Errorf("load base: %w", err)
		}
		_, targetReport, err := loadReport(ctx, diffTarget)
		if err != nil {
			return fmt.Errorf("load target: %w", err)
		}

		report, err := diff.Compare(baseReport, targetReport, diff.Options{
			MinDeltaCost: diffMinDelta,
			MaxItems:     diffMaxItems,
		})
		if err != nil {
			return err
		}

		switch diffFormat {
		case "md", "markdown":
			content := report.Markdown()
			if diffOut == "" {
				fmt.Print(content)
				return nil
			}
			return os.WriteFile(diffOut, []byte(content), 0o644)
		case "json":
			payload, err := report.JSON()
			if err != nil {
				return err
			}
			if diffOut == "" {
				_, _ = os.Stdout.Write(payload)
				_, _ = os.Stdout.WriteString("\n")
				return nil
			}
			return os.WriteFile(diffOut, payload, 0o644)
		default:
			return fmt.Errorf("unsupported format %q", diffFormat)
		}
	},
}
