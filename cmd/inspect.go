package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetlens/internal/analysis"
	"github.com/KaramelBytes/sheetlens/internal/utils"
)

var (
	insOutput     string
	insSheet      string
	insDelimiter  string
	insPreview    int
	insOutlierThr float64
	insJSON       bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file|url>...",
	Short: "Load datasets and print their overview",
	Long: `Load one or more CSV/XLSX files or Google Sheets URLs and print the dashboard overview:
schema with types and statistics, a preview, the automatic pivot and chart suggestions.
With several inputs and --output, each summary is written as <output>/<name>.summary.md.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(insDelimiter)
		if err != nil {
			return err
		}
		c := settings()
		opt := analysis.DefaultOptions()
		opt.LargeRows = c.LargeRowsThreshold
		opt.LargeBytes = c.LargeBytesThreshold
		opt.SampleRows = c.SampleRows
		opt.SampleSeed = c.SampleSeed
		if insPreview > 0 {
			opt.PreviewRows = insPreview
		}
		if cmd.Flags().Changed("outlier-threshold") {
			opt.OutlierThreshold = insOutlierThr
		}

		l := newLoader(delim)
		multi := len(args) > 1
		if multi && insOutput != "" {
			if err := utils.EnsureDir(insOutput); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		var failed int
		for _, src := range args {
			ds, err := loadInput(cmd.Context(), l, src, insSheet)
			if err != nil {
				if !multi {
					return err
				}
				fmt.Printf("✗ %s: %v\n", src, err)
				failed++
				continue
			}
			rep := analysis.Overview(ds, opt)
			var out []byte
			if insJSON {
				if out, err = utils.PrettyJSON(rep); err != nil {
					return err
				}
				out = append(out, '\n')
			} else {
				out = []byte(rep.Markdown())
			}
			path := insOutput
			if multi && insOutput != "" {
				base := filepath.Base(src)
				path = filepath.Join(insOutput, strings.TrimSuffix(base, filepath.Ext(base))+".summary.md")
			}
			if err := writeOutput(path, out, "overview"); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d inputs failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&insOutput, "output", "o", "", "write the overview to this file (directory with several inputs)")
	inspectCmd.Flags().StringVar(&insSheet, "sheet", "", "XLSX or Google Sheets: sheet name (first sheet if omitted)")
	inspectCmd.Flags().StringVar(&insDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	inspectCmd.Flags().IntVar(&insPreview, "preview", 10, "number of preview rows")
	inspectCmd.Flags().Float64Var(&insOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (0 disables)")
	inspectCmd.Flags().BoolVar(&insJSON, "json", false, "print the overview as JSON")
}
