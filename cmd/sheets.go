package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetlens/internal/analysis"
	"github.com/KaramelBytes/sheetlens/internal/loader"
)

var shLoad string

var sheetsCmd = &cobra.Command{
	Use:   "sheets <google-sheets-url>",
	Short: "List the sheets of a public Google Sheet",
	Long: `Print the spreadsheet id and its sheet names. With --load, fetch that sheet
and print its overview. The spreadsheet must be shared as "anyone with the link".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := loader.ExtractSheetID(args[0])
		if err != nil {
			return err
		}
		l := newLoader(0)
		names, err := l.SheetNames(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("id: %s\n", id)
		fmt.Printf("sheets: %s\n", strings.Join(names, ", "))
		if shLoad == "" {
			return nil
		}
		ds, err := l.LoadSheet(cmd.Context(), id, shLoad)
		if err != nil {
			return err
		}
		c := settings()
		opt := analysis.DefaultOptions()
		opt.LargeRows, opt.LargeBytes = c.LargeRowsThreshold, c.LargeBytesThreshold
		opt.SampleRows, opt.SampleSeed = c.SampleRows, c.SampleSeed
		fmt.Println()
		fmt.Print(analysis.Overview(ds, opt).Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
	sheetsCmd.Flags().StringVar(&shLoad, "load", "", "sheet name to load and summarize")
}
