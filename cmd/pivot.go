package cmd

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetlens/internal/export"
	"github.com/KaramelBytes/sheetlens/internal/pivot"
	"github.com/KaramelBytes/sheetlens/internal/utils"
)

var (
	pvRows      string
	pvCols      string
	pvValues    string
	pvAgg       string
	pvFormat    string
	pvOutput    string
	pvSheet     string
	pvDelimiter string
)

var pivotCmd = &cobra.Command{
	Use:   "pivot <file|url>",
	Short: "Build a pivot table with an All margin",
	Example: `  sheetlens pivot orders.csv --rows ZONE --cols FC --values QTY --agg sum
  sheetlens pivot orders.csv --rows PICKUP_CITY --values QTY --format xlsx -o pivot.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(pvDelimiter)
		if err != nil {
			return err
		}
		agg, err := pivot.ParseAgg(pvAgg)
		if err != nil {
			return err
		}
		ds, err := loadInput(cmd.Context(), newLoader(delim), args[0], pvSheet)
		if err != nil {
			return err
		}
		pt, err := pivot.Build(ds, pivot.Spec{
			Rows:    splitList(pvRows),
			Columns: splitList(pvCols),
			Values:  splitList(pvValues),
			Agg:     agg,
		})
		if err != nil {
			return err
		}

		var out []byte
		if pvFormat == "json" {
			recs := pt.Records()
			if out, err = utils.PrettyJSON(map[string]any{"spec": pt.Spec, "header": recs[0], "rows": recs[1:]}); err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			ex, err := export.ForFormat(pvFormat)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := ex.Export(export.FromPivot(pt), &buf); err != nil {
				return err
			}
			out = buf.Bytes()
		}
		return writeOutput(pvOutput, out, "pivot table")
	},
}

func init() {
	rootCmd.AddCommand(pivotCmd)
	pivotCmd.Flags().StringVar(&pvRows, "rows", "", "comma-separated row columns")
	pivotCmd.Flags().StringVar(&pvCols, "cols", "", "comma-separated column columns")
	pivotCmd.Flags().StringVar(&pvValues, "values", "", "comma-separated value columns")
	pivotCmd.Flags().StringVar(&pvAgg, "agg", "sum", "aggregation: sum|mean|count|first|last")
	pivotCmd.Flags().StringVar(&pvFormat, "format", "csv", "output format: csv|xlsx|pdf|json")
	pivotCmd.Flags().StringVarP(&pvOutput, "output", "o", "", "output file (stdout if omitted)")
	pivotCmd.Flags().StringVar(&pvSheet, "sheet", "", "XLSX or Google Sheets: sheet name")
	pivotCmd.Flags().StringVar(&pvDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
}
