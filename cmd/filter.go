package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetlens/internal/export"
	"github.com/KaramelBytes/sheetlens/internal/filter"
)

var (
	fltValues    []string
	fltSearch    []string
	fltOutput    string
	fltFormat    string
	fltSheet     string
	fltDelimiter string
)

var filterCmd = &cobra.Command{
	Use:   "filter <file|url>",
	Short: "Filter rows by column values and text search",
	Long: `Filter rows by column values and text search.

--col values are comma-separated with CSV quoting, so a value holding a comma
or edge spaces is written in double quotes. Repeating --col for a column adds
to its values. --search text is matched verbatim, spaces included.`,
	Example: `  sheetlens filter orders.csv --col ZONE=North,South --search PICKUP_CITY=par -o north.csv
  sheetlens filter orders.csv --col 'CITY="Paris, TX"' --col CITY=Nice -o cities.csv
  sheetlens filter orders.xlsx --col FC=A1 --format xlsx -o a1.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(fltDelimiter)
		if err != nil {
			return err
		}
		values, err := parseAssignments("col", fltValues)
		if err != nil {
			return err
		}
		queries, err := parseAssignments("search", fltSearch)
		if err != nil {
			return err
		}
		ds, err := loadInput(cmd.Context(), newLoader(delim), args[0], fltSheet)
		if err != nil {
			return err
		}

		sel := filter.NewSelection()
		allow := map[string][]string{}
		for _, a := range values {
			vs, err := parseValueList(a.value)
			if err != nil {
				return err
			}
			allow[a.col] = append(allow[a.col], vs...)
		}
		for col, vs := range allow {
			sel.SetValues(col, vs)
		}
		for _, a := range queries {
			sel.SetQuery(a.col, a.value)
		}
		res, err := filter.Apply(ds, sel, filter.Options{MaxDistinct: settings().FilterMaxDistinct})
		if err != nil {
			return err
		}
		for _, col := range res.Skipped {
			fmt.Fprintf(os.Stderr, "⚠ Warning: column %q has too many distinct values; value filter ignored\n", col)
		}

		ex, err := export.ForFormat(fltFormat)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := ex.Export(export.FromDataset(res.Data), &buf); err != nil {
			return err
		}
		if err := writeOutput(fltOutput, buf.Bytes(), "filtered data"); err != nil {
			return err
		}
		if fltOutput != "" {
			fmt.Printf("✓ Kept %d of %d rows\n", res.Data.Len(), res.Total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringArrayVar(&fltValues, "col", nil, "keep rows whose column is one of the values: column=v1,v2 or column=\"v,1\" (repeatable)")
	filterCmd.Flags().StringArrayVar(&fltSearch, "search", nil, "keep rows whose column contains the text, ignoring case: column=text (repeatable)")
	filterCmd.Flags().StringVarP(&fltOutput, "output", "o", "", "output file (stdout if omitted)")
	filterCmd.Flags().StringVar(&fltFormat, "format", "csv", "output format: csv|xlsx|pdf")
	filterCmd.Flags().StringVar(&fltSheet, "sheet", "", "XLSX or Google Sheets: sheet name")
	filterCmd.Flags().StringVar(&fltDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
}
