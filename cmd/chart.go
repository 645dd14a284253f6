package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetlens/internal/chart"
	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/theme"
	"github.com/KaramelBytes/sheetlens/internal/utils"
)

var (
	chType      string
	chX         string
	chY         string
	chColor     string
	chTitle     string
	chFormat    string
	chOutput    string
	chTheme     string
	chWidth     int
	chHeight    int
	chSheet     string
	chDelimiter string
)

var chartCmd = &cobra.Command{
	Use:   "chart <file|url>",
	Short: "Render a chart as PNG, SVG, HTML, JSON or its data as CSV",
	Long: fmt.Sprintf(`Render one of the chart types (%s).
Unknown types render as a grouped bar chart.`, typeNames()),
	Example: `  sheetlens chart orders.csv --type Bar --x ZONE --y QTY -o zones.png
  sheetlens chart prices.csv --type Candlestick --x Day --y Open,High,Low,Close --format html -o prices.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(chDelimiter)
		if err != nil {
			return err
		}
		format := strings.ToLower(chFormat)
		if format == "" && chOutput != "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(chOutput)), ".")
		}
		if format == "" {
			format = "png"
		}
		if format == "png" && chOutput == "" {
			return fmt.Errorf("refusing to write PNG to stdout; use --output")
		}
		ds, err := loadInput(cmd.Context(), newLoader(delim), args[0], chSheet)
		if err != nil {
			return err
		}
		spec := chart.Spec{Type: chart.ParseType(chType), X: chX, Y: splitList(chY), Color: chColor, Title: chTitle}

		var buf bytes.Buffer
		if format == "csv" {
			if err := chart.DataCSV(ds, spec, &buf); err != nil {
				return err
			}
			return writeOutput(chOutput, buf.Bytes(), "chart data")
		}
		fig, err := chart.Build(ds, spec)
		if err != nil {
			return err
		}
		c := settings()
		name := chTheme
		if name == "" {
			name = c.DefaultTheme
		}
		th, _ := theme.Lookup(name)
		img := chart.ImageOptions{Width: c.ChartWidth, Height: c.ChartHeight, Palette: th.Series}
		if chWidth > 0 {
			img.Width = chWidth
		}
		if chHeight > 0 {
			img.Height = chHeight
		}

		switch format {
		case "png", "svg":
			err = chart.RenderImage(fig, chart.ImageFormat(format), &buf, img)
		case "html":
			err = chart.RenderHTML(fig, &buf, chart.HTMLOptions{Image: img, CSS: th.CSS()})
		case "json":
			var b []byte
			b, err = utils.PrettyJSON(fig)
			buf.Write(b)
		default:
			return fmt.Errorf("%w: chart format %q (use png, svg, html, json or csv)", dataset.ErrUnsupportedFormat, format)
		}
		if err != nil {
			return err
		}
		return writeOutput(chOutput, buf.Bytes(), string(fig.Type)+" chart")
	},
}

func typeNames() string {
	names := make([]string, len(chart.Types))
	for i, t := range chart.Types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chType, "type", "Bar", "chart type")
	chartCmd.Flags().StringVar(&chX, "x", "", "x axis column")
	chartCmd.Flags().StringVar(&chY, "y", "", "comma-separated y axis columns")
	chartCmd.Flags().StringVar(&chColor, "color", "", "optional grouping column")
	chartCmd.Flags().StringVar(&chTitle, "title", "", "chart title")
	chartCmd.Flags().StringVar(&chFormat, "format", "", "png|svg|html|json|csv (from --output extension if omitted)")
	chartCmd.Flags().StringVarP(&chOutput, "output", "o", "", "output file (stdout if omitted)")
	chartCmd.Flags().StringVar(&chTheme, "theme", "", "color theme (default from config)")
	chartCmd.Flags().IntVar(&chWidth, "width", 0, "image width in pixels (overrides config)")
	chartCmd.Flags().IntVar(&chHeight, "height", 0, "image height in pixels (overrides config)")
	chartCmd.Flags().StringVar(&chSheet, "sheet", "", "XLSX or Google Sheets: sheet name")
	chartCmd.Flags().StringVar(&chDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
}
