package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders the table as a paged grid, repeating the header on
// every page.
type PDFExporter struct {
	pageSize string
}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{pageSize: "A4"}
}

func (p *PDFExporter) Export(t *Table, w io.Writer) error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("no headers provided")
	}
	orientation := "P"
	if t.Style.Orientation == "landscape" || len(t.Headers) > 6 {
		orientation = "L"
	}
	family := t.Style.FontFamily
	if family == "" {
		family = "Arial"
	}
	size := t.Style.FontSize
	if size <= 0 {
		size = 10
	}

	pdf := gofpdf.New(orientation, "mm", p.pageSize, "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(t.Title, true)
	pdf.AddPage()

	if t.Title != "" {
		pdf.SetFont(family, "B", 16)
		pdf.Cell(0, 10, tr(t.Title))
		pdf.Ln(12)
	}
	if !t.CreatedAt.IsZero() {
		pdf.SetFont(family, "I", 8)
		pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", t.CreatedAt.Format("2006-01-02 15:04:05")))
		pdf.Ln(8)
	}

	pageW, pageH := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(t.Headers))

	header := func() {
		pdf.SetFont(family, "B", size)
		r, g, b := hexToRGB(t.Style.HeaderBgColor)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		for _, h := range t.Headers {
			pdf.CellFormat(colW, 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(family, "", size)
	}
	header()

	for i, row := range t.Rows {
		bg := t.Style.RowBgColor1
		if t.Style.AlternateRows && i%2 == 1 {
			bg = t.Style.RowBgColor2
		}
		r, g, b := hexToRGB(bg)
		pdf.SetFillColor(r, g, b)
		for j, v := range row {
			align := "L"
			if _, ok := v.(float64); ok && j > 0 {
				align = "R"
			}
			pdf.CellFormat(colW, 6, tr(format(v)), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		if pdf.GetY() > pageH-20 {
			pdf.AddPage()
			header()
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func (p *PDFExporter) ContentType() string { return "application/pdf" }

func (p *PDFExporter) Extension() string { return ".pdf" }

// hexToRGB parses "#rrggbb"; anything else is white.
func hexToRGB(hex string) (int, int, int) {
	hex = stripHash(hex)
	if len(hex) != 6 {
		return 255, 255, 255
	}
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 255, 255, 255
	}
	return r, g, b
}
