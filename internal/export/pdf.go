// Package export renders report payloads as PDF documents.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"ledger/internal/core"
	"ledger/internal/report"
)

const (
	fontFamily     = "Helvetica"
	maxDescription = 40
)

// column widths in mm, summing to the A4 printable width
var columns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 25, "L"},
	{"Description", 70, "L"},
	{"Type", 22, "L"},
	{"Category", 33, "L"},
	{"Amount", 40, "R"},
}

// PDFRenderer lays out an export payload on A4 pages.
type PDFRenderer struct {
	Title          string
	CurrencySymbol string
}

func NewPDFRenderer(title, currencySymbol string) *PDFRenderer {
	if currencySymbol == "" {
		currencySymbol = core.DefaultCurrencySymbol
	}
	return &PDFRenderer{Title: title, CurrencySymbol: currencySymbol}
}

// Render writes the document for p to w.
func (r *PDFRenderer) Render(w io.Writer, p report.ExportPayload) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Title+" Financial Report", true)
	pdf.SetCreationDate(p.GeneratedAt)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(95, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 10, "Generated on "+p.GeneratedAt.Format("2006-01-02 15:04"), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, 10, tr(r.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 13)
	pdf.CellFormat(0, 8, "Financial Report", "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, tr(p.Filter), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	r.summary(pdf, tr, p.Totals)
	pdf.Ln(4)
	r.table(pdf, tr, p.Rows)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// Bytes renders p into memory.
func (r *PDFRenderer) Bytes(p report.ExportPayload) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) summary(pdf *fpdf.Fpdf, tr func(string) string, t report.PeriodTotals) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)

	rows := []struct {
		label string
		value string
	}{
		{"Total Income", core.FormatCurrency(r.CurrencySymbol, t.Income)},
		{"Total Expenses", core.FormatCurrency(r.CurrencySymbol, t.Expense)},
		{"Net Balance", core.FormatCurrency(r.CurrencySymbol, t.Balance)},
	}
	for _, row := range rows {
		pdf.CellFormat(50, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, tr(row.value), "", 1, "R", false, 0, "")
	}
}

func (r *PDFRenderer) header(pdf *fpdf.Fpdf) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(37, 99, 235)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range columns {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(fontFamily, "", 9)
}

func (r *PDFRenderer) table(pdf *fpdf.Fpdf, tr func(string) string, rows []core.Entry) {
	if len(rows) == 0 {
		pdf.SetFont(fontFamily, "I", 10)
		pdf.CellFormat(0, 8, "No entries for the selected period.", "", 1, "L", false, 0, "")
		return
	}

	r.header(pdf)
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	for i, e := range rows {
		// 20mm leaves room for the footer
		if pdf.GetY()+7 > pageHeight-bottom-20 {
			pdf.AddPage()
			r.header(pdf)
		}
		fill := i%2 == 1
		pdf.SetFillColor(243, 244, 246)
		cells := []string{
			e.Date.String(),
			truncate(e.Description, maxDescription),
			string(e.Kind),
			e.Category,
			core.FormatCurrency(r.CurrencySymbol, e.Amount),
		}
		for j, c := range columns {
			pdf.CellFormat(c.width, 7, tr(cells[j]), "1", 0, c.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
