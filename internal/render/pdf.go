// Package render produces the downloadable transcript document.
package render

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer renders transcript text into a styled PDF.
//
// Turkish text needs glyphs the PDF core fonts lack. When a TTF font file
// is configured it is embedded as a UTF-8 font; otherwise the text is
// transliterated through the cp1254 (Turkish) code page, which covers the
// Turkish alphabet with the built-in fonts.
type PDFRenderer struct {
	fontPath string
}

// NewPDFRenderer creates a renderer. fontPath may be empty.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			fontPath = ""
		}
	}
	return &PDFRenderer{fontPath: fontPath}
}

// Render produces the transcript PDF: title, source filename, generation
// time, estimated duration, a separator rule, then the transcript body.
func (r *PDFRenderer) Render(text, sourceFilename string, estimatedMinutes int) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1254")
	if r.fontPath != "" {
		family = "transcript"
		pdf.AddUTF8Font(family, "", r.fontPath)
		tr = func(s string) string { return s }
	}

	pdf.AddPage()

	// Title
	pdf.SetFont(family, "", 20)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(0, 10, tr("Ses Transkripti"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// Metadata lines
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Dosya: %s", sourceFilename)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Tarih: %s", time.Now().Format("02.01.2006 15:04"))), "", 1, "C", false, 0, "")
	if estimatedMinutes > 0 {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Tahmini Süre: %d dakika", estimatedMinutes)), "", 1, "C", false, 0, "")
	}
	pdf.Ln(8)

	// Separator rule
	pdf.SetDrawColor(229, 231, 235)
	pdf.SetLineWidth(0.3)
	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.Line(left, y, pageWidth-right, y)
	pdf.Ln(6)

	// Transcript body
	pdf.SetFont(family, "", 11)
	pdf.SetTextColor(31, 41, 55)
	pdf.MultiCell(0, 6, tr(text), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
