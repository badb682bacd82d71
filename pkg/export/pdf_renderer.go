package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// DocumentData carries everything needed to render a registrar document.
// Body lines appear under the student header; the optional table holds
// course/grade rows for transcripts.
type DocumentData struct {
	Title         string
	StudentName   string
	StudentNumber string
	ProgramCode   string
	BodyLines     []string
	Table         Dataset
}

// PDFRenderer renders registrar documents (transcripts, certificates).
type PDFRenderer struct {
	institution string
}

// NewPDFRenderer constructs a renderer stamped with the institution name.
func NewPDFRenderer(institution string) *PDFRenderer {
	if institution == "" {
		institution = "Office of the Registrar"
	}
	return &PDFRenderer{institution: institution}
}

// Render produces the PDF bytes for one document request.
func (r *PDFRenderer) Render(data DocumentData) ([]byte, error) {
	if data.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, r.institution, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, strings.ToUpper(data.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Name: %s", data.StudentName), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Student No: %s", data.StudentNumber), "", 1, "", false, 0, "")
	if data.ProgramCode != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Program: %s", data.ProgramCode), "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	for _, line := range data.BodyLines {
		pdf.MultiCell(0, 6, line, "", "", false)
		pdf.Ln(1)
	}

	if len(data.Table.Headers) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		colWidth := 180.0 / float64(len(data.Table.Headers))
		for _, header := range data.Table.Headers {
			pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range data.Table.Rows {
			for _, header := range data.Table.Headers {
				pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
