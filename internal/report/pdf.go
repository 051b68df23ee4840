package report

import (
	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the execution summary and the failed document names as a
// one-page PDF. Long failure lists flow onto further pages.
func WritePDF(path, title string, e Execution, failures []string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range e.Lines() {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	if len(failures) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, "Failed documents", "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "", 9)
		for _, f := range failures {
			pdf.MultiCell(0, 4.5, f, "", "L", false)
		}
	}
	return pdf.OutputFileAndClose(path)
}
