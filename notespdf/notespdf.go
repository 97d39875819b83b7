// Package notespdf renders structured lecture notes as a PDF document.
package notespdf

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/mentorai/backend/synthesis"
)

// Render writes a lecture notes PDF to path.
func Render(notes *synthesis.LectureNotes, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	title := notes.Title
	if title == "" {
		title = "Lecture Notes"
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, title, "", "C", false)
	pdf.Ln(2)
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(5)

	if notes.Summary != "" {
		section(pdf, "Summary")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, notes.Summary, "", "L", false)
		pdf.Ln(3)
	}

	bulletSection(pdf, "Topics Covered", notes.Topics)
	bulletSection(pdf, "Key Concepts", notes.Concepts)
	bulletSection(pdf, "Definitions", notes.Definitions)
	bulletSection(pdf, "Examples", notes.Examples)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("notespdf: write %s: %w", path, err)
	}
	return nil
}

func section(pdf *fpdf.Fpdf, heading string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, heading, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func bulletSection(pdf *fpdf.Fpdf, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	section(pdf, heading)
	pdf.SetFont("Helvetica", "", 11)
	for _, item := range items {
		pdf.CellFormat(5, 6, "-", "", 0, "L", false, 0, "")
		pdf.MultiCell(0, 6, item, "", "L", false)
	}
	pdf.Ln(3)
}
