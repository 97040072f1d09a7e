package certificate

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Data carries the fields rendered onto a certificate.
type Data struct {
	RecipientName string
	CourseTitle   string
	Score         int
	IssuedAt      time.Time
}

// Renderer produces completion certificates as PDF documents.
type Renderer struct{}

// NewRenderer constructs a certificate renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render creates a landscape A4 certificate.
func (r *Renderer) Render(data Data) ([]byte, error) {
	if data.RecipientName == "" || data.CourseTitle == "" {
		return nil, fmt.Errorf("certificate requires recipient and course title")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetDrawColor(60, 60, 120)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Arial", "B", 28)
	pdf.CellFormat(0, 20, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 16, data.RecipientName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, "has successfully completed the course", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 14, data.CourseTitle, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Final quiz score: %d%%", data.Score), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Issued on %s", data.IssuedAt.Format("January 2, 2006")), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "I", 11)
	pdf.CellFormat(0, 8, "AI Super Hub Learning", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
