package certificates

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Certificate is the content of a verification certificate.
type Certificate struct {
	ProjectID   string
	ProjectName string
	Hectares    float64
	Latitude    float64
	Longitude   float64
	Address     string
	CO2Tons     *float64
	ValidatorID string
	Notes       string
	VerifiedAt  time.Time
	IssuedAt    time.Time
}

// PDFColor represents an RGB color
type PDFColor struct {
	R, G, B int
}

// PDFOptions configures certificate rendering.
type PDFOptions struct {
	PageSize      string
	FontFamily    string
	Issuer        string
	AccentColor   PDFColor
	DateFormat    string
	MarginMM      float64
	BorderWidthMM float64
}

func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:      "A4",
		FontFamily:    "Helvetica",
		Issuer:        "BlueChain MRV",
		AccentColor:   PDFColor{R: 14, G: 116, B: 144},
		DateFormat:    "2 January 2006",
		MarginMM:      20,
		BorderWidthMM: 1.5,
	}
}

// Generator renders certificates as single-page landscape PDFs.
type Generator struct {
	options PDFOptions
}

func NewGenerator(options PDFOptions) *Generator {
	return &Generator{options: options}
}

// Render writes the certificate PDF to w.
func (g *Generator) Render(w io.Writer, cert *Certificate) error {
	o := g.options
	pdf := gofpdf.New("L", "mm", o.PageSize, "")
	pdf.SetMargins(o.MarginMM, o.MarginMM, o.MarginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("Verification certificate %s", cert.ProjectID), true)
	pdf.SetAuthor(o.Issuer, true)
	pdf.AddPage()

	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, height := pdf.GetPageSize()
	pdf.SetDrawColor(o.AccentColor.R, o.AccentColor.G, o.AccentColor.B)
	pdf.SetLineWidth(o.BorderWidthMM)
	pdf.Rect(o.MarginMM/2, o.MarginMM/2, width-o.MarginMM, height-o.MarginMM, "D")

	pdf.SetY(o.MarginMM + 10)
	pdf.SetFont(o.FontFamily, "B", 26)
	pdf.SetTextColor(o.AccentColor.R, o.AccentColor.G, o.AccentColor.B)
	pdf.CellFormat(0, 14, "Blue Carbon Verification Certificate", "", 1, "C", false, 0, "")

	pdf.SetFont(o.FontFamily, "", 12)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 8, tr("Issued by "+o.Issuer), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont(o.FontFamily, "B", 20)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 12, tr(cert.ProjectName), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	labelWidth := 60.0
	for _, row := range g.rows(cert) {
		pdf.SetX(o.MarginMM + 30)
		pdf.SetFont(o.FontFamily, "B", 12)
		pdf.CellFormat(labelWidth, 9, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont(o.FontFamily, "", 12)
		pdf.CellFormat(0, 9, tr(row[1]), "", 1, "L", false, 0, "")
	}

	pdf.SetY(height - o.MarginMM - 12)
	pdf.SetFont(o.FontFamily, "I", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, fmt.Sprintf("Certificate generated %s. Project ID %s.",
		cert.IssuedAt.Format(o.DateFormat), cert.ProjectID), "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

func (g *Generator) rows(cert *Certificate) [][2]string {
	co2 := "Not assessed"
	if cert.CO2Tons != nil {
		co2 = fmt.Sprintf("%.2f tCO2e", *cert.CO2Tons)
	}
	location := fmt.Sprintf("%.6f, %.6f", cert.Latitude, cert.Longitude)
	if cert.Address != "" {
		location = cert.Address + " (" + location + ")"
	}

	rows := [][2]string{
		{"Area", fmt.Sprintf("%.2f hectares", cert.Hectares)},
		{"Location", location},
		{"Sequestration", co2},
		{"Validator", cert.ValidatorID},
		{"Verified on", cert.VerifiedAt.Format(g.options.DateFormat)},
	}
	if cert.Notes != "" {
		rows = append(rows, [2]string{"Notes", cert.Notes})
	}
	return rows
}
