package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"employee-portal/employee-portal-backend/internal/reports/layout"
)

// PDFGenerator renders paginated tabular reports to PDF
type PDFGenerator struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
	tr      func(string) string
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize          string  `json:"page_size"`   // A4, Letter, Legal
	Orientation       string  `json:"orientation"` // portrait, landscape
	Title             string  `json:"title"`
	Author            string  `json:"author,omitempty"`
	DateFormat        string  `json:"date_format"`
	FontFamily        string  `json:"font_family"`
	TitleFontSize     float64 `json:"title_font_size"`
	TimestampFontSize float64 `json:"timestamp_font_size"`
	HeaderFontSize    float64 `json:"header_font_size"`
	FontSize          float64 `json:"font_size"`
	Margin            float64 `json:"margin"`      // points, all sides
	LineHeight        float64 `json:"line_height"` // points
	GlyphWidth        float64 `json:"glyph_width"` // points per character when budgeting columns
	TitleOnEveryPage  bool    `json:"title_on_every_page"`
	IncludePageNum    bool    `json:"include_page_num"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:          "A4",
		Orientation:       "landscape",
		Title:             "Employees Report",
		DateFormat:        "2006-01-02 15:04",
		FontFamily:        "Helvetica",
		TitleFontSize:     14,
		TimestampFontSize: 9,
		HeaderFontSize:    8,
		FontSize:          8,
		Margin:            24,
		LineHeight:        12,
		GlyphWidth:        5,
	}
}

// NewPDFGenerator creates a new PDF generator. Units are points so layout
// coordinates map one to one.
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	orientation := "P"
	if options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "pt", options.PageSize, "")
	pdf.SetMargins(options.Margin, options.Margin, options.Margin)
	pdf.SetAutoPageBreak(false, options.Margin)
	pdf.SetTitle(options.Title, true)
	if options.Author != "" {
		pdf.SetAuthor(options.Author, true)
	}

	return &PDFGenerator{
		pdf:     pdf,
		options: options,
		// Core fonts are cp1252; the translator keeps the ellipsis intact.
		tr: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// Geometry returns the page geometry the layout package should paginate for.
func (g *PDFGenerator) Geometry() layout.Geometry {
	_, height := g.pdf.GetPageSize()
	return layout.Geometry{
		PageHeight:       height,
		Margin:           g.options.Margin,
		LineHeight:       g.options.LineHeight,
		GlyphWidth:       g.options.GlyphWidth,
		TitleOnEveryPage: g.options.TitleOnEveryPage,
	}
}

// GenerateReport paginates records and renders them. generatedAt is printed
// under the title using DateFormat.
func (g *PDFGenerator) GenerateReport(columns []layout.Column, records []layout.Record, generatedAt time.Time) error {
	label := fmt.Sprintf("Generated: %s", generatedAt.Format(g.options.DateFormat))

	pages, err := layout.Paginate(records, columns, g.Geometry(), g.options.Title, label)
	if err != nil {
		return err
	}

	g.pdf.SetCreationDate(generatedAt)
	return g.Render(pages)
}

// Render draws every page, one PDF page per layout page.
func (g *PDFGenerator) Render(pages []layout.Page) error {
	_, height := g.pdf.GetPageSize()

	for _, page := range pages {
		g.pdf.AddPage()
		for _, line := range page.Lines() {
			g.setStyle(line.Style)
			for _, cell := range line.Cells {
				// Layout y grows upwards, gofpdf y grows downwards.
				g.pdf.Text(cell.X, height-cell.Y, g.tr(cell.Text))
			}
		}
		if g.options.IncludePageNum {
			g.addPageNumber(page.Index+1, len(pages))
		}
	}

	if g.pdf.Err() {
		return fmt.Errorf("failed to render pdf: %w", g.pdf.Error())
	}
	return nil
}

func (g *PDFGenerator) setStyle(style layout.Style) {
	switch style {
	case layout.StyleTitle:
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	case layout.StyleTimestamp:
		g.pdf.SetFont(g.options.FontFamily, "", g.options.TimestampFontSize)
	case layout.StyleHeader:
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	default:
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	}
}

// addPageNumber prints "Page n of m" inside the bottom margin
func (g *PDFGenerator) addPageNumber(n, total int) {
	width, height := g.pdf.GetPageSize()
	g.pdf.SetFont(g.options.FontFamily, "", g.options.TimestampFontSize)
	label := fmt.Sprintf("Page %d of %d", n, total)
	x := width - g.options.Margin - g.pdf.GetStringWidth(label)
	g.pdf.Text(x, height-g.options.Margin/3, label)
}

// PageCount returns the number of rendered pages
func (g *PDFGenerator) PageCount() int {
	return g.pdf.PageCount()
}

// OutputToBytes returns the PDF as bytes
func (g *PDFGenerator) OutputToBytes() ([]byte, error) {
	var buf bytes.Buffer
	err := g.pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
