// Package layout splits tabular report data into fixed-size pages of
// positioned text cells. It performs no I/O; the export package turns the
// pages into a concrete document.
package layout

import "unicode/utf8"

// Ellipsis is appended to cell text cut to fit its column.
const Ellipsis = "…"

// Vertical advances of the title block, in line heights.
const (
	titleAdvance     = 1.5
	timestampAdvance = 1.2
)

// Style tells the rendering backend which font to use for a line.
type Style uint8

const (
	StyleTitle Style = iota
	StyleTimestamp
	StyleHeader
	StyleBody
)

// Cell is a single text placement. Y grows upwards from the bottom edge of
// the page.
type Cell struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Line is a run of cells sharing a baseline and a style.
type Line struct {
	Style Style   `json:"style"`
	Y     float64 `json:"y"`
	Cells []Cell  `json:"cells"`
}

// Texts returns the cell texts of the line in column order.
func (l Line) Texts() []string {
	out := make([]string, len(l.Cells))
	for i, c := range l.Cells {
		out[i] = c.Text
	}
	return out
}

// Page is one physical output page.
type Page struct {
	Index     int     `json:"index"`
	Title     []Line  `json:"title,omitempty"`
	Header    Line    `json:"header"`
	Rows      []Line  `json:"rows"`
	Remaining float64 `json:"remaining"` // vertical space left above the bottom margin
}

// Lines returns every line of the page in drawing order.
func (p Page) Lines() []Line {
	lines := make([]Line, 0, len(p.Title)+1+len(p.Rows))
	lines = append(lines, p.Title...)
	lines = append(lines, p.Header)
	return append(lines, p.Rows...)
}

// Geometry holds page dimensions in points.
type Geometry struct {
	PageHeight float64 `json:"page_height"`
	Margin     float64 `json:"margin"`
	LineHeight float64 `json:"line_height"`
	GlyphWidth float64 `json:"glyph_width"`

	// TitleOnEveryPage repeats the title and timestamp lines on continuation
	// pages. By default they appear on the first page only.
	TitleOnEveryPage bool `json:"title_on_every_page"`
}

// DefaultGeometry is A4 landscape with tight margins.
func DefaultGeometry() Geometry {
	return Geometry{
		PageHeight: 595.28,
		Margin:     24,
		LineHeight: 12,
		GlyphWidth: 5,
	}
}

func (g Geometry) blockHeight(withTitle bool) float64 {
	h := g.LineHeight
	if withTitle {
		h += (titleAdvance + timestampAdvance) * g.LineHeight
	}
	return h
}

func (g Geometry) validate(columns []Column) error {
	if len(columns) == 0 {
		return configErrorf("no columns")
	}
	if g.PageHeight <= g.Margin {
		return configErrorf("page height %.2f must exceed margin %.2f", g.PageHeight, g.Margin)
	}
	if g.LineHeight <= 0 {
		return configErrorf("line height must be positive")
	}
	if g.GlyphWidth <= 0 {
		return configErrorf("glyph width must be positive")
	}
	for i, c := range columns {
		if c.Width <= 0 {
			return configErrorf("column %d (%q) has non-positive width", i, c.Label)
		}
		if c.CharBudget(g.GlyphWidth) < 1 {
			return configErrorf("column %d (%q) is narrower than one glyph", i, c.Label)
		}
	}
	// A continuation page must hold at least one body row.
	top := g.PageHeight - g.Margin - g.blockHeight(g.TitleOnEveryPage)
	if top < g.Margin+g.LineHeight {
		return configErrorf("page height %.2f leaves no room for a body row", g.PageHeight)
	}
	return nil
}

// Truncate cuts s to at most budget runes. Longer text keeps budget-1 runes
// followed by Ellipsis; shorter text is returned unchanged.
func Truncate(s string, budget int) string {
	if utf8.RuneCountInString(s) <= budget {
		return s
	}
	if budget <= 0 {
		return ""
	}
	runes := []rune(s)
	return string(runes[:budget-1]) + Ellipsis
}

type paginator struct {
	geo         Geometry
	columns     []Column
	budgets     []int
	offsets     []float64
	title       string
	generatedAt string

	pages []Page
	cur   Page
	y     float64
}

// Paginate lays records out over as many pages as needed. Every record lands
// on exactly one page, in input order. The column header row starts every
// page; the title and timestamp lines start the first one.
//
// It returns a *ConfigurationError for invalid geometry and a
// *RecordShapeError when a record does not match the columns. On error no
// pages are returned.
func Paginate(records []Record, columns []Column, geo Geometry, title, generatedAt string) ([]Page, error) {
	if err := geo.validate(columns); err != nil {
		return nil, err
	}

	p := &paginator{
		geo:         geo,
		columns:     columns,
		budgets:     make([]int, len(columns)),
		offsets:     make([]float64, len(columns)),
		title:       title,
		generatedAt: generatedAt,
	}
	x := geo.Margin
	for i, c := range columns {
		p.budgets[i] = c.CharBudget(geo.GlyphWidth)
		p.offsets[i] = x
		x += c.Width
	}

	p.openPage(true)
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, &RecordShapeError{Index: i, Fields: len(rec), Want: len(columns)}
		}
		if p.y < geo.Margin+geo.LineHeight {
			p.closePage()
			p.openPage(false)
		}
		p.cur.Rows = append(p.cur.Rows, p.line(StyleBody, rec.Texts()))
		p.y -= geo.LineHeight
	}
	p.closePage()

	return p.pages, nil
}

func (p *paginator) openPage(first bool) {
	p.cur = Page{Index: len(p.pages)}
	p.y = p.geo.PageHeight - p.geo.Margin

	if first || p.geo.TitleOnEveryPage {
		p.cur.Title = append(p.cur.Title, p.textLine(StyleTitle, p.title))
		p.y -= titleAdvance * p.geo.LineHeight
		p.cur.Title = append(p.cur.Title, p.textLine(StyleTimestamp, p.generatedAt))
		p.y -= timestampAdvance * p.geo.LineHeight
	}

	p.cur.Header = p.line(StyleHeader, Labels(p.columns))
	p.y -= p.geo.LineHeight
}

func (p *paginator) closePage() {
	p.cur.Remaining = p.y - p.geo.Margin
	p.pages = append(p.pages, p.cur)
}

func (p *paginator) textLine(style Style, text string) Line {
	return Line{
		Style: style,
		Y:     p.y,
		Cells: []Cell{{X: p.geo.Margin, Y: p.y, Text: text}},
	}
}

func (p *paginator) line(style Style, texts []string) Line {
	cells := make([]Cell, len(texts))
	for i, t := range texts {
		cells[i] = Cell{X: p.offsets[i], Y: p.y, Text: Truncate(t, p.budgets[i])}
	}
	return Line{Style: style, Y: p.y, Cells: cells}
}
