package layout

import (
	"fmt"
	"math"
)

// Geometry is the full set of sheet measurements in millimeters.
type Geometry struct {
	PageWidth   float64 `json:"pageWidth"`
	PageHeight  float64 `json:"pageHeight"`
	Margin      Margin  `json:"margin"`
	LabelWidth  float64 `json:"labelWidth"`
	LabelHeight float64 `json:"labelHeight"`
	GapX        float64 `json:"gapX"` // horizontal gap between labels
	GapY        float64 `json:"gapY"` // vertical gap between labels
}

// GeometryError reports a sheet geometry on which no label fits.
type GeometryError struct {
	Geometry Geometry
	Columns  int
	Rows     int
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf(
		"no label fits on the page: %gx%gmm label with %g/%gmm gaps on a %gx%gmm page gives a %dx%d grid",
		e.Geometry.LabelWidth, e.Geometry.LabelHeight,
		e.Geometry.GapX, e.Geometry.GapY,
		e.Geometry.PageWidth, e.Geometry.PageHeight,
		e.Columns, e.Rows)
}

// Grid is a validated label grid: at least one slot per page.
type Grid struct {
	Geometry
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// Slot is one rectangular label position on a specific page.
type Slot struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Grid computes how many labels fit per row and per column. A gap is only
// paid between labels, hence the +gap in the numerator. Returns a
// *GeometryError when the page fits no label at all.
func (g Geometry) Grid() (Grid, error) {
	cols := 0
	if g.LabelWidth > 0 {
		usable := g.PageWidth - g.Margin.Left - g.Margin.Right + g.GapX
		cols = int(math.Floor(usable / (g.LabelWidth + g.GapX)))
	}
	rows := 0
	if g.LabelHeight > 0 {
		usable := g.PageHeight - g.Margin.Top - g.Margin.Bottom + g.GapY
		rows = int(math.Floor(usable / (g.LabelHeight + g.GapY)))
	}
	if cols < 1 || rows < 1 {
		return Grid{}, &GeometryError{Geometry: g, Columns: cols, Rows: rows}
	}
	return Grid{Geometry: g, Columns: cols, Rows: rows}, nil
}

// PerPage returns the number of label slots on one page.
func (g Grid) PerPage() int { return g.Columns * g.Rows }

// PageCount returns the number of pages needed for n records.
func (g Grid) PageCount(n int) int {
	per := g.PerPage()
	return (n + per - 1) / per
}

// Slot maps record index i (0-based) to its page and rectangle. Slots are
// filled in row-major order: left to right, then top to bottom.
func (g Grid) Slot(i int) Slot {
	per := g.PerPage()
	page := i / per
	pos := i % per
	row := pos / g.Columns
	col := pos % g.Columns
	return Slot{
		Page:   page,
		X:      g.Margin.Left + float64(col)*(g.LabelWidth+g.GapX),
		Y:      g.Margin.Top + float64(row)*(g.LabelHeight+g.GapY),
		Width:  g.LabelWidth,
		Height: g.LabelHeight,
	}
}
