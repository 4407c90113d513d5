package layout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// a4Geometry is the reference sheet: A4, 10mm margins, 90x50mm labels with
// 2mm gaps, which gives a 2x5 grid.
func a4Geometry() Geometry {
	return Geometry{
		PageWidth:   210,
		PageHeight:  297,
		Margin:      Margin{Top: 10, Right: 10, Bottom: 10, Left: 10},
		LabelWidth:  90,
		LabelHeight: 50,
		GapX:        2,
		GapY:        2,
	}
}

func TestGridDimensions(t *testing.T) {
	grid, err := a4Geometry().Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	if grid.Columns != 2 || grid.Rows != 5 {
		t.Fatalf("got %dx%d grid, want 2x5", grid.Columns, grid.Rows)
	}
	if grid.PerPage() != 10 {
		t.Fatalf("PerPage = %d, want 10", grid.PerPage())
	}
}

func TestGridPageCount(t *testing.T) {
	grid, err := a4Geometry().Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	cases := []struct{ records, pages int }{
		{0, 0}, {1, 1}, {10, 1}, {11, 2}, {20, 2}, {23, 3},
	}
	for _, c := range cases {
		if got := grid.PageCount(c.records); got != c.pages {
			t.Fatalf("PageCount(%d) = %d, want %d", c.records, got, c.pages)
		}
	}
}

func TestGridZeroFitIsGeometryError(t *testing.T) {
	cases := []Geometry{
		// label wider than the usable page
		{PageWidth: 100, PageHeight: 100, LabelWidth: 120, LabelHeight: 10},
		// margins eat the whole page
		{PageWidth: 210, PageHeight: 297, Margin: Margin{Top: 150, Bottom: 150}, LabelWidth: 90, LabelHeight: 50},
		// degenerate label
		{PageWidth: 210, PageHeight: 297},
	}
	for i, g := range cases {
		_, err := g.Grid()
		var gerr *GeometryError
		if !errors.As(err, &gerr) {
			t.Fatalf("case %d: got %v, want *GeometryError", i, err)
		}
	}
}

func TestSlotAssignmentExhaustiveAndDisjoint(t *testing.T) {
	grid, err := a4Geometry().Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	const records = 23
	seen := map[string]int{}
	for i := 0; i < records; i++ {
		slot := grid.Slot(i)
		key := fmt.Sprintf("%d/%g/%g", slot.Page, slot.X, slot.Y)
		if prev, dup := seen[key]; dup {
			t.Fatalf("records %d and %d share slot %s", prev, i, key)
		}
		seen[key] = i
	}
	if len(seen) != records {
		t.Fatalf("%d distinct slots for %d records", len(seen), records)
	}
	// 23 records over a 10-per-page grid: pages 0 and 1 full, page 2 holds 3.
	perPage := map[int]int{}
	for i := 0; i < records; i++ {
		perPage[grid.Slot(i).Page]++
	}
	want := map[int]int{0: 10, 1: 10, 2: 3}
	if diff := cmp.Diff(want, perPage); diff != "" {
		t.Fatalf("records per page mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotPositionsRowMajor(t *testing.T) {
	grid, err := a4Geometry().Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	want := []Slot{
		{Page: 0, X: 10, Y: 10, Width: 90, Height: 50},
		{Page: 0, X: 102, Y: 10, Width: 90, Height: 50},
		{Page: 0, X: 10, Y: 62, Width: 90, Height: 50},
		{Page: 0, X: 102, Y: 62, Width: 90, Height: 50},
	}
	var got []Slot
	for i := range want {
		got = append(got, grid.Slot(i))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slot positions mismatch (-want +got):\n%s", diff)
	}
	// first slot of the second page starts over at the top-left margin
	first := grid.Slot(grid.PerPage())
	if first.Page != 1 || first.X != 10 || first.Y != 10 {
		t.Fatalf("slot 10 = %+v, want page 1 at 10/10", first)
	}
}

func TestSlotAssignmentIdempotent(t *testing.T) {
	grid, err := a4Geometry().Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	for i := 0; i < 30; i++ {
		a, b := grid.Slot(i), grid.Slot(i)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("Slot(%d) not deterministic (-first +second):\n%s", i, diff)
		}
	}
}

func TestSlotsStayWithinPage(t *testing.T) {
	grid, err := a4Geometry().Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	g := grid.Geometry
	for i := 0; i < grid.PerPage(); i++ {
		s := grid.Slot(i)
		if s.X < g.Margin.Left-1e-9 || s.X+s.Width > g.PageWidth-g.Margin.Right+1e-9 {
			t.Fatalf("slot %d horizontally out of bounds: %+v", i, s)
		}
		if s.Y < g.Margin.Top-1e-9 || s.Y+s.Height > g.PageHeight-g.Margin.Bottom+1e-9 {
			t.Fatalf("slot %d vertically out of bounds: %+v", i, s)
		}
	}
}
