package layout

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bbbart/addresslabels/addressbook"
)

// stubTypesetter measures every rune as charWidth mm wide, so tests can
// predict line widths without a real font.
type stubTypesetter struct {
	charWidth float64
}

func (s *stubTypesetter) LayoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, wrap string) ([]TextLine, error) {
	cw := s.charWidth
	if cw == 0 {
		cw = 2
	}
	measure := func(text string) float64 { return float64(len([]rune(text))) * cw }

	var raw []string
	if wrap == WrapWord && width > 0 {
		for _, para := range strings.Split(content, "\n") {
			cur := ""
			for _, word := range strings.Fields(para) {
				cand := word
				if cur != "" {
					cand = cur + " " + word
				}
				if cur != "" && measure(cand) > width {
					raw = append(raw, cur)
					cur = word
					continue
				}
				cur = cand
			}
			raw = append(raw, cur)
		}
	} else {
		raw = strings.Split(content, "\n")
	}

	leading := math.Max(lineHeight-fontSize, 0)
	lines := make([]TextLine, len(raw))
	for i, ln := range raw {
		lines[i] = TextLine{Content: ln, Width: measure(ln), Height: fontSize}
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

// testSheet uses 10mm font lines with factor-1 line height so that block
// heights are trivially numLines*10mm.
func testSheet() *LabelSheet {
	font := func(name string) FontSpec {
		return FontSpec{
			FontResource: FontResource{Name: name, Src: "system:Test"},
			Size:         Length{Value: 10, Unit: UnitMM},
			LineHeight:   LineHeightSpec{Kind: LineHeightFactor, Factor: 1},
		}
	}
	return &LabelSheet{
		Geometry:         a4Geometry(),
		Fonts:            map[string]FontSpec{"Body": font("Body"), "Name": font("Name")},
		FontOrder:        []string{"Body", "Name"},
		Wrap:             WrapNone,
		ExtraLineSpacing: 1,
	}
}

func record(fields ...string) addressbook.Record {
	return addressbook.Record{Fields: fields}
}

func build(t *testing.T, sheet *LabelSheet, records []addressbook.Record) *Result {
	t.Helper()
	res, err := Build(sheet, records, BuildOptions{Typesetter: &stubTypesetter{}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res
}

func TestBuildPaginationAndOrder(t *testing.T) {
	var records []addressbook.Record
	for i := 1; i <= 23; i++ {
		records = append(records, record(fmt.Sprintf("addr%02d", i)))
	}
	res := build(t, testSheet(), records)

	if len(res.Pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(res.Pages))
	}
	for i, want := range []int{10, 10, 3} {
		if got := len(res.Pages[i].Texts); got != want {
			t.Fatalf("page %d holds %d blocks, want %d", i, got, want)
		}
	}

	// Records appear in input order, page-major.
	var got []string
	for _, page := range res.Pages {
		for _, tb := range page.Texts {
			got = append(got, tb.Lines[0].Content)
		}
	}
	var want []string
	for _, r := range records {
		want = append(want, r.Fields[0])
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildVerticalCentering(t *testing.T) {
	res := build(t, testSheet(), []addressbook.Record{record("one", "two", "three")})

	// Three 10mm lines in one block inside a 50mm slot at y=10:
	// top = 10 + (50-30)/2 = 20.
	tb := res.Pages[0].Texts[0]
	if len(tb.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(tb.Lines))
	}
	if math.Abs(tb.Height-30) > 1e-9 {
		t.Fatalf("block height = %g, want 30", tb.Height)
	}
	if math.Abs(tb.Y-20) > 1e-9 {
		t.Fatalf("block top = %g, want 20", tb.Y)
	}
}

func TestBuildHorizontalCenteringInvariant(t *testing.T) {
	res := build(t, testSheet(), []addressbook.Record{record("abc")})
	tb := res.Pages[0].Texts[0]
	line := tb.Lines[0]

	// 3 runes at 2mm each: narrower than the 90mm slot.
	x := CenteredX(tb, line)
	if x < tb.X {
		t.Fatalf("centered x %g left of slot edge %g", x, tb.X)
	}
	if x+line.Width > tb.X+tb.Width+1e-9 {
		t.Fatalf("centered line ends at %g, past slot edge %g", x+line.Width, tb.X+tb.Width)
	}
	if want := tb.X + (tb.Width-line.Width)/2; math.Abs(x-want) > 1e-9 {
		t.Fatalf("centered x = %g, want %g", x, want)
	}
}

func TestBuildOverflowingLineStaysCentered(t *testing.T) {
	// 60 runes at 2mm = 120mm, wider than the 90mm label. The line must
	// still be centered (negative overhang), not truncated or rejected.
	long := strings.Repeat("x", 60)
	res := build(t, testSheet(), []addressbook.Record{record(long)})
	tb := res.Pages[0].Texts[0]
	line := tb.Lines[0]
	if line.Content != long {
		t.Fatalf("line was altered: %q", line.Content)
	}
	x := CenteredX(tb, line)
	if x >= tb.X {
		t.Fatalf("overflowing line should start left of the slot, x=%g slot=%g", x, tb.X)
	}
	want := tb.X + (tb.Width-line.Width)/2
	if math.Abs(x-want) > 1e-9 {
		t.Fatalf("overflow x = %g, want %g", x, want)
	}
}

func TestBuildBackToBackIsIdentical(t *testing.T) {
	records := []addressbook.Record{record("a", "b"), record("c"), record("d", "e", "f")}
	first := build(t, testSheet(), records)
	second := build(t, testSheet(), records)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("layout is not deterministic (-first +second):\n%s", diff)
	}
}

func TestBuildEmptyInputYieldsBlankPage(t *testing.T) {
	res := build(t, testSheet(), nil)
	if len(res.Pages) != 1 {
		t.Fatalf("got %d pages, want 1 blank page", len(res.Pages))
	}
	if len(res.Pages[0].Texts) != 0 || len(res.Pages[0].Rects) != 0 {
		t.Fatalf("blank page is not blank: %+v", res.Pages[0])
	}
}

func TestBuildBorders(t *testing.T) {
	sheet := testSheet()
	sheet.Borders = true
	res := build(t, sheet, []addressbook.Record{record("a"), record("b"), record("c")})

	rects := res.Pages[0].Rects
	if len(rects) != 3 {
		t.Fatalf("got %d border rects, want 3", len(rects))
	}
	grid, err := sheet.Geometry.Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	for i, rect := range rects {
		slot := grid.Slot(i)
		if rect.X != slot.X || rect.Y != slot.Y || rect.Width != slot.Width || rect.Height != slot.Height {
			t.Fatalf("rect %d = %+v does not match slot %+v", i, rect, slot)
		}
	}
}

func TestBuildTemplateDropsBlankSegments(t *testing.T) {
	sheet := testSheet()
	sheet.Columns = []string{"name", "street", "postalcode", "city", "country"}
	sheet.Template = []TemplateLine{
		{Font: "Name", Text: "${name}"},
		{Font: "Body", Text: "${street}"},
		{Font: "Body", Text: "${postalcode} ${city}"},
		{Font: "Body", Text: "${country}"},
	}
	sheet.ExtraLineSpacing = 0

	records := []addressbook.Record{
		record("Ada Lovelace", "12 Analytical Rd", "1815", "London", "United Kingdom"),
		record("Alan Turing", "7 Bletchley Park", "1912", "Bletchley"), // no country
	}
	res := build(t, sheet, records)

	texts := res.Pages[0].Texts
	if len(texts) != 4+3 {
		t.Fatalf("got %d segments, want 7 (country line dropped for record 2)", len(texts))
	}
	if texts[0].Font != "Name" || texts[1].Font != "Body" {
		t.Fatalf("template fonts not applied: %s/%s", texts[0].Font, texts[1].Font)
	}
	if texts[2].Lines[0].Content != "1815 London" {
		t.Fatalf("interpolation failed: %q", texts[2].Lines[0].Content)
	}
	last := texts[len(texts)-1]
	if last.Lines[0].Content != "1912 Bletchley" {
		t.Fatalf("record 2 should end with the city line, got %q", last.Lines[0].Content)
	}
}

func TestBuildTemplateSegmentSpacing(t *testing.T) {
	sheet := testSheet()
	sheet.Columns = []string{"name", "street"}
	sheet.Template = []TemplateLine{
		{Font: "Name", Text: "${name}"},
		{Font: "Body", Text: "${street}"},
	}
	sheet.ExtraLineSpacing = 0.5 // half a line height between segments

	res := build(t, sheet, []addressbook.Record{record("N", "S")})
	texts := res.Pages[0].Texts
	if len(texts) != 2 {
		t.Fatalf("got %d segments, want 2", len(texts))
	}
	// Block: 10 + 5 (gap) + 10 = 25mm, centered in the 50mm slot at y=10:
	// first segment at 22.5, second at 22.5+10+5 = 37.5.
	if math.Abs(texts[0].Y-22.5) > 1e-9 || math.Abs(texts[1].Y-37.5) > 1e-9 {
		t.Fatalf("segment tops = %g/%g, want 22.5/37.5", texts[0].Y, texts[1].Y)
	}
}

func TestBuildZeroFitGeometryFails(t *testing.T) {
	sheet := testSheet()
	sheet.Geometry.LabelWidth = 500
	_, err := Build(sheet, []addressbook.Record{record("a")}, BuildOptions{Typesetter: &stubTypesetter{}})
	if err == nil {
		t.Fatalf("expected geometry error")
	}
}

func TestBuildRequiresTypesetter(t *testing.T) {
	if _, err := Build(testSheet(), nil, BuildOptions{}); err == nil {
		t.Fatalf("expected error without typesetter")
	}
}
