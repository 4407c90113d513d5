package layout

import (
	"fmt"
	"strings"

	"github.com/bbbart/addresslabels/addressbook"
	"github.com/bbbart/addresslabels/binding"
)

// Wrap policies for typesetting label lines.
const (
	WrapNone = "nowrap" // one line per template line; overflow stays centered
	WrapWord = "word"   // greedy word wrap within the label width
)

// FontSpec is a font resource together with its size and line height.
type FontSpec struct {
	FontResource
	Size       Length         `json:"size"`
	LineHeight LineHeightSpec `json:"lineHeight"`
}

// TemplateLine is one line of the label template, printed in Font.
type TemplateLine struct {
	Font string `json:"font"`
	Text string `json:"text"`
}

// LabelSheet is everything the builder needs to lay records out on a
// sticker sheet: the grid geometry, the fonts, the line template and the
// rendering options. A sheet template resolves to exactly this.
type LabelSheet struct {
	Geometry  Geometry            `json:"geometry"`
	Fonts     map[string]FontSpec `json:"fonts"`
	FontOrder []string            `json:"fontOrder"` // declaration order; first is the default
	Template  []TemplateLine      `json:"template,omitempty"`
	Columns   []string            `json:"columns,omitempty"`
	Meta      DocumentMeta        `json:"meta"`

	Borders          bool    `json:"borders"`
	Wrap             string  `json:"wrap"`
	ExtraLineSpacing float64 `json:"extraLineSpacing"` // factor on the gap between template segments
}

// DefaultFont returns the first declared font.
func (s *LabelSheet) DefaultFont() FontSpec {
	return s.Fonts[s.FontOrder[0]]
}

// Typesetter splits text into measured lines for a given font and width
// constraint. Implemented by the canvas renderer; stubbed in tests.
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

// BuildOptions configures the layout stage.
type BuildOptions struct {
	Typesetter Typesetter
}

// segment is one typeset template line of a record, before placement.
type segment struct {
	font       FontSpec
	lineHeight float64
	gapBefore  float64 // extra spacing between template segments
	lines      []TextLine
	height     float64
}

// Build assigns every record a slot in input order (row-major, page-major)
// and produces centered text blocks for each. The same records and sheet
// always yield the same result.
func Build(sheet *LabelSheet, records []addressbook.Record, opts BuildOptions) (*Result, error) {
	if sheet == nil {
		return nil, fmt.Errorf("layout: nil sheet")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: missing typesetter")
	}
	if len(sheet.FontOrder) == 0 {
		return nil, fmt.Errorf("layout: sheet declares no fonts")
	}
	grid, err := sheet.Geometry.Grid()
	if err != nil {
		return nil, err
	}

	pageCount := grid.PageCount(len(records))
	if pageCount == 0 {
		// An empty address book still produces a document: one blank page,
		// since a zero-page PDF is not representable.
		pageCount = 1
	}
	pages := make([]Page, pageCount)
	for i := range pages {
		pages[i] = Page{
			Width:  sheet.Geometry.PageWidth,
			Height: sheet.Geometry.PageHeight,
			Margin: sheet.Geometry.Margin,
		}
	}

	for i, rec := range records {
		slot := grid.Slot(i)
		page := &pages[slot.Page]

		if sheet.Borders {
			page.Rects = append(page.Rects, Rect{
				X:      slot.X,
				Y:      slot.Y,
				Width:  slot.Width,
				Height: slot.Height,
			})
		}

		segments, blockHeight, err := typesetRecord(sheet, rec, slot.Width, opts.Typesetter)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}

		// Vertical centering of the whole block within the slot. A block
		// taller than the slot keeps its center and overflows both edges;
		// it is never truncated.
		y := slot.Y + (slot.Height-blockHeight)/2
		for _, seg := range segments {
			y += seg.gapBefore
			page.Texts = append(page.Texts, TextBox{
				X:          slot.X,
				Y:          y,
				Width:      slot.Width,
				Height:     seg.height,
				Font:       seg.font.Name,
				FontSize:   seg.font.Size.ToMM(),
				LineHeight: seg.lineHeight,
				Lines:      seg.lines,
			})
			y += seg.height
		}
	}

	fonts := make(map[string]FontResource, len(sheet.Fonts))
	for name, f := range sheet.Fonts {
		fonts[name] = f.FontResource
	}
	return &Result{Pages: pages, Fonts: fonts, Meta: sheet.Meta}, nil
}

// typesetRecord turns one record into its typeset segments and the total
// block height. With a template, each template line is a segment in its own
// font and blank interpolations are dropped; without one, all fields form a
// single segment in the default font.
func typesetRecord(sheet *LabelSheet, rec addressbook.Record, slotWidth float64, ts Typesetter) ([]segment, float64, error) {
	type part struct {
		font    FontSpec
		content string
	}
	var parts []part
	if len(sheet.Template) > 0 {
		fields := rec.Columns(sheet.Columns)
		for _, tl := range sheet.Template {
			content := strings.TrimSpace(binding.Interpolate(tl.Text, fields))
			if content == "" {
				continue
			}
			font, ok := sheet.Fonts[tl.Font]
			if !ok {
				return nil, 0, fmt.Errorf("unknown font %q", tl.Font)
			}
			parts = append(parts, part{font: font, content: content})
		}
	} else {
		var lines []string
		for _, f := range rec.Fields {
			if f != "" {
				lines = append(lines, f)
			}
		}
		parts = append(parts, part{font: sheet.DefaultFont(), content: strings.Join(lines, "\n")})
	}

	limit := 0.0 // unbounded: overflowing lines stay centered
	if sheet.Wrap == WrapWord {
		limit = slotWidth
	}

	var segments []segment
	blockHeight := 0.0
	for i, p := range parts {
		lineHeight := p.font.LineHeight.Resolve(p.font.Size, UnitMM)
		lines, err := ts.LayoutLines(p.content, limit, p.font.FontResource, p.font.Size.ToMM(), lineHeight, sheet.Wrap)
		if err != nil {
			return nil, 0, err
		}
		height := 0.0
		for _, ln := range lines {
			height += ln.GapBefore + ln.Height
		}
		gap := 0.0
		if i > 0 {
			gap = lineHeight * sheet.ExtraLineSpacing
		}
		segments = append(segments, segment{
			font:       p.font,
			lineHeight: lineHeight,
			gapBefore:  gap,
			lines:      lines,
			height:     height,
		})
		blockHeight += gap + height
	}
	return segments, blockHeight, nil
}

// CenteredX returns the x position of a typeset line centered within its
// box: x = box.X + (box.Width - line.Width)/2. The offset may fall left of
// the box for overflowing lines.
func CenteredX(box TextBox, line TextLine) float64 {
	return box.X + (box.Width-line.Width)/2
}
