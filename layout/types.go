package layout

// Layout results shared by the builder, the renderer and the debug JSON
// dump. All coordinates are millimeters with the origin at the top-left
// corner of the page.

// Result holds the laid-out pages plus the resources the renderer needs.
type Result struct {
	Pages []Page                  `json:"pages"`
	Fonts map[string]FontResource `json:"fonts"`
	Meta  DocumentMeta            `json:"meta"`
}

// FontResource describes a font source. Src is a file path (absolute or
// relative to the sheet template) or "system:<family name>" for an
// installed font.
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// Page is one output page: its geometry, the label border rectangles and
// the text blocks, all ready to draw.
type Page struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Margin Margin    `json:"margin"`
	Rects  []Rect    `json:"rects,omitempty"`
	Texts  []TextBox `json:"texts"`
}

// Margin in millimeters.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox is a typeset block of lines anchored to a label slot. Lines are
// centered horizontally within Width; X/Y is the top-left corner.
type TextBox struct {
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Font       string     `json:"font"`
	FontSize   float64    `json:"fontSize"`   // mm
	LineHeight float64    `json:"lineHeight"` // mm
	Lines      []TextLine `json:"lines"`
}

// TextLine is one typeset line with its measured width.
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// Rect is a stroked rectangle, used for label borders.
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	StrokeWidth float64 `json:"strokeWidth"` // mm, <=0 means renderer default
}

// DocumentMeta carries the PDF information dictionary.
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
