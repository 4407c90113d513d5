package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bbbart/addresslabels/layout"
)

// SpecError reports an invalid or missing sheet template field.
type SpecError struct {
	Field string
	Err   error
}

func (e *SpecError) Error() string { return fmt.Sprintf("sheet %s: %v", e.Field, e.Err) }

func (e *SpecError) Unwrap() error { return e.Err }

func specErr(field, format string, args ...any) error {
	return &SpecError{Field: field, Err: fmt.Errorf(format, args...)}
}

// Spec is a fully resolved sheet template, ready for the layout engine.
type Spec struct {
	Name string
	layout.LabelSheet
}

// Named page sizes in millimeters, portrait.
var pageSizes = map[string][2]float64{
	"a0":        {841, 1189},
	"a1":        {594, 841},
	"a2":        {420, 594},
	"a3":        {297, 420},
	"a4":        {210, 297},
	"a5":        {148, 210},
	"a6":        {105, 148},
	"b4":        {250, 353},
	"b5":        {176, 250},
	"letter":    {215.9, 279.4},
	"legal":     {215.9, 355.6},
	"tabloid":   {279.4, 431.8},
	"executive": {184.2, 266.7},
}

// Resolve turns a parsed template into a validated Spec. It checks every
// value the layout engine and renderer will rely on, so a typo in the
// template fails here and not halfway through a render.
func Resolve(file *File) (*Spec, error) {
	if file == nil {
		return nil, specErr("file", "empty template")
	}
	spec := &Spec{
		Name: file.Name,
		LabelSheet: layout.LabelSheet{
			Fonts:            map[string]layout.FontSpec{},
			Wrap:             layout.WrapNone,
			ExtraLineSpacing: 1.0,
		},
	}

	var havePage, haveLabel bool
	for _, st := range file.Statements {
		switch {
		case st.Page != nil:
			if err := resolvePage(st.Page, spec); err != nil {
				return nil, err
			}
			havePage = true
		case st.Margin != nil:
			if err := resolveMargin(st.Margin, spec); err != nil {
				return nil, err
			}
		case st.Label != nil:
			w, err := layout.ParseLength(st.Label.Width)
			if err != nil {
				return nil, specErr("label", "%v", err)
			}
			h, err := layout.ParseLength(st.Label.Height)
			if err != nil {
				return nil, specErr("label", "%v", err)
			}
			spec.Geometry.LabelWidth = w.ToMM()
			spec.Geometry.LabelHeight = h.ToMM()
			haveLabel = true
		case st.Gap != nil:
			if err := resolveGap(st.Gap, spec); err != nil {
				return nil, err
			}
		case st.Columns != nil:
			spec.Columns = st.Columns.Names
		case st.Meta != nil:
			resolveMeta(st.Meta, spec)
		case st.Font != nil:
			if err := resolveFont(st.Font, spec); err != nil {
				return nil, err
			}
		case st.Line != nil:
			spec.Template = append(spec.Template, layout.TemplateLine{
				Font: st.Line.Font,
				Text: string(st.Line.Text),
			})
		case st.Options != nil:
			if err := resolveOptions(st.Options, spec); err != nil {
				return nil, err
			}
		}
	}

	if !havePage {
		return nil, specErr("page", "missing page statement")
	}
	if !haveLabel {
		return nil, specErr("label", "missing label statement")
	}
	if len(spec.FontOrder) == 0 {
		return nil, specErr("font", "at least one font must be declared")
	}
	for _, tl := range spec.Template {
		if _, ok := spec.Fonts[tl.Font]; !ok {
			return nil, specErr("line", "unknown font %q", tl.Font)
		}
	}
	return spec, nil
}

func resolvePage(st *PageStmt, spec *Spec) error {
	if st.Size != "" {
		size, ok := pageSizes[strings.ToLower(st.Size)]
		if !ok {
			return specErr("page", "unknown page size %q", st.Size)
		}
		w, h := size[0], size[1]
		switch strings.ToLower(st.Orientation) {
		case "", "portrait":
		case "landscape":
			w, h = h, w
		default:
			return specErr("page", "unknown orientation %q", st.Orientation)
		}
		spec.Geometry.PageWidth = w
		spec.Geometry.PageHeight = h
		return nil
	}
	w, err := layout.ParseLength(st.Width)
	if err != nil {
		return specErr("page", "%v", err)
	}
	h, err := layout.ParseLength(st.Height)
	if err != nil {
		return specErr("page", "%v", err)
	}
	spec.Geometry.PageWidth = w.ToMM()
	spec.Geometry.PageHeight = h.ToMM()
	return nil
}

func resolveMargin(st *MarginStmt, spec *Spec) error {
	vals := make([]float64, len(st.Values))
	for i, raw := range st.Values {
		l, err := layout.ParseLength(raw)
		if err != nil {
			return specErr("margin", "%v", err)
		}
		vals[i] = l.ToMM()
	}
	m := &spec.Geometry.Margin
	switch len(vals) {
	case 1:
		m.Top, m.Right, m.Bottom, m.Left = vals[0], vals[0], vals[0], vals[0]
	case 2:
		m.Top, m.Bottom = vals[0], vals[0]
		m.Right, m.Left = vals[1], vals[1]
	case 4:
		m.Top, m.Right, m.Bottom, m.Left = vals[0], vals[1], vals[2], vals[3]
	default:
		return specErr("margin", "expected 1, 2 or 4 values, got %d", len(vals))
	}
	return nil
}

func resolveGap(st *GapStmt, spec *Spec) error {
	vals := make([]float64, len(st.Values))
	for i, raw := range st.Values {
		l, err := layout.ParseLength(raw)
		if err != nil {
			return specErr("gap", "%v", err)
		}
		vals[i] = l.ToMM()
	}
	switch len(vals) {
	case 1:
		spec.Geometry.GapX, spec.Geometry.GapY = vals[0], vals[0]
	case 2:
		spec.Geometry.GapX, spec.Geometry.GapY = vals[0], vals[1]
	default:
		return specErr("gap", "expected 1 or 2 values, got %d", len(vals))
	}
	return nil
}

func resolveMeta(st *MetaStmt, spec *Spec) {
	for _, e := range st.Entries {
		switch e.Key {
		case "title":
			spec.Meta.Title = e.Value.Text()
		case "author":
			spec.Meta.Author = e.Value.Text()
		case "subject":
			spec.Meta.Subject = e.Value.Text()
		case "creator":
			spec.Meta.Creator = e.Value.Text()
		case "keywords":
			spec.Meta.Keywords = e.Value.Strings()
		}
	}
}

func resolveFont(st *FontStmt, spec *Spec) error {
	if _, dup := spec.Fonts[st.Name]; dup {
		return specErr("font", "duplicate font %q", st.Name)
	}
	font := layout.FontSpec{
		FontResource: layout.FontResource{Name: st.Name},
		Size:         layout.Length{Value: 10, Unit: layout.UnitPT},
	}
	for _, e := range st.Entries {
		switch e.Key {
		case "src":
			font.Src = e.Value.Text()
		case "style":
			font.Style = e.Value.Text()
		case "size":
			l, err := layout.ParseLength(e.Value.Text())
			if err != nil {
				return specErr("font "+st.Name, "%v", err)
			}
			font.Size = l
		case "line-height":
			lh, err := layout.ParseLineHeight(e.Value.Text())
			if err != nil {
				return specErr("font "+st.Name, "%v", err)
			}
			font.LineHeight = lh
		default:
			return specErr("font "+st.Name, "unknown property %q", e.Key)
		}
	}
	if font.Src == "" {
		return specErr("font "+st.Name, "missing src")
	}
	spec.Fonts[st.Name] = font
	spec.FontOrder = append(spec.FontOrder, st.Name)
	return nil
}

func resolveOptions(st *OptionsStmt, spec *Spec) error {
	for _, e := range st.Entries {
		switch e.Key {
		case "borders":
			b, err := strconv.ParseBool(e.Value.Text())
			if err != nil {
				return specErr("options", "borders: %v", err)
			}
			spec.Borders = b
		case "wrap":
			switch e.Value.Text() {
			case layout.WrapNone, layout.WrapWord:
				spec.Wrap = e.Value.Text()
			default:
				return specErr("options", "unknown wrap mode %q", e.Value.Text())
			}
		case "extra-line-spacing":
			raw := strings.TrimSuffix(e.Value.Text(), "x")
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil || f < 0 {
				return specErr("options", "invalid extra-line-spacing %q", e.Value.Text())
			}
			spec.ExtraLineSpacing = f
		default:
			return specErr("options", "unknown option %q", e.Key)
		}
	}
	return nil
}

// Load parses and resolves the sheet template at path.
func Load(path string) (*Spec, error) {
	file, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Resolve(file)
}
