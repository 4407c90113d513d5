// Package sheet parses label-sheet templates: a small block-structured
// language describing one sticker product (page, margins, label grid) plus
// the fonts and line templates used to print an address on it.
package sheet

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	sheetLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][,:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(sheetLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File is the root AST node of a sheet template.
type File struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Name       string         `parser:"Newline* 'sheet' @Ident"`
	Statements []*Statement   `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Statement is one entry inside the sheet block.
type Statement struct {
	Page    *PageStmt    `parser:"  @@"`
	Margin  *MarginStmt  `parser:"| @@"`
	Label   *LabelStmt   `parser:"| @@"`
	Gap     *GapStmt     `parser:"| @@"`
	Columns *ColumnsStmt `parser:"| @@"`
	Meta    *MetaStmt    `parser:"| @@"`
	Font    *FontStmt    `parser:"| @@"`
	Line    *LineStmt    `parser:"| @@"`
	Options *OptionsStmt `parser:"| @@"`
}

// PageStmt is either a named size with optional orientation
// ("page A4 landscape") or explicit dimensions ("page 210mm 297mm").
type PageStmt struct {
	Width       string `parser:"'page' ( @Number"`
	Height      string `parser:"@Number"`
	Size        string `parser:"| @Ident"`
	Orientation string `parser:"@Ident? )"`
}

// MarginStmt accepts 1 (all), 2 (vertical horizontal) or 4
// (top right bottom left) values.
type MarginStmt struct {
	Values []string `parser:"'margin' @Number+"`
}

// LabelStmt gives the label width and height.
type LabelStmt struct {
	Width  string `parser:"'label' @Number"`
	Height string `parser:"@Number"`
}

// GapStmt gives the horizontal and vertical gap between labels; a single
// value applies to both.
type GapStmt struct {
	Values []string `parser:"'gap' @Number+"`
}

// ColumnsStmt names the CSV columns for ${...} interpolation.
type ColumnsStmt struct {
	Names []string `parser:"'columns' @Ident+"`
}

// MetaStmt holds PDF metadata assignments.
type MetaStmt struct {
	Entries []*Assignment `parser:"'meta' '{' Newline* ( @@ Newline* )* '}'"`
}

// FontStmt declares a named font with its properties.
type FontStmt struct {
	Name    string        `parser:"'font' @Ident"`
	Entries []*Assignment `parser:"'{' Newline* ( @@ Newline* )* '}'"`
}

// LineStmt adds one template line rendered in the given font.
type LineStmt struct {
	Font string        `parser:"'line' @Ident"`
	Text StringLiteral `parser:"@String"`
}

// OptionsStmt holds rendering options (borders, wrap, spacing).
type OptionsStmt struct {
	Entries []*Assignment `parser:"'options' '{' Newline* ( @@ Newline* )* '}'"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident ':' Newline*"`
	Value *Value `parser:"@@"`
}

// Value is a string, a number (possibly unit-suffixed), a bare word or an
// array of values.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
	Array  *ArrayValue    `parser:"| @@"`
}

// ArrayValue captures `[ ... ]` lists.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// Text returns the scalar text of a value, or "" for arrays.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// Strings flattens a value into a list of scalar texts.
func (v *Value) Strings() []string {
	if v == nil {
		return nil
	}
	if v.Array == nil {
		if s := v.Text(); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(v.Array.Values))
	for _, el := range v.Array.Values {
		if s := el.Text(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a sheet template from an io.Reader.
func Parse(r io.Reader) (*File, error) {
	return fileParser.Parse("", r)
}

// ParseString parses a sheet template from a string.
func ParseString(input string) (*File, error) {
	return fileParser.ParseString("", input)
}

// ParseFile parses the sheet template at path.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	file, err := fileParser.Parse(path, f)
	if err != nil {
		return nil, err
	}
	return file, nil
}
