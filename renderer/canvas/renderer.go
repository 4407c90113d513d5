// Package canvasrenderer renders layout results to PDF via
// github.com/tdewolff/canvas. It also implements layout.Typesetter, since
// line measurement needs the same font machinery as drawing.
package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/bbbart/addresslabels/layout"
	"github.com/bbbart/addresslabels/renderer"
)

const borderStrokeWidth = 0.2 // mm

// systemPrefix marks font sources that name an installed system font
// instead of a font file, e.g. "system:DejaVu Serif".
const systemPrefix = "system:"

// FontError reports a font that could not be loaded.
type FontError struct {
	Font layout.FontResource
	Err  error
}

func (e *FontError) Error() string {
	return fmt.Sprintf("font %s (%s): %v", e.Font.Name, e.Font.Src, e.Err)
}

func (e *FontError) Unwrap() error { return e.Err }

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string // font paths resolve against this

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// NewRenderer creates a canvas-based renderer resolving font paths against
// baseDir (typically the directory of the sheet template).
func NewRenderer(baseDir string) *Renderer {
	return &Renderer{
		baseDir:      baseDir,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

// Render renders the result into a PDF byte slice. Pages are emitted
// strictly in order and the whole document is built in memory; nothing is
// written anywhere on failure.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("nil layout result")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("no pages to render")
	}

	// Resolve every font before opening the first page, so a broken font
	// spec fails the run up front instead of mid-document.
	for _, font := range result.Fonts {
		if _, _, err := r.ensureFontFamily(font); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // layout uses a top-left origin

		if err := r.drawPage(ctx, page, result.Fonts); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, fonts map[string]layout.FontResource) error {
	// Borders first, as background.
	for _, rect := range page.Rects {
		w := rect.StrokeWidth
		if w <= 0 {
			w = borderStrokeWidth
		}
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
		ctx.SetStrokeColor(canvas.Black)
		ctx.SetStrokeWidth(w)
		ctx.DrawPath(rect.X, rect.Y, canvas.Rectangle(rect.Width, rect.Height))
	}

	for _, tb := range page.Texts {
		font, ok := fonts[tb.Font]
		if !ok {
			return fmt.Errorf("text box references unknown font %q", tb.Font)
		}
		if err := r.drawTextBox(ctx, tb, font); err != nil {
			return err
		}
	}
	return nil
}

// drawTextBox draws the lines of a text box centered within its width.
// Box coordinates, font size and line heights are all mm; the font face is
// created in pt at the boundary.
func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, font layout.FontResource) error {
	face, err := r.fontFace(font, toPt(tb.FontSize))
	if err != nil {
		return err
	}

	anchorX := tb.X + tb.Width/2
	cursorY := tb.Y
	for _, line := range tb.Lines {
		cursorY += line.GapBefore
		if line.Content != "" {
			textLine := canvas.NewTextLine(face, line.Content, canvas.Center)
			// Baseline sits one ascent below the top of the line.
			metrics := face.Metrics()
			ctx.DrawText(anchorX, cursorY+metrics.Ascent, textLine)
		}

		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.LineHeight
		}
		cursorY += lineHeight
	}
	return nil
}

// LayoutLines implements layout.Typesetter. fontSize and lineHeight are mm.
// With wrap "word" the text is greedily wrapped to the given width; any
// other mode splits on explicit newlines only and lets long lines overflow.
// A width <= 0 disables wrapping either way.
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, toPt(fontSize))
	if err != nil {
		return nil, err
	}

	var lines []layout.TextLine
	if wrap == layout.WrapWord && width > 0 {
		lines = greedyWrapTokens(content, width, face)
	} else {
		for _, part := range strings.Split(content, "\n") {
			lines = append(lines, layout.TextLine{Content: part, Width: face.TextWidth(part)})
		}
	}

	metrics := face.Metrics()
	textHeight := metrics.LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: "", Width: 0}}
	}
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = textHeight
		}
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

func (r *Renderer) fontFace(font layout.FontResource, sizePt float64) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, canvas.Black, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Name
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		return nil, canvas.FontRegular, &FontError{Font: font, Err: err}
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	if font.Src == "" {
		return fmt.Errorf("missing src")
	}
	if name, ok := strings.CutPrefix(font.Src, systemPrefix); ok {
		return family.LoadSystemFont(name, style)
	}
	path := font.Src
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

// toPt converts millimeters to points.
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// greedyWrapTokens wraps content to the given width (mm), breaking at
// whitespace and splitting oversized tokens by width. Explicit newlines are
// always honored.
func greedyWrapTokens(content string, limit float64, face *canvas.FontFace) []layout.TextLine {
	tokens := tokenizeContent(content)
	var lines []layout.TextLine
	var builder strings.Builder
	currentWidth := 0.0

	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, layout.TextLine{Content: "", Width: 0})
			}
			return
		}
		content := strings.TrimRight(builder.String(), " \t")
		lines = append(lines, layout.TextLine{
			Content: content,
			Width:   face.TextWidth(content),
		})
		builder.Reset()
		currentWidth = 0
	}

	appendToken := func(token string) {
		if builder.Len() == 0 && strings.TrimSpace(token) == "" {
			return // no leading whitespace after a break
		}
		builder.WriteString(token)
		currentWidth += face.TextWidth(token)
	}

	for _, token := range tokens {
		if token == "\n" {
			emit(true)
			continue
		}

		tokenWidth := face.TextWidth(token)
		if currentWidth > 0 && currentWidth+tokenWidth > limit {
			emit(false)
		}
		if tokenWidth <= limit {
			appendToken(token)
			continue
		}

		for _, chunk := range splitTokenByWidth(token, limit, face) {
			chunkWidth := face.TextWidth(chunk)
			if currentWidth > 0 && currentWidth+chunkWidth > limit {
				emit(false)
			}
			appendToken(chunk)
		}
	}

	emit(true)
	return lines
}

// tokenizeContent splits text into runs of whitespace and non-whitespace,
// keeping newlines as their own tokens.
func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

// splitTokenByWidth chops a single oversized token into chunks that each
// fit within limit.
func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 {
		return []string{token}
	}
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if face.TextWidth(builder.String()) > limit && builder.Len() > 1 {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
