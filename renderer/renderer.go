// Package renderer defines the sink that turns layout results into final
// document bytes.
package renderer

import "github.com/bbbart/addresslabels/layout"

// Renderer renders a layout result into a document, e.g. a PDF byte slice.
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}
