// Command addresslabels reads postal addresses from a CSV file and lays
// them out on a sheet of sticker labels, producing a PDF ready to print.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/bbbart/addresslabels/addressbook"
	"github.com/bbbart/addresslabels/layout"
	"github.com/bbbart/addresslabels/renderer"
	canvasrenderer "github.com/bbbart/addresslabels/renderer/canvas"
	"github.com/bbbart/addresslabels/sheet"
)

func main() {
	sheetPath := flag.String("sheet", "sheets/avery3475.sheet", "sheet template path")
	csvPath := flag.String("csv", "addresses.csv", "input CSV path")
	output := flag.String("out", "output/labels.pdf", "PDF output path")
	delimiter := flag.String("delimiter", ",", "CSV field delimiter")
	borders := flag.Bool("borders", false, "draw label borders (overrides the sheet option)")
	debug := flag.String("debug", "", "layout debug JSON output path")
	validate := flag.Bool("validate", false, "validate the written PDF with pdfcpu")
	flag.Parse()

	comma, err := parseDelimiter(*delimiter)
	if err != nil {
		log.Fatalf("invalid delimiter: %v", err)
	}

	var bordersOverride *bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "borders" {
			bordersOverride = borders
		}
	})

	r := canvasrenderer.NewRenderer(filepath.Dir(*sheetPath))
	if err := run(*sheetPath, *csvPath, *output, *debug, comma, bordersOverride, *validate, r); err != nil {
		log.Fatalf("generating labels failed: %v", err)
	}
	fmt.Printf("wrote %s\n", *output)
}

// run chains the stages: sheet template, address book, layout, render,
// write. The output file is only touched once the whole document rendered.
func run(sheetPath, csvPath, outputPath, debugPath string, comma rune, bordersOverride *bool, validate bool, r renderer.Renderer) error {
	spec, err := sheet.Load(sheetPath)
	if err != nil {
		return fmt.Errorf("sheet template: %w", err)
	}
	if bordersOverride != nil {
		spec.Borders = *bordersOverride
	}

	records, err := addressbook.Open(csvPath, addressbook.Options{Comma: comma})
	if err != nil {
		return fmt.Errorf("address book: %w", err)
	}

	ts, ok := r.(layout.Typesetter)
	if !ok {
		return fmt.Errorf("renderer does not implement typesetting")
	}
	result, err := layout.Build(&spec.LabelSheet, records, layout.BuildOptions{Typesetter: ts})
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	if debugPath != "" {
		if err := writeDebug(result, debugPath); err != nil {
			return err
		}
	}

	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("write PDF: %w", err)
	}

	if validate {
		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
		if err := api.ValidateFile(outputPath, conf); err != nil {
			return fmt.Errorf("validate PDF: %w", err)
		}
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("create debug directory: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("write debug JSON: %w", err)
	}
	return nil
}

func parseDelimiter(s string) (rune, error) {
	if s == "\\t" || s == "tab" {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("want a single character, got %q", s)
	}
	return r, nil
}
