// Package extract runs the PDF extraction stage: page rendering, VLM
// digitization, and per-document block JSON output.
package extract

// PageRenderer renders the pages of one open PDF to PNG images.
type PageRenderer interface {
	// NumPages returns the page count.
	NumPages() int
	// RenderPNG renders the 0-based page at the given DPI.
	RenderPNG(page int, dpi int) ([]byte, error)
	Close() error
}
