//go:build cgo
// +build cgo

package extract

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// fitzRenderer renders pages with MuPDF.
type fitzRenderer struct {
	doc *fitz.Document
}

// OpenPDF opens the PDF at path for page rendering.
func OpenPDF(path string) (PageRenderer, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return &fitzRenderer{doc: doc}, nil
}

func (r *fitzRenderer) NumPages() int {
	return r.doc.NumPage()
}

func (r *fitzRenderer) RenderPNG(page int, dpi int) ([]byte, error) {
	img, err := r.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page+1, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", page+1, err)
	}
	return buf.Bytes(), nil
}

func (r *fitzRenderer) Close() error {
	return r.doc.Close()
}
