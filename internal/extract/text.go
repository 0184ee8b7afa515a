package extract

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/chishiki/internal/models"
	"github.com/hyperjump/chishiki/pkg/utils"
)

// TextBlocks extracts plain text from the PDF at path without a VLM: one text
// block per non-empty page, ids assigned in page order. Layout structure
// (headers, tables, figures) is not recovered; this is the degraded path for
// runs without a model or a page renderer.
func TextBlocks(path, docID string) ([]models.Block, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var blocks []models.Block
	idx := 0
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		text = utils.CollapseWhitespace(text)
		if text == "" {
			continue
		}
		id := idx
		idx++
		blocks = append(blocks, models.Block{
			Type:    models.BlockTypeText,
			Content: text,
			ID:      &id,
			DocID:   docID,
			Page:    i,
		})
	}
	return blocks, nil
}
