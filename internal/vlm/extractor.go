// Package vlm turns page images into structured content blocks using a
// vision-language model, with tolerant parsing of the model's JSON output.
package vlm

import "context"

// ExtractionPrompt instructs the model to digitize one page of an academic
// paper into a JSON list of blocks in reading order.
const ExtractionPrompt = `You are an expert in digitizing academic documents. Analyze this image of a paper page.
Extract ALL content into a structured JSON list following the reading order (Left column first, then Right column).

**Extraction Rules:**
1. **Reading Order:** Strictly follow the logical reading order of a scientific paper.
2. **Structure:** Extract Text, Headers, Tables, and Figures.
3. **Noise:** Ignore running headers, page numbers, and decorative lines.

**Output Format (Strict JSON List of Objects):**
[
  {"type": "header", "content": "Section Title (e.g., 1. Introduction)"},
  {"type": "text", "content": "Full text of the paragraph..."},
  {"type": "table", "caption": "Table 1: Title...", "content": "Markdown representation of the table"},
  {"type": "figure", "caption": "Figure 1: Title...", "content": "Detailed description of the image content/trends"}
]

Return ONLY the valid JSON string. Do not add markdown code blocks.`

// PageExtractor produces the raw model output for one rendered page image
// (PNG bytes). Implementations are expected to be stateless per call.
type PageExtractor interface {
	ExtractPage(ctx context.Context, pagePNG []byte) (string, error)
	Close() error
}
