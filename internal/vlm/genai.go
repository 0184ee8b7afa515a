package vlm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIExtractor calls a Gemini vision model through the google genai client.
// The API key is taken from the environment (GEMINI_API_KEY) by the client.
type GenAIExtractor struct {
	client *genai.Client
	model  string
}

// NewGenAIExtractor creates an extractor for the given vision model name.
func NewGenAIExtractor(ctx context.Context, model string) (*GenAIExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIExtractor{client: client, model: model}, nil
}

// ExtractPage sends the page image and the digitization prompt to the model
// and returns the raw text output.
func (g *GenAIExtractor) ExtractPage(ctx context.Context, pagePNG []byte) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(pagePNG, "image/png"),
		genai.NewPartFromText(ExtractionPrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model returned empty output")
	}
	return text, nil
}

// Close releases nothing; the genai client holds no persistent connection state.
func (g *GenAIExtractor) Close() error {
	return nil
}
