//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder produces embeddings with ONNX Runtime. It requires CGO and the
// onnxruntime shared library. Whole batches are run through the model in one
// inference call; single-text Embed goes through an LRU cache.
type ONNXEmbedder struct {
	session    *ort.DynamicAdvancedSession
	dimensions int
	maxTokens  int
	batchSize  int
	cache      *Cache
	tokenizer  Tokenizer
	mu         sync.Mutex
}

// NewONNXEmbedder creates an ONNX embedder. InitializeEnvironment is called if
// not already done.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens, batchSize, cacheSize int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &ONNXEmbedder{
		session:    session,
		dimensions: dimensions,
		maxTokens:  maxTokens,
		batchSize:  batchSize,
		cache:      NewCache(cacheSize),
		tokenizer:  &WordTokenizer{},
	}, nil
}

// Embed returns the embedding for text, using the cache when available.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	batch, err := e.runBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, batch[0])
	return batch[0], nil
}

// EmbedBatch encodes texts in chunks of the configured batch size, each chunk
// as one inference call.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.runBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// runBatch tokenizes texts into (n, maxTokens) tensors, runs the model once,
// and returns n unit-normalized embeddings.
func (e *ONNXEmbedder) runBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(texts)
	if n == 0 {
		return nil, nil
	}

	inputIDs := make([]int64, n*e.maxTokens)
	attentionMask := make([]int64, n*e.maxTokens)
	tokenTypeIDs := make([]int64, n*e.maxTokens)
	for i, text := range texts {
		ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
		copy(inputIDs[i*e.maxTokens:], ids)
		copy(attentionMask[i*e.maxTokens:], mask)
		copy(tokenTypeIDs[i*e.maxTokens:], types)
	}

	shape := ort.NewShape(int64(n), int64(e.maxTokens))
	inputIDsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer inputIDsTensor.Destroy()
	attentionMaskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer attentionMaskTensor.Destroy()
	tokenTypeIDsTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer tokenTypeIDsTensor.Destroy()

	outputData := make([]float32, n*e.dimensions)
	outputTensor, err := ort.NewTensor(ort.NewShape(int64(n), int64(e.dimensions)), outputData)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	e.mu.Lock()
	runErr := e.session.Run(
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	e.mu.Unlock()
	if runErr != nil {
		return nil, fmt.Errorf("inference failed: %w", runErr)
	}

	data := outputTensor.GetData()
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		emb := make([]float32, e.dimensions)
		copy(emb, data[i*e.dimensions:(i+1)*e.dimensions])
		NormalizeL2(emb)
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session.
func (e *ONNXEmbedder) Close() error {
	if e.session != nil {
		err := e.session.Destroy()
		e.session = nil
		return err
	}
	return nil
}
