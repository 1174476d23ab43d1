package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultEmbeddingModel = "text-embedding-3-small"

// EmbeddingAPI is the slice of the SDK the embedder depends on.
type EmbeddingAPI interface {
	New(ctx context.Context, body openaisdk.EmbeddingNewParams, opts ...option.RequestOption) (*openaisdk.CreateEmbeddingResponse, error)
}

// Embedder adapts the openai-go embeddings endpoint to eino's embedding.Embedder.
type Embedder struct {
	api   EmbeddingAPI
	model string
}

var _ embedding.Embedder = (*Embedder)(nil)

func NewEmbedder(client *openaisdk.Client, modelName string) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	return NewEmbedderWithAPI(&client.Embeddings, modelName), nil
}

func NewEmbedderWithAPI(api EmbeddingAPI, modelName string) *Embedder {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = DefaultEmbeddingModel
	}
	return &Embedder{api: api, model: modelName}
}

func (e *Embedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	modelName := e.model
	if o := embedding.GetCommonOptions(&embedding.Options{}, opts...); o.Model != nil && *o.Model != "" {
		modelName = *o.Model
	}

	resp, err := e.api.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openaisdk.EmbeddingModel(modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("openrouter: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openrouter: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("openrouter: embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
