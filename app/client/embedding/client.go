package embedding

import (
	"context"
	"moovzmatch/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client turns query text into the embedding vector expected by the vector
// search index. One instance is shared by all sessions.
type Client struct {
	embedder embeddings.Embedder
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	llm, err := openai.New(
		openai.WithBaseURL(cfg.OpenAI.Embedding.BaseURL),
		openai.WithToken(cfg.OpenAI.Embedding.Token),
		openai.WithEmbeddingModel(cfg.OpenAI.Embedding.Model),
	)
	if err != nil {
		return nil, oops.Errorf("failed to create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, oops.Errorf("failed to create embedder: %w", err)
	}

	return &Client{
		embedder: embedder,
	}, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, oops.Errorf("failed to embed query: %w", err)
	}

	return vector, nil
}
