package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/eleven-am/sight-backend/internal/shared"
	"google.golang.org/genai"
)

// DefaultDimensions is the vector width of the Gemini embedding
// models this client targets.
const DefaultDimensions = 768

type GenAIConfig struct {
	APIKey string
	Model  string
}

// GenAIClient embeds text through the Gemini embedding models. One
// client serves both document and query embeddings; the task type is
// chosen per call so both sides share one vector space.
type GenAIClient struct {
	client *genai.Client
	model  string
}

func NewGenAIClient(ctx context.Context, cfg GenAIConfig) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding api key not configured")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIClient{
		client: client,
		model:  model,
	}, nil
}

func taskType(task Task) string {
	switch task {
	case TaskQuery:
		return "RETRIEVAL_QUERY"
	default:
		return "RETRIEVAL_DOCUMENT"
	}
}

func (c *GenAIClient) Embed(ctx context.Context, text string, task Task) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds every text in one request. A missing or misshapen
// vector for any input fails the whole batch so callers never see a
// partially embedded set.
func (c *GenAIClient) EmbedBatch(ctx context.Context, texts []string, task Task) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := c.client.Models.EmbedContent(ctx,
		c.model,
		contents,
		&genai.EmbedContentConfig{
			TaskType: taskType(task),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEmbeddingFailed, err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			shared.ErrEmbeddingFailed, len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: empty vector at position %d", shared.ErrEmbeddingFailed, i)
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}

func (c *GenAIClient) Dimensions() int {
	return DefaultDimensions
}
