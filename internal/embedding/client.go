package embedding

import (
	"context"
)

// Task selects the embedding space a text is projected into. Document
// chunks and queries use different task types but land in the same
// space, which is what makes retrieval work.
type Task string

const (
	TaskDocument Task = "retrieval_document"
	TaskQuery    Task = "retrieval_query"
)

// Client produces fixed-length vectors for text. Dimensions must stay
// stable for the lifetime of any index built from its output.
type Client interface {
	Embed(ctx context.Context, text string, task Task) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, task Task) ([][]float32, error)
	Dimensions() int
}
