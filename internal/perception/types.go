package perception

import (
	"context"
)

// Request carries one perception call. Frame may be empty for adapters
// that answer from prior context alone; Candidates narrows face
// identification to registered names.
type Request struct {
	Frame      []byte
	Prompt     string
	Context    string
	Candidates []string
}

// Result is the structured outcome of one perception call.
type Result struct {
	Description string
	Model       string
}

// Adapter is the uniform boundary around one external analysis
// capability: one call, one structured result, classified errors.
type Adapter interface {
	Name() string
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// generator produces text from a prompt and an optional image. Both
// vision backends satisfy it, which keeps the adapters backend-agnostic.
type generator interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
	Model() string
}
