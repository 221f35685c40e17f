package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eleven-am/sight-backend/internal/document"
)

// textGenerator is the completion boundary the synthesizer speaks
// through. perception.GeminiClient satisfies it.
type textGenerator interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
	Model() string
}

// GeminiSynthesizer builds a grounded prompt and makes one generation
// call. The answer is constrained to the supplied chunks; when they do
// not contain the answer the model is told to say so.
type GeminiSynthesizer struct {
	gen    textGenerator
	logger *slog.Logger
}

func NewGeminiSynthesizer(gen textGenerator, logger *slog.Logger) *GeminiSynthesizer {
	return &GeminiSynthesizer{
		gen:    gen,
		logger: logger.With("component", "synthesizer"),
	}
}

func (s *GeminiSynthesizer) Synthesize(ctx context.Context, chunks []*document.Chunk, history []Turn, query string) (string, error) {
	prompt := buildPrompt(chunks, history, query)

	answer, err := s.gen.Generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}

	s.logger.Debug("answer synthesized", "model", s.gen.Model(), "prompt_chars", len(prompt))
	return answer, nil
}

func buildPrompt(chunks []*document.Chunk, history []Turn, query string) string {
	var b strings.Builder

	b.WriteString("You are a reading assistant for a blind user. Answer the question using ")
	b.WriteString("only the document excerpts below. Answer in plain spoken language without ")
	b.WriteString("special symbols. If the excerpts do not contain the answer, say that the ")
	b.WriteString("document does not cover it.\n\nDocument excerpts:\n")

	for _, chunk := range chunks {
		fmt.Fprintf(&b, "[section %d] %s\n", chunk.Seq+1, strings.TrimSpace(chunk.Text))
	}

	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", turn.Query, turn.Answer)
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s", query)
	return b.String()
}
