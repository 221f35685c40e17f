package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/sight-backend/internal/embedding"
	"github.com/eleven-am/sight-backend/internal/intent"
	"github.com/eleven-am/sight-backend/internal/perception"
	"github.com/eleven-am/sight-backend/internal/retrieval"
	"github.com/eleven-am/sight-backend/internal/shared"
	"go.uber.org/fx"
)

// Adapters bundles the perception surface: one adapter per camera
// intent plus the follow-up adapter that works from carried context.
type Adapters struct {
	ByKind   map[intent.Kind]perception.Adapter
	FollowUp perception.Adapter
}

// ProvideAdapters builds the perception stack. Vision intents go to
// Gemini; text extraction goes to Groq, which handles dense print
// better.
func ProvideAdapters(cfg *Config, logger *slog.Logger) *Adapters {
	vision := perception.NewGeminiClient(perception.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.VisionModel,
	})
	ocr := perception.NewGroqClient(perception.GroqConfig{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.OCRModel,
	})

	backoff := shared.BackoffConfig{}.Normalize()

	return &Adapters{
		ByKind: map[intent.Kind]perception.Adapter{
			intent.KindScene:      perception.NewSceneAdapter(vision, backoff, logger),
			intent.KindObject:     perception.NewObjectAdapter(vision, backoff, logger),
			intent.KindText:       perception.NewTextAdapter(ocr, backoff, logger),
			intent.KindNavigation: perception.NewNavigationAdapter(vision, backoff, logger),
			intent.KindFace:       perception.NewFaceAdapter(vision, backoff, logger),
		},
		FollowUp: perception.NewFollowUpAdapter(vision, backoff, logger),
	}
}

func ProvideEmbeddingClient(cfg *Config) (embedding.Client, error) {
	return embedding.NewGenAIClient(context.Background(), embedding.GenAIConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.EmbeddingModel,
	})
}

func ProvideSynthesizer(cfg *Config, logger *slog.Logger) *retrieval.GeminiSynthesizer {
	gen := perception.NewGeminiClient(perception.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.SynthesisModel,
	})
	return retrieval.NewGeminiSynthesizer(gen, logger)
}

var AdaptersModule = fx.Options(
	fx.Provide(
		ProvideAdapters,
		ProvideEmbeddingClient,
		ProvideSynthesizer,
	),
)
