package perception

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/eleven-am/sight-backend/internal/shared"
)

// Prompts are tuned for spoken output: short, plain, no markup symbols
// that a speech synthesizer would read aloud.
const (
	scenePrompt = "You are a describing assistant. Describe everything you see in the scene " +
		"within 3 lines. Be detailed but concise."

	objectPrompt = "Tell me about the object I am holding. What is this? Provide both online " +
		"and offline purchase suggestions. Describe as much as possible within 3 lines. " +
		"Do not use special symbols like (#, *, etc)."

	textPrompt = "Analyze the image and extract all text. I don't need a description of the " +
		"image, only extract the text from the image. If no text is detected, print 'no text'. " +
		"If it contains dates, numbers, or addresses, extract them with proper context."

	navigationPrompt = "You are a describing agent whose purpose is to give me objects in an " +
		"environment which I will use as destinations. Just list me a set of objects and " +
		"describe where they are. Do not use special symbols in the output."
)

var errMissingFrame = errors.New("analysis requires a camera frame")

// frameAdapter is the common shape of the vision adapters: one generator,
// one prompt builder, retries on transient failures.
type frameAdapter struct {
	name    string
	gen     generator
	backoff shared.BackoffConfig
	logger  *slog.Logger
}

func (a *frameAdapter) Name() string { return a.name }

func (a *frameAdapter) analyze(ctx context.Context, frame []byte, prompt string) (*Result, error) {
	if len(frame) == 0 {
		return nil, errMissingFrame
	}
	return withRetry(ctx, a.backoff, a.logger, func() (*Result, error) {
		text, err := a.gen.Generate(ctx, prompt, frame)
		if err != nil {
			return nil, err
		}
		return &Result{Description: text, Model: a.gen.Model()}, nil
	})
}

// SceneAdapter produces a spoken overview of the user's surroundings.
type SceneAdapter struct {
	frameAdapter
}

func NewSceneAdapter(gen generator, backoff shared.BackoffConfig, logger *slog.Logger) *SceneAdapter {
	return &SceneAdapter{frameAdapter{
		name:    "scene",
		gen:     gen,
		backoff: backoff,
		logger:  logger.With("component", "scene_adapter"),
	}}
}

func (a *SceneAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	return a.analyze(ctx, req.Frame, scenePrompt)
}

// ObjectAdapter identifies a held object and suggests where to buy it.
type ObjectAdapter struct {
	frameAdapter
}

func NewObjectAdapter(gen generator, backoff shared.BackoffConfig, logger *slog.Logger) *ObjectAdapter {
	return &ObjectAdapter{frameAdapter{
		name:    "object",
		gen:     gen,
		backoff: backoff,
		logger:  logger.With("component", "object_adapter"),
	}}
}

func (a *ObjectAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	return a.analyze(ctx, req.Frame, objectPrompt)
}

// TextAdapter extracts printed text from signs, notices and pages.
type TextAdapter struct {
	frameAdapter
}

func NewTextAdapter(gen generator, backoff shared.BackoffConfig, logger *slog.Logger) *TextAdapter {
	return &TextAdapter{frameAdapter{
		name:    "text",
		gen:     gen,
		backoff: backoff,
		logger:  logger.With("component", "text_adapter"),
	}}
}

func (a *TextAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	return a.analyze(ctx, req.Frame, textPrompt)
}

// NavigationAdapter lists landmark objects and their positions so the
// user can pick a destination.
type NavigationAdapter struct {
	frameAdapter
}

func NewNavigationAdapter(gen generator, backoff shared.BackoffConfig, logger *slog.Logger) *NavigationAdapter {
	return &NavigationAdapter{frameAdapter{
		name:    "navigation",
		gen:     gen,
		backoff: backoff,
		logger:  logger.With("component", "navigation_adapter"),
	}}
}

func (a *NavigationAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	return a.analyze(ctx, req.Frame, navigationPrompt)
}

// FaceAdapter matches the person in frame against known names. The
// candidate list comes from the face store; the model answers with one
// of the names or the word unknown.
type FaceAdapter struct {
	frameAdapter
}

func NewFaceAdapter(gen generator, backoff shared.BackoffConfig, logger *slog.Logger) *FaceAdapter {
	return &FaceAdapter{frameAdapter{
		name:    "face",
		gen:     gen,
		backoff: backoff,
		logger:  logger.With("component", "face_adapter"),
	}}
}

func (a *FaceAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	return a.analyze(ctx, req.Frame, facePrompt(req.Candidates))
}

func facePrompt(candidates []string) string {
	if len(candidates) == 0 {
		return "Look at the person in this image and describe their apparent age, " +
			"expression and what they are wearing in one short sentence."
	}
	var b strings.Builder
	b.WriteString("Look at the person in this image. The known people are: ")
	b.WriteString(strings.Join(candidates, ", "))
	b.WriteString(". Answer with exactly one of those names if the person matches, ")
	b.WriteString("otherwise answer with the single word unknown.")
	return b.String()
}

// FollowUpAdapter answers a question about an earlier observation using
// only the stored text. No frame is captured or sent.
type FollowUpAdapter struct {
	name    string
	gen     generator
	backoff shared.BackoffConfig
	logger  *slog.Logger
}

func NewFollowUpAdapter(gen generator, backoff shared.BackoffConfig, logger *slog.Logger) *FollowUpAdapter {
	return &FollowUpAdapter{
		name:    "followup",
		gen:     gen,
		backoff: backoff,
		logger:  logger.With("component", "followup_adapter"),
	}
}

func (a *FollowUpAdapter) Name() string { return a.name }

func (a *FollowUpAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Context) == "" {
		return nil, shared.ErrContextNotFound
	}
	prompt := req.Context + "\nUser: " + req.Prompt
	return withRetry(ctx, a.backoff, a.logger, func() (*Result, error) {
		text, err := a.gen.Generate(ctx, prompt, nil)
		if err != nil {
			return nil, err
		}
		return &Result{Description: text, Model: a.gen.Model()}, nil
	})
}
