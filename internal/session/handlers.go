package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/emergency"
	"github.com/eleven-am/sight-backend/internal/intent"
	"github.com/eleven-am/sight-backend/internal/perception"
	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/eleven-am/sight-backend/internal/video"
)

// handlePerceive is the shared path for the single-shot camera intents:
// one frame, one adapter call, one context entry.
func (s *Session) handlePerceive(ctx context.Context, routed intent.Intent, angle int) (Reply, error) {
	adapter, ok := s.deps.Adapters[routed.Kind]
	if !ok {
		return Reply{}, fmt.Errorf("no adapter for intent %s", routed.Kind)
	}

	frame, err := s.captureFrame(ctx, angle)
	if err != nil {
		return Reply{}, err
	}

	result, err := adapter.Analyze(ctx, perception.Request{Frame: frame, Prompt: routed.Utterance})
	if err != nil {
		return Reply{}, err
	}

	s.remember(routed, result.Description)
	return Reply{Text: result.Description, Intent: routed.Kind, Topic: routed.Kind.Topic()}, nil
}

func (s *Session) handleFace(ctx context.Context, routed intent.Intent) (Reply, error) {
	adapter, ok := s.deps.Adapters[intent.KindFace]
	if !ok {
		return Reply{}, errors.New("no face adapter")
	}

	var names []string
	if s.deps.Faces != nil {
		if known, err := s.deps.Faces.Names(ctx); err == nil {
			names = known
		} else {
			s.logger.Warn("face directory unavailable", "error", err)
		}
	}

	frame, err := s.captureFrame(ctx, capture.AngleForward)
	if err != nil {
		return Reply{}, err
	}

	result, err := adapter.Analyze(ctx, perception.Request{Frame: frame, Candidates: names})
	if err != nil {
		return Reply{}, err
	}

	s.remember(routed, result.Description)
	return Reply{Text: result.Description, Intent: routed.Kind, Topic: routed.Kind.Topic()}, nil
}

// handleFollowUp answers from carried context without touching the
// camera. Document follow-ups go through retrieval instead so they stay
// grounded in the index.
func (s *Session) handleFollowUp(ctx context.Context, routed intent.Intent) (Reply, error) {
	if routed.Topic == shared.TopicDocument && s.ActiveDocument() != nil {
		return s.answerFromDocument(ctx, routed)
	}

	entry, ok := s.deps.Context.Get(s.id, routed.Topic)
	if !ok {
		return Reply{}, shared.ErrContextNotFound
	}

	result, err := s.deps.FollowUp.Analyze(ctx, perception.Request{
		Prompt:  routed.Utterance,
		Context: entry.Payload,
	})
	if err != nil {
		return Reply{}, err
	}

	s.remember(routed, entry.Payload+"\nAssistant: "+result.Description)
	return Reply{Text: result.Description, Intent: routed.Kind, Topic: routed.Topic}, nil
}

func (s *Session) handleDocument(ctx context.Context, routed intent.Intent) (Reply, error) {
	if s.ActiveDocument() == nil {
		return Reply{
			Text:   "No document is loaded. Upload one and I can answer questions about it.",
			Intent: routed.Kind,
			Topic:  routed.Kind.Topic(),
		}, nil
	}
	return s.answerFromDocument(ctx, routed)
}

func (s *Session) answerFromDocument(ctx context.Context, routed intent.Intent) (Reply, error) {
	s.mu.Lock()
	doc := s.activeDoc
	thread := s.thread
	s.mu.Unlock()

	result, err := s.deps.Engine.Answer(ctx, doc, thread, routed.Utterance)
	if err != nil {
		return Reply{}, err
	}

	s.remember(routed, result.Answer)
	return Reply{Text: result.Answer, Intent: routed.Kind, Topic: shared.TopicDocument}, nil
}

var videoStopWords = []string{"stop", "end", "finish", "done"}

func (s *Session) handleVideo(ctx context.Context, routed intent.Intent) (Reply, error) {
	if s.deps.Video == nil {
		return Reply{Text: "Video monitoring is not available.", Intent: routed.Kind}, nil
	}

	norm := strings.ToLower(routed.Utterance)
	stopping := false
	for _, word := range videoStopWords {
		if strings.Contains(norm, word) {
			stopping = true
			break
		}
	}

	if stopping {
		if !s.deps.Video.Stop(s.id) {
			return Reply{Text: "Video monitoring is not running.", Intent: routed.Kind}, nil
		}
		report := "Video monitoring ended."
		if s.deps.Report != nil {
			report = s.deps.Report.Compile(s.id)
		}
		s.remember(routed, report)
		return Reply{Text: report, Intent: routed.Kind, Topic: shared.TopicVideo}, nil
	}

	if err := s.deps.Video.Start(s.id); err != nil {
		if errors.Is(err, video.ErrAlreadySampling) {
			return Reply{Text: "Video monitoring is already running.", Intent: routed.Kind}, nil
		}
		return Reply{}, err
	}
	return Reply{
		Text:   "Video monitoring started. Say stop video when you want a summary.",
		Intent: routed.Kind,
		Topic:  shared.TopicVideo,
	}, nil
}

// handleEmergency fires the alert and reports the outcome. It never
// reads or writes conversational context; an SOS must not depend on
// what was said before it.
func (s *Session) handleEmergency(ctx context.Context, routed intent.Intent) (Reply, error) {
	if s.deps.SOS == nil {
		return Reply{Text: "Emergency alerts are not set up on this device.", Intent: routed.Kind}, nil
	}

	spoken, err := s.deps.SOS.Dispatch(ctx, "")
	if err != nil {
		if errors.Is(err, emergency.ErrNotConfigured) {
			return Reply{Text: "Emergency alerts are not set up on this device.", Intent: routed.Kind}, nil
		}
		return Reply{Text: "I could not send the emergency alert. Please call for help directly.", Intent: routed.Kind}, nil
	}
	return Reply{Text: spoken, Intent: routed.Kind}, nil
}

func (s *Session) handleExit(ctx context.Context, routed intent.Intent) (Reply, error) {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	if s.deps.Video != nil {
		s.deps.Video.Stop(s.id)
	}
	s.deps.Context.Clear(s.id)
	return Reply{Text: "Goodbye.", Intent: routed.Kind}, nil
}
