package intent

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/eleven-am/sight-backend/internal/shared"
)

type pattern struct {
	kind    Kind
	phrases []string
}

// Router classifies utterances against an ordered phrase table. Earlier
// patterns win, so emergency phrases outrank everything else and "stop
// video" is seen before the bare "stop" that ends a session. When no
// pattern matches, follow-up markers bind the utterance to live context.
type Router struct {
	logger *slog.Logger

	mu       sync.RWMutex
	patterns []pattern
}

func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		logger:   logger.With("component", "intent_router"),
		patterns: defaultPatterns(),
	}
}

func defaultPatterns() []pattern {
	return []pattern{
		{kind: KindEmergency, phrases: []string{"sos", "emergency", "help"}},
		{kind: KindVideo, phrases: []string{"start video", "stop video", "start recording", "stop recording", "video report", "record", "watch", "monitor"}},
		{kind: KindExit, phrases: []string{"exit", "quit", "goodbye", "stop"}},
		{kind: KindDocument, phrases: []string{"document", "pdf", "file", "page"}},
		{kind: KindScene, phrases: []string{"scene", "describe", "description", "seeing", "surroundings"}},
		{kind: KindObject, phrases: []string{"holding", "sensory", "search", "buy", "identify"}},
		{kind: KindText, phrases: []string{"read", "book", "notice", "pamphlet", "sign", "label"}},
		{kind: KindFace, phrases: []string{"face", "recognize", "register", "who is"}},
		{kind: KindNavigation, phrases: []string{"navigate", "navigation", "route", "path", "show me", "obstacle"}},
	}
}

var followUpMarkers = []string{"what about", "how about", "tell me more", "more about", "and the"}

var followUpPronouns = map[string]bool{
	"it":    true,
	"its":   true,
	"that":  true,
	"this":  true,
	"them":  true,
	"those": true,
}

// topicHints let a follow-up name the context it wants instead of
// defaulting to the freshest entry.
var topicHints = []struct {
	word  string
	topic shared.Topic
}{
	{"object", shared.TopicObject},
	{"thing", shared.TopicObject},
	{"item", shared.TopicObject},
	{"video", shared.TopicVideo},
	{"recording", shared.TopicVideo},
	{"direction", shared.TopicNavigation},
	{"directions", shared.TopicNavigation},
}

// Extend appends phrases to an intent's pattern, creating the pattern
// when the kind is not yet in the table.
func (r *Router) Extend(kind Kind, phrases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.patterns {
		if r.patterns[i].kind == kind {
			r.patterns[i].phrases = append(r.patterns[i].phrases, phrases...)
			return
		}
	}
	r.patterns = append(r.patterns, pattern{kind: kind, phrases: phrases})
}

// Route classifies one utterance. Primary phrases win; otherwise a
// follow-up marker plus live context yields a FollowUp bound to the
// named or most recent topic; everything else is Unrecognized.
func (r *Router) Route(utterance string, view ContextView) Intent {
	norm := strings.ToLower(strings.TrimSpace(utterance))
	if norm == "" {
		return Intent{Kind: KindUnrecognized, Utterance: utterance}
	}

	tokens := tokenSet(norm)

	r.mu.RLock()
	patterns := r.patterns
	r.mu.RUnlock()

	for _, p := range patterns {
		for _, phrase := range p.phrases {
			if matchPhrase(norm, tokens, phrase) {
				r.logger.Debug("utterance classified",
					"kind", p.kind.String(),
					"phrase", phrase,
				)
				return Intent{Kind: p.kind, Topic: p.kind.Topic(), Utterance: utterance}
			}
		}
	}

	if hasFollowUpMarker(norm, tokens) {
		if topic := hintedTopic(tokens, view); topic != shared.TopicNone {
			r.logger.Debug("follow-up bound to named topic", "topic", topic.String())
			return Intent{Kind: KindFollowUp, Topic: topic, Utterance: utterance}
		}
		if view.hasAny() {
			r.logger.Debug("follow-up bound to most recent topic", "topic", view.MostRecent.String())
			return Intent{Kind: KindFollowUp, Topic: view.MostRecent, Utterance: utterance}
		}
	}

	r.logger.Debug("utterance unrecognized")
	return Intent{Kind: KindUnrecognized, Utterance: utterance}
}

// matchPhrase matches multi-word phrases by substring and single words
// by whole-token membership, so "read" never fires inside "bread".
func matchPhrase(norm string, tokens map[string]bool, phrase string) bool {
	if strings.Contains(phrase, " ") {
		return strings.Contains(norm, phrase)
	}
	return tokens[phrase]
}

func hasFollowUpMarker(norm string, tokens map[string]bool) bool {
	for _, marker := range followUpMarkers {
		if strings.Contains(norm, marker) {
			return true
		}
	}
	for pronoun := range followUpPronouns {
		if tokens[pronoun] {
			return true
		}
	}
	return false
}

func hintedTopic(tokens map[string]bool, view ContextView) shared.Topic {
	for _, hint := range topicHints {
		if tokens[hint.word] && view.isLive(hint.topic) {
			return hint.topic
		}
	}
	return shared.TopicNone
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	var current strings.Builder

	flush := func() {
		if current.Len() >= 2 {
			set[current.String()] = true
		}
		current.Reset()
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return set
}
