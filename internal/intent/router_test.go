package intent

import (
	"io"
	"log/slog"
	"testing"

	"github.com/eleven-am/sight-backend/internal/shared"
)

func newTestRouter() *Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(logger)
}

func noContext() ContextView {
	return ContextView{MostRecent: shared.TopicNone}
}

func contextWith(mostRecent shared.Topic, live ...shared.Topic) ContextView {
	m := make(map[shared.Topic]bool, len(live)+1)
	m[mostRecent] = true
	for _, t := range live {
		m[t] = true
	}
	return ContextView{MostRecent: mostRecent, Live: m}
}

func TestRouter_PrimaryIntents(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		utterance string
		want      Kind
	}{
		{"describe the scene", KindScene},
		{"what am I seeing", KindScene},
		{"what is around my surroundings", KindScene},
		{"what am I holding", KindObject},
		{"where can I buy this", KindObject},
		{"identify the product", KindObject},
		{"read this for me", KindText},
		{"read the notice board", KindText},
		{"what does this sign say", KindText},
		{"register a new face", KindFace},
		{"who is in front of me", KindFace},
		{"navigate to the door", KindNavigation},
		{"show me the way", KindNavigation},
		{"is there an obstacle ahead", KindNavigation},
		{"open the document", KindDocument},
		{"summarize the pdf", KindDocument},
		{"start video", KindVideo},
		{"stop recording", KindVideo},
		{"exit", KindExit},
		{"goodbye now", KindExit},
		{"sos", KindEmergency},
		{"this is an emergency", KindEmergency},
		{"help", KindEmergency},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			got := r.Route(tt.utterance, noContext())
			if got.Kind != tt.want {
				t.Errorf("Route(%q) = %s, want %s", tt.utterance, got.Kind, tt.want)
			}
			if got.Utterance != tt.utterance {
				t.Errorf("expected utterance to be carried through, got %q", got.Utterance)
			}
		})
	}
}

func TestRouter_EmergencyOutranksEverything(t *testing.T) {
	r := newTestRouter()

	got := r.Route("help me read this notice", noContext())
	if got.Kind != KindEmergency {
		t.Errorf("expected emergency to outrank text intent, got %s", got.Kind)
	}
}

func TestRouter_StopVideoBeforeExit(t *testing.T) {
	r := newTestRouter()

	if got := r.Route("stop video", noContext()); got.Kind != KindVideo {
		t.Errorf("expected video, got %s", got.Kind)
	}
	if got := r.Route("stop", noContext()); got.Kind != KindExit {
		t.Errorf("expected exit for bare stop, got %s", got.Kind)
	}
}

func TestRouter_FollowUp_MostRecentTopic(t *testing.T) {
	r := newTestRouter()
	view := contextWith(shared.TopicObject)

	got := r.Route("what about the price", view)
	if got.Kind != KindFollowUp {
		t.Fatalf("expected follow-up, got %s", got.Kind)
	}
	if got.Topic != shared.TopicObject {
		t.Errorf("expected binding to object topic, got %s", got.Topic)
	}
}

func TestRouter_FollowUp_Pronoun(t *testing.T) {
	r := newTestRouter()
	view := contextWith(shared.TopicDocument)

	got := r.Route("what is this about", view)
	if got.Kind != KindFollowUp {
		t.Fatalf("expected follow-up, got %s", got.Kind)
	}
	if got.Topic != shared.TopicDocument {
		t.Errorf("expected binding to document topic, got %s", got.Topic)
	}
}

func TestRouter_FollowUp_NamedTopicWins(t *testing.T) {
	r := newTestRouter()
	view := contextWith(shared.TopicNavigation, shared.TopicObject)

	got := r.Route("tell me more about the object", view)
	if got.Kind != KindFollowUp {
		t.Fatalf("expected follow-up, got %s", got.Kind)
	}
	if got.Topic != shared.TopicObject {
		t.Errorf("expected named topic to override most recent, got %s", got.Topic)
	}
}

func TestRouter_FollowUp_NamedTopicNotLive(t *testing.T) {
	r := newTestRouter()
	view := contextWith(shared.TopicNavigation)

	got := r.Route("tell me more about the object", view)
	if got.Kind != KindFollowUp {
		t.Fatalf("expected follow-up, got %s", got.Kind)
	}
	if got.Topic != shared.TopicNavigation {
		t.Errorf("expected fallback to most recent when named topic is dead, got %s", got.Topic)
	}
}

func TestRouter_FollowUp_NoContext(t *testing.T) {
	r := newTestRouter()

	got := r.Route("what about the price", noContext())
	if got.Kind != KindUnrecognized {
		t.Errorf("follow-up without context must be unrecognized, got %s", got.Kind)
	}
}

func TestRouter_Unrecognized(t *testing.T) {
	r := newTestRouter()

	tests := []string{
		"",
		"   ",
		"purple elephants dancing",
		"the weather is nice today",
	}

	for _, utterance := range tests {
		got := r.Route(utterance, contextWith(shared.TopicObject))
		if got.Kind != KindUnrecognized {
			t.Errorf("Route(%q) = %s, want unrecognized", utterance, got.Kind)
		}
	}
}

func TestRouter_NoSilentContextReuse(t *testing.T) {
	r := newTestRouter()
	view := contextWith(shared.TopicObject)

	got := r.Route("bananas are yellow", view)
	if got.Kind != KindUnrecognized {
		t.Errorf("utterance without marker must not bind to context, got %s", got.Kind)
	}
}

func TestRouter_Extend(t *testing.T) {
	r := newTestRouter()

	if got := r.Route("scan my surroundings please", noContext()); got.Kind != KindScene {
		t.Fatalf("expected scene via surroundings, got %s", got.Kind)
	}

	r.Extend(KindObject, "scan")
	got := r.Route("scan this barcode", contextWith(shared.TopicNone))
	if got.Kind != KindObject {
		t.Errorf("expected extended phrase to classify as object, got %s", got.Kind)
	}
}

func TestRouter_WordBoundaries(t *testing.T) {
	r := newTestRouter()

	got := r.Route("I bought fresh bread", noContext())
	if got.Kind == KindText {
		t.Error("'read' must not match inside 'bread'")
	}
}

func TestKind_Topic(t *testing.T) {
	tests := []struct {
		kind Kind
		want shared.Topic
	}{
		{KindScene, shared.TopicObject},
		{KindObject, shared.TopicObject},
		{KindFace, shared.TopicObject},
		{KindText, shared.TopicDocument},
		{KindDocument, shared.TopicDocument},
		{KindNavigation, shared.TopicNavigation},
		{KindVideo, shared.TopicVideo},
		{KindEmergency, shared.TopicNone},
		{KindExit, shared.TopicNone},
		{KindUnrecognized, shared.TopicNone},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Topic(); got != tt.want {
				t.Errorf("Topic() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTokenSet(t *testing.T) {
	tests := []struct {
		input string
		want  []string
		skip  []string
	}{
		{"hello world", []string{"hello", "world"}, nil},
		{"Hello, World!", []string{"hello", "world"}, nil},
		{"a b c", nil, []string{"a", "b", "c"}},
		{"what am i holding", []string{"what", "am", "holding"}, []string{"i"}},
		{"", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := tokenSet(tt.input)
			for _, w := range tt.want {
				if !got[w] {
					t.Errorf("tokenSet(%q) missing %q", tt.input, w)
				}
			}
			for _, s := range tt.skip {
				if got[s] {
					t.Errorf("tokenSet(%q) should drop %q", tt.input, s)
				}
			}
		})
	}
}
