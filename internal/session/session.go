package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/conversation"
	"github.com/eleven-am/sight-backend/internal/document"
	"github.com/eleven-am/sight-backend/internal/intent"
	"github.com/eleven-am/sight-backend/internal/perception"
	"github.com/eleven-am/sight-backend/internal/retrieval"
	"github.com/eleven-am/sight-backend/internal/shared"
)

// Leaser hands out exclusive device leases. capture.Manager satisfies it.
type Leaser interface {
	Acquire(ctx context.Context, deviceID, holderID string, wait time.Duration) (*capture.Token, error)
	Release(token *capture.Token)
}

// Camera is the headset hardware surface a session drives directly.
// capture.Devices satisfies it.
type Camera interface {
	CaptureStill(ctx context.Context) ([]byte, error)
	Aim(ctx context.Context, angle int)
}

// FrameSink receives every foreground frame so follow-ups and debugging
// can reach recent stills. capture.FrameStore satisfies it.
type FrameSink interface {
	Put(ctx context.Context, frame *capture.Frame) error
	Delete(ctx context.Context, sessionID string) error
}

// Answerer resolves a question against an ingested document.
// retrieval.Engine satisfies it.
type Answerer interface {
	Answer(ctx context.Context, doc *document.Document, thread *retrieval.Thread, query string) (*retrieval.Result, error)
}

// AlertSender fires the SOS path. emergency.Dispatcher satisfies it.
type AlertSender interface {
	Dispatch(ctx context.Context, message string) (string, error)
}

// VideoControl starts and stops background frame sampling for a
// session. video.Sampler satisfies it.
type VideoControl interface {
	Start(sessionID string) error
	Stop(sessionID string) bool
	Running(sessionID string) bool
}

// Reporter compiles a finished video run into one spoken summary.
// video.Collector satisfies it.
type Reporter interface {
	Compile(sessionID string) string
}

// FaceDirectory lists registered names for identification prompts.
// face.Registry satisfies it.
type FaceDirectory interface {
	Names(ctx context.Context) ([]string, error)
}

// Deps are the collaborators one session orchestrates. Adapters maps
// the camera intents to their perception adapter; FollowUp answers
// from carried context without a new capture.
type Deps struct {
	Leases   Leaser
	Camera   Camera
	Frames   FrameSink
	Context  *conversation.Store
	Router   *intent.Router
	Adapters map[intent.Kind]perception.Adapter
	FollowUp perception.Adapter
	Faces    FaceDirectory
	Engine   Answerer
	SOS      AlertSender
	Video    VideoControl
	Report   Reporter

	// AcquireWait bounds how long a foreground command waits for the
	// camera before giving up with a spoken busy message.
	AcquireWait time.Duration
}

// Session serializes one wearer's commands. Utterances run one at a
// time; a new utterance interrupts whatever is in flight.
type Session struct {
	id     string
	deps   Deps
	logger *slog.Logger

	handleMu sync.Mutex

	mu        sync.Mutex
	cancel    context.CancelFunc
	activeDoc *document.Document
	thread    *retrieval.Thread
	ended     bool
}

func New(id string, deps Deps, logger *slog.Logger) *Session {
	if deps.AcquireWait == 0 {
		deps.AcquireWait = 3 * time.Second
	}
	return &Session{
		id:     id,
		deps:   deps,
		logger: logger.With("component", "session", "session_id", id),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Busy reports whether an utterance is currently being handled.
func (s *Session) Busy() bool {
	if s.handleMu.TryLock() {
		s.handleMu.Unlock()
		return false
	}
	return true
}

// Interrupt cancels the in-flight utterance, if any. The interrupted
// handler unwinds through its context and releases any device lease it
// holds.
func (s *Session) Interrupt() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// ActiveDocument returns the index the session is currently reading
// from, or nil.
func (s *Session) ActiveDocument() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeDoc
}

// AttachDocument makes the given index the target of document
// questions. Switching documents resets the question thread; re-binding
// the same index keeps it.
func (s *Session) AttachDocument(doc *document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeDoc = doc
	if s.thread == nil {
		s.thread = retrieval.NewThread(doc.ID)
		return
	}
	s.thread.Rebind(doc.ID)
}

// HandleUtterance routes one spoken command and returns the reply to
// speak. A new utterance preempts the previous one before taking its
// turn.
func (s *Session) HandleUtterance(ctx context.Context, text string) Reply {
	s.Interrupt()
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	if s.Ended() {
		return Reply{Text: "This session has ended.", Intent: intent.KindExit}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.setCancel(cancel)
	defer s.setCancel(nil)

	routed := s.deps.Router.Route(text, s.contextView())
	s.logger.Info("utterance routed", "intent", routed.Kind, "topic", routed.Topic)

	reply, err := s.dispatch(ctx, routed)
	if err != nil {
		s.logger.Warn("command failed", "intent", routed.Kind, "error", err)
		return Reply{Text: spokenError(err), Intent: routed.Kind, Topic: routed.Topic}
	}
	return reply
}

func (s *Session) dispatch(ctx context.Context, routed intent.Intent) (Reply, error) {
	switch routed.Kind {
	case intent.KindObject, intent.KindNavigation:
		return s.handlePerceive(ctx, routed, capture.AngleForward)
	case intent.KindScene, intent.KindText:
		return s.handlePerceive(ctx, routed, capture.AngleDesk)
	case intent.KindFace:
		return s.handleFace(ctx, routed)
	case intent.KindFollowUp:
		return s.handleFollowUp(ctx, routed)
	case intent.KindDocument:
		return s.handleDocument(ctx, routed)
	case intent.KindVideo:
		return s.handleVideo(ctx, routed)
	case intent.KindEmergency:
		return s.handleEmergency(ctx, routed)
	case intent.KindExit:
		return s.handleExit(ctx, routed)
	default:
		return Reply{}, shared.ErrUnrecognized
	}
}

// captureFrame takes one exclusive still: lease the camera, aim the
// mount, shoot, and keep a copy in the frame store.
func (s *Session) captureFrame(ctx context.Context, angle int) ([]byte, error) {
	token, err := s.deps.Leases.Acquire(ctx, capture.DeviceCamera, s.id, s.deps.AcquireWait)
	if err != nil {
		return nil, err
	}
	defer s.deps.Leases.Release(token)

	s.deps.Camera.Aim(ctx, angle)
	frame, err := s.deps.Camera.CaptureStill(ctx)
	if err != nil {
		return nil, err
	}

	if s.deps.Frames != nil {
		if err := s.deps.Frames.Put(ctx, &capture.Frame{
			SessionID: s.id,
			Timestamp: time.Now().UnixMilli(),
			Data:      frame,
		}); err != nil {
			s.logger.Warn("frame store write failed", "error", err)
		}
	}
	return frame, nil
}

func (s *Session) contextView() intent.ContextView {
	view := intent.ContextView{Live: make(map[shared.Topic]bool)}
	for _, topic := range conversation.CarryTopics {
		if _, ok := s.deps.Context.Get(s.id, topic); ok {
			view.Live[topic] = true
		}
	}
	if entry, ok := s.deps.Context.MostRecent(s.id); ok {
		view.MostRecent = entry.Topic
	}
	if s.ActiveDocument() != nil {
		view.Live[shared.TopicDocument] = true
	}
	return view
}

func (s *Session) remember(routed intent.Intent, text string) {
	topic := routed.Kind.Topic()
	if routed.Kind == intent.KindFollowUp {
		topic = routed.Topic
	}
	if topic == shared.TopicNone {
		return
	}
	s.deps.Context.Put(s.id, conversation.Entry{
		Kind:     routed.Kind.String(),
		Topic:    topic,
		Payload:  text,
		StoredAt: time.Now(),
	})
}

func (s *Session) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

// Close ends the session and releases everything it owns: background
// sampling, carried context, stored frames.
func (s *Session) Close(ctx context.Context) {
	s.Interrupt()

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.mu.Unlock()

	if s.deps.Video != nil {
		s.deps.Video.Stop(s.id)
	}
	s.deps.Context.Clear(s.id)
	if s.deps.Frames != nil {
		if err := s.deps.Frames.Delete(ctx, s.id); err != nil {
			s.logger.Warn("frame cleanup failed", "error", err)
		}
	}
	s.logger.Info("session closed")
}

// spokenError turns a failure into something worth saying out loud.
func spokenError(err error) string {
	switch {
	case errors.Is(err, shared.ErrDeviceBusy), errors.Is(err, shared.ErrAcquireTimeout):
		return "The camera is busy right now. Please try again in a moment."
	case errors.Is(err, shared.ErrContextNotFound):
		return "I don't have anything recent to build on. Ask me to look at something first."
	case errors.Is(err, shared.ErrNoRelevantContent):
		return "I couldn't find anything about that in the document."
	case errors.Is(err, shared.ErrUnrecognized):
		return "I didn't catch that. You can ask me to describe the scene, read text, identify a face, or ask about your document."
	case errors.Is(err, context.Canceled):
		return "Okay, stopping that."
	}

	if kind, ok := perception.KindOf(err); ok {
		switch kind {
		case perception.ErrorTimeout:
			return "That took too long. Please try again."
		case perception.ErrorRateLimited:
			return "I'm being asked too quickly. Give me a few seconds and try again."
		}
	}
	return "Something went wrong handling that. Please try again."
}
