package video

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/shared"
)

// Leaser hands out exclusive device leases. capture.Manager satisfies
// it.
type Leaser interface {
	Acquire(ctx context.Context, deviceID, holderID string, wait time.Duration) (*capture.Token, error)
	Release(token *capture.Token)
}

// FrameSource produces one still frame per call.
type FrameSource interface {
	CaptureStill(ctx context.Context) ([]byte, error)
}

// Publisher is the outbound half of the frame pipeline.
type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

const samplerHolder = "video_sampler"

// Sampler captures a frame from the camera at a fixed interval and
// publishes it for description. Acquisition is non-blocking: when a
// foreground command holds the camera the beat is skipped, never
// queued, so background sampling can only use the gaps.
type Sampler struct {
	leases   Leaser
	camera   FrameSource
	pub      Publisher
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func NewSampler(leases Leaser, camera FrameSource, pub Publisher, interval time.Duration, logger *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = 6 * time.Second
	}
	return &Sampler{
		leases:   leases,
		camera:   camera,
		pub:      pub,
		interval: interval,
		logger:   logger.With("component", "video_sampler"),
		running:  make(map[string]context.CancelFunc),
	}
}

var ErrAlreadySampling = errors.New("video sampling already running for session")

// Start begins sampling for a session. One sampling loop per session.
func (s *Sampler) Start(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.running[sessionID]; ok {
		return ErrAlreadySampling
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running[sessionID] = cancel
	go s.loop(ctx, sessionID)

	s.logger.Info("video sampling started", "session_id", sessionID, "interval", s.interval)
	return nil
}

// Stop ends sampling for a session, reporting whether it was running.
func (s *Sampler) Stop(sessionID string) bool {
	s.mu.Lock()
	cancel, ok := s.running[sessionID]
	if ok {
		delete(s.running, sessionID)
	}
	s.mu.Unlock()

	if ok {
		cancel()
		s.logger.Info("video sampling stopped", "session_id", sessionID)
	}
	return ok
}

// Running reports whether a session currently samples.
func (s *Sampler) Running(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[sessionID]
	return ok
}

// StopAll ends every sampling loop, used at shutdown.
func (s *Sampler) StopAll() {
	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.running))
	for id, cancel := range s.running {
		cancels = append(cancels, cancel)
		delete(s.running, id)
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Sampler) loop(ctx context.Context, sessionID string) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleOnce(ctx, sessionID)
		}
	}
}

func (s *Sampler) sampleOnce(ctx context.Context, sessionID string) {
	token, err := s.leases.Acquire(ctx, capture.DeviceCamera, samplerHolder, 0)
	if err != nil {
		if errors.Is(err, shared.ErrDeviceBusy) {
			s.logger.Debug("camera busy, skipping sample", "session_id", sessionID)
			return
		}
		if ctx.Err() == nil {
			s.logger.Warn("camera lease failed", "session_id", sessionID, "error", err)
		}
		return
	}
	defer s.leases.Release(token)

	frame, err := s.camera.CaptureStill(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("frame capture failed", "session_id", sessionID, "error", err)
		}
		return
	}

	payload, err := json.Marshal(FrameMessage{
		SessionID:  sessionID,
		CapturedAt: time.Now().UnixMilli(),
		Frame:      frame,
	})
	if err != nil {
		s.logger.Error("frame marshal failed", "error", err)
		return
	}

	if err := s.pub.Publish(TopicFrames, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Warn("frame publish failed", "session_id", sessionID, "error", err)
	}
}
