package video

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/eleven-am/sight-backend/internal/perception"
)

// Subscriber is the inbound half of the frame pipeline.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Describer consumes sampled frames, runs the scene adapter over each
// one and collects the descriptions for the session report.
type Describer struct {
	sub    Subscriber
	scene  perception.Adapter
	report *Collector
	logger *slog.Logger
}

func NewDescriber(sub Subscriber, scene perception.Adapter, report *Collector, logger *slog.Logger) *Describer {
	return &Describer{
		sub:    sub,
		scene:  scene,
		report: report,
		logger: logger.With("component", "video_describer"),
	}
}

// Run consumes frames until ctx is cancelled. Call it once from a
// dedicated goroutine.
func (d *Describer) Run(ctx context.Context) error {
	messages, err := d.sub.Subscribe(ctx, TopicFrames)
	if err != nil {
		return err
	}

	for msg := range messages {
		d.handle(ctx, msg)
	}
	return nil
}

func (d *Describer) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var frame FrameMessage
	if err := json.Unmarshal(msg.Payload, &frame); err != nil {
		d.logger.Error("invalid frame message", "error", err)
		return
	}

	result, err := d.scene.Analyze(ctx, perception.Request{Frame: frame.Frame})
	if err != nil {
		d.logger.Warn("frame description failed", "session_id", frame.SessionID, "error", err)
		return
	}

	d.report.Add(frame.SessionID, ReportEntry{
		CapturedAt:  time.UnixMilli(frame.CapturedAt),
		Description: result.Description,
	})
	d.logger.Debug("frame described", "session_id", frame.SessionID)
}
