package gateway

import (
	"context"
	"time"

	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/labstack/echo/v4"
)

// handleSpeechSocket runs one headset's speech loop: utterances in,
// spoken replies out, with frames accepted on the same socket. The
// session lives exactly as long as the connection.
func (h *Handler) handleSpeechSocket(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	sess, err := h.sessions.Create(c.Request().Context())
	if err != nil {
		h.logger.Error("session create failed", "error", err)
		_ = ws.Close()
		return nil
	}

	conn := NewConn(ws, sess.ID(), h.logger)
	go conn.writeLoop()

	conn.Send(&SpeechMessage{
		Type:      MessageTypeSession,
		SessionID: sess.ID(),
		Timestamp: time.Now().UnixMilli(),
	})

	h.logger.Info("headset connected", "session_id", sess.ID())

	// The socket's lifetime context would die with the HTTP handler, so
	// utterance handling gets its own.
	ctx, cancel := context.WithCancel(context.Background())
	conn.readLoop(func(msg *SpeechMessage) {
		h.handleSpeechMessage(ctx, conn, msg)
	})
	cancel()

	if err := h.sessions.Remove(context.Background(), sess.ID()); err != nil {
		h.logger.Warn("session cleanup failed", "session_id", sess.ID(), "error", err)
	}
	h.logger.Info("headset disconnected", "session_id", sess.ID())
	return nil
}

func (h *Handler) handleSpeechMessage(ctx context.Context, conn *Conn, msg *SpeechMessage) {
	switch msg.Type {
	case MessageTypeUtterance:
		if msg.Text == "" {
			conn.Send(&SpeechMessage{Type: MessageTypeError, Code: "empty_utterance", Text: "utterance text is required"})
			return
		}

		// The socket owns exactly one session; the envelope's session id
		// is informational.
		sess, err := h.sessions.Get(conn.SessionID())
		if err != nil {
			conn.Send(&SpeechMessage{Type: MessageTypeError, Code: "session_gone", Text: "session has ended"})
			return
		}

		// Each utterance runs on its own goroutine so the next one can
		// preempt it mid-command.
		go func(text string) {
			reply := sess.HandleUtterance(ctx, text)
			h.sessions.Touch(ctx, sess.ID())
			conn.Send(&SpeechMessage{
				Type:      MessageTypeSpeak,
				SessionID: sess.ID(),
				Text:      reply.Text,
				Intent:    reply.Intent.String(),
				Topic:     reply.Topic.String(),
				Timestamp: time.Now().UnixMilli(),
			})
		}(msg.Text)

	case MessageTypeFrame:
		if len(msg.Frame) == 0 || h.frames == nil {
			return
		}
		ts := msg.Timestamp
		if ts == 0 {
			ts = time.Now().UnixMilli()
		}
		if err := h.frames.Put(ctx, &capture.Frame{
			SessionID: conn.SessionID(),
			Timestamp: ts,
			Data:      msg.Frame,
		}); err != nil {
			h.logger.Warn("frame store write failed", "session_id", msg.SessionID, "error", err)
		}

	default:
		conn.Send(&SpeechMessage{Type: MessageTypeError, Code: "unknown_type", Text: "unknown message type"})
	}
}
