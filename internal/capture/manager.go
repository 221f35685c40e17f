package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
)

// Capture devices on the headset. The microphone is driven by the
// speech transport; it is listed here so background tasks can check it
// is free before sampling.
const (
	DeviceCamera     = "camera"
	DeviceMicrophone = "microphone"
)

// Manager hands out exclusive capture tokens, one per device. A second
// acquire against a held device either fails immediately or waits up to
// the caller's deadline, never queues indefinitely.
type Manager struct {
	logger *slog.Logger

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem chan struct{}

	mu     sync.Mutex
	holder *Token
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger.With("component", "capture_manager"),
		slots:  make(map[string]*slot),
	}
}

func (m *Manager) slot(deviceID string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[deviceID]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		m.slots[deviceID] = s
	}
	return s
}

// Acquire leases the device for holderID. With wait <= 0 a held device
// fails immediately with ErrDeviceBusy; otherwise the caller blocks up
// to wait and gets ErrAcquireTimeout when the lease never frees.
func (m *Manager) Acquire(ctx context.Context, deviceID, holderID string, wait time.Duration) (*Token, error) {
	s := m.slot(deviceID)

	if wait <= 0 {
		select {
		case s.sem <- struct{}{}:
		default:
			m.logger.Debug("device busy", "device_id", deviceID, "holder_id", holderID)
			return nil, shared.ErrDeviceBusy
		}
	} else {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case s.sem <- struct{}{}:
		case <-timer.C:
			m.logger.Debug("device acquire timed out", "device_id", deviceID, "holder_id", holderID, "wait", wait)
			return nil, shared.ErrAcquireTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	token := newToken(deviceID, holderID)
	s.mu.Lock()
	s.holder = token
	s.mu.Unlock()

	m.logger.Debug("device acquired", "device_id", deviceID, "holder_id", holderID, "token_id", token.ID)
	return token, nil
}

// Release frees the device if token is its current lease. Stale or
// repeated releases are logged and ignored.
func (m *Manager) Release(token *Token) {
	if token == nil {
		return
	}
	s := m.slot(token.DeviceID)

	s.mu.Lock()
	if s.holder == nil || s.holder.ID != token.ID {
		s.mu.Unlock()
		m.logger.Warn("ignoring release of stale capture token",
			"device_id", token.DeviceID,
			"holder_id", token.HolderID,
			"token_id", token.ID,
		)
		return
	}
	s.holder = nil
	s.mu.Unlock()

	<-s.sem
	m.logger.Debug("device released", "device_id", token.DeviceID, "token_id", token.ID)
}

// Holder reports the current lease on a device, nil when free.
func (m *Manager) Holder(deviceID string) *Token {
	s := m.slot(deviceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holder
}
