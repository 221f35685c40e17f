package capture

import (
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
)

// Token is an exclusive lease on a capture device. Whoever holds it may
// drive the camera and servo until it is released.
type Token struct {
	ID         string
	DeviceID   string
	HolderID   string
	AcquiredAt time.Time
}

func newToken(deviceID, holderID string) *Token {
	return &Token{
		ID:         shared.NewID("cap_"),
		DeviceID:   deviceID,
		HolderID:   holderID,
		AcquiredAt: time.Now(),
	}
}
