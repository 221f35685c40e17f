package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Servo presets for the headset camera mount. Desk work (scenes, text,
// documents) tilts down, navigation and faces look straight ahead.
const (
	AngleDesk    = 115
	AngleForward = 90
)

type DeviceConfig struct {
	CameraBaseURL string
	ServoBaseURL  string
	Timeout       time.Duration
}

// Devices talks to the headset hardware: a still-frame camera endpoint
// and a servo that tilts the mount.
type Devices struct {
	cameraBaseURL string
	servoBaseURL  string
	http          *http.Client
	logger        *slog.Logger
}

func NewDevices(cfg DeviceConfig, logger *slog.Logger) *Devices {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Devices{
		cameraBaseURL: cfg.CameraBaseURL,
		servoBaseURL:  cfg.ServoBaseURL,
		http:          &http.Client{Timeout: timeout},
		logger:        logger.With("component", "capture_devices"),
	}
}

// CaptureStill fetches one JPEG frame from the camera.
func (d *Devices) CaptureStill(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cameraBaseURL+"/capture", nil)
	if err != nil {
		return nil, fmt.Errorf("build capture request: %w", err)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera capture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera capture: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("camera capture: empty frame")
	}

	return data, nil
}

// Aim tilts the servo mount to the given angle in degrees. Failures are
// logged and swallowed so a stuck servo never blocks a capture.
func (d *Devices) Aim(ctx context.Context, angle int) {
	if d.servoBaseURL == "" {
		return
	}

	url := fmt.Sprintf("%s/servo_angle?value=%d", d.servoBaseURL, angle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		d.logger.Warn("servo request build failed", "error", err)
		return
	}

	resp, err := d.http.Do(req)
	if err != nil {
		d.logger.Warn("servo unreachable", "angle", angle, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Warn("servo rejected angle", "angle", angle, "status", resp.StatusCode)
		return
	}

	d.logger.Debug("servo positioned", "angle", angle)
}

// Status probes the camera endpoint, used by health checks.
func (d *Devices) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cameraBaseURL+"/capture", nil)
	if err != nil {
		return err
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera status %d", resp.StatusCode)
	}
	return nil
}
