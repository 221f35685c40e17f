package capture

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestDevices(cameraURL, servoURL string) *Devices {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDevices(DeviceConfig{
		CameraBaseURL: cameraURL,
		ServoBaseURL:  servoURL,
	}, logger)
}

func TestDevices_CaptureStill(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/capture" {
			t.Errorf("expected /capture path, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpeg)
	}))
	defer server.Close()

	d := newTestDevices(server.URL, "")
	data, err := d.CaptureStill(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != len(jpeg) {
		t.Errorf("expected %d bytes, got %d", len(jpeg), len(data))
	}
}

func TestDevices_CaptureStill_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := newTestDevices(server.URL, "")
	if _, err := d.CaptureStill(context.Background()); err == nil {
		t.Error("expected error on server failure, got nil")
	}
}

func TestDevices_CaptureStill_EmptyFrame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := newTestDevices(server.URL, "")
	if _, err := d.CaptureStill(context.Background()); err == nil {
		t.Error("expected error on empty frame, got nil")
	}
}

func TestDevices_Aim(t *testing.T) {
	var gotPath, gotValue string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotValue = r.URL.Query().Get("value")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := newTestDevices("", server.URL)
	d.Aim(context.Background(), AngleDesk)

	if gotPath != "/servo_angle" {
		t.Errorf("expected /servo_angle path, got %s", gotPath)
	}
	if gotValue != "115" {
		t.Errorf("expected value 115, got %s", gotValue)
	}
}

func TestDevices_Aim_NoServoConfigured(t *testing.T) {
	d := newTestDevices("", "")
	d.Aim(context.Background(), AngleForward)
}

func TestDevices_Aim_UnreachableServo(t *testing.T) {
	d := newTestDevices("", "http://127.0.0.1:1")
	d.Aim(context.Background(), AngleForward)
}

func TestDevices_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xFF, 0xD8})
	}))
	defer server.Close()

	d := newTestDevices(server.URL, "")
	if err := d.Status(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	server.Close()
	if err := d.Status(context.Background()); err == nil {
		t.Error("expected error after server shutdown, got nil")
	}
}
