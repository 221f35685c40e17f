package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
)

func newTestManager() *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(logger)
}

func TestManager_AcquireRelease(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	token, err := m.Acquire(ctx, DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == nil {
		t.Fatal("expected token, got nil")
	}
	if token.DeviceID != DeviceCamera {
		t.Errorf("expected device %s, got %s", DeviceCamera, token.DeviceID)
	}
	if token.HolderID != "sess_1" {
		t.Errorf("expected holder sess_1, got %s", token.HolderID)
	}

	m.Release(token)

	token2, err := m.Acquire(ctx, DeviceCamera, "sess_2", 0)
	if err != nil {
		t.Fatalf("expected reacquire after release, got %v", err)
	}
	m.Release(token2)
}

func TestManager_BusyWhenHeld(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	token, err := m.Acquire(ctx, DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Release(token)

	_, err = m.Acquire(ctx, DeviceCamera, "sess_2", 0)
	if !errors.Is(err, shared.ErrDeviceBusy) {
		t.Errorf("expected ErrDeviceBusy, got %v", err)
	}
}

func TestManager_AcquireTimeout(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	token, err := m.Acquire(ctx, DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Release(token)

	start := time.Now()
	_, err = m.Acquire(ctx, DeviceCamera, "sess_2", 30*time.Millisecond)
	if !errors.Is(err, shared.ErrAcquireTimeout) {
		t.Errorf("expected ErrAcquireTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected wait of at least 30ms, returned after %v", elapsed)
	}
}

func TestManager_WaitSucceedsAfterRelease(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	token, err := m.Acquire(ctx, DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		m.Release(token)
	}()

	token2, err := m.Acquire(ctx, DeviceCamera, "sess_2", 500*time.Millisecond)
	if err != nil {
		t.Fatalf("expected acquire to succeed after release, got %v", err)
	}
	m.Release(token2)
}

func TestManager_ContextCancel(t *testing.T) {
	m := newTestManager()

	token, err := m.Acquire(context.Background(), DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Release(token)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = m.Acquire(ctx, DeviceCamera, "sess_2", time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestManager_ReleaseIdempotent(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	token, err := m.Acquire(ctx, DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Release(token)
	m.Release(token)
	m.Release(nil)

	token2, err := m.Acquire(ctx, DeviceCamera, "sess_2", 0)
	if err != nil {
		t.Fatalf("expected device free after releases, got %v", err)
	}
	m.Release(token2)
}

func TestManager_StaleTokenCannotReleaseNewLease(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	old, err := m.Acquire(ctx, DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Release(old)

	current, err := m.Acquire(ctx, DeviceCamera, "sess_2", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Release(old)

	if _, err := m.Acquire(ctx, DeviceCamera, "sess_3", 0); !errors.Is(err, shared.ErrDeviceBusy) {
		t.Errorf("stale release freed an active lease: %v", err)
	}
	m.Release(current)
}

func TestManager_IndependentDevices(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	camToken, err := m.Acquire(ctx, DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Release(camToken)

	micToken, err := m.Acquire(ctx, "microphone", "sess_1", 0)
	if err != nil {
		t.Fatalf("expected independent device to be free, got %v", err)
	}
	m.Release(micToken)
}

func TestManager_Holder(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if h := m.Holder(DeviceCamera); h != nil {
		t.Errorf("expected nil holder, got %+v", h)
	}

	token, err := m.Acquire(ctx, DeviceCamera, "sess_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := m.Holder(DeviceCamera)
	if h == nil || h.ID != token.ID {
		t.Errorf("expected holder %s, got %+v", token.ID, h)
	}

	m.Release(token)
	if h := m.Holder(DeviceCamera); h != nil {
		t.Errorf("expected nil holder after release, got %+v", h)
	}
}

func TestManager_ConcurrentExclusivity(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := m.Acquire(ctx, DeviceCamera, "sess", 2*time.Second)
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}

			n := atomic.AddInt32(&active, 1)
			for {
				max := atomic.LoadInt32(&maxActive)
				if n <= max || atomic.CompareAndSwapInt32(&maxActive, max, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)

			m.Release(token)
		}()
	}

	wg.Wait()
	if max := atomic.LoadInt32(&maxActive); max != 1 {
		t.Errorf("expected at most 1 concurrent holder, observed %d", max)
	}
}
