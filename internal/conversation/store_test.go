package conversation

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
)

func newTestStore(ttl time.Duration) *Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(ttl, logger)
}

func TestNewStore_DefaultTTL(t *testing.T) {
	store := newTestStore(0)
	if store.TTL() != 120*time.Second {
		t.Errorf("expected default TTL 120s, got %v", store.TTL())
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store := newTestStore(time.Minute)

	store.Put("sess_1", Entry{
		Kind:    "object",
		Topic:   shared.TopicObject,
		Payload: "a red coffee mug",
	})

	entry, found := store.Get("sess_1", shared.TopicObject)
	if !found {
		t.Fatal("expected entry to be found")
	}
	if entry.Payload != "a red coffee mug" {
		t.Errorf("expected payload 'a red coffee mug', got %s", entry.Payload)
	}
	if entry.Kind != "object" {
		t.Errorf("expected kind 'object', got %s", entry.Kind)
	}
	if entry.StoredAt.IsZero() {
		t.Error("expected StoredAt to be set")
	}
}

func TestStore_Get_Missing(t *testing.T) {
	store := newTestStore(time.Minute)

	if _, found := store.Get("sess_1", shared.TopicObject); found {
		t.Error("expected no entry for empty store")
	}
}

func TestStore_Put_ReplacesSameTopic(t *testing.T) {
	store := newTestStore(time.Minute)

	store.Put("sess_1", Entry{Kind: "object", Topic: shared.TopicObject, Payload: "first"})
	store.Put("sess_1", Entry{Kind: "scene", Topic: shared.TopicObject, Payload: "second"})

	entry, found := store.Get("sess_1", shared.TopicObject)
	if !found {
		t.Fatal("expected entry to be found")
	}
	if entry.Payload != "second" {
		t.Errorf("expected newest entry to win, got %s", entry.Payload)
	}
}

func TestStore_Put_IgnoresTopicNone(t *testing.T) {
	store := newTestStore(time.Minute)

	store.Put("sess_1", Entry{Kind: "exit", Topic: shared.TopicNone, Payload: "x"})

	if _, found := store.MostRecent("sess_1"); found {
		t.Error("entries without a topic must not be stored")
	}
}

func TestStore_Expiry(t *testing.T) {
	store := newTestStore(30 * time.Millisecond)

	store.Put("sess_1", Entry{Kind: "object", Topic: shared.TopicObject, Payload: "short lived"})

	if _, found := store.Get("sess_1", shared.TopicObject); !found {
		t.Fatal("expected entry before expiry")
	}

	time.Sleep(50 * time.Millisecond)

	if _, found := store.Get("sess_1", shared.TopicObject); found {
		t.Error("expected entry to expire")
	}
	if _, found := store.MostRecent("sess_1"); found {
		t.Error("expired entries must not be returned as most recent")
	}
}

func TestStore_MostRecent(t *testing.T) {
	store := newTestStore(time.Minute)
	now := time.Now()

	store.Put("sess_1", Entry{
		Kind:     "object",
		Topic:    shared.TopicObject,
		Payload:  "older",
		StoredAt: now.Add(-10 * time.Second),
	})
	store.Put("sess_1", Entry{
		Kind:     "navigation",
		Topic:    shared.TopicNavigation,
		Payload:  "newer",
		StoredAt: now,
	})

	entry, found := store.MostRecent("sess_1")
	if !found {
		t.Fatal("expected an entry")
	}
	if entry.Topic != shared.TopicNavigation {
		t.Errorf("expected newest topic navigation, got %s", entry.Topic)
	}
	if entry.Payload != "newer" {
		t.Errorf("expected payload 'newer', got %s", entry.Payload)
	}
}

func TestStore_MostRecent_Empty(t *testing.T) {
	store := newTestStore(time.Minute)

	if _, found := store.MostRecent("sess_1"); found {
		t.Error("expected no entry for unknown session")
	}
}

func TestStore_SessionsIsolated(t *testing.T) {
	store := newTestStore(time.Minute)

	store.Put("sess_1", Entry{Kind: "object", Topic: shared.TopicObject, Payload: "mine"})

	if _, found := store.Get("sess_2", shared.TopicObject); found {
		t.Error("entries must not leak across sessions")
	}
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(time.Minute)

	store.Put("sess_1", Entry{Kind: "object", Topic: shared.TopicObject, Payload: "a"})
	store.Put("sess_1", Entry{Kind: "document", Topic: shared.TopicDocument, Payload: "b"})
	store.Put("sess_2", Entry{Kind: "object", Topic: shared.TopicObject, Payload: "keep"})

	store.Clear("sess_1")

	if _, found := store.MostRecent("sess_1"); found {
		t.Error("expected cleared session to be empty")
	}
	if _, found := store.Get("sess_2", shared.TopicObject); !found {
		t.Error("clearing one session must not touch another")
	}
}
