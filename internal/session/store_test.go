package session

import (
	"context"
	"errors"
	"testing"

	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/redis/go-redis/v9"
)

func getTestRedisClient(t *testing.T) *redis.Client {
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		t.Skip("Redis not available, skipping test")
	}
	return redisClient
}

func TestStore_RecordLifecycle(t *testing.T) {
	store := NewStore(getTestRedisClient(t))
	ctx := context.Background()

	rec := &Record{}
	if err := store.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer store.DeleteRecord(ctx, rec.ID)

	got, err := store.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != StatusActive {
		t.Errorf("new record status %s", got.Status)
	}

	if err := store.Touch(ctx, rec.ID); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	got, _ = store.GetRecord(ctx, rec.ID)
	if got.Utterances != 1 {
		t.Errorf("utterance count %d", got.Utterances)
	}

	if err := store.BindDocument(ctx, rec.ID, "doc_1"); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	got, _ = store.GetRecord(ctx, rec.ID)
	if got.DocumentID != "doc_1" {
		t.Errorf("document id %q", got.DocumentID)
	}

	if err := store.EndRecord(ctx, rec.ID); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	got, _ = store.GetRecord(ctx, rec.ID)
	if got.Status != StatusEnded {
		t.Errorf("ended record status %s", got.Status)
	}
}

func TestStore_GetMissingRecord(t *testing.T) {
	store := NewStore(getTestRedisClient(t))

	if _, err := store.GetRecord(context.Background(), "sess_missing"); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ActiveRecordsFiltersEnded(t *testing.T) {
	store := NewStore(getTestRedisClient(t))
	ctx := context.Background()

	active := &Record{}
	ended := &Record{}
	if err := store.CreateRecord(ctx, active); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer store.DeleteRecord(ctx, active.ID)
	if err := store.CreateRecord(ctx, ended); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer store.DeleteRecord(ctx, ended.ID)

	if err := store.EndRecord(ctx, ended.ID); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	records, err := store.ActiveRecords(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	foundActive, foundEnded := false, false
	for _, rec := range records {
		if rec.ID == active.ID {
			foundActive = true
		}
		if rec.ID == ended.ID {
			foundEnded = true
		}
	}
	if !foundActive {
		t.Error("active record missing from listing")
	}
	if foundEnded {
		t.Error("ended record included in listing")
	}
}
