package apikey

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func setupStore(t *testing.T) *Store {
	store := NewStore(setupTestDB(t))
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return store
}

func TestStore_CreateIssuesSecret(t *testing.T) {
	store := setupStore(t)

	key := &APIKey{Name: "Kitchen headset"}
	secret, err := store.Create(context.Background(), key)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if !strings.HasPrefix(secret, "sk-sight-") {
		t.Errorf("secret %q missing prefix", secret)
	}
	if key.Prefix != secret[:12] {
		t.Errorf("stored prefix %q", key.Prefix)
	}
	if key.SecretHash == secret {
		t.Error("secret stored in plaintext")
	}
}

func TestStore_ValidateRoundTrip(t *testing.T) {
	store := setupStore(t)

	key := &APIKey{Name: "Kitchen headset"}
	secret, err := store.Create(context.Background(), key)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.Validate(context.Background(), secret)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if got.ID != key.ID {
		t.Errorf("validated key %s, want %s", got.ID, key.ID)
	}
}

func TestStore_ValidateRejectsWrongSecret(t *testing.T) {
	store := setupStore(t)

	key := &APIKey{Name: "Kitchen headset"}
	secret, _ := store.Create(context.Background(), key)

	// Same prefix, wrong tail.
	tampered := secret[:len(secret)-4] + "0000"
	if tampered == secret {
		tampered = secret[:len(secret)-4] + "ffff"
	}
	if _, err := store.Validate(context.Background(), tampered); err != shared.ErrNotFound {
		t.Errorf("tampered secret returned %v", err)
	}

	if _, err := store.Validate(context.Background(), "short"); err != shared.ErrNotFound {
		t.Errorf("short secret returned %v", err)
	}
}

func TestStore_ValidateRejectsExpired(t *testing.T) {
	store := setupStore(t)

	past := time.Now().Add(-time.Hour)
	key := &APIKey{Name: "Old headset", ExpiresAt: &past}
	secret, _ := store.Create(context.Background(), key)

	if _, err := store.Validate(context.Background(), secret); err != shared.ErrUnauthorized {
		t.Errorf("expired key returned %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store := setupStore(t)

	key := &APIKey{Name: "Kitchen headset"}
	store.Create(context.Background(), key)

	if err := store.Delete(context.Background(), key.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(context.Background(), key.ID); err != shared.ErrNotFound {
		t.Errorf("double delete returned %v", err)
	}
	if _, err := store.GetByID(context.Background(), key.ID); err != shared.ErrNotFound {
		t.Errorf("lookup after delete returned %v", err)
	}
}

func TestStore_ListAndCount(t *testing.T) {
	store := setupStore(t)

	store.Create(context.Background(), &APIKey{Name: "one"})
	store.Create(context.Background(), &APIKey{Name: "two"})

	keys, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("listed %d keys", len(keys))
	}

	count, err := store.Count(context.Background())
	if err != nil || count != 2 {
		t.Errorf("count = %d, err = %v", count, err)
	}
}
