package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/redis/go-redis/v9"
)

const recordTTL = 24 * time.Hour

// Store keeps session records in redis so they survive process
// restarts and can be listed without walking the in-memory manager.
type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) CreateRecord(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = shared.NewID("sess_")
	}
	rec.Status = StatusActive
	rec.StartedAt = time.Now()
	rec.LastActiveAt = time.Now()
	return s.write(ctx, rec)
}

func (s *Store) GetRecord(ctx context.Context, id string) (*Record, error) {
	data, err := s.redis.Get(ctx, "session:"+id).Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Touch bumps activity on every handled utterance.
func (s *Store) Touch(ctx context.Context, id string) error {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	rec.Utterances++
	return s.write(ctx, rec)
}

// BindDocument records which index the session is reading from.
func (s *Store) BindDocument(ctx context.Context, id, documentID string) error {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	rec.DocumentID = documentID
	return s.write(ctx, rec)
}

func (s *Store) EndRecord(ctx context.Context, id string) error {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	rec.Status = StatusEnded
	return s.write(ctx, rec)
}

func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	return s.redis.Del(ctx, "session:"+id).Err()
}

// ActiveRecords walks the session keys with SCAN so listing never
// blocks redis on a large keyspace.
func (s *Store) ActiveRecords(ctx context.Context) ([]*Record, error) {
	var records []*Record
	iter := s.redis.Scan(ctx, 0, "session:sess_*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.redis.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if rec.Status == StatusActive {
			records = append(records, &rec)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) write(ctx context.Context, rec *Record) error {
	rec.LastActiveAt = time.Now()
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, rec.RedisKey(), data, recordTTL).Err()
}
