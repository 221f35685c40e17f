package capture

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Frame is one JPEG still tied to a session, scored by capture time so
// the newest frame is always one ZSet read away.
type Frame struct {
	SessionID string
	Timestamp int64
	Data      []byte
}

type FrameStore struct {
	redis    *redis.Client
	frameTTL time.Duration
}

func NewFrameStore(redisClient *redis.Client, frameTTL time.Duration) *FrameStore {
	if frameTTL == 0 {
		frameTTL = 60 * time.Second
	}
	return &FrameStore{
		redis:    redisClient,
		frameTTL: frameTTL,
	}
}

func (s *FrameStore) Put(ctx context.Context, frame *Frame) error {
	key := fmt.Sprintf("session:%s:frames", frame.SessionID)
	member := redis.Z{
		Score:  float64(frame.Timestamp),
		Member: frame.Data,
	}

	pipe := s.redis.Pipeline()
	pipe.ZAdd(ctx, key, member)
	pipe.Expire(ctx, key, s.frameTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *FrameStore) Latest(ctx context.Context, sessionID string) (*Frame, error) {
	key := fmt.Sprintf("session:%s:frames", sessionID)
	results, err := s.redis.ZRevRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	data, ok := results[0].Member.(string)
	if !ok {
		return nil, fmt.Errorf("invalid frame data type")
	}

	return &Frame{
		SessionID: sessionID,
		Timestamp: int64(results[0].Score),
		Data:      []byte(data),
	}, nil
}

// Fresh returns the newest frame no older than maxAge, or nil when every
// cached frame is stale and the caller should capture a new one.
func (s *FrameStore) Fresh(ctx context.Context, sessionID string, maxAge time.Duration) (*Frame, error) {
	frame, err := s.Latest(ctx, sessionID)
	if err != nil || frame == nil {
		return nil, err
	}
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	if frame.Timestamp < cutoff {
		return nil, nil
	}
	return frame, nil
}

func (s *FrameStore) Range(ctx context.Context, sessionID string, startTime, endTime int64, limit int) ([]*Frame, error) {
	key := fmt.Sprintf("session:%s:frames", sessionID)

	opt := &redis.ZRangeBy{
		Min:   strconv.FormatInt(startTime, 10),
		Max:   strconv.FormatInt(endTime, 10),
		Count: int64(limit),
	}

	results, err := s.redis.ZRangeByScoreWithScores(ctx, key, opt).Result()
	if err != nil {
		return nil, err
	}

	frames := make([]*Frame, 0, len(results))
	for _, r := range results {
		data, ok := r.Member.(string)
		if !ok {
			continue
		}
		frames = append(frames, &Frame{
			SessionID: sessionID,
			Timestamp: int64(r.Score),
			Data:      []byte(data),
		})
	}

	return frames, nil
}

func (s *FrameStore) Delete(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf("session:%s:frames", sessionID)
	return s.redis.Del(ctx, key).Err()
}
