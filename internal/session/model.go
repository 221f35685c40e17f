package session

import (
	"time"

	"github.com/eleven-am/sight-backend/internal/intent"
	"github.com/eleven-am/sight-backend/internal/shared"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Record is the persisted trace of a session: enough to count active
// wearers and see what a session was doing. The live orchestrator state
// stays in memory.
type Record struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	DocumentID   string    `json:"document_id,omitempty"`
	Utterances   int64     `json:"utterances"`
	StartedAt    time.Time `json:"started_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func (r *Record) RedisKey() string {
	return "session:" + r.ID
}

// Reply is the spoken outcome of one utterance. Errors are folded into
// Text before a reply leaves the session; the wearer always hears
// something.
type Reply struct {
	Text   string
	Intent intent.Kind
	Topic  shared.Topic
}
