package conversation

import (
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
)

// Entry is one carryable piece of conversational context: the spoken
// result of an earlier command, kept briefly so follow-up questions can
// build on it without another capture.
type Entry struct {
	Kind     string
	Topic    shared.Topic
	Payload  string
	StoredAt time.Time
}

// CarryTopics are the topics a follow-up may bind to, newest first wins.
var CarryTopics = []shared.Topic{
	shared.TopicObject,
	shared.TopicDocument,
	shared.TopicNavigation,
	shared.TopicVideo,
}
