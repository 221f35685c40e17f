package retrieval

import (
	"sync"
	"time"
)

// Turn is one completed question/answer exchange and the chunks that
// grounded it.
type Turn struct {
	Query    string
	ChunkIDs []string
	Answer   string
	AskedAt  time.Time
}

// Thread is the multi-turn Q&A history over one document index. It
// grows as questions are answered and is cleared whenever the session
// switches to a different index.
type Thread struct {
	mu      sync.Mutex
	indexID string
	turns   []Turn
}

func NewThread(indexID string) *Thread {
	return &Thread{indexID: indexID}
}

func (t *Thread) IndexID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.indexID
}

func (t *Thread) Append(turn Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if turn.AskedAt.IsZero() {
		turn.AskedAt = time.Now()
	}
	t.turns = append(t.turns, turn)
}

func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// LastN returns up to n most recent turns, oldest first.
func (t *Thread) LastN(n int) []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || len(t.turns) == 0 {
		return nil
	}
	start := len(t.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(t.turns)-start)
	copy(out, t.turns[start:])
	return out
}

// Rebind points the thread at a new index, dropping the history when
// the index actually changed.
func (t *Thread) Rebind(indexID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.indexID == indexID {
		return
	}
	t.indexID = indexID
	t.turns = nil
}
