package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/eleven-am/sight-backend/internal/document"
	"github.com/eleven-am/sight-backend/internal/embedding"
	"github.com/eleven-am/sight-backend/internal/shared"
)

// Searcher runs a similarity query over one document's chunks.
type Searcher interface {
	Search(ctx context.Context, documentID string, vector []float32, limit int) ([]*document.ScoredChunk, error)
}

// Synthesizer turns retrieved chunks, conversation history and the
// query into one spoken answer. It is called exactly once per question.
type Synthesizer interface {
	Synthesize(ctx context.Context, chunks []*document.Chunk, history []Turn, query string) (string, error)
}

type Config struct {
	TopK         int
	MinScore     float64
	HistoryTurns int
}

func (c Config) normalize() Config {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = 4
	}
	return c
}

// Engine answers questions against an ingested index. Retrieval is
// deterministic given fixed embeddings: ranking is by score, ties by
// lower sequence, and the selected chunks are fed to synthesis in
// document order.
type Engine struct {
	embedder embedding.Client
	store    Searcher
	synth    Synthesizer
	cfg      Config
	logger   *slog.Logger
}

func NewEngine(embedder embedding.Client, store Searcher, synth Synthesizer, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		embedder: embedder,
		store:    store,
		synth:    synth,
		cfg:      cfg.normalize(),
		logger:   logger.With("component", "retrieval_engine"),
	}
}

// Result is one grounded answer plus the chunks that grounded it, in
// document order.
type Result struct {
	Answer   string
	ChunkIDs []string
}

func (e *Engine) Answer(ctx context.Context, doc *document.Document, thread *Thread, query string) (*Result, error) {
	vector, err := e.embedder.Embed(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := e.store.Search(ctx, doc.ID, vector, e.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(hits) == 0 || hits[0].Score < e.cfg.MinScore {
		e.logger.Debug("retrieval below threshold",
			"document_id", doc.ID,
			"hits", len(hits),
			"min_score", e.cfg.MinScore,
		)
		return nil, shared.ErrNoRelevantContent
	}

	// Selected chunks go to the synthesizer in original document order
	// so the narrative reads top to bottom, not by similarity rank.
	selected := make([]*document.Chunk, len(hits))
	for i, hit := range hits {
		selected[i] = hit.Chunk
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Seq < selected[j].Seq })

	history := thread.LastN(e.cfg.HistoryTurns)

	answer, err := e.synth.Synthesize(ctx, selected, history, query)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	chunkIDs := make([]string, len(selected))
	for i, chunk := range selected {
		chunkIDs[i] = chunk.ID
	}

	thread.Append(Turn{
		Query:    query,
		ChunkIDs: chunkIDs,
		Answer:   answer,
	})

	e.logger.Debug("question answered",
		"document_id", doc.ID,
		"chunks", len(chunkIDs),
		"turns", thread.Len(),
	)
	return &Result{Answer: answer, ChunkIDs: chunkIDs}, nil
}
