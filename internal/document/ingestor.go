package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eleven-am/sight-backend/internal/embedding"
	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/google/uuid"
)

// Writer persists one fully embedded index.
type Writer interface {
	Save(ctx context.Context, index *Index, vectors [][]float32) error
}

// Ingestor turns raw document bytes into a retrievable index: extract
// text, chunk it, embed every chunk, persist. Any failure leaves
// nothing behind; a partially embedded index is never written.
type Ingestor struct {
	chunker  Chunker
	embedder embedding.Client
	store    Writer
	logger   *slog.Logger
}

func NewIngestor(chunker Chunker, embedder embedding.Client, store Writer, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		logger:   logger.With("component", "ingestor"),
	}
}

func (in *Ingestor) Ingest(ctx context.Context, sessionID, name string, data []byte, mimeType string) (*Index, error) {
	text, err := ExtractText(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", name, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%q: %w", name, shared.ErrEmptyDocument)
	}

	spans := in.chunker.Split(text)

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}

	vectors, err := in.embedder.EmbedBatch(ctx, texts, embedding.TaskDocument)
	if err != nil {
		if errors.Is(err, shared.ErrEmbeddingFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(spans) {
		return nil, fmt.Errorf("%w: %d vectors for %d chunks", shared.ErrEmbeddingFailed, len(vectors), len(spans))
	}
	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d", shared.ErrEmbeddingFailed, i, len(v), dims)
		}
	}

	doc := &Document{
		ID:         shared.NewID("doc_"),
		SessionID:  sessionID,
		Name:       name,
		MimeType:   mimeType,
		CharCount:  len([]rune(text)),
		ChunkCount: len(spans),
		Dimensions: dims,
		CreatedAt:  time.Now(),
	}

	chunks := make([]*Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = &Chunk{
			ID:          uuid.NewString(),
			DocumentID:  doc.ID,
			Seq:         span.Seq,
			Text:        span.Text,
			StartOffset: span.Start,
			EndOffset:   span.End,
			CreatedAt:   doc.CreatedAt,
		}
	}

	index := &Index{Document: doc, Chunks: chunks}
	if err := in.store.Save(ctx, index, vectors); err != nil {
		return nil, err
	}

	in.logger.Info("document ingested",
		"document_id", doc.ID,
		"session_id", sessionID,
		"name", name,
		"chunks", len(chunks),
		"chars", doc.CharCount,
	)
	return index, nil
}
