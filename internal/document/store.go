package document

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/qdrant/go-client/qdrant"
	"gorm.io/gorm"
)

const DefaultCollection = "document_chunks"

// Store persists documents and chunks in postgres and their vectors in
// qdrant. Rows and points are written only after every embedding
// succeeded, so a readable index always has full vector coverage.
type Store struct {
	db         *gorm.DB
	qdrant     *qdrant.Client
	collection string
}

func NewStore(db *gorm.DB, qdrantClient *qdrant.Client, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{
		db:         db,
		qdrant:     qdrantClient,
		collection: collection,
	}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Document{}, &Chunk{})
}

// EnsureCollection creates the vector collection when missing. Cosine
// distance matches the embedding space the vectors were produced for.
func (s *Store) EnsureCollection(ctx context.Context, dimensions uint64) error {
	if s.qdrant == nil {
		return errors.New("qdrant client not configured")
	}

	exists, err := s.qdrant.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	return s.qdrant.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// Save writes one fully embedded index: document and chunk rows in a
// transaction, then the chunk vectors. vectors[i] belongs to
// index.Chunks[i].
func (s *Store) Save(ctx context.Context, index *Index, vectors [][]float32) error {
	if s.qdrant == nil {
		return errors.New("qdrant client not configured")
	}
	if len(vectors) != len(index.Chunks) {
		return fmt.Errorf("%w: %d vectors for %d chunks", shared.ErrEmbeddingFailed, len(vectors), len(index.Chunks))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(index.Document).Error; err != nil {
			return err
		}
		return tx.Create(index.Chunks).Error
	})
	if err != nil {
		return fmt.Errorf("persist index rows: %w", err)
	}

	points := make([]*qdrant.PointStruct, len(index.Chunks))
	for i, chunk := range index.Chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"document_id": chunk.DocumentID,
				"seq":         int64(chunk.Seq),
			}),
		}
	}

	if _, err := s.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	}); err != nil {
		// Roll the rows back so no index without vectors is readable.
		if rbErr := s.rollbackIndex(ctx, index.Document.ID); rbErr != nil {
			return fmt.Errorf("upsert vectors: %w (row rollback also failed: %v)", err, rbErr)
		}
		return fmt.Errorf("upsert vectors: %w", err)
	}

	return nil
}

// rollbackIndex removes the rows written for a document whose vectors
// never landed.
func (s *Store) rollbackIndex(ctx context.Context, documentID string) error {
	if err := s.db.WithContext(ctx).Delete(&Chunk{}, "document_id = ?", documentID).Error; err != nil {
		return fmt.Errorf("delete chunk rows: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&Document{}, "id = ?", documentID).Error; err != nil {
		return fmt.Errorf("delete document row: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &doc, err
}

func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]*Document, error) {
	var docs []*Document
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (s *Store) GetChunks(ctx context.Context, documentID string) ([]*Chunk, error) {
	var chunks []*Chunk
	err := s.db.WithContext(ctx).Where("document_id = ?", documentID).
		Order("seq ASC").Find(&chunks).Error
	return chunks, err
}

// Search runs a similarity query scoped to one document and returns
// hits ordered by score descending, ties broken by lower sequence
// index so retrieval stays deterministic.
func (s *Store) Search(ctx context.Context, documentID string, vector []float32, limit int) ([]*ScoredChunk, error) {
	if s.qdrant == nil {
		return nil, errors.New("qdrant client not configured")
	}

	// Over-fetch so equal scores at the cut line can be re-ranked by
	// sequence before trimming to limit.
	results, err := s.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit * 2)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	scores := make(map[string]float64, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.Id == nil {
			continue
		}
		id := r.Id.GetUuid()
		if id == "" {
			continue
		}
		ids = append(ids, id)
		scores[id] = float64(r.Score)
	}
	if len(ids) == 0 {
		return []*ScoredChunk{}, nil
	}

	var chunks []*Chunk
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&chunks).Error; err != nil {
		return nil, err
	}

	hits := make([]*ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		hits = append(hits, &ScoredChunk{Chunk: chunk, Score: scores[chunk.ID]})
	}
	return rankHits(hits, limit), nil
}

// rankHits orders hits by score descending, equal scores by lower
// sequence index, and trims to limit. The tie break keeps retrieval
// deterministic across runs.
func rankHits(hits []*ScoredChunk, limit int) []*ScoredChunk {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Seq < hits[j].Chunk.Seq
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// DeleteDocument removes rows and vectors for one document.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	if s.qdrant != nil {
		_, err := s.qdrant.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.collection,
			Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
				Must: []*qdrant.Condition{
					qdrant.NewMatch("document_id", documentID),
				},
			}),
		})
		if err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Delete(&Chunk{}, "document_id = ?", documentID).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&Document{}, "id = ?", documentID).Error
}

// DeleteBySession clears every index a session ingested.
func (s *Store) DeleteBySession(ctx context.Context, sessionID string) error {
	docs, err := s.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.DeleteDocument(ctx, doc.ID); err != nil {
			return err
		}
	}
	return nil
}
