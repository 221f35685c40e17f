package document

import "time"

// Document is one ingested source. The text itself lives in the chunk
// rows; vectors live in the qdrant collection keyed by chunk id.
type Document struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"index;not null" json:"session_id"`
	Name       string    `gorm:"not null" json:"name"`
	MimeType   string    `json:"mime_type"`
	CharCount  int       `json:"char_count"`
	ChunkCount int       `json:"chunk_count"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chunk is one contiguous span of a document's text. Seq is contiguous
// from 0 and offsets are rune positions into the extracted text, so
// neighbouring chunks overlap by the configured margin.
type Chunk struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	DocumentID  string    `gorm:"index;not null" json:"document_id"`
	Seq         int       `gorm:"not null" json:"seq"`
	Text        string    `gorm:"not null" json:"text"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	CreatedAt   time.Time `json:"created_at"`
}

// Index is a fully built, immutable view of one ingestion: the document
// row plus every chunk in sequence order. Re-ingesting the same source
// produces a new Index with a new document id.
type Index struct {
	Document *Document
	Chunks   []*Chunk
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}
