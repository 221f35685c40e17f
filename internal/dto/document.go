package dto

type DocumentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"mime_type"`
	ChunkCount int    `json:"chunk_count"`
	CharCount  int    `json:"char_count"`
	CreatedAt  string `json:"created_at"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

type AskResponse struct {
	Answer   string   `json:"answer"`
	ChunkIDs []string `json:"chunk_ids"`
}
