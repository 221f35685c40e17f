package dto

type FaceResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	CreatedAt string   `json:"created_at"`
}

type FaceListResponse struct {
	Faces []FaceResponse `json:"faces"`
}

type FaceStatsResponse struct {
	Total int64 `json:"total"`
}

type RegisterFaceRequest struct {
	Name    string   `form:"name" validate:"required"`
	Aliases []string `form:"aliases"`
}
