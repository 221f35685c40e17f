package dto

type SessionResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type UtteranceRequest struct {
	Text string `json:"text" validate:"required"`
}

type UtteranceResponse struct {
	Reply  string `json:"reply"`
	Intent string `json:"intent"`
	Topic  string `json:"topic,omitempty"`
}
