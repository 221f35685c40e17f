package perception

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// GroqClient drives an OpenAI-compatible chat completions endpoint with
// vision support. Images travel as data URLs inside the message content.
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGroqClient(cfg GroqConfig) *GroqClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	return &GroqClient{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type groqContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *groqImageURL `json:"image_url,omitempty"`
}

type groqImageURL struct {
	URL string `json:"url"`
}

type groqMessage struct {
	Role    string            `json:"role"`
	Content []groqContentPart `json:"content"`
}

type groqRequest struct {
	Model    string        `json:"model"`
	Messages []groqMessage `json:"messages"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *GroqClient) Model() string { return c.model }

func (c *GroqClient) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	if c.apiKey == "" {
		return "", NewError(ErrorUnauthorized, errors.New("api key not configured"))
	}

	content := []groqContentPart{{Type: "text", Text: prompt}}
	if len(image) > 0 {
		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
		content = append(content, groqContentPart{Type: "image_url", ImageURL: &groqImageURL{URL: dataURL}})
	}

	body, err := json.Marshal(groqRequest{
		Model:    c.model,
		Messages: []groqMessage{{Role: "user", Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(ErrorInvalidResponse, fmt.Errorf("read response: %w", err))
	}

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return "", err
	}

	var parsed groqResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewError(ErrorInvalidResponse, fmt.Errorf("parse response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", NewError(ErrorInvalidResponse, errors.New("no choices returned"))
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", NewError(ErrorInvalidResponse, errors.New("empty completion"))
	}
	return text, nil
}
