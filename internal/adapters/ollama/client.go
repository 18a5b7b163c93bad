// Package ollama implements ports.LanguageModel against a local Ollama server.
// The prompt is sent to /api/chat in JSON mode without streaming.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/metrics"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3"
	upstreamName   = "ollama"

	// Sampling matches the hosted providers.
	temperature = 0.7
	numPredict  = 500

	maxResponseBytes = 1 << 20
)

const systemPrompt = "You recommend background music for reading. Reply with ONLY a valid JSON object and no conversational text."

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ports.LanguageModel = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  modelOptions  `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewClient targets the server at baseURL (default localhost:11434) and
// uses model (default llama3).
func NewClient(baseURL, model string) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	return c
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:  c.model,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Options: modelOptions{Temperature: temperature, NumPredict: numPredict},
	})
	if err != nil {
		return "", fmt.Errorf("ollama adapter: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama adapter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(upstreamName, 0, start)
		return "", fmt.Errorf("ollama adapter: request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(upstreamName, resp.StatusCode, start)

	var parsed chatResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed)

	switch {
	case parsed.Error != "":
		return "", fmt.Errorf("ollama adapter: status %d: %s", resp.StatusCode, parsed.Error)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("ollama adapter: unexpected status %d", resp.StatusCode)
	case decodeErr != nil:
		return "", fmt.Errorf("ollama adapter: decode response: %w", decodeErr)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", fmt.Errorf("ollama adapter: empty response from %s", c.model)
	}
	return content, nil
}
