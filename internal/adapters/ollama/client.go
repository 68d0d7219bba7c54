// Package ollama provides an IntentBackend for a local Ollama instance.
// Ollama has no schema enforcement, so the variant's instructions and a
// canonical example are placed in the system prompt and the reply is
// constrained only to "some JSON".
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/schema"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.1:8b"
)

const systemPreamble = "You are the Overture music intent engine. Translate the user's request into exactly one JSON object.\nNever add conversational text around the JSON.\n\n"

// Doer sends HTTP requests. *http.Client and *httpretry.Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	model      string
	httpClient Doer
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

var _ ports.IntentBackend = (*Client)(nil)

// NewClient constructs a Client. Empty baseURL and model select the local
// defaults; a nil doer selects http.DefaultClient.
func NewClient(baseURL, model string, doer Doer) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: doer,
	}
}

func (c *Client) Name() string { return "ollama" }

func systemPrompt(t domain.IntentType) string {
	return systemPreamble + schema.InstructionsFor(t)
}

// Generate asks the model for an intent of variant t. A reply that is not
// JSON returns a ports.MalformedOutputError.
func (c *Client) Generate(ctx context.Context, message string, t domain.IntentType) (any, error) {
	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(t)},
			{Role: "user", Content: message},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("ollama: %s", parsed.Error)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return nil, fmt.Errorf("ollama: empty response")
	}

	intent := jsonv.Decode(content)
	if intent == nil {
		return nil, ports.MalformedOutputError{Backend: c.Name(), Raw: content}
	}
	return intent, nil
}
