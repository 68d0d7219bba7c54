// Package openai provides an IntentBackend for the Chat Completions API using
// structured outputs: the variant's strict JSON Schema is sent as
// response_format so the provider constrains generation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/schema"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Doer sends HTTP requests. *http.Client and *httpretry.Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient Doer
}

var _ ports.IntentBackend = (*Client)(nil)

// NewClient constructs a Client. Empty baseURL and model select the public
// API and a small default model.
func NewClient(apiKey, baseURL, model string, doer Doer) *Client {
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
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: doer,
	}
}

func (c *Client) Name() string { return "openai" }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

func buildRequest(model, message string, t domain.IntentType) chatRequest {
	s := schema.SchemaFor(t)
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are the Overture music intent engine. " + s.Description()},
			{Role: "user", Content: message},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   s.Name(),
				Strict: true,
				Schema: schema.StrictJSONSchema(t),
			},
		},
		Temperature: 0.2,
	}
}

// Generate requests an intent of variant t constrained by its strict schema.
func (c *Client) Generate(ctx context.Context, message string, t domain.IntentType) (any, error) {
	bodyBytes, err := json.Marshal(buildRequest(c.model, message, t))
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("openai: unexpected status %d: %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	msg := chatResp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("openai: model refused: %s", msg.Refusal)
	}
	intent := jsonv.Decode(msg.Content)
	if intent == nil {
		return nil, ports.MalformedOutputError{Backend: c.Name(), Raw: msg.Content}
	}
	return intent, nil
}
