// Package gemini provides an IntentBackend for the Gemini API. The variant's
// schema is passed as a typed response schema so generation is constrained
// by the API itself.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/schema"
)

const defaultModel = "gemini-2.0-flash"

// contentGenerator is the subset of *genai.Models the backend uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models contentGenerator
	model  string
}

var _ ports.IntentBackend = (*Client)(nil)

// NewClient creates a Gemini API client. An empty model selects a fast
// default.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newClient(client.Models, model), nil
}

func newClient(models contentGenerator, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{models: models, model: model}
}

func (c *Client) Name() string { return "gemini" }

func generateConfig(t domain.IntentType) *genai.GenerateContentConfig {
	s := schema.SchemaFor(t)
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			"You are the Overture music intent engine. "+s.Description(), genai.RoleUser),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema.GeminiSchema(t),
		Temperature:      genai.Ptr[float32](0.2),
	}
}

// Generate requests an intent of variant t.
func (c *Client) Generate(ctx context.Context, message string, t domain.IntentType) (any, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(message), generateConfig(t))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: no candidates returned")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini: empty response")
	}
	intent := jsonv.Decode(text)
	if intent == nil {
		return nil, ports.MalformedOutputError{Backend: c.Name(), Raw: text}
	}
	return intent, nil
}
