package gemini

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name       string
		resp       *genai.GenerateContentResponse
		err        error
		wantErr    error
		wantAnyErr bool
	}{
		{
			name: "Valid JSON",
			resp: textResponse(`{"intent":"skip","confidence":0.97,"reasoning":"user said next song"}`),
		},
		{
			name:    "Malformed",
			resp:    textResponse("skip it"),
			wantErr: ports.ErrMalformedOutput,
		},
		{
			name:       "No candidates",
			resp:       &genai.GenerateContentResponse{},
			wantAnyErr: true,
		},
		{
			name:       "API error",
			err:        errors.New("quota exceeded"),
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeModels{resp: tt.resp, err: tt.err}
			client := newClient(fake, "")

			out, err := client.Generate(context.Background(), "next song", domain.IntentMusicCommand)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.wantAnyErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, defaultModel, fake.model)
			require.NotNil(t, fake.config)
			assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
			require.NotNil(t, fake.config.ResponseSchema)
			assert.Equal(t, genai.TypeObject, fake.config.ResponseSchema.Type)
			assert.Contains(t, fake.config.ResponseSchema.Required, "intent")

			res := validator.Validate(out, validator.Options{Strict: true})
			assert.True(t, res.IsValid, "errors: %v", res.Errors)
		})
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	assert.Error(t, err)
}

// TestClient_Generate_Integration is skipped unless RUN_AI_TESTS=true and
// GEMINI_API_KEY are set.
func TestClient_Generate_Integration(t *testing.T) {
	if os.Getenv("RUN_AI_TESTS") != "true" || os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("Skipping AI-dependent test (set RUN_AI_TESTS=true and GEMINI_API_KEY to enable)")
	}
	client, err := NewClient(context.Background(), os.Getenv("GEMINI_API_KEY"), "")
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "put on something by Nina Simone", domain.IntentMusicCommand)
	require.NoError(t, err)
	res := validator.Validate(out, validator.Options{Normalize: true})
	t.Logf("Result: %+v", res)
	assert.Equal(t, domain.IntentMusicCommand, res.IntentType)
}

// --- Mocks ---

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}
