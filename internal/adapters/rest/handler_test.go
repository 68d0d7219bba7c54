package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/fixtures"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/services"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
)

// --- Mocks ---

// The Handler depends on concrete services, so the tests build real services
// on top of mock backends and a mock repository.

type mockBackend struct {
	name string
	out  any
	err  error
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Generate(ctx context.Context, message string, t domain.IntentType) (any, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.out, nil
}

type mockRepo struct {
	mu      sync.Mutex
	reports []domain.DriftReport
	listErr error
}

func (m *mockRepo) Save(ctx context.Context, r domain.DriftReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (domain.DriftReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.DriftReport{}, domain.ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, limit int) ([]domain.DriftReport, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DriftReport(nil), m.reports...), nil
}

func newTestHandler(repo ports.DriftRepository, backends ...ports.IntentBackend) *Handler {
	reg := ports.NewRegistry(backends...)
	interp := services.NewInterpreter(reg, validator.Options{Normalize: true}, zap.NewNop())
	drift := services.NewDriftChecker(reg, repo, false, zap.NewNop())
	return NewHandler(interp, drift, validator.Options{}, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHandler_HealthCheck(t *testing.T) {
	h := newTestHandler(nil)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandler_ValidateIntent(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		body           any
		noContentType  bool
		expectedStatus int
		expectedBody   []string
	}{
		{
			name:           "Success: valid command",
			target:         "/intents/validate",
			body:           fixtures.BuildFixture(nil),
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"isValid":true`, `"intentType":"music_command"`},
		},
		{
			name:           "Invalid intent is still 200",
			target:         "/intents/validate",
			body:           fixtures.BuildFixture(map[string]any{"confidence": 1.5}),
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"isValid":false`, `"code":"out_of_range"`},
		},
		{
			name:           "Null body",
			target:         "/intents/validate",
			body:           "null",
			expectedStatus: http.StatusOK,
			expectedBody:   []string{"Intent is null or undefined"},
		},
		{
			name:           "Strict query promotes warnings",
			target:         "/intents/validate?strict=true",
			body:           fixtures.BuildFixture(map[string]any{"intent": "set_volume"}),
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"isValid":false`, `"code":"missing_companion"`},
		},
		{
			name:           "Normalize query returns canonical copy",
			target:         "/intents/validate?normalize=1",
			body:           fixtures.BuildFixture(nil),
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"normalizedIntent"`, `"alternatives":[]`},
		},
		{
			name:           "Bad Request: malformed strict",
			target:         "/intents/validate?strict=maybe",
			body:           fixtures.BuildFixture(nil),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"strict must be a boolean"},
		},
		{
			name:           "Bad Request: body is not JSON",
			target:         "/intents/validate",
			body:           "{not json",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"Invalid request body"},
		},
		{
			name:           "Unsupported media type",
			target:         "/intents/validate",
			body:           fixtures.BuildFixture(nil),
			noContentType:  true,
			expectedStatus: http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(nil)

			var rec *httptest.ResponseRecorder
			if tt.noContentType {
				raw, _ := json.Marshal(tt.body)
				req := httptest.NewRequest(http.MethodPost, tt.target, bytes.NewReader(raw))
				rec = httptest.NewRecorder()
				h.ServeHTTP(rec, req)
			} else {
				rec = doJSON(t, h, http.MethodPost, tt.target, tt.body)
			}

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			for _, want := range tt.expectedBody {
				if !strings.Contains(rec.Body.String(), want) {
					t.Errorf("expected body to contain %q, got %q", want, rec.Body.String())
				}
			}
		})
	}
}

func TestHandler_ValidateBatch(t *testing.T) {
	h := newTestHandler(nil)

	t.Run("Mixed batch keeps order", func(t *testing.T) {
		body := []any{fixtures.BuildFixture(nil), map[string]any{}, fixtures.BuildErrorResponse(nil)}
		rec := doJSON(t, h, http.MethodPost, "/intents/validate/batch", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp validateBatchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 3)
		assert.Equal(t, 2, resp.Valid)
		assert.Equal(t, 1, resp.Invalid)
		assert.True(t, resp.Results[0].IsValid)
		assert.False(t, resp.Results[1].IsValid)
		assert.Equal(t, domain.IntentErrorResponse, resp.Results[2].IntentType)
	})

	t.Run("Body must be an array", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/intents/validate/batch", fixtures.BuildFixture(nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_CompareIntents(t *testing.T) {
	h := newTestHandler(nil)

	t.Run("Equal intents", func(t *testing.T) {
		a := fixtures.BuildFixture(nil)
		rec := doJSON(t, h, http.MethodPost, "/intents/compare", map[string]any{"a": a, "b": a})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"isEqual":true`)
		assert.Contains(t, rec.Body.String(), `"differences":[]`)
	})

	t.Run("Differing confidence", func(t *testing.T) {
		a := fixtures.BuildFixture(nil)
		b := fixtures.BuildFixture(map[string]any{"confidence": 0.9})
		rec := doJSON(t, h, http.MethodPost, "/intents/compare", map[string]any{"a": a, "b": b})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"isEqual":false`)
		assert.Contains(t, rec.Body.String(), `"path":"confidence"`)
		assert.Contains(t, rec.Body.String(), `"kind":"value_mismatch"`)
	})
}

func TestHandler_GetSchema(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedBody   []string
	}{
		{
			name:           "Default format is json_schema",
			target:         "/schemas/batch_command",
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"name":"BatchCommand"`, `"format":"json_schema"`, `"executionOrder"`},
		},
		{
			name:           "Prompt format",
			target:         "/schemas/error_response?format=prompt",
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"format":"prompt"`, `"name":"ErrorResponse"`},
		},
		{
			name:           "Gemini format",
			target:         "/schemas/search_enhancement?format=gemini",
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"format":"gemini"`, `"originalQuery"`},
		},
		{
			name:           "Unknown type falls back to music_command",
			target:         "/schemas/lyrics",
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"type":"music_command"`},
		},
		{
			name:           "Unknown format",
			target:         "/schemas/music_command?format=xml",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"unknown encoding"},
		},
	}

	h := newTestHandler(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodGet, tt.target, nil)
			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			for _, want := range tt.expectedBody {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestHandler_InterpretIntent(t *testing.T) {
	tests := []struct {
		name           string
		backend        *mockBackend
		body           map[string]any
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success",
			backend:        &mockBackend{name: "ollama", out: fixtures.BuildFixture(nil)},
			body:           map[string]any{"backend": "ollama", "message": "play something"},
			expectedStatus: http.StatusOK,
			expectedBody:   `"isValid":true`,
		},
		{
			name:           "Unprocessable: backend produced an invalid intent",
			backend:        &mockBackend{name: "ollama", out: map[string]any{"intent": "dance"}},
			body:           map[string]any{"backend": "ollama", "message": "play something"},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"isValid":false`,
		},
		{
			name:           "Unprocessable: malformed output",
			backend:        &mockBackend{name: "ollama", err: ports.MalformedOutputError{Backend: "ollama", Raw: "sure thing"}},
			body:           map[string]any{"backend": "ollama", "message": "play something"},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "Intent is null or undefined",
		},
		{
			name:           "Bad Request: unknown backend",
			backend:        &mockBackend{name: "ollama"},
			body:           map[string]any{"backend": "openai", "message": "play something"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "unknown backend",
		},
		{
			name:           "Bad Request: missing message",
			backend:        &mockBackend{name: "ollama"},
			body:           map[string]any{"backend": "ollama"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "backend and message are required",
		},
		{
			name:           "Service Error: transport failure",
			backend:        &mockBackend{name: "ollama", err: errors.New("connection refused")},
			body:           map[string]any{"backend": "ollama", "message": "play something"},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(nil, tt.backend)
			rec := doJSON(t, h, http.MethodPost, "/intents/interpret", tt.body)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_NotConfigured(t *testing.T) {
	h := NewHandler(nil, nil, validator.Options{}, nil)

	rec := doJSON(t, h, http.MethodPost, "/intents/interpret", map[string]any{"backend": "ollama", "message": "hi"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/drift/check", map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/drift/reports", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandler_Drift(t *testing.T) {
	repo := &mockRepo{}
	h := newTestHandler(repo,
		&mockBackend{name: "gemini", out: fixtures.BuildFixture(nil)},
		&mockBackend{name: "ollama", out: fixtures.BuildFixture(map[string]any{"confidence": 0.6})},
	)

	// 1. Run a check
	rec := doJSON(t, h, http.MethodPost, "/drift/check", map[string]any{
		"message":  "play something",
		"backends": []string{"gemini", "ollama"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created driftReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Drifted)
	assert.Equal(t, "gemini", created.Baseline)
	assert.Equal(t, domain.IntentMusicCommand, created.IntentType)
	require.Len(t, created.Entries, 2)
	require.Len(t, created.Entries[1].Differences, 1)
	assert.Equal(t, "confidence", created.Entries[1].Differences[0].Path)
	assert.Equal(t, "/drift/reports/"+created.ID, rec.Header().Get("Location"))

	// 2. Fetch it back
	rec = doJSON(t, h, http.MethodGet, "/drift/reports/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"drifted":true`)

	// 3. List
	rec = doJSON(t, h, http.MethodGet, "/drift/reports?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []driftReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	// 4. Errors
	rec = doJSON(t, h, http.MethodGet, "/drift/reports/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/drift/reports?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/drift/check", map[string]any{"message": "hi", "backends": []string{"openai"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/drift/check", map[string]any{"message": "hi", "backends": []string{"gemini", "gemini"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "gemini")

	rec = doJSON(t, h, http.MethodPost, "/drift/check", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/drift/reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1, "rejected checks must not be stored")
}

func TestHandler_ListDriftReports_Error(t *testing.T) {
	h := newTestHandler(&mockRepo{listErr: errors.New("disk full")})

	rec := doJSON(t, h, http.MethodGet, "/drift/reports", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk full")
}
