package rest

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/schema"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/services"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Handler manages the HTTP interface for the intent engine.
type Handler struct {
	interpreter *services.Interpreter
	drift       *services.DriftChecker
	opts        validator.Options
	logger      *zap.Logger
	router      *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes. opts are the
// validation defaults; the strict and normalize query parameters override
// them per request. interpreter and drift may be nil, in which case their
// routes answer 501.
func NewHandler(interpreter *services.Interpreter, drift *services.DriftChecker, opts validator.Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		interpreter: interpreter,
		drift:       drift,
		opts:        opts,
		logger:      logger,
		router:      http.NewServeMux(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)

	// Validation and comparison
	h.router.HandleFunc("POST /intents/validate", h.ValidateIntent)
	h.router.HandleFunc("POST /intents/validate/batch", h.ValidateBatch)
	h.router.HandleFunc("POST /intents/compare", h.CompareIntents)
	h.router.HandleFunc("GET /schemas/{type}", h.GetSchema)

	// Backends
	h.router.HandleFunc("POST /intents/interpret", h.InterpretIntent)
	h.router.HandleFunc("POST /drift/check", h.CheckDrift)
	h.router.HandleFunc("GET /drift/reports", h.ListDriftReports)
	h.router.HandleFunc("GET /drift/reports/{id}", h.GetDriftReport)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Overture intent engine is live 🎶"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func isJSONContentType(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// decodeBody reads a JSON body into v. It writes the error response itself
// and reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps core errors onto status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ports.ErrUnknownBackend), errors.Is(err, domain.ErrDuplicateBackend),
		errors.Is(err, schema.ErrUnknownEncoding):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
