package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/compare"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/services"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
)

// options applies the strict and normalize query parameters over the
// handler defaults.
func (h *Handler) options(r *http.Request) (validator.Options, error) {
	opts := h.opts
	q := r.URL.Query()
	if s := q.Get("strict"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return opts, errors.New("strict must be a boolean")
		}
		opts.Strict = v
	}
	if s := q.Get("normalize"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return opts, errors.New("normalize must be a boolean")
		}
		opts.Normalize = v
	}
	return opts, nil
}

// ValidateIntent handles POST /intents/validate. The body is the intent
// itself; an invalid intent is still a 200 with isValid false.
func (h *Handler) ValidateIntent(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 1. Decode Request
	var raw any
	if !decodeBody(w, r, &raw) {
		return
	}

	// 2. Validate
	writeJSON(w, http.StatusOK, validator.Validate(raw, opts))
}

type validateBatchResponse struct {
	Results []validator.Result `json:"results"`
	Valid   int                `json:"valid"`
	Invalid int                `json:"invalid"`
}

// ValidateBatch handles POST /intents/validate/batch. The body is a JSON
// array of intents; results keep the input order.
func (h *Handler) ValidateBatch(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 1. Decode Request
	var raws []any
	if !decodeBody(w, r, &raws) {
		return
	}

	// 2. Validate each element
	resp := validateBatchResponse{Results: validator.ValidateMany(raws, opts)}
	for _, res := range resp.Results {
		if res.IsValid {
			resp.Valid++
		} else {
			resp.Invalid++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type compareRequest struct {
	A any `json:"a"`
	B any `json:"b"`
}

// CompareIntents handles POST /intents/compare.
func (h *Handler) CompareIntents(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, compare.Compare(req.A, req.B))
}

type interpretRequest struct {
	Backend    string            `json:"backend"`
	Message    string            `json:"message"`
	IntentType domain.IntentType `json:"intent_type"`
}

// InterpretIntent handles POST /intents/interpret. A backend answer that
// fails validation is a 422 carrying the validation result.
func (h *Handler) InterpretIntent(w http.ResponseWriter, r *http.Request) {
	if h.interpreter == nil {
		writeError(w, http.StatusNotImplemented, "no intent backends configured")
		return
	}

	// 1. Decode Request
	var req interpretRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// 2. Validate Input
	if req.Backend == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "backend and message are required")
		return
	}
	if req.IntentType == "" {
		req.IntentType = domain.DefaultIntentType
	}

	// 3. Call the Service
	res, err := h.interpreter.Interpret(r.Context(), req.Backend, req.Message, req.IntentType)
	if errors.Is(err, services.ErrInvalidIntent) {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
