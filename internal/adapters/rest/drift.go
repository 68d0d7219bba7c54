package rest

import (
	"net/http"
	"strconv"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
)

type driftCheckRequest struct {
	Message    string            `json:"message"`
	IntentType domain.IntentType `json:"intent_type"`
	Backends   []string          `json:"backends"`
}

type driftReportResponse struct {
	domain.DriftReport
	Drifted bool `json:"drifted"`
}

func toDriftResponse(r domain.DriftReport) driftReportResponse {
	return driftReportResponse{DriftReport: r, Drifted: r.Drifted()}
}

// CheckDrift handles POST /drift/check.
func (h *Handler) CheckDrift(w http.ResponseWriter, r *http.Request) {
	if h.drift == nil {
		writeError(w, http.StatusNotImplemented, "drift checking not configured")
		return
	}

	// 1. Decode Request
	var req driftCheckRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// 2. Validate Input
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.IntentType == "" {
		req.IntentType = domain.DefaultIntentType
	}

	// 3. Call the Service
	report, err := h.drift.Check(r.Context(), req.Message, req.IntentType, req.Backends)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/drift/reports/"+report.ID)
	writeJSON(w, http.StatusCreated, toDriftResponse(report))
}

// ListDriftReports handles GET /drift/reports?limit=.
func (h *Handler) ListDriftReports(w http.ResponseWriter, r *http.Request) {
	if h.drift == nil {
		writeError(w, http.StatusNotImplemented, "drift checking not configured")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	reports, err := h.drift.Reports(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]driftReportResponse, len(reports))
	for i, rep := range reports {
		out[i] = toDriftResponse(rep)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDriftReport handles GET /drift/reports/{id}.
func (h *Handler) GetDriftReport(w http.ResponseWriter, r *http.Request) {
	if h.drift == nil {
		writeError(w, http.StatusNotImplemented, "drift checking not configured")
		return
	}

	report, err := h.drift.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDriftResponse(report))
}
