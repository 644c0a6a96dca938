package runs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/scorely/scorely/pkg/handlers"
	"github.com/scorely/scorely/pkg/routes"
)

// Handler provides HTTP endpoints for run operations.
type Handler struct {
	sys     System
	logger  *slog.Logger
	maxBody int64
}

// NewHandler creates a Handler with the given system, logger, and request
// body limit.
func NewHandler(sys System, logger *slog.Logger, maxBody int64) *Handler {
	return &Handler{
		sys:     sys,
		logger:  logger.With("handler", "runs"),
		maxBody: maxBody,
	}
}

// Routes returns the route group definition for run endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/runs",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/{id}/retry", Handler: h.Retry},
			{Method: "GET", Pattern: "/{id}/report", Handler: h.Report},
		},
	}
}

// Create validates the submitted profile and starts a run, responding 202
// with the placeholder run id.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var submission Submission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid request body: %w", err))
		return
	}

	receipt, err := h.sys.Submit(r.Context(), &submission.Profile)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, receipt)
}

// Find returns the assembled run view for a run or task id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	run, err := h.sys.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}

// Retry resumes a failed run at its first incomplete step.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.sys.Retry(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, receipt)
}

// Report streams the plain-text score report as an attachment.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report, name, err := h.sys.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(report)
}
