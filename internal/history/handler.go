package history

import (
	"log/slog"
	"net/http"

	"github.com/scorely/scorely/pkg/handlers"
	"github.com/scorely/scorely/pkg/pagination"
	"github.com/scorely/scorely/pkg/routes"
)

// Handler provides HTTP endpoints for the history ledger.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "history"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for history endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/history",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{taskId}", Handler: h.Find},
		},
	}
}

// List returns a paginated ledger, newest entries first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns the entry recorded for a task id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	entry, err := h.sys.Find(r.Context(), r.PathValue("taskId"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, entry)
}
