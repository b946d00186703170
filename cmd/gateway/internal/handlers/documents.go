package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/catalog"
	"github.com/vantri-labs/ragchat/cmd/gateway/internal/middleware"
)

// CatalogLister assembles the per-user document catalog.
type CatalogLister interface {
	List(ctx context.Context, userID string) ([]catalog.Entry, catalog.Facets, error)
}

// DocumentsResponse is the catalog listing payload.
type DocumentsResponse struct {
	Documents []catalog.Entry `json:"documents"`
	Facets    catalog.Facets  `json:"facets"`
	Total     int             `json:"total"`
}

// DocumentsHandler serves the filterable document catalog.
type DocumentsHandler struct {
	catalog CatalogLister
	logger  *zap.Logger
}

func NewDocumentsHandler(cat CatalogLister, logger *zap.Logger) *DocumentsHandler {
	return &DocumentsHandler{catalog: cat, logger: logger}
}

// HandleList handles GET /api/v1/documents. The optional source query
// parameter narrows the listing to one origin.
func (h *DocumentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	entries, facets, err := h.catalog.List(r.Context(), userCtx.UserID.String())
	if err != nil {
		h.logger.Error("Catalog listing failed",
			zap.String("user_id", userCtx.UserID.String()),
			zap.Error(err))
		writeError(w, http.StatusBadGateway, "Document catalog is unavailable")
		return
	}

	if origin := r.URL.Query().Get("source"); origin != "" {
		filtered := make([]catalog.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Origin == origin {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	writeJSON(w, http.StatusOK, DocumentsResponse{
		Documents: entries,
		Facets:    facets,
		Total:     len(entries),
	})
}
