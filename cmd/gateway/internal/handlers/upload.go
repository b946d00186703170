package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/cmd/gateway/internal/middleware"
	"github.com/vantri-labs/ragchat/internal/uploads"
)

// Uploader accepts a validated document for indexing.
type Uploader interface {
	Upload(ctx context.Context, userID, filename, mimeType, contentB64 string) (uploads.UploadedDocument, error)
}

// CatalogInvalidator drops a user's cached catalog snapshot.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// UploadRequest carries one base64-encoded document.
type UploadRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Content  string `json:"content"`
}

// UploadResponse reports the accepted upload.
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	URL        string `json:"url,omitempty"`
}

// UploadHandler handles document uploads.
type UploadHandler struct {
	uploader    Uploader
	invalidator CatalogInvalidator
	logger      *zap.Logger
}

func NewUploadHandler(uploader Uploader, invalidator CatalogInvalidator, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploader: uploader, invalidator: invalidator, logger: logger}
}

// HandleUpload handles POST /api/v1/documents/upload.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.uploader.Upload(r.Context(), userCtx.UserID.String(), req.Filename, req.MimeType, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrEmptyFile),
			errors.Is(err, uploads.ErrFileTooLarge),
			errors.Is(err, uploads.ErrUnsupportedType),
			errors.Is(err, uploads.ErrInvalidEncoding):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Upload failed",
				zap.String("user_id", userCtx.UserID.String()),
				zap.String("filename", req.Filename),
				zap.Error(err))
			writeError(w, http.StatusBadGateway, "Document could not be indexed")
		}
		return
	}

	// The new document must show up in the next catalog read.
	if h.invalidator != nil {
		h.invalidator.Invalidate(r.Context(), userCtx.UserID.String())
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		DocumentID: doc.DocumentID,
		Filename:   doc.Filename,
		URL:        doc.PublicURL,
	})
}
