package uploads

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/metrics"
	"github.com/vantri-labs/ragchat/internal/retrieval"
	"github.com/vantri-labs/ragchat/internal/util"
)

// MaxUploadBytes caps decoded upload size at 10 MiB.
const MaxUploadBytes = 10 << 20

// AllowedMimeTypes is the ingestion whitelist. The backend's parsers cover
// these; anything else fails indexing downstream anyway.
var AllowedMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"text/markdown",
}

// Validation errors, surfaced to the client as 400s.
var (
	ErrEmptyFile       = errors.New("uploads: file is empty")
	ErrFileTooLarge    = fmt.Errorf("uploads: file exceeds %d bytes", MaxUploadBytes)
	ErrUnsupportedType = errors.New("uploads: unsupported file type")
	ErrInvalidEncoding = errors.New("uploads: content is not valid base64")
)

// Indexer forwards documents to the retrieval backend.
type Indexer interface {
	UploadDocument(ctx context.Context, filename, mimeType string, content []byte) (*retrieval.UploadResult, error)
}

// Service validates uploads, sends them for indexing, and records them in
// the registry.
type Service struct {
	store   *Store
	indexer Indexer
	baseURL string
	logger  *zap.Logger
}

func NewService(store *Store, indexer Indexer, publicBaseURL string, logger *zap.Logger) *Service {
	return &Service{store: store, indexer: indexer, baseURL: publicBaseURL, logger: logger}
}

// Upload accepts a base64-encoded document, validates it, forwards it for
// indexing, and registers it. The registry row is written only after the
// backend accepts the document; a failed indexing attempt leaves no
// phantom catalog entry.
func (s *Service) Upload(ctx context.Context, userID, filename, mimeType, contentB64 string) (UploadedDocument, error) {
	content, err := base64.StdEncoding.DecodeString(contentB64)
	if err != nil {
		metrics.DocumentsUploaded.WithLabelValues("invalid").Inc()
		return UploadedDocument{}, ErrInvalidEncoding
	}
	if err := Validate(filename, mimeType, int64(len(content))); err != nil {
		metrics.DocumentsUploaded.WithLabelValues("invalid").Inc()
		return UploadedDocument{}, err
	}

	result, err := s.indexer.UploadDocument(ctx, filename, mimeType, content)
	if err != nil {
		metrics.DocumentsUploaded.WithLabelValues("error").Inc()
		return UploadedDocument{}, fmt.Errorf("uploads: index document: %w", err)
	}

	doc, err := s.store.Insert(ctx, UploadedDocument{
		UserID:     userID,
		Filename:   filename,
		MimeType:   mimeType,
		SizeBytes:  int64(len(content)),
		DocumentID: result.DocumentID,
		PublicURL:  s.publicURL(result.DocumentID),
	})
	if err != nil {
		s.logger.Error("Upload indexed but not registered",
			zap.String("user_id", userID),
			zap.String("document_id", result.DocumentID),
			zap.Error(err))
		metrics.DocumentsUploaded.WithLabelValues("error").Inc()
		return UploadedDocument{}, err
	}

	metrics.DocumentsUploaded.WithLabelValues("success").Inc()
	s.logger.Info("Document uploaded",
		zap.String("user_id", userID),
		zap.String("filename", filename),
		zap.Int("size_bytes", len(content)))
	return doc, nil
}

// Validate checks an upload against the whitelist and size cap.
func Validate(filename, mimeType string, size int64) error {
	if filename == "" || size == 0 {
		return ErrEmptyFile
	}
	if size > MaxUploadBytes {
		return ErrFileTooLarge
	}
	if !util.ContainsString(AllowedMimeTypes, mimeType) {
		return ErrUnsupportedType
	}
	return nil
}

func (s *Service) publicURL(documentID string) string {
	if s.baseURL == "" || documentID == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/v1/documents/%s", s.baseURL, documentID)
}
