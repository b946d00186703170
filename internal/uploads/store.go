// Package uploads handles user-provided documents: validation, forwarding
// to the retrieval backend for indexing, and the registry of what each user
// has uploaded.
package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/vantri-labs/ragchat/internal/catalog"
)

// UploadedDocument is one row in the upload registry.
type UploadedDocument struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Filename   string    `db:"filename"`
	MimeType   string    `db:"mime_type"`
	SizeBytes  int64     `db:"size_bytes"`
	DocumentID string    `db:"document_id"`
	PublicURL  string    `db:"public_url"`
	CreatedAt  time.Time `db:"created_at"`
}

// Store persists the upload registry in Postgres.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("uploads: connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Insert records an accepted upload and returns the stored row.
func (s *Store) Insert(ctx context.Context, doc UploadedDocument) (UploadedDocument, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.CreatedAt = time.Now().UTC()

	const q = `
		INSERT INTO uploaded_documents
			(id, user_id, filename, mime_type, size_bytes, document_id, public_url, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.Filename, doc.MimeType,
		doc.SizeBytes, doc.DocumentID, doc.PublicURL, doc.CreatedAt)
	if err != nil {
		return UploadedDocument{}, fmt.Errorf("uploads: insert: %w", err)
	}
	return doc, nil
}

// ListByUser returns the user's uploads, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]UploadedDocument, error) {
	const q = `
		SELECT id, user_id, filename, mime_type, size_bytes, document_id, public_url, created_at
		FROM uploaded_documents
		WHERE user_id = $1
		ORDER BY created_at DESC`
	var docs []UploadedDocument
	if err := s.db.SelectContext(ctx, &docs, q, userID); err != nil {
		return nil, fmt.Errorf("uploads: list: %w", err)
	}
	return docs, nil
}

// ListUploads exposes the registry as catalog entries. Implements the
// catalog service's upload port.
func (s *Store) ListUploads(ctx context.Context, userID string) ([]catalog.Entry, error) {
	docs, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]catalog.Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, catalog.Entry{
			Filename: d.Filename,
			Origin:   catalog.OriginUpload,
			ID:       d.DocumentID,
			URL:      d.PublicURL,
			Metadata: map[string]interface{}{
				"mime_type":  d.MimeType,
				"size_bytes": d.SizeBytes,
			},
		})
	}
	return entries, nil
}
