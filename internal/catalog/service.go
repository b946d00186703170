package catalog

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/metrics"
)

// BackendLister lists documents known to the retrieval backend.
type BackendLister interface {
	ListDocuments(ctx context.Context) ([]Entry, error)
}

// UploadLister lists the user's uploaded documents.
type UploadLister interface {
	ListUploads(ctx context.Context, userID string) ([]Entry, error)
}

// DriveLister lists files from a connected storage provider. Connected
// reports whether the user has linked an account; when false the provider is
// skipped and left out of the cache source tag.
type DriveLister interface {
	Connected(ctx context.Context, userID string) bool
	ListFiles(ctx context.Context, userID string) ([]Entry, error)
}

// Service assembles the per-user document catalog from all connected
// sources, with a short-lived cached snapshot in front.
type Service struct {
	backend BackendLister
	uploads UploadLister
	drive   DriveLister // optional
	cache   *Cache
	logger  *zap.Logger
}

func NewService(backend BackendLister, uploads UploadLister, drive DriveLister, cache *Cache, logger *zap.Logger) *Service {
	return &Service{
		backend: backend,
		uploads: uploads,
		drive:   drive,
		cache:   cache,
		logger:  logger,
	}
}

// List returns the merged catalog for the user, serving from cache when the
// snapshot is fresh and was built from the same set of connected sources.
// Individual source failures are logged and tolerated; the catalog is best
// effort and a partial listing beats an error page.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, Facets, error) {
	tag := s.sourceTag(ctx, userID)

	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx, userID, tag); ok {
			return entries, BuildFacets(entries), nil
		}
	}

	entries := s.fetchAll(ctx, userID, tag)

	if s.cache != nil {
		s.cache.Put(ctx, userID, tag, entries)
	}
	metrics.CatalogDocuments.Set(float64(len(entries)))

	return entries, BuildFacets(entries), nil
}

// Invalidate drops the user's cached snapshot. Called after uploads so the
// new document shows up immediately.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}

func (s *Service) fetchAll(ctx context.Context, userID, tag string) []Entry {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		uploaded []Entry
		backend  []Entry
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		list, err := s.uploads.ListUploads(ctx, userID)
		if err != nil {
			s.logger.Warn("Upload listing failed",
				zap.String("user_id", userID),
				zap.Error(err))
			return
		}
		mu.Lock()
		uploaded = list
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		list, err := s.backend.ListDocuments(ctx)
		if err != nil {
			s.logger.Warn("Backend document listing failed",
				zap.String("user_id", userID),
				zap.Error(err))
			return
		}
		mu.Lock()
		backend = list
		mu.Unlock()
	}()

	if s.drive != nil && strings.Contains(tag, "drive") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			files, err := s.drive.ListFiles(ctx, userID)
			if err != nil {
				s.logger.Warn("Storage provider listing failed",
					zap.String("user_id", userID),
					zap.Error(err))
				metrics.DriveRequests.WithLabelValues("list", "error").Inc()
				return
			}
			metrics.DriveRequests.WithLabelValues("list", "success").Inc()
			mu.Lock()
			backend = append(backend, files...)
			mu.Unlock()
		}()
	}

	wg.Wait()

	return Merge(uploaded, backend)
}

// sourceTag names the sources a snapshot is built from. Connecting or
// disconnecting a provider changes the tag and bypasses the cached snapshot.
func (s *Service) sourceTag(ctx context.Context, userID string) string {
	parts := []string{"backend", "uploads"}
	if s.drive != nil && s.drive.Connected(ctx, userID) {
		parts = append(parts, "drive")
	}
	return strings.Join(parts, "+")
}
