package drive

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/vantri-labs/ragchat/internal/catalog"
)

const (
	mimeFolder = "application/vnd.google-apps.folder"

	listPageSize = 100
	listFields   = "files(id, name, mimeType, webViewLink, createdTime)"
)

// Lister lists a connected user's Drive files as catalog entries. It
// implements the catalog service's storage provider port.
type Lister struct {
	oauth  OAuthConfig
	tokens *TokenStore
	logger *zap.Logger

	// newService is swapped in tests to avoid real Google credentials.
	newService func(ctx context.Context, ts oauth2.TokenSource) (*driveapi.Service, error)
}

func NewLister(oauth OAuthConfig, tokens *TokenStore, logger *zap.Logger) *Lister {
	return &Lister{
		oauth:  oauth,
		tokens: tokens,
		logger: logger,
		newService: func(ctx context.Context, ts oauth2.TokenSource) (*driveapi.Service, error) {
			return driveapi.NewService(ctx, option.WithTokenSource(ts))
		},
	}
}

// Connected reports whether the user has a stored token.
func (l *Lister) Connected(ctx context.Context, userID string) bool {
	_, found, err := l.tokens.Load(ctx, userID)
	if err != nil {
		l.logger.Warn("Drive token lookup failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return false
	}
	return found
}

// Connect completes the OAuth flow for the user: exchange the code and
// persist the token.
func (l *Lister) Connect(ctx context.Context, userID, code string) error {
	tok, err := l.oauth.Exchange(ctx, code)
	if err != nil {
		return err
	}
	return l.tokens.Save(ctx, userID, tok)
}

// Disconnect forgets the user's token.
func (l *Lister) Disconnect(ctx context.Context, userID string) error {
	return l.tokens.Delete(ctx, userID)
}

// ListFiles returns the user's Drive files as catalog entries. Folders are
// filtered out server side. The token source refreshes expired access
// tokens transparently; the refreshed token is re-persisted so the next
// listing does not pay the refresh round trip again.
func (l *Lister) ListFiles(ctx context.Context, userID string) ([]catalog.Entry, error) {
	tok, found, err := l.tokens.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("drive: user %s has no stored token", userID)
	}

	ts := l.oauth.oauth2Config().TokenSource(ctx, tok)
	svc, err := l.newService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("drive: build service: %w", err)
	}

	var entries []catalog.Entry
	call := svc.Files.List().
		PageSize(listPageSize).
		Q(fmt.Sprintf("mimeType != '%s' and trashed = false", mimeFolder)).
		Fields("nextPageToken", listFields)

	err = call.Pages(ctx, func(page *driveapi.FileList) error {
		for _, f := range page.Files {
			entries = append(entries, catalog.Entry{
				Filename: f.Name,
				Origin:   catalog.OriginDrive,
				ID:       f.Id,
				URL:      f.WebViewLink,
				Metadata: map[string]interface{}{
					"mime_type":    f.MimeType,
					"created_time": f.CreatedTime,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drive: list files: %w", err)
	}

	if fresh, err := ts.Token(); err == nil && fresh.AccessToken != tok.AccessToken {
		if err := l.tokens.Save(ctx, userID, fresh); err != nil {
			l.logger.Warn("Refreshed Drive token not persisted",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	return entries, nil
}
