// Package drive connects a user's Google Drive as a read-only document
// source: the OAuth consent flow, token storage, and file listing.
package drive

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/vantri-labs/ragchat/internal/cache"
)

// ReadonlyScope grants listing and reading files, nothing more. The chat
// surface never writes to the user's Drive.
const ReadonlyScope = "https://www.googleapis.com/auth/drive.readonly"

// OAuthConfig holds the Google OAuth client settings.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

func (c OAuthConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       []string{ReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// Enabled reports whether an OAuth client is configured at all. When false
// the Drive source is absent from the product.
func (c OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// AuthURL builds the consent URL. Offline access with forced consent so
// Google always returns a refresh token; without it a reconnecting user
// gets an access token that dies within the hour.
func (c OAuthConfig) AuthURL(state string) string {
	return c.oauth2Config().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the callback code for a token.
func (c OAuthConfig) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("drive: code exchange: %w", err)
	}
	return tok, nil
}

// TokenStore persists per-user OAuth tokens in the shared store. Tokens are
// stored without a TTL; refresh tokens stay valid until the user revokes
// access.
type TokenStore struct {
	store cache.Store
}

func NewTokenStore(store cache.Store) *TokenStore {
	return &TokenStore{store: store}
}

func tokenKey(userID string) string {
	return "drive:token:" + userID
}

func (s *TokenStore) Save(ctx context.Context, userID string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("drive: encode token: %w", err)
	}
	if err := s.store.Set(ctx, tokenKey(userID), data, 0); err != nil {
		return fmt.Errorf("drive: persist token: %w", err)
	}
	return nil
}

func (s *TokenStore) Load(ctx context.Context, userID string) (*oauth2.Token, bool, error) {
	data, found, err := s.store.Get(ctx, tokenKey(userID))
	if err != nil || !found {
		return nil, false, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, false, fmt.Errorf("drive: decode token: %w", err)
	}
	return &tok, true, nil
}

func (s *TokenStore) Delete(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, tokenKey(userID))
}
