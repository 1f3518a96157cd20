package identity

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
)

const tokenKey = "auth_token"

// TokenProvider gates on an OAuth2 token persisted in the key-value store.
// The engine is authenticated while a valid (non-expired or refreshable)
// token is present. Clearing the token never touches the task data.
type TokenProvider struct {
	store  storage.Store
	userID string
	logger *slog.Logger
}

// NewTokenProvider creates a provider reading tokens from the given store.
func NewTokenProvider(store storage.Store, userID string, logger *slog.Logger) *TokenProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenProvider{store: store, userID: userID, logger: logger}
}

func (p *TokenProvider) IsAuthenticated(ctx context.Context) bool {
	tok, err := p.Token(ctx)
	if err != nil {
		return false
	}
	// A token without expiry is treated as long-lived (Valid() agrees).
	return tok.Valid() || tok.RefreshToken != ""
}

func (p *TokenProvider) UserID(context.Context) string { return p.userID }

// Token returns the persisted token, if any.
func (p *TokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	raw, err := p.store.Get(ctx, tokenKey)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// SaveToken persists a freshly issued token.
func (p *TokenProvider) SaveToken(ctx context.Context, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, tokenKey, raw)
}

// ClearToken drops the stored token, logging the identity out without
// destroying any persisted task data.
func (p *TokenProvider) ClearToken(ctx context.Context) error {
	return p.store.Remove(ctx, tokenKey)
}
