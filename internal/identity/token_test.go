package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/daysync/internal/identity"
	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()

	assert.True(t, identity.Static{ID: "user-1"}.IsAuthenticated(ctx))
	assert.Equal(t, "user-1", identity.Static{ID: "user-1"}.UserID(ctx))
	assert.False(t, identity.Static{}.IsAuthenticated(ctx))
}

func TestTokenProvider_NoToken(t *testing.T) {
	ctx := context.Background()
	p := identity.NewTokenProvider(storage.NewMemoryStore(0), "user-1", nil)

	assert.False(t, p.IsAuthenticated(ctx))
	assert.Equal(t, "user-1", p.UserID(ctx))
}

func TestTokenProvider_SaveAndCheck(t *testing.T) {
	ctx := context.Background()
	p := identity.NewTokenProvider(storage.NewMemoryStore(0), "user-1", nil)

	require.NoError(t, p.SaveToken(ctx, &oauth2.Token{
		AccessToken: "abc",
		Expiry:      time.Now().Add(time.Hour),
	}))
	assert.True(t, p.IsAuthenticated(ctx))

	tok, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
}

func TestTokenProvider_ExpiredButRefreshable(t *testing.T) {
	ctx := context.Background()
	p := identity.NewTokenProvider(storage.NewMemoryStore(0), "user-1", nil)

	require.NoError(t, p.SaveToken(ctx, &oauth2.Token{
		AccessToken:  "abc",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}))
	assert.True(t, p.IsAuthenticated(ctx))
}

func TestTokenProvider_ExpiredWithoutRefresh(t *testing.T) {
	ctx := context.Background()
	p := identity.NewTokenProvider(storage.NewMemoryStore(0), "user-1", nil)

	require.NoError(t, p.SaveToken(ctx, &oauth2.Token{
		AccessToken: "abc",
		Expiry:      time.Now().Add(-time.Hour),
	}))
	assert.False(t, p.IsAuthenticated(ctx))
}

func TestTokenProvider_ClearLeavesOtherKeysAlone(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryStore(0)
	require.NoError(t, backend.Set(ctx, "todos_local", []byte("[]")))

	p := identity.NewTokenProvider(backend, "user-1", nil)
	require.NoError(t, p.SaveToken(ctx, &oauth2.Token{AccessToken: "abc"}))
	require.NoError(t, p.ClearToken(ctx))

	assert.False(t, p.IsAuthenticated(ctx))
	got, err := backend.Get(ctx, "todos_local")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), got)
}
