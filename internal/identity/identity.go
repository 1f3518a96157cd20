// Package identity provides the authentication gate the engine consults.
// Identity issuance itself (login flows) lives outside the engine; this
// package only answers "is there a usable identity right now".
package identity

import (
	"context"
	"errors"
)

// ErrNotAuthenticated is returned by mutation paths when no identity is
// established. Reads degrade to empty results instead.
var ErrNotAuthenticated = errors.New("identity: not authenticated")

// Provider reports the current authentication state.
type Provider interface {
	IsAuthenticated(ctx context.Context) bool
	UserID(ctx context.Context) string
}

// Static is a provider backed by a configured user id, for single-user and
// development setups.
type Static struct {
	ID string
}

func (s Static) IsAuthenticated(context.Context) bool { return s.ID != "" }

func (s Static) UserID(context.Context) string { return s.ID }
