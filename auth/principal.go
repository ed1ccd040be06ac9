// Package auth owns dayplan's identity tables: user accounts, login
// sessions and the signed tokens that carry a session to the API.
package auth

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
)

// Principal identifies the authenticated caller of an operation.
type Principal struct {
	UserID    string
	SessionID string
}

// ErrMissingToken is returned when a request carries no session token.
var ErrMissingToken = fmt.Errorf("missing session token: %w", apperr.ErrUnauthorized)

type contextKey int

const ctxKeyPrincipal contextKey = 0

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the principal stored in ctx, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok && p.UserID != ""
}

// RequirePrincipal is PrincipalFromContext with ErrUnauthorized for a
// missing principal.
func RequirePrincipal(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, apperr.ErrUnauthorized
	}
	return p, nil
}
