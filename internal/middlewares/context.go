package middlewares

import (
	"context"

	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

// contextKey is an unexported type for keys in context
type contextKey int

const (
	principalKey contextKey = iota
	requestIDKey
)

// SetPrincipalToContext stores the authenticated principal in the context.
func SetPrincipalToContext(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipalFromContext retrieves the principal. Returns nil for anonymous requests.
func GetPrincipalFromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey).(*models.Principal)
	return p
}

// GetRequestIDFromContext returns the id assigned by LoggingMiddleware, if any.
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
