package middlewares

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/sbilibin2017/gw-expense-tracker/internal/jwt"
	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

// SessionReader defines the minimal session interface needed by the middleware.
type SessionReader interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware resolves the request's session and guards protected paths.
// A verified principal is stored in the request context for every
// non-excluded path; protected paths without one are redirected to signInURL
// and never reach next.
func AuthMiddleware(matcher *RouteMatcher, sessions SessionReader, signInURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matcher.IsExcluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			principal := readPrincipal(ctx, sessions, r)
			if principal != nil {
				ctx = SetPrincipalToContext(ctx, principal)
			}

			if principal == nil && matcher.IsProtected(r.URL.Path) {
				logger.Log.Infow("authentication required", "path", r.URL.Path, "request_id", GetRequestIDFromContext(ctx))
				http.Redirect(w, r, SignInRedirectURL(signInURL, r.URL.RequestURI()), redirectStatus(r.Method))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// readPrincipal returns nil on any failure, so an unverifiable session is
// indistinguishable from no session.
func readPrincipal(ctx context.Context, sessions SessionReader, r *http.Request) *models.Principal {
	tokenString, err := sessions.GetTokenFromRequest(ctx, r)
	if err != nil {
		if !errors.Is(err, jwt.ErrNoSessionToken) {
			logger.Log.Warnw("malformed session credentials", "err", err)
		}
		return nil
	}

	claims, err := sessions.GetClaims(ctx, tokenString)
	if err != nil {
		logger.Log.Warnw("session verification failed", "err", err)
		return nil
	}

	return claims.Principal()
}

// redirectStatus keeps GET navigation a temporary redirect and turns form
// posts into a GET of the sign-in page.
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusTemporaryRedirect
	}
	return http.StatusSeeOther
}

// SignInRedirectURL appends the page to return to after signing in.
func SignInRedirectURL(signInURL, returnTo string) string {
	u, err := url.Parse(signInURL)
	if err != nil {
		return signInURL
	}
	q := u.Query()
	q.Set("redirect_url", returnTo)
	u.RawQuery = q.Encode()
	return u.String()
}
