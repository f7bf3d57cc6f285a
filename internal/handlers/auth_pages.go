package handlers

import (
	"net/http"
	"strings"

	"github.com/sbilibin2017/gw-expense-tracker/internal/middlewares"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

// AuthPageConfig describes one of the hosted identity widget pages.
type AuthPageConfig struct {
	PublishableKey string
	AfterURL       string // where to go once the visitor is signed in
	AlternateURL   string // the other surface (sign-up from sign-in and vice versa)
}

type authPage struct {
	Title          string
	User           *models.UserDB
	Mode           string
	PublishableKey string
	AfterURL       string
	AlternateURL   string
}

// NewSignInHandler serves the sign-in surface. It must stay reachable
// without a session; visitors who already have one are sent on to AfterURL.
func NewSignInHandler(cfg AuthPageConfig) http.HandlerFunc {
	return newAuthPageHandler("sign-in", "Sign in", cfg)
}

// NewSignUpHandler serves the sign-up surface.
func NewSignUpHandler(cfg AuthPageConfig) http.HandlerFunc {
	return newAuthPageHandler("sign-up", "Sign up", cfg)
}

func newAuthPageHandler(mode, title string, cfg AuthPageConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after := cfg.AfterURL
		if target := r.URL.Query().Get("redirect_url"); isLocalPath(target) {
			after = target
		}

		if middlewares.GetPrincipalFromContext(r.Context()) != nil {
			http.Redirect(w, r, after, http.StatusSeeOther)
			return
		}

		render(w, authTemplate, authPage{
			Title:          title,
			Mode:           mode,
			PublishableKey: cfg.PublishableKey,
			AfterURL:       after,
			AlternateURL:   cfg.AlternateURL,
		})
	}
}

// isLocalPath rejects absolute and protocol-relative URLs so redirect_url
// cannot bounce visitors to another site.
func isLocalPath(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\")
}
