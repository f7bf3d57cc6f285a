package handlers

//go:generate mockgen -source=home.go -destination=mock_home.go -package=handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/middlewares"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
	"github.com/sbilibin2017/gw-expense-tracker/internal/services"
)

const recentExpensesLimit = 20

// CurrentUserGetter resolves the local user for a request's principal.
type CurrentUserGetter interface {
	CurrentUser(ctx context.Context, principal *models.Principal) (*models.UserDB, error)
}

// ExpenseLister lists a user's recent expenses.
type ExpenseLister interface {
	ListRecent(ctx context.Context, externalID string, limit int) ([]models.ExpenseEntryDB, error)
}

type homePage struct {
	Title   string
	User    *models.UserDB
	Entries []models.ExpenseEntryDB
}

// NewHomeHandler renders the home page for the signed-in user.
// Visitors without a user are redirected to signInURL before anything is rendered.
func NewHomeHandler(users CurrentUserGetter, expenses ExpenseLister, signInURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, ok := resolveUser(w, r, users)
		if !ok {
			return
		}
		if user == nil {
			http.Redirect(w, r, middlewares.SignInRedirectURL(signInURL, r.URL.RequestURI()), http.StatusTemporaryRedirect)
			return
		}

		entries, err := expenses.ListRecent(ctx, user.ExternalID, recentExpensesLimit)
		if err != nil {
			logger.Log.Errorw("failed to list expenses", "user_id", user.ExternalID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render(w, homeTemplate, homePage{
			Title:   "Home",
			User:    user,
			Entries: entries,
		})
	}
}

// resolveUser writes an error response and returns false when the user
// cannot be resolved. A nil user with true means the request is anonymous.
func resolveUser(w http.ResponseWriter, r *http.Request, users CurrentUserGetter) (*models.UserDB, bool) {
	ctx := r.Context()

	user, err := users.CurrentUser(ctx, middlewares.GetPrincipalFromContext(ctx))
	if err != nil {
		status, message := userErrorStatus(r, err)
		http.Error(w, message, status)
		return nil, false
	}
	return user, true
}

// userErrorStatus maps a provisioning failure onto a response status and message.
func userErrorStatus(r *http.Request, err error) (int, string) {
	if errors.Is(err, services.ErrIdentityConflict) {
		return http.StatusConflict, "This email address is already linked to another account"
	}
	logger.Log.Errorw("failed to resolve current user", "request_id", middlewares.GetRequestIDFromContext(r.Context()), "err", err)
	return http.StatusInternalServerError, "Internal server error"
}
