package handlers

//go:generate mockgen -source=expenses.go -destination=mock_expenses.go -package=handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/middlewares"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
	"github.com/sbilibin2017/gw-expense-tracker/internal/services"
)

const dateLayout = "2006-01-02"

// ExpenseCreator records a new expense.
type ExpenseCreator interface {
	Create(ctx context.Context, externalID, text string, amount decimal.Decimal, category string, date *time.Time) (*models.ExpenseEntryDB, error)
}

// UserResolver resolves the current user and can drop a stale cached copy of it.
type UserResolver interface {
	CurrentUserGetter
	Forget(ctx context.Context, externalID string)
}

// NewCreateExpenseHandler handles the "add expense" form on the home page.
func NewCreateExpenseHandler(users UserResolver, expenses ExpenseCreator, signInURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := resolveUser(w, r, users)
		if !ok {
			return
		}
		if user == nil {
			http.Redirect(w, r, middlewares.SignInRedirectURL(signInURL, "/"), http.StatusSeeOther)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(r.PostForm.Get("amount")))
		if err != nil {
			http.Error(w, "Invalid amount", http.StatusBadRequest)
			return
		}

		var date *time.Time
		if raw := strings.TrimSpace(r.PostForm.Get("date")); raw != "" {
			d, err := time.Parse(dateLayout, raw)
			if err != nil {
				http.Error(w, "Invalid date", http.StatusBadRequest)
				return
			}
			date = &d
		}

		text, category := r.PostForm.Get("text"), r.PostForm.Get("category")

		_, err = expenses.Create(r.Context(), user.ExternalID, text, amount, category, date)
		if errors.Is(err, services.ErrUnknownUser) {
			// The cached user outlived its row; provision it again and retry once.
			users.Forget(r.Context(), user.ExternalID)
			if user, ok = resolveUser(w, r, users); !ok {
				return
			}
			if user == nil {
				http.Redirect(w, r, middlewares.SignInRedirectURL(signInURL, "/"), http.StatusSeeOther)
				return
			}
			_, err = expenses.Create(r.Context(), user.ExternalID, text, amount, category, date)
		}

		switch {
		case errors.Is(err, services.ErrEmptyText):
			http.Error(w, "Description is required", http.StatusBadRequest)
			return
		case errors.Is(err, services.ErrInvalidAmount):
			http.Error(w, "Amount must have at most 2 decimal places and 12 integer digits", http.StatusBadRequest)
			return
		case err != nil:
			logger.Log.Errorw("failed to create expense", "user_id", user.ExternalID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
