package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-expense-tracker/internal/middlewares"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

// MeResponse represents the signed-in user
// swagger:model MeResponse
type MeResponse struct {
	// User
	User *models.UserDB `json:"user"`
}

// MeErrorResponse represents an error response for /api/me
// swagger:model MeErrorResponse
type MeErrorResponse struct {
	// Error message
	// default: Unauthorized
	Error string `json:"error"`
}

// NewMeHandler returns an HTTP handler exposing the provisioned user as JSON.
// @Summary Current user
// @Description Returns the local user for the session, creating it on first call
// @Tags users
// @Produce json
// @Success 200 {object} handlers.MeResponse "Current user"
// @Failure 401 {object} handlers.MeErrorResponse "Unauthorized"
// @Failure 409 {object} handlers.MeErrorResponse "Email linked to another account"
// @Failure 500 {object} handlers.MeErrorResponse "Internal server error"
// @Router /api/me [get]
// @Security SessionAuth
func NewMeHandler(users CurrentUserGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx := r.Context()

		user, err := users.CurrentUser(ctx, middlewares.GetPrincipalFromContext(ctx))
		if err != nil {
			status, message := userErrorStatus(r, err)
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(MeErrorResponse{
				Error: message,
			})
			return
		}
		if user == nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(MeErrorResponse{
				Error: "Unauthorized",
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(MeResponse{
			User: user,
		})
	}
}
