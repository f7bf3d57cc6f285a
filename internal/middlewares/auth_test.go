package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-expense-tracker/internal/jwt"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

func validClaims() *jwt.Claims {
	c := &jwt.Claims{EmailAddresses: []string{"a@x.com"}}
	c.Subject = "idp_42"
	return c
}

func TestAuthMiddleware(t *testing.T) {
	matcher, err := NewRouteMatcher(DefaultProtectedRoutes, "/sign-in(.*)", "/sign-up(.*)")
	require.NoError(t, err)

	tests := []struct {
		name             string
		path             string
		mockSetup        func(m *MockSessionReader)
		expectedStatus   int
		expectedLocation string
		expectNextCalled bool
		expectPrincipal  bool
	}{
		{
			name: "protected without session redirects",
			path: "/",
			mockSetup: func(m *MockSessionReader) {
				m.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", jwt.ErrNoSessionToken)
			},
			expectedStatus:   http.StatusTemporaryRedirect,
			expectedLocation: "/sign-in?redirect_url=%2F",
		},
		{
			name: "protected with invalid session fails closed",
			path: "/expenses/new?x=1",
			mockSetup: func(m *MockSessionReader) {
				m.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("badtoken", nil)
				m.EXPECT().GetClaims(gomock.Any(), "badtoken").Return(nil, errors.New("signature is invalid"))
			},
			expectedStatus:   http.StatusTemporaryRedirect,
			expectedLocation: "/sign-in?redirect_url=%2Fexpenses%2Fnew%3Fx%3D1",
		},
		{
			name: "protected with unreachable key material fails closed",
			path: "/dashboard",
			mockSetup: func(m *MockSessionReader) {
				m.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("token", nil)
				m.EXPECT().GetClaims(gomock.Any(), "token").Return(nil, jwt.ErrMissingSecretKey)
			},
			expectedStatus:   http.StatusTemporaryRedirect,
			expectedLocation: "/sign-in?redirect_url=%2Fdashboard",
		},
		{
			name: "protected with valid session passes principal",
			path: "/",
			mockSetup: func(m *MockSessionReader) {
				m.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("validtoken", nil)
				m.EXPECT().GetClaims(gomock.Any(), "validtoken").Return(validClaims(), nil)
			},
			expectedStatus:   http.StatusOK,
			expectNextCalled: true,
			expectPrincipal:  true,
		},
		{
			name: "sign-in without session is served",
			path: "/sign-in",
			mockSetup: func(m *MockSessionReader) {
				m.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", jwt.ErrNoSessionToken)
			},
			expectedStatus:   http.StatusOK,
			expectNextCalled: true,
		},
		{
			name: "public path with session still gets principal",
			path: "/api/me",
			mockSetup: func(m *MockSessionReader) {
				m.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("validtoken", nil)
				m.EXPECT().GetClaims(gomock.Any(), "validtoken").Return(validClaims(), nil)
			},
			expectedStatus:   http.StatusOK,
			expectNextCalled: true,
			expectPrincipal:  true,
		},
		{
			name:             "static asset skips session handling",
			path:             "/static/app.css",
			mockSetup:        func(m *MockSessionReader) {},
			expectedStatus:   http.StatusOK,
			expectNextCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			sessions := NewMockSessionReader(ctrl)
			tt.mockSetup(sessions)

			nextCalled := false
			var principal *models.Principal
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				principal = GetPrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := AuthMiddleware(matcher, sessions, "/sign-in")(nextHandler)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectNextCalled, nextCalled)
			if tt.expectedLocation != "" {
				assert.Equal(t, tt.expectedLocation, rr.Header().Get("Location"))
			}
			if tt.expectPrincipal {
				if assert.NotNil(t, principal) {
					assert.Equal(t, "idp_42", principal.ExternalID)
				}
			} else {
				assert.Nil(t, principal)
			}
		})
	}
}

func TestSignInRedirectURL(t *testing.T) {
	assert.Equal(t, "/sign-in?redirect_url=%2Fexpenses", SignInRedirectURL("/sign-in", "/expenses"))
	assert.Equal(t,
		"https://accounts.example.com/sign-in?redirect_url=%2F",
		SignInRedirectURL("https://accounts.example.com/sign-in", "/"))
}

func TestAuthMiddleware_FormPostRedirectsWithSeeOther(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	matcher, err := NewRouteMatcher(DefaultProtectedRoutes)
	require.NoError(t, err)

	sessions := NewMockSessionReader(ctrl)
	sessions.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("", jwt.ErrNoSessionToken)

	handler := AuthMiddleware(matcher, sessions, "/sign-in")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not be reached")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/expenses", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/sign-in?redirect_url=%2Fexpenses", rr.Header().Get("Location"))
}
