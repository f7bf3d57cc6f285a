package jwt

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

func strPtr(s string) *string { return &s }

func testPrincipal() *models.Principal {
	return &models.Principal{
		ExternalID:     "idp_42",
		EmailAddresses: []string{"a@x.com"},
		FirstName:      strPtr("Ann"),
		LastName:       strPtr("Lee"),
	}
}

func TestJWT_GenerateAndGetClaims(t *testing.T) {
	j := New(WithSecretKey("test-secret"), WithExpiration(time.Minute))
	ctx := context.Background()

	token, err := j.Generate(ctx, testPrincipal())
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := j.GetClaims(ctx, token)
	assert.NoError(t, err)
	if assert.NotNil(t, claims) {
		p := claims.Principal()
		assert.Equal(t, "idp_42", p.ExternalID)
		assert.Equal(t, []string{"a@x.com"}, p.EmailAddresses)
		assert.Equal(t, "Ann", *p.FirstName)
		assert.Equal(t, "Lee", *p.LastName)
		assert.Nil(t, p.ImageURL)
	}
}

func TestJWT_ExpiredToken(t *testing.T) {
	j := New(WithSecretKey("test-secret"), WithExpiration(-time.Minute))
	ctx := context.Background()

	token, err := j.Generate(ctx, testPrincipal())
	assert.NoError(t, err)

	claims, err := j.GetClaims(ctx, token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWT_InvalidToken(t *testing.T) {
	j := New(WithSecretKey("secret"))
	ctx := context.Background()

	claims, err := j.GetClaims(ctx, "invalid.token.string")
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWT_MissingSubject(t *testing.T) {
	j := New(WithSecretKey("secret"))
	ctx := context.Background()

	token, err := j.Generate(ctx, &models.Principal{})
	assert.NoError(t, err)

	_, err = j.GetClaims(ctx, token)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestJWT_MissingSecretKeyFailsClosed(t *testing.T) {
	signer := New(WithSecretKey("secret"))
	ctx := context.Background()

	token, err := signer.Generate(ctx, testPrincipal())
	assert.NoError(t, err)

	unconfigured := New()
	_, err = unconfigured.GetClaims(ctx, token)
	assert.ErrorIs(t, err, ErrMissingSecretKey)

	_, err = unconfigured.Generate(ctx, testPrincipal())
	assert.ErrorIs(t, err, ErrMissingSecretKey)
}

func TestJWT_GetClaims_WrongSecret(t *testing.T) {
	j1 := New(WithSecretKey("secret1"))
	j2 := New(WithSecretKey("secret2"))
	ctx := context.Background()

	token, err := j1.Generate(ctx, testPrincipal())
	assert.NoError(t, err)

	_, err = j2.GetClaims(ctx, token)
	assert.Error(t, err)
}

func TestJWT_GetTokenFromRequest(t *testing.T) {
	j := New()
	ctx := context.Background()

	tests := []struct {
		name          string
		header        string
		cookie        string
		expectedToken string
		expectError   bool
	}{
		{"ValidBearer", "Bearer mytoken123", "", "mytoken123", false},
		{"LowercaseBearer", "bearer mytoken123", "", "mytoken123", false},
		{"SessionCookie", "", "cookietoken", "cookietoken", false},
		{"HeaderWinsOverCookie", "Bearer headertoken", "cookietoken", "headertoken", false},
		{"NothingPresent", "", "", "", true},
		{"InvalidFormat", "Token mytoken123", "", "", true},
		{"TooManyParts", "Bearer a b c", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}

			token, err := j.GetTokenFromRequest(ctx, req)
			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedToken, token)
			}
		})
	}
}

func TestJWT_GetTokenFromRequest_CustomCookie(t *testing.T) {
	j := New(WithCookieName("app_session"))
	ctx := context.Background()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "default-cookie"})
	req.AddCookie(&http.Cookie{Name: "app_session", Value: "custom-cookie"})

	token, err := j.GetTokenFromRequest(ctx, req)
	assert.NoError(t, err)
	assert.Equal(t, "custom-cookie", token)
}
