package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

// SessionCookieName is the cookie the identity gateway stores the session token in.
const SessionCookieName = "__session"

var (
	ErrNoSessionToken   = errors.New("session token missing")
	ErrMissingSecretKey = errors.New("identity gateway secret key is not configured")
	ErrMissingSubject   = errors.New("session token has no subject")
)

// Claims are the session claims issued by the identity gateway.
// The subject is the user's external identity id.
type Claims struct {
	jwt.RegisteredClaims
	EmailAddresses []string `json:"email_addresses,omitempty"`
	FirstName      *string  `json:"first_name,omitempty"`
	LastName       *string  `json:"last_name,omitempty"`
	ImageURL       *string  `json:"image_url,omitempty"`
}

// Principal converts the claims into the identity attached to a request.
func (c *Claims) Principal() *models.Principal {
	return &models.Principal{
		ExternalID:     c.Subject,
		EmailAddresses: c.EmailAddresses,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		ImageURL:       c.ImageURL,
	}
}

// JWT verifies (and, for the gateway side and tests, issues) session tokens.
type JWT struct {
	secretKey  string
	exp        time.Duration
	cookieName string
}

// Opt configures a JWT.
type Opt func(*JWT)

// WithSecretKey sets the HMAC key shared with the identity gateway.
func WithSecretKey(key string) Opt {
	return func(j *JWT) { j.secretKey = key }
}

// WithExpiration sets the lifetime of generated tokens.
func WithExpiration(d time.Duration) Opt {
	return func(j *JWT) { j.exp = d }
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Opt {
	return func(j *JWT) { j.cookieName = name }
}

// New creates a JWT with a one hour token lifetime and the default session cookie.
func New(opts ...Opt) *JWT {
	j := &JWT{
		exp:        time.Hour,
		cookieName: SessionCookieName,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Generate issues a signed session token for the principal.
func (j *JWT) Generate(ctx context.Context, p *models.Principal) (string, error) {
	if j.secretKey == "" {
		return "", ErrMissingSecretKey
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ExternalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.exp)),
		},
		EmailAddresses: p.EmailAddresses,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		ImageURL:       p.ImageURL,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// GetClaims verifies the token and returns its claims.
// Expired tokens, foreign signatures and tokens without a subject are rejected.
func (j *JWT) GetClaims(ctx context.Context, tokenString string) (*Claims, error) {
	if j.secretKey == "" {
		return nil, ErrMissingSecretKey
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(j.secretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}

// GetTokenFromRequest extracts the session token from the Authorization
// header, falling back to the session cookie.
func (j *JWT) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", errors.New("invalid authorization header format")
		}
		return parts[1], nil
	}

	cookie, err := r.Cookie(j.cookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSessionToken
	}

	return cookie.Value, nil
}
