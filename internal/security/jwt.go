// Package security issues and validates the bearer tokens of the shop and
// hashes the administrator password. Viewer tokens are minted by the
// external login flow with the shared secret; admin tokens are minted by the
// shop's own login endpoint.
package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT validation errors.
var (
	// ErrInvalidToken indicates a token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token has expired.
	ErrExpiredToken = errors.New("token expired")
	// ErrEmptySecret is returned when signing without a secret.
	ErrEmptySecret = errors.New("jwt secret is empty")
)

// Token audiences keep viewer and admin tokens from being interchangeable.
const (
	AudienceViewer = "viewer"
	AudienceAdmin  = "admin"

	issuer = "rewards-shop"
)

// ViewerClaims identifies a viewer. Subject carries the user id.
type ViewerClaims struct {
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AdminClaims identifies an administrator. Subject carries the username.
type AdminClaims struct {
	jwt.RegisteredClaims
}

// GenerateViewerToken signs a viewer JWT with the given expiry.
func GenerateViewerToken(secret, userID, displayName string, expiry time.Duration) (string, error) {
	claims := ViewerClaims{
		DisplayName:      displayName,
		RegisteredClaims: registered(userID, AudienceViewer, expiry),
	}
	return sign(secret, claims)
}

// ParseViewerToken validates a viewer JWT and returns its claims.
func ParseViewerToken(secret, tokenString string) (*ViewerClaims, error) {
	claims := &ViewerClaims{}
	if err := parse(secret, tokenString, AudienceViewer, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateAdminToken signs an admin JWT with the given expiry.
func GenerateAdminToken(secret, username string, expiry time.Duration) (string, error) {
	return sign(secret, AdminClaims{RegisteredClaims: registered(username, AudienceAdmin, expiry)})
}

// ParseAdminToken validates an admin JWT and returns its claims.
func ParseAdminToken(secret, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := parse(secret, tokenString, AudienceAdmin, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	h := strings.TrimSpace(header)
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func registered(subject, audience string, expiry time.Duration) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
}

func sign(secret string, claims jwt.Claims) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parse(secret, tokenString, audience string, claims jwt.Claims) error {
	if secret == "" {
		return ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	},
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	if sub, _ := claims.GetSubject(); strings.TrimSpace(sub) == "" {
		return ErrInvalidToken
	}
	return nil
}
