// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates the three kinds of callers of the shop:
//
//   - viewers, with a bearer JWT minted by the external login flow (or, in
//     development, the X-User-ID header),
//   - the moderator, with an admin JWT issued by the login endpoint,
//   - the chat bot, with a shared feed token.
//
// Authenticated identities are stored both in the Gin context (for logging
// and rate limiting) and in the request context (for services).
package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rewards-shop/internal/domain"
	"github.com/tbourn/go-rewards-shop/internal/security"
)

const (
	// HeaderUserID carries the viewer id when header fallback is enabled.
	HeaderUserID = "X-User-ID"
	// HeaderFeedToken carries the chat bot's shared secret.
	HeaderFeedToken = "X-Feed-Token"

	ctxKeyUserID = "userID"
	ctxKeyAdmin  = "admin"
)

// ViewerAuthOptions configures ViewerAuth.
type ViewerAuthOptions struct {
	Secret string
	// HeaderFallback accepts X-User-ID when no bearer token is sent.
	HeaderFallback bool
}

// ViewerAuth requires a viewer identity. The normalized id is available via
// UserID and security.ViewerFrom.
func ViewerAuth(opts ViewerAuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var uid string
		if tok, ok := security.BearerToken(c.GetHeader("Authorization")); ok {
			claims, err := security.ParseViewerToken(opts.Secret, tok)
			if err != nil {
				authFailures.WithLabelValues("viewer", authReason(err)).Inc()
				abortAuth(c, http.StatusUnauthorized, "invalid viewer token")
				return
			}
			uid = claims.Subject
		} else if opts.HeaderFallback {
			uid = c.GetHeader(HeaderUserID)
		}

		uid = domain.NormalizeUserID(uid)
		if uid == "" {
			authFailures.WithLabelValues("viewer", "missing").Inc()
			abortAuth(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		setUser(c, uid)
		c.Request = c.Request.WithContext(security.WithViewer(c.Request.Context(), uid))
		c.Next()
	}
}

// SelfOnly rejects requests whose path parameter names another viewer. It
// must run after ViewerAuth.
func SelfOnly(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if domain.NormalizeUserID(c.Param(param)) != UserID(c) {
			abortAuth(c, http.StatusForbidden, "cannot access another user's data")
			return
		}
		c.Next()
	}
}

// AdminAuth requires an admin bearer token.
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := security.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			authFailures.WithLabelValues("admin", "missing").Inc()
			abortAuth(c, http.StatusUnauthorized, "admin token required")
			return
		}
		claims, err := security.ParseAdminToken(secret, tok)
		if err != nil {
			authFailures.WithLabelValues("admin", authReason(err)).Inc()
			abortAuth(c, http.StatusUnauthorized, "invalid admin token")
			return
		}
		c.Set(ctxKeyAdmin, claims.Subject)
		lg := LoggerFrom(c).With().Str("admin", claims.Subject).Logger()
		c.Set(ctxKeyLogger, &lg)
		c.Request = c.Request.WithContext(security.WithAdmin(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

// FeedToken guards the chat bot sync route. An empty configured token
// disables the route.
func FeedToken(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		if len(want) == 0 {
			abortAuth(c, http.StatusForbidden, "feed sync is disabled")
			return
		}
		got := []byte(strings.TrimSpace(c.GetHeader(HeaderFeedToken)))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			authFailures.WithLabelValues("feed", "mismatch").Inc()
			abortAuth(c, http.StatusUnauthorized, "invalid feed token")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated viewer id, or "".
func UserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// Admin returns the authenticated admin username, or "".
func Admin(c *gin.Context) string {
	return c.GetString(ctxKeyAdmin)
}

func setUser(c *gin.Context, uid string) {
	c.Set(ctxKeyUserID, uid)
	lg := LoggerFrom(c).With().Str("user_id", uid).Logger()
	c.Set(ctxKeyLogger, &lg)
}

func authReason(err error) string {
	if errors.Is(err, security.ErrExpiredToken) {
		return "expired"
	}
	return "invalid"
}

func abortAuth(c *gin.Context, status int, msg string) {
	code := "unauthorized"
	if status == http.StatusForbidden {
		code = "forbidden"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
