// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides correlation ids, the structured access log, panic
// recovery and the request-scoped logger:
//
//   - RequestID() reuses or generates X-Request-ID.
//   - Logger() attaches a request-scoped zerolog.Logger derived from the
//     process logger and emits one redacted access line per request, at a
//     level chosen by outcome (info/warn/error).
//   - Recovery() converts panics into the JSON error envelope.
//   - LoggerFrom() returns the request-scoped logger. Auth middleware
//     enriches it with user_id or admin once the caller is known.
//
// Recommended order: RequestID, Logger, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// ctxKeyLogger stores the request-scoped *zerolog.Logger.
	ctxKeyLogger = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
	// maxRequestIDLength bounds client-supplied correlation ids.
	maxRequestIDLength = 128
)

// RequestID attaches (or propagates) a correlation identifier per request.
// Client values longer than 128 bytes are replaced with a fresh UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLength {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// LogOptions configures Logger.
type LogOptions struct {
	// Base is the process logger; request fields are added to it.
	Base zerolog.Logger
	// MaskHeaders lists extra headers whose values are never logged.
	// Authorization, Cookie, Set-Cookie and X-Feed-Token are always masked.
	MaskHeaders []string
	// Headers includes the (scrubbed) request headers in the access line.
	Headers bool
}

// Logger writes a structured, redacted access log for each request and
// stores a request-scoped logger in the Gin context.
//
// Query strings and header values are scrubbed of emails, phone numbers and
// UUIDs. Request and response bodies are never logged.
func Logger(opts LogOptions) gin.HandlerFunc {
	red := newRedactor(opts.MaskHeaders)
	base := opts.Base

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l := base.With().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(ctxKeyLogger, &l)

		var headers map[string]string
		if opts.Headers {
			headers = red.headers(c.Request.Header)
		}
		query := truncate(red.scrub(c.Request.URL.RawQuery), maxQueryLogLength)

		c.Next()

		status := c.Writer.Status()
		// Auth middleware may have replaced the logger with an enriched one.
		lg := LoggerFrom(c)
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = lg.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = lg.Warn()
		default:
			ev = lg.Info()
		}
		ev = ev.
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", query).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start))
		if headers != nil {
			ev = ev.Interface("headers", headers)
		}
		ev.Msg("http_request")
	}
}

// Recovery intercepts panics, logs a stack trace, and returns a JSON 500 error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid := c.GetString(requestIDKey)
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header(requestIDHeader, rid)
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": rid,
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger, or the global logger
// when Logger() is not installed. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxKeyLogger); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Str("request_id", c.GetString(requestIDKey)).Logger()
	return &l
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
