package security

import (
	"context"
	"errors"
)

type ctxKey int

const (
	adminKey ctxKey = iota
	viewerKey
)

// ErrNoAdmin is returned by ContextAuthorizer when ctx carries no admin.
var ErrNoAdmin = errors.New("no administrator in context")

// WithAdmin returns a context carrying the authenticated admin username.
func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey, username)
}

// AdminFrom returns the admin username stored by WithAdmin.
func AdminFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminKey).(string)
	return v, ok && v != ""
}

// WithViewer returns a context carrying the authenticated viewer id.
func WithViewer(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, viewerKey, userID)
}

// ViewerFrom returns the viewer id stored by WithViewer.
func ViewerFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(viewerKey).(string)
	return v, ok && v != ""
}

// ContextAuthorizer authorizes administrators placed in the context by the
// HTTP admin middleware.
type ContextAuthorizer struct{}

// Admin returns the admin username of ctx.
func (ContextAuthorizer) Admin(ctx context.Context) (string, error) {
	if name, ok := AdminFrom(ctx); ok {
		return name, nil
	}
	return "", ErrNoAdmin
}
