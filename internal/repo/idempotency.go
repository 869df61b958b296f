// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to make redemption submission safe to retry.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an idempotency record already exists for the
// given (user_id, scope, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND scope = ? AND key = ? AND expires_at > ?", userID, scope, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ClaimIdempotency inserts a claim for (userID, scope, key) that lives for
// ttl. Expired claims for the same tuple are purged first. It returns
// ErrDuplicate when a live claim already exists.
func ClaimIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, ttl time.Duration, now time.Time) (*domain.Idempotency, error) {
	if err := db.WithContext(ctx).
		Where("user_id = ? AND scope = ? AND key = ? AND expires_at <= ?", userID, scope, key, now).
		Delete(&domain.Idempotency{}).Error; err != nil {
		return nil, err
	}

	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    userID,
		Scope:     scope,
		Key:       key,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// CompleteIdempotency records the resource produced under claim id.
func CompleteIdempotency(ctx context.Context, db *gorm.DB, id, resourceID string) error {
	return db.WithContext(ctx).
		Model(&domain.Idempotency{}).
		Where("id = ?", id).
		Update("resource_id", resourceID).Error
}

// ReleaseIdempotency deletes claim id so the key can be used again.
func ReleaseIdempotency(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Idempotency{}).Error
}

// isUniqueViolation detects unique-constraint errors across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
