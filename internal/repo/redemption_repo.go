// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for redemptions.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Status changes go through TransitionRedemption, a compare-and-set on the
// current status. Two concurrent decisions on the same redemption therefore
// cannot both win: exactly one UPDATE matches the expected "from" status.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// CreateRedemption inserts r as a new pending redemption. An empty ID is
// replaced with a fresh UUID and an empty CreatedAt with the current UTC time.
func CreateRedemption(ctx context.Context, db *gorm.DB, r *domain.Redemption) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.UpdatedAt = r.CreatedAt
	if r.Status == "" {
		r.Status = domain.StatusPending
	}
	return db.WithContext(ctx).Create(r).Error
}

// GetRedemption fetches a redemption by id or returns ErrNotFound.
func GetRedemption(ctx context.Context, db *gorm.DB, id string) (*domain.Redemption, error) {
	var r domain.Redemption
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// redemptionQueueOrder lists pending work first, then the decided ones,
// newest first within each group.
const redemptionQueueOrder = "CASE status WHEN 'pending' THEN 0 WHEN 'approved' THEN 1 ELSE 2 END, created_at DESC"

// ListRedemptions returns a page of redemptions in moderation-queue order.
// An empty status lists every redemption.
func ListRedemptions(ctx context.Context, db *gorm.DB, status domain.RedemptionStatus, offset, limit int) ([]domain.Redemption, error) {
	q := db.WithContext(ctx).Model(&domain.Redemption{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Redemption
	err := q.Order(redemptionQueueOrder).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountRedemptions returns the number of redemptions with status (all when
// status is empty).
func CountRedemptions(ctx context.Context, db *gorm.DB, status domain.RedemptionStatus) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Redemption{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// TransitionRedemption moves redemption id from status from to status to.
// It reports false when the redemption is missing or no longer in from.
// processedAt is stored as given; nil clears it (used to revert a claim).
func TransitionRedemption(ctx context.Context, db *gorm.DB, id string, from, to domain.RedemptionStatus, by string, processedAt *time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Redemption{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":       to,
			"processed_by": by,
			"processed_at": processedAt,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
