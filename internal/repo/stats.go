// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// latestUpdate counts the rows of q and returns the greatest updated_at.
// When q matches no rows, it returns (0, nil, nil).
func latestUpdate(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// ItemsStats returns the number of catalog rows and their latest UpdatedAt.
// Any trending bump or catalog edit changes the result.
func ItemsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return latestUpdate(db.WithContext(ctx).Model(&domain.Item{}))
}

// HistoryStats returns the number of history entries for userID and their
// latest UpdatedAt. A new redemption or a decision changes the result.
func HistoryStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latestUpdate(db.WithContext(ctx).Model(&domain.HistoryEntry{}).Where("user_id = ?", userID))
}
