// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// per-viewer redemption history.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// CreateHistoryEntry inserts the history line for redemption r. The entry
// copies the redemption's item name, total cost, status and creation time.
// A second call for the same redemption returns ErrDuplicate.
func CreateHistoryEntry(ctx context.Context, db *gorm.DB, r *domain.Redemption) (*domain.HistoryEntry, error) {
	h := &domain.HistoryEntry{
		ID:           uuid.NewString(),
		RedemptionID: r.ID,
		UserID:       r.UserID,
		ItemName:     r.ItemName,
		Cost:         r.TotalCost,
		Status:       r.Status,
		Timestamp:    r.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(h).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return h, nil
}

// SetHistoryStatus mirrors a redemption's new status onto its history entry.
// It returns ErrNotFound when the redemption has no entry.
func SetHistoryStatus(ctx context.Context, db *gorm.DB, redemptionID string, status domain.RedemptionStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.HistoryEntry{}).
		Where("redemption_id = ?", redemptionID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetHistoryEntry returns the history entry of a redemption or ErrNotFound.
func GetHistoryEntry(ctx context.Context, db *gorm.DB, redemptionID string) (*domain.HistoryEntry, error) {
	var h domain.HistoryEntry
	if err := db.WithContext(ctx).Where("redemption_id = ?", redemptionID).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHistory returns the most recent history entries for userID, newest
// first, capped at limit.
func ListHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Limit(limit).
		Find(&out).Error
	return out, err
}
