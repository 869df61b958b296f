// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for catalog items:
// browsing queries (ordered by trending score, then cost), the trending
// counter increment, and catalog seeding.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// ItemFilter narrows catalog listings. Empty fields match everything.
type ItemFilter struct {
	Game     string
	Category string
}

// catalogOrder is the display order used everywhere in the shop.
const catalogOrder = "trending_score DESC, cost ASC, id ASC"

// purchasable restricts q to available items whose limited-time window (if
// any) has not closed at now.
func purchasable(q *gorm.DB, now time.Time) *gorm.DB {
	return q.Where("available = ?", true).
		Where("(limited_time = ? OR expires_at IS NULL OR expires_at > ?)", false, now)
}

// GetItem fetches an item by id or returns ErrNotFound.
func GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.Item, error) {
	var it domain.Item
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// ListItems returns purchasable items matching f in catalog order.
func ListItems(ctx context.Context, db *gorm.DB, f ItemFilter, now time.Time) ([]domain.Item, error) {
	q := purchasable(db.WithContext(ctx).Model(&domain.Item{}), now)
	if f.Game != "" {
		q = q.Where("game = ?", f.Game)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	var out []domain.Item
	err := q.Order(catalogOrder).Find(&out).Error
	return out, err
}

// ListTrending returns the top limit purchasable items by trending score.
func ListTrending(ctx context.Context, db *gorm.DB, limit int, now time.Time) ([]domain.Item, error) {
	var out []domain.Item
	err := purchasable(db.WithContext(ctx).Model(&domain.Item{}), now).
		Order(catalogOrder).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListLimited returns purchasable limited-time items, soonest expiry first.
func ListLimited(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Item, error) {
	var out []domain.Item
	err := db.WithContext(ctx).
		Where("available = ? AND limited_time = ? AND expires_at > ?", true, true, now).
		Order("expires_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// BumpTrending increments the trending score of item id by quantity in a
// single UPDATE. It returns ErrNotFound when the item does not exist.
func BumpTrending(ctx context.Context, db *gorm.DB, id string, quantity int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"trending_score": gorm.Expr("trending_score + ?", quantity),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedItems inserts items that are not present yet and leaves existing rows
// (and their trending scores) untouched. It returns the number inserted.
func SeedItems(ctx context.Context, db *gorm.DB, items []domain.Item) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&items)
	return res.RowsAffected, res.Error
}
