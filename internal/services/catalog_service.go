// Package services – CatalogService and TrendingTracker
//
// CatalogService is the read path of the shop: listing purchasable items with
// optional game/category filters, the featured shelf and the limited-time
// shelf. Everything is ordered by trending score descending, then cost
// ascending. TrendingTracker owns the only mutation of the catalog performed
// by the shop itself: bumping an item's score after a redemption.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/domain"
	"github.com/tbourn/go-rewards-shop/internal/repo"
)

// DefaultFeaturedLimit is the size of the featured shelf.
const DefaultFeaturedLimit = 6

// ItemRepo is the catalog persistence contract (see repo.ItemStore).
type ItemRepo interface {
	GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.Item, error)
	ListItems(ctx context.Context, db *gorm.DB, f repo.ItemFilter, now time.Time) ([]domain.Item, error)
	ListTrending(ctx context.Context, db *gorm.DB, limit int, now time.Time) ([]domain.Item, error)
	ListLimited(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Item, error)
	BumpTrending(ctx context.Context, db *gorm.DB, id string, quantity int64) error
}

// TrendingTracker increments popularity counters and serves the top items.
type TrendingTracker struct {
	DB   *gorm.DB
	Repo ItemRepo
	Now  func() time.Time
}

// NewTrendingTracker constructs a TrendingTracker.
func NewTrendingTracker(db *gorm.DB, r ItemRepo) *TrendingTracker {
	return &TrendingTracker{DB: db, Repo: r, Now: utcNow}
}

// Bump adds quantity to the item's trending score. Non-positive quantities
// are ignored.
func (t *TrendingTracker) Bump(ctx context.Context, itemID string, quantity int) error {
	ctx, span := otel.Tracer("services/TrendingTracker").Start(ctx, "Bump",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.Int("quantity", quantity),
		),
	)
	defer span.End()

	if quantity <= 0 {
		return nil
	}
	if err := t.Repo.BumpTrending(ctx, t.DB, itemID, int64(quantity)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	return nil
}

// Top returns up to limit purchasable items in trending order.
func (t *TrendingTracker) Top(ctx context.Context, limit int) ([]domain.Item, error) {
	ctx, span := otel.Tracer("services/TrendingTracker").Start(ctx, "Top",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	return t.Repo.ListTrending(ctx, t.DB, limit, nowOf(t.Now))
}

// CatalogService serves the item listings.
type CatalogService struct {
	DB       *gorm.DB
	Repo     ItemRepo
	Trending *TrendingTracker
	Now      func() time.Time

	// FeaturedLimit caps the featured shelf.
	FeaturedLimit int
}

// NewCatalogService constructs a CatalogService sharing the tracker's repo.
func NewCatalogService(db *gorm.DB, r ItemRepo, tr *TrendingTracker) *CatalogService {
	return &CatalogService{
		DB:            db,
		Repo:          r,
		Trending:      tr,
		Now:           utcNow,
		FeaturedLimit: DefaultFeaturedLimit,
	}
}

// List returns purchasable items, optionally narrowed to a game and/or
// category. The "all" filter value matches everything.
func (s *CatalogService) List(ctx context.Context, f repo.ItemFilter) ([]domain.Item, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("filter.game", f.Game),
			attribute.String("filter.category", f.Category),
		),
	)
	defer span.End()

	f.Game = normalizeFilter(f.Game)
	f.Category = normalizeFilter(f.Category)
	return s.Repo.ListItems(ctx, s.DB, f, nowOf(s.Now))
}

// Featured returns the top trending items.
func (s *CatalogService) Featured(ctx context.Context) ([]domain.Item, error) {
	return s.Trending.Top(ctx, s.FeaturedLimit)
}

// Limited returns open limited-time items, soonest expiry first.
func (s *CatalogService) Limited(ctx context.Context) ([]domain.Item, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Limited")
	defer span.End()
	return s.Repo.ListLimited(ctx, s.DB, nowOf(s.Now))
}

// Get returns a single item regardless of availability.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Item, error) {
	it, err := s.Repo.GetItem(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return it, nil
}

// Version returns the row count and latest update of the catalog, used by
// handlers to build ETags.
func (s *CatalogService) Version(ctx context.Context) (int64, *time.Time, error) {
	return repo.ItemsStats(ctx, s.DB)
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func utcNow() time.Time { return time.Now().UTC() }

func nowOf(f func() time.Time) time.Time {
	if f == nil {
		return utcNow()
	}
	return f()
}
