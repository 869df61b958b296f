package httpapi

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/config"
	"github.com/tbourn/go-rewards-shop/internal/feed"
	"github.com/tbourn/go-rewards-shop/internal/ledger"
	"github.com/tbourn/go-rewards-shop/internal/repo"
	"github.com/tbourn/go-rewards-shop/internal/security"
	"github.com/tbourn/go-rewards-shop/internal/services"
)

// Deps holds the application services behind the HTTP routes. The feed
// consumer is shared with the Streamer.bot WebSocket source started by the
// server binary.
type Deps struct {
	DB          *gorm.DB
	Ledger      *ledger.Ledger
	Trending    *services.TrendingTracker
	Catalog     *services.CatalogService
	Redemptions *services.RedemptionService
	Feed        *feed.Consumer
	Admin       security.AdminCredentials
}

// NewDeps wires services ← repo/db from configuration.
func NewDeps(db *gorm.DB, cfg config.Config, logger zerolog.Logger) (*Deps, error) {
	led, err := ledger.New(ledger.Config{
		DB:     db,
		Store:  repo.AccountStore{},
		Logger: &logger,
	})
	if err != nil {
		return nil, err
	}

	admin, err := security.NewAdminCredentials(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.AdminPasswordHash)
	if err != nil {
		return nil, err
	}

	tracker := services.NewTrendingTracker(db, repo.ItemStore{})
	catalog := services.NewCatalogService(db, repo.ItemStore{}, tracker)

	redemptions := services.NewRedemptionService(db,
		repo.RedemptionStore{},
		repo.ItemStore{},
		repo.IdempotencyStore{},
		led,
		tracker,
		security.ContextAuthorizer{},
	)
	svcLog := logger.With().Str("component", "redemptions").Logger()
	redemptions.Logger = &svcLog
	if cfg.Shop.MaxRedeemQuantity > 0 {
		redemptions.MaxQuantity = cfg.Shop.MaxRedeemQuantity
	}
	if cfg.Shop.HistoryLimit > 0 {
		redemptions.HistoryLimit = cfg.Shop.HistoryLimit
	}
	if cfg.IdempotencyTTL > 0 {
		redemptions.IdempotencyTTL = cfg.IdempotencyTTL
	}

	feedLog := logger.With().Str("component", "feed").Logger()
	return &Deps{
		DB:          db,
		Ledger:      led,
		Trending:    tracker,
		Catalog:     catalog,
		Redemptions: redemptions,
		Feed:        &feed.Consumer{Ledger: led, Logger: &feedLog},
		Admin:       admin,
	}, nil
}
