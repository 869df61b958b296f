package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rewards-shop/internal/domain"
	"github.com/tbourn/go-rewards-shop/internal/feed"
	"github.com/tbourn/go-rewards-shop/internal/ledger"
	"github.com/tbourn/go-rewards-shop/internal/repo"
	"github.com/tbourn/go-rewards-shop/internal/services"
	"github.com/tbourn/go-rewards-shop/internal/utils"
)

//
// Service contracts (context-aware)
//

// CatalogService serves the item listings.
type CatalogService interface {
	List(ctx context.Context, f repo.ItemFilter) ([]domain.Item, error)
	Featured(ctx context.Context) ([]domain.Item, error)
	Limited(ctx context.Context) ([]domain.Item, error)
	// Version returns the row count and latest update used for ETags.
	Version(ctx context.Context) (int64, *time.Time, error)
}

// RedemptionService runs the redemption workflow and its read paths.
type RedemptionService interface {
	Submit(ctx context.Context, req services.SubmitRequest) (*services.SubmitResult, error)
	Decide(ctx context.Context, id string, d services.Decision) (*services.DecisionResult, error)
	Queue(ctx context.Context, status domain.RedemptionStatus, page, pageSize int) ([]domain.Redemption, int64, error)
	History(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
	HistoryVersion(ctx context.Context, userID string) (int64, *time.Time, error)
}

// PointsReader reads viewer balances.
type PointsReader interface {
	Balance(ctx context.Context, userID string) (ledger.Balance, error)
}

// FeedApplier mirrors one chat bot snapshot into the ledger.
type FeedApplier interface {
	Apply(ctx context.Context, ev feed.Event) error
}

// AdminVerifier checks moderator credentials.
type AdminVerifier interface {
	Verify(username, password string) error
}

// AdminLogin configures the admin login endpoint.
type AdminLogin struct {
	Credentials AdminVerifier
	Secret      string
	TokenTTL    time.Duration
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the shop. It depends on abstract
// service interfaces to keep transport concerns apart from business logic.
type Handlers struct {
	catalog     CatalogService
	redemptions RedemptionService
	points      PointsReader
	feed        FeedApplier
	login       AdminLogin
	now         func() time.Time
}

// New constructs a Handlers instance bound to the given services.
func New(catalog CatalogService, redemptions RedemptionService, points PointsReader, feed FeedApplier, login AdminLogin) *Handlers {
	return &Handlers{
		catalog:     catalog,
		redemptions: redemptions,
		points:      points,
		feed:        feed,
		login:       login,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 50
		maxPageSize     = 200
	)
	return utils.ParsePage(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}
