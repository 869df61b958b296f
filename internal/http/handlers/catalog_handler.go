// Catalog HTTP handlers.
//
// Public, unauthenticated listings:
//   - GET /items            (purchasable items, optional game/category filter)
//   - GET /items/featured   (top trending)
//   - GET /items/limited    (open limited-time offers)
//
// All three share a weak ETag derived from the catalog's row count and latest
// update, so trending bumps and expiries invalidate cached copies.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rewards-shop/internal/domain"
	"github.com/tbourn/go-rewards-shop/internal/repo"
)

// ListItems godoc
// @ID          listItems
// @Summary     List purchasable items
// @Description Returns available items, trending first then cheapest. "all" matches every game or category.
// @Tags        Catalog
// @Produce     json
//
// @Param       game           query   string  false "Game filter"      example(agma.io)
// @Param       category       query   string  false "Category filter"  example(coins)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}   domain.Item
// @Header      200  {string}  ETag  "Weak ETag for the catalog"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /items [get]
func (h *Handlers) ListItems(c *gin.Context) {
	filter := repo.ItemFilter{
		Game:     strings.TrimSpace(c.Query("game")),
		Category: strings.TrimSpace(c.Query("category")),
	}
	h.serveItems(c, "items:"+filter.Game+":"+filter.Category, func() ([]domain.Item, error) {
		return h.catalog.List(c.Request.Context(), filter)
	})
}

// FeaturedItems godoc
// @ID          featuredItems
// @Summary     Featured items
// @Description Returns the most redeemed purchasable items.
// @Tags        Catalog
// @Produce     json
// @Success     200  {array}   domain.Item
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /items/featured [get]
func (h *Handlers) FeaturedItems(c *gin.Context) {
	h.serveItems(c, "featured", func() ([]domain.Item, error) {
		return h.catalog.Featured(c.Request.Context())
	})
}

// LimitedItems godoc
// @ID          limitedItems
// @Summary     Limited-time items
// @Description Returns open limited-time offers, soonest expiry first.
// @Tags        Catalog
// @Produce     json
// @Success     200  {array}   domain.Item
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /items/limited [get]
func (h *Handlers) LimitedItems(c *gin.Context) {
	h.serveItems(c, "limited", func() ([]domain.Item, error) {
		return h.catalog.Limited(c.Request.Context())
	})
}

func (h *Handlers) serveItems(c *gin.Context, scope string, load func() ([]domain.Item, error)) {
	// ETag pre-check (best effort). Limited offers expire on the clock, so the
	// current minute is part of the tag.
	if n, latest, err := h.catalog.Version(c.Request.Context()); err == nil {
		scope += ":" + h.now().Truncate(time.Minute).Format("200601021504")
		if notModified(c, scope, n, latest) {
			return
		}
	}

	items, err := load()
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	ok(c, http.StatusOK, items)
}
