// Redemption HTTP handlers for viewers.
//
//   - POST /redeem              (spend points on an item)
//   - GET  /history/{userId}    (the caller's redemption history, ETag support)
//
// Idempotency:
// The Idempotency-Key header, validated by middleware, is passed to the
// service, which returns the first result for a repeated key instead of
// spending twice. Replays are flagged with `Idempotency-Replayed: true`.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rewards-shop/internal/domain"
	"github.com/tbourn/go-rewards-shop/internal/http/middleware"
	"github.com/tbourn/go-rewards-shop/internal/services"
)

// RedeemRequest is the JSON payload of a redemption. The viewer is taken
// from the authenticated identity, never from the body.
type RedeemRequest struct {
	ItemID string `json:"item_id" binding:"required" example:"agma-coins-10k"`
	// Quantity defaults to 1 when omitted. An explicit value below 1 is
	// rejected.
	Quantity *int `json:"quantity,omitempty" example:"1"`
	// AgmaUsername is the in-game delivery name; required by some items.
	AgmaUsername string                   `json:"agma_username" example:"alice_agma"`
	Message      string                   `json:"message" example:"thanks for the stream"`
	PriorityData *services.PriorityChoice `json:"priority_data,omitempty"`
}

// RedeemResponse reports a created (or replayed) redemption.
type RedeemResponse struct {
	Success      bool   `json:"success" example:"true"`
	RedemptionID string `json:"redemption_id" example:"5b2f0c1e-8a53-4c8e-9a0e-2d1f3c4b5a69"`
	Message      string `json:"message" example:"Redemption submitted for approval"`
	Instant      bool   `json:"instant" example:"false"`
	Replayed     bool   `json:"replayed" example:"false"`
}

// Redeem godoc
// @ID          redeem
// @Summary     Redeem an item
// @Description Deducts the item cost from the caller and records a pending redemption.
// @Description Perks take effect immediately. Retries with the same Idempotency-Key return the first result.
// @Tags        Redemptions
// @Accept      json
// @Produce     json
// @Security    ViewerToken
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.RedeemRequest  true  "Redemption payload"
//
// @Success     200  {object}  handlers.RedeemResponse
// @Failure     400  {object}  handlers.ErrorResponse "insufficient_funds, item_unavailable, missing_required_field, invalid_quantity"
// @Failure     401  {object}  handlers.ErrorResponse "Not authenticated"
// @Failure     404  {object}  handlers.ErrorResponse "item_not_found"
// @Failure     409  {object}  handlers.ErrorResponse "request_in_flight"
// @Failure     429  {object}  handlers.ErrorResponse "Rate limited"
// @Failure     503  {object}  handlers.ErrorResponse "storage_unavailable"
// @Router      /redeem [post]
func (h *Handlers) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.redemptions.Submit(c.Request.Context(), services.SubmitRequest{
		UserID:           middleware.UserID(c),
		ItemID:           strings.TrimSpace(req.ItemID),
		Quantity:         qty,
		DeliveryUsername: strings.TrimSpace(req.AgmaUsername),
		Message:          strings.TrimSpace(req.Message),
		Priority:         req.PriorityData,
		IdempotencyKey:   key,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusOK, RedeemResponse{
		Success:      true,
		RedemptionID: res.Redemption.ID,
		Message:      res.Message,
		Instant:      res.Instant,
		Replayed:     res.Replayed,
	})
}

// History godoc
// @ID          history
// @Summary     Redemption history
// @Description Returns the caller's most recent redemptions, newest first. Supports weak ETag via If-None-Match.
// @Tags        Redemptions
// @Produce     json
// @Security    ViewerToken
//
// @Param       userId         path    string  true  "Viewer id"  example(alice)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}   domain.HistoryEntry
// @Header      200  {string}  ETag  "Weak ETag for the history"
// @Success     304  {string}  string "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse "Not authenticated"
// @Failure     403  {object}  handlers.ErrorResponse "Another viewer's history"
// @Router      /history/{userId} [get]
func (h *Handlers) History(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	if n, latest, err := h.redemptions.HistoryVersion(ctx, uid); err == nil {
		if notModified(c, "history:"+uid, n, latest) {
			return
		}
	}

	entries, err := h.redemptions.History(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	ok(c, http.StatusOK, entries)
}
