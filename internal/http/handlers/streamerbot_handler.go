package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rewards-shop/internal/feed"
	"github.com/tbourn/go-rewards-shop/internal/http/middleware"
	"github.com/tbourn/go-rewards-shop/internal/ledger"
)

// UpdatePointsRequest is one point snapshot pushed by the chat bot.
type UpdatePointsRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	// Points is a pointer so that an explicit 0 is accepted.
	Points      *int64 `json:"points" binding:"required" example:"1250"`
	TotalEarned int64  `json:"total_earned" example:"4000"`
	Action      string `json:"action" example:"watch_time"`
}

// UpdatePointsResponse acknowledges a snapshot.
type UpdatePointsResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Updated alice: 1250 points"`
}

// UpdatePoints godoc
// @ID          updatePoints
// @Summary     Sync points from the chat bot
// @Description Mirrors the chat bot's balance for a viewer. Balance is overwritten; total earned only grows.
// @Tags        Feed
// @Accept      json
// @Produce     json
// @Security    FeedToken
//
// @Param       body  body  handlers.UpdatePointsRequest  true  "Point snapshot"
//
// @Success     200  {object}  handlers.UpdatePointsResponse
// @Failure     400  {object}  handlers.ErrorResponse "Missing username or points"
// @Failure     401  {object}  handlers.ErrorResponse "Invalid feed token"
// @Failure     403  {object}  handlers.ErrorResponse "Feed sync disabled"
// @Failure     503  {object}  handlers.ErrorResponse "Storage unavailable"
// @Router      /streamerbot/update-points [post]
func (h *Handlers) UpdatePoints(c *gin.Context) {
	var req UpdatePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Points == nil || strings.TrimSpace(req.Username) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing username or points")
		return
	}

	source := "http"
	if a := strings.TrimSpace(req.Action); a != "" {
		source = "http." + a
	}
	err := h.feed.Apply(c.Request.Context(), feed.Event{
		UserID:      req.Username,
		Balance:     *req.Points,
		TotalEarned: req.TotalEarned,
		Source:      source,
		ReceivedAt:  h.now(),
	})
	if err != nil {
		if ledger.IsClientError(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid point snapshot")
			return
		}
		failErr(c, err)
		return
	}

	middleware.LoggerFrom(c).Debug().
		Str("username", req.Username).
		Int64("points", *req.Points).
		Str("action", req.Action).
		Msg("points synced")
	ok(c, http.StatusOK, UpdatePointsResponse{
		Success: true,
		Message: fmt.Sprintf("Updated %s: %d points", req.Username, *req.Points),
	})
}
