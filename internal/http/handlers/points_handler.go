package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rewards-shop/internal/http/middleware"
)

// PointsResponse is a viewer's balance. MultiplierExpires is a Unix
// timestamp in milliseconds, 0 when no multiplier is active.
type PointsResponse struct {
	Points            int64   `json:"points"             example:"1250"`
	TotalEarned       int64   `json:"total_earned"       example:"4000"`
	Multiplier        float64 `json:"multiplier"         example:"2"`
	MultiplierExpires int64   `json:"multiplier_expires" example:"1760000000000"`
}

// GetPoints godoc
// @ID          getPoints
// @Summary     Get a viewer's points
// @Description Returns the caller's balance and active earning multiplier. Viewers may only read their own account.
// @Tags        Points
// @Produce     json
// @Security    ViewerToken
//
// @Param       userId  path  string  true  "Viewer id"  example(alice)
//
// @Success     200  {object}  handlers.PointsResponse
// @Failure     401  {object}  handlers.ErrorResponse "Not authenticated"
// @Failure     403  {object}  handlers.ErrorResponse "Another viewer's account"
// @Failure     503  {object}  handlers.ErrorResponse "Storage unavailable"
// @Router      /points/{userId} [get]
func (h *Handlers) GetPoints(c *gin.Context) {
	b, err := h.points.Balance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	resp := PointsResponse{
		Points:      b.Balance,
		TotalEarned: b.TotalEarned,
		Multiplier:  b.Multiplier,
	}
	if b.MultiplierActive {
		resp.MultiplierExpires = b.MultiplierExpiresAt.UnixMilli()
	}
	ok(c, http.StatusOK, resp)
}
