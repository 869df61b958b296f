// Admin HTTP handlers.
//
//   - POST /admin/login                       (exchange credentials for a token)
//   - GET  /admin/redemptions                 (review queue, paginated)
//   - POST /admin/redemptions/{id}/approve
//   - POST /admin/redemptions/{id}/reject     (refunds the points)
//
// Everything but login sits behind the admin token middleware; the service
// re-checks the administrator from the request context.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rewards-shop/internal/domain"
	"github.com/tbourn/go-rewards-shop/internal/http/middleware"
	"github.com/tbourn/go-rewards-shop/internal/security"
	"github.com/tbourn/go-rewards-shop/internal/services"
)

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" binding:"required" example:"correct horse battery staple"`
}

// LoginResponse carries the admin bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QueueResponse is a page of the review queue.
type QueueResponse struct {
	Redemptions []domain.Redemption `json:"redemptions"`
	Pagination  Pagination          `json:"pagination"`
}

// DecisionResponse reports the outcome of approve/reject. Changed is false
// when the redemption was already approved or rejected.
type DecisionResponse struct {
	Success    bool                    `json:"success" example:"true"`
	Message    string                  `json:"message,omitempty" example:"Points refunded"`
	Changed    bool                    `json:"changed" example:"true"`
	// Status is the redemption's status after the call. An unchanged
	// decision reports the status the redemption already had.
	Status     domain.RedemptionStatus `json:"status" example:"rejected"`
	Redemption *domain.Redemption      `json:"redemption"`
}

// AdminLogin godoc
// @ID          adminLogin
// @Summary     Admin login
// @Description Verifies the moderator credentials and returns a short-lived bearer token.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Invalid credentials"
// @Failure     429  {object}  handlers.ErrorResponse "Rate limited"
// @Router      /admin/login [post]
func (h *Handlers) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password required")
		return
	}
	if h.login.Credentials == nil {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "admin login is disabled")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = "admin"
	}
	if err := h.login.Credentials.Verify(username, req.Password); err != nil {
		middleware.LoggerFrom(c).Warn().Str("username", username).Msg("admin login failed")
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		return
	}

	ttl := h.login.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	tok, err := security.GenerateAdminToken(h.login.Secret, username, ttl)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue token")
		return
	}
	middleware.LoggerFrom(c).Info().Str("username", username).Msg("admin logged in")
	ok(c, http.StatusOK, LoginResponse{Token: tok, ExpiresAt: h.now().Add(ttl)})
}

// ListRedemptions godoc
// @ID          listRedemptions
// @Summary     Review queue
// @Description Lists redemptions pending first, then approved, then rejected; newest first within a status.
// @Tags        Admin
// @Produce     json
// @Security    AdminToken
//
// @Param       status     query  string  false "pending, approved or rejected; empty lists all"  Enums(pending, approved, rejected)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(200) default(50)
//
// @Success     200  {object}  handlers.QueueResponse
// @Failure     400  {object}  handlers.ErrorResponse "Unknown status"
// @Failure     401  {object}  handlers.ErrorResponse "Admin token required"
// @Router      /admin/redemptions [get]
func (h *Handlers) ListRedemptions(c *gin.Context) {
	page, pageSize := clampPagination(c)
	status := domain.RedemptionStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))

	items, total, err := h.redemptions.Queue(c.Request.Context(), status, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Redemption{}
	}
	ok(c, http.StatusOK, QueueResponse{
		Redemptions: items,
		Pagination:  newPagination(page, pageSize, total),
	})
}

// ApproveRedemption godoc
// @ID          approveRedemption
// @Summary     Approve a redemption
// @Description Marks a pending redemption approved. On a redemption that is already approved or rejected it is a no-op reporting the current status.
// @Tags        Admin
// @Produce     json
// @Security    AdminToken
// @Param       id  path  string  true  "Redemption id"  format(uuid)
// @Success     200  {object}  handlers.DecisionResponse
// @Failure     404  {object}  handlers.ErrorResponse "Redemption not found"
// @Failure     503  {object}  handlers.ErrorResponse "storage_unavailable"
// @Router      /admin/redemptions/{id}/approve [post]
func (h *Handlers) ApproveRedemption(c *gin.Context) {
	h.decide(c, services.DecisionApprove)
}

// RejectRedemption godoc
// @ID          rejectRedemption
// @Summary     Reject a redemption
// @Description Marks a pending redemption rejected and refunds its total cost exactly once. On a redemption that is already approved or rejected it is a no-op reporting the current status.
// @Tags        Admin
// @Produce     json
// @Security    AdminToken
// @Param       id  path  string  true  "Redemption id"  format(uuid)
// @Success     200  {object}  handlers.DecisionResponse
// @Failure     404  {object}  handlers.ErrorResponse "Redemption not found"
// @Failure     503  {object}  handlers.ErrorResponse "storage_unavailable"
// @Router      /admin/redemptions/{id}/reject [post]
func (h *Handlers) RejectRedemption(c *gin.Context) {
	h.decide(c, services.DecisionReject)
}

func (h *Handlers) decide(c *gin.Context, d services.Decision) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "redemption id required")
		return
	}

	res, err := h.redemptions.Decide(c.Request.Context(), id, d)
	if err != nil {
		if errors.Is(err, services.ErrRedemptionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "redemption not found")
			return
		}
		failErr(c, err)
		return
	}

	resp := DecisionResponse{
		Success:    true,
		Changed:    res.Changed,
		Status:     res.Redemption.Status,
		Redemption: res.Redemption,
	}
	switch {
	case !res.Changed:
		resp.Message = "Redemption already " + string(res.Redemption.Status)
	case d == services.DecisionReject:
		resp.Message = "Points refunded"
	}
	ok(c, http.StatusOK, resp)
}
