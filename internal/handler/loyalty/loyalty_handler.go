// Package loyalty provides the loyalty card and redemption HTTP handlers.
package loyalty

import (
	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	adminService "github.com/fidelizapp/fideliza-backend/internal/service/admin"
	loyaltyService "github.com/fidelizapp/fideliza-backend/internal/service/loyalty"
)

// Handler serves balances, card images and reward redemption.
type Handler struct {
	loyaltyService *loyaltyService.LoyaltyService
	cardService    *loyaltyService.CardService
	adminService   *adminService.AdminService
}

// NewHandler creates the loyalty handler.
func NewHandler(loyaltySvc *loyaltyService.LoyaltyService, cardSvc *loyaltyService.CardService, adminSvc *adminService.AdminService) *Handler {
	return &Handler{
		loyaltyService: loyaltySvc,
		cardService:    cardSvc,
		adminService:   adminSvc,
	}
}

// Balance returns a customer's loyalty balance
// @Summary Saldo de fidelidade
// @Tags Fidelidade
// @Produce json
// @Security Bearer
// @Param id path int true "ID do cliente"
// @Success 200 {object} response.Response{data=models.CustomerLoyalty}
// @Router /api/v1/customers/{id}/loyalty [get]
func (h *Handler) Balance(c *gin.Context) {
	establishmentID, customerID, ok := handler.RequireEstablishmentAndParseID(c, "cliente")
	if !ok {
		return
	}

	loyalty, err := h.loyaltyService.Balance(c.Request.Context(), establishmentID, customerID)
	handler.MustSucceed(c, err, loyalty)
}

// Redeem consumes an armed reward
// @Summary Resgatar prêmio
// @Tags Fidelidade
// @Produce json
// @Security Bearer
// @Param id path int true "ID do cliente"
// @Success 200 {object} response.Response{data=loyaltyService.RedeemResult}
// @Router /api/v1/customers/{id}/redeem [post]
func (h *Handler) Redeem(c *gin.Context) {
	establishmentID, customerID, ok := handler.RequireEstablishmentAndParseID(c, "cliente")
	if !ok {
		return
	}
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	result, err := h.loyaltyService.Redeem(c.Request.Context(), establishmentID, customerID, userID)
	if handler.HandleError(c, err) {
		return
	}

	if h.adminService != nil {
		h.adminService.RecordAudit(c.Request.Context(), &adminService.AuditEntry{
			EstablishmentID: establishmentID,
			UserID:          &userID,
			Module:          "loyalty",
			Action:          "reward_redeem",
			TargetType:      "customer",
			TargetID:        customerID,
			IP:              c.ClientIP(),
			UserAgent:       c.Request.UserAgent(),
		})
	}
	response.Success(c, result)
}

// Card renders the customer's loyalty card with its QR code
// @Summary Cartão de fidelidade
// @Tags Fidelidade
// @Produce json
// @Security Bearer
// @Param id path int true "ID do cliente"
// @Success 200 {object} response.Response{data=loyaltyService.CardImage}
// @Router /api/v1/customers/{id}/card [get]
func (h *Handler) Card(c *gin.Context) {
	establishmentID, customerID, ok := handler.RequireEstablishmentAndParseID(c, "cliente")
	if !ok {
		return
	}

	card, err := h.cardService.RenderCard(c.Request.Context(), establishmentID, customerID)
	handler.MustSucceed(c, err, card)
}

// Status is the public card-status lookup reached through the QR code
// @Summary Consultar cartão (público)
// @Tags Fidelidade
// @Produce json
// @Param token path string true "Token do cartão"
// @Success 200 {object} response.Response{data=loyaltyService.CardStatus}
// @Router /api/v1/cards/{token} [get]
func (h *Handler) Status(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "Token inválido")
		return
	}

	status, err := h.cardService.Status(c.Request.Context(), token)
	handler.MustSucceed(c, err, status)
}

// RegisterRoutes registers the tenant-facing loyalty routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers")
	{
		customers.GET("/:id/loyalty", h.Balance)
		customers.GET("/:id/card", h.Card)
		customers.POST("/:id/redeem", h.Redeem)
	}
}

// RegisterPublicRoutes registers the unauthenticated card lookup.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/cards/:token", h.Status)
}
