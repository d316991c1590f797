// Package feature provides the feature flag HTTP handlers.
package feature

import (
	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	featureService "github.com/fidelizapp/fideliza-backend/internal/service/feature"
)

// Handler serves the tenant flag listing and the admin overrides.
type Handler struct {
	featureService *featureService.FeatureService
}

// NewHandler creates the feature handler.
func NewHandler(featureSvc *featureService.FeatureService) *Handler {
	return &Handler{
		featureService: featureSvc,
	}
}

// List returns the flags as resolved for the authenticated tenant
// @Summary Listar recursos do estabelecimento
// @Tags Recursos
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]featureService.TenantFlag}
// @Router /api/v1/features [get]
func (h *Handler) List(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	flags, err := h.featureService.ListForTenant(c.Request.Context(), establishmentID)
	handler.MustSucceed(c, err, flags)
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

// SetOverride sets a per-tenant flag override
// @Summary Definir recurso do estabelecimento
// @Tags Recursos
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "ID do estabelecimento"
// @Param key path string true "Chave do recurso"
// @Param request body toggleRequest true "Estado desejado"
// @Success 200 {object} response.Response
// @Router /api/admin/establishments/{id}/features/{key} [put]
func (h *Handler) SetOverride(c *gin.Context) {
	establishmentID, ok := handler.ParseID(c, "estabelecimento")
	if !ok {
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	err := h.featureService.SetOverride(c.Request.Context(), establishmentID, c.Param("key"), req.Enabled)
	handler.MustSucceed(c, err, nil)
}

// ClearOverride removes a per-tenant flag override
// @Summary Remover recurso do estabelecimento
// @Tags Recursos
// @Produce json
// @Security Bearer
// @Param id path int true "ID do estabelecimento"
// @Param key path string true "Chave do recurso"
// @Success 200 {object} response.Response
// @Router /api/admin/establishments/{id}/features/{key} [delete]
func (h *Handler) ClearOverride(c *gin.Context) {
	establishmentID, ok := handler.ParseID(c, "estabelecimento")
	if !ok {
		return
	}

	err := h.featureService.ClearOverride(c.Request.Context(), establishmentID, c.Param("key"))
	handler.MustSucceed(c, err, nil)
}

// SetDefault changes a flag's platform-wide default
// @Summary Definir padrão do recurso
// @Tags Recursos
// @Accept json
// @Produce json
// @Security Bearer
// @Param key path string true "Chave do recurso"
// @Param request body toggleRequest true "Estado desejado"
// @Success 200 {object} response.Response
// @Router /api/admin/features/{key} [put]
func (h *Handler) SetDefault(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	err := h.featureService.SetDefault(c.Request.Context(), c.Param("key"), req.Enabled)
	handler.MustSucceed(c, err, nil)
}

// RegisterRoutes registers the tenant-facing routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/features", h.List)
}

// RegisterAdminRoutes registers the platform admin routes.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.PUT("/establishments/:id/features/:key", h.SetOverride)
	r.DELETE("/establishments/:id/features/:key", h.ClearOverride)
	r.PUT("/features/:key", h.SetDefault)
}
