// Package catalog provides the service and professional catalog HTTP handlers.
package catalog

import (
	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	catalogService "github.com/fidelizapp/fideliza-backend/internal/service/catalog"
)

// Handler serves the tenant's catalog of services and professionals.
type Handler struct {
	catalogService *catalogService.CatalogService
}

// NewHandler creates the catalog handler.
func NewHandler(catalogSvc *catalogService.CatalogService) *Handler {
	return &Handler{
		catalogService: catalogSvc,
	}
}

// CreateService adds a service to the catalog
// @Summary Cadastrar serviço
// @Tags Catálogo
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body catalogService.ServiceRequest true "Dados do serviço"
// @Success 200 {object} response.Response{data=models.Service}
// @Router /api/v1/services [post]
func (h *Handler) CreateService(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	var req catalogService.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	service, err := h.catalogService.CreateService(c.Request.Context(), establishmentID, &req)
	handler.MustSucceed(c, err, service)
}

// UpdateService edits a catalog service
// @Summary Atualizar serviço
// @Tags Catálogo
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "ID do serviço"
// @Param request body catalogService.ServiceRequest true "Dados do serviço"
// @Success 200 {object} response.Response{data=models.Service}
// @Router /api/v1/services/{id} [put]
func (h *Handler) UpdateService(c *gin.Context) {
	establishmentID, serviceID, ok := handler.RequireEstablishmentAndParseID(c, "serviço")
	if !ok {
		return
	}

	var req catalogService.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	service, err := h.catalogService.UpdateService(c.Request.Context(), establishmentID, serviceID, &req)
	handler.MustSucceed(c, err, service)
}

// ListServices pages through the catalog
// @Summary Listar serviços
// @Tags Catálogo
// @Produce json
// @Security Bearer
// @Param page query int false "Página"
// @Param page_size query int false "Itens por página"
// @Param active query bool false "Somente ativos"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/services [get]
func (h *Handler) ListServices(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	activeOnly := c.Query("active") == "true"
	services, total, err := h.catalogService.ListServices(c.Request.Context(), establishmentID, p.Page, p.PageSize, activeOnly)
	handler.MustSucceedPage(c, err, services, total, p.Page, p.PageSize)
}

// CreateProfessional adds a professional to the team
// @Summary Cadastrar profissional
// @Tags Catálogo
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body catalogService.ProfessionalRequest true "Dados do profissional"
// @Success 200 {object} response.Response{data=models.Professional}
// @Router /api/v1/professionals [post]
func (h *Handler) CreateProfessional(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	var req catalogService.ProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	professional, err := h.catalogService.CreateProfessional(c.Request.Context(), establishmentID, &req)
	handler.MustSucceed(c, err, professional)
}

// UpdateProfessional edits a professional
// @Summary Atualizar profissional
// @Tags Catálogo
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "ID do profissional"
// @Param request body catalogService.ProfessionalRequest true "Dados do profissional"
// @Success 200 {object} response.Response{data=models.Professional}
// @Router /api/v1/professionals/{id} [put]
func (h *Handler) UpdateProfessional(c *gin.Context) {
	establishmentID, professionalID, ok := handler.RequireEstablishmentAndParseID(c, "profissional")
	if !ok {
		return
	}

	var req catalogService.ProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	professional, err := h.catalogService.UpdateProfessional(c.Request.Context(), establishmentID, professionalID, &req)
	handler.MustSucceed(c, err, professional)
}

// ListProfessionals pages through the team
// @Summary Listar profissionais
// @Tags Catálogo
// @Produce json
// @Security Bearer
// @Param page query int false "Página"
// @Param page_size query int false "Itens por página"
// @Param active query bool false "Somente ativos"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/professionals [get]
func (h *Handler) ListProfessionals(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	activeOnly := c.Query("active") == "true"
	professionals, total, err := h.catalogService.ListProfessionals(c.Request.Context(), establishmentID, p.Page, p.PageSize, activeOnly)
	handler.MustSucceedPage(c, err, professionals, total, p.Page, p.PageSize)
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	services := r.Group("/services")
	{
		services.POST("", h.CreateService)
		services.GET("", h.ListServices)
		services.PUT("/:id", h.UpdateService)
	}

	professionals := r.Group("/professionals")
	{
		professionals.POST("", h.CreateProfessional)
		professionals.GET("", h.ListProfessionals)
		professionals.PUT("/:id", h.UpdateProfessional)
	}
}
