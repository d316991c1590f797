// Package admin provides the platform back-office HTTP handlers.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
	adminService "github.com/fidelizapp/fideliza-backend/internal/service/admin"
)

// Log exports are capped to keep the download bounded.
const logExportMaxRows = 10000

// Handler serves platform statistics, tenant management and the audit trail.
type Handler struct {
	adminService *adminService.AdminService
}

// NewHandler creates the admin handler.
func NewHandler(adminSvc *adminService.AdminService) *Handler {
	return &Handler{
		adminService: adminSvc,
	}
}

// Stats summarizes the platform
// @Summary Estatísticas da plataforma
// @Tags Administração
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.PlatformStats}
// @Router /api/admin/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	stats, err := h.adminService.Stats(c.Request.Context())
	handler.MustSucceed(c, err, stats)
}

// ListEstablishments pages through the registered tenants
// @Summary Listar estabelecimentos
// @Tags Administração
// @Produce json
// @Security Bearer
// @Param page query int false "Página"
// @Param page_size query int false "Itens por página"
// @Param status query string false "Status"
// @Param name query string false "Nome"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/admin/establishments [get]
func (h *Handler) ListEstablishments(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	p := handler.BindPagination(c)
	list, total, err := h.adminService.ListEstablishments(c.Request.Context(), p.Page, p.PageSize, c.Query("status"), c.Query("name"))
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetEstablishmentStatus activates, suspends or blocks a tenant
// @Summary Alterar status do estabelecimento
// @Tags Administração
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "ID do estabelecimento"
// @Param request body statusRequest true "Novo status"
// @Success 200 {object} response.Response
// @Router /api/admin/establishments/{id}/status [put]
func (h *Handler) SetEstablishmentStatus(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	establishmentID, ok := handler.ParseID(c, "estabelecimento")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	err := h.adminService.SetEstablishmentStatus(c.Request.Context(), establishmentID, req.Status)
	if handler.HandleError(c, err) {
		return
	}

	h.adminService.RecordAudit(c.Request.Context(), &adminService.AuditEntry{
		EstablishmentID: establishmentID,
		UserID:          &adminID,
		Module:          "admin",
		Action:          "status_change",
		TargetType:      "establishment",
		TargetID:        establishmentID,
		Details:         map[string]interface{}{"status": req.Status},
		IP:              c.ClientIP(),
		UserAgent:       c.Request.UserAgent(),
	})
	response.Success(c, nil)
}

// ListLogs pages through the audit trail
// @Summary Listar auditoria
// @Tags Administração
// @Produce json
// @Security Bearer
// @Param page query int false "Página"
// @Param page_size query int false "Itens por página"
// @Param establishment_id query int false "ID do estabelecimento"
// @Param module query string false "Módulo"
// @Param action query string false "Ação"
// @Param from query string false "Data inicial (YYYY-MM-DD)"
// @Param to query string false "Data final (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/admin/logs [get]
func (h *Handler) ListLogs(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	filter, ok := h.bindLogFilter(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	list, total, err := h.adminService.ListLogs(c.Request.Context(), p.Page, p.PageSize, filter)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// ExportLogs downloads the audit trail as CSV
// @Summary Exportar auditoria
// @Tags Administração
// @Produce text/csv
// @Security Bearer
// @Success 200 {file} file
// @Router /api/admin/logs/export [get]
func (h *Handler) ExportLogs(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	filter, ok := h.bindLogFilter(c)
	if !ok {
		return
	}

	data, err := h.adminService.ExportLogs(c.Request.Context(), logExportMaxRows, filter)
	if handler.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="auditoria.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *Handler) bindLogFilter(c *gin.Context) (repository.LogFilter, bool) {
	filter := repository.LogFilter{
		Module: c.Query("module"),
		Action: c.Query("action"),
	}

	if id, ok := handler.ParseQueryID(c, "establishment_id", "estabelecimento"); !ok {
		return filter, false
	} else if id != nil {
		filter.EstablishmentID = *id
	}
	if id, ok := handler.ParseQueryID(c, "user_id", "usuário"); !ok {
		return filter, false
	} else if id != nil {
		filter.UserID = *id
	}

	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return filter, false
	}
	filter.From = from
	filter.To = to
	return filter, true
}

// RegisterRoutes registers the admin routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.Stats)
	r.GET("/establishments", h.ListEstablishments)
	r.PUT("/establishments/:id/status", h.SetEstablishmentStatus)
	r.GET("/logs", h.ListLogs)
	r.GET("/logs/export", h.ExportLogs)
}
