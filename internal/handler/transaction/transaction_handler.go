// Package transaction provides the sales, history and export HTTP handlers.
package transaction

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	adminService "github.com/fidelizapp/fideliza-backend/internal/service/admin"
	featureService "github.com/fidelizapp/fideliza-backend/internal/service/feature"
	notificationService "github.com/fidelizapp/fideliza-backend/internal/service/notification"
	transactionService "github.com/fidelizapp/fideliza-backend/internal/service/transaction"
)

// Handler serves sale recording, point adjustments, history and CSV exports.
type Handler struct {
	transactionService  *transactionService.TransactionService
	exportService       *transactionService.ExportService
	featureService      *featureService.FeatureService
	notificationService *notificationService.NotificationService
	adminService        *adminService.AdminService
}

// NewHandler creates the transaction handler.
func NewHandler(
	transactionSvc *transactionService.TransactionService,
	exportSvc *transactionService.ExportService,
	featureSvc *featureService.FeatureService,
	notificationSvc *notificationService.NotificationService,
	adminSvc *adminService.AdminService,
) *Handler {
	return &Handler{
		transactionService:  transactionSvc,
		exportService:       exportSvc,
		featureService:      featureSvc,
		notificationService: notificationSvc,
		adminService:        adminSvc,
	}
}

// RecordSale registers a completed purchase and credits loyalty points
// @Summary Registrar venda
// @Tags Transações
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body transactionService.RecordSaleRequest true "Dados da venda"
// @Success 200 {object} response.Response{data=transactionService.SaleResponse}
// @Router /api/v1/transactions [post]
func (h *Handler) RecordSale(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req transactionService.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	result, err := h.transactionService.RecordSale(c.Request.Context(), establishmentID, userID, &req)
	if handler.HandleError(c, err) {
		return
	}

	if h.notificationService != nil && result.Accrual != nil && result.Accrual.RewardArmed && result.Accrual.RewardExpiry != nil {
		h.notificationService.NotifyRewardReady(c.Request.Context(), establishmentID, req.CustomerID, *result.Accrual.RewardExpiry)
	}
	response.Success(c, result)
}

// AdjustPoints applies a manual balance correction
// @Summary Ajustar pontos
// @Tags Transações
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body transactionService.AdjustPointsRequest true "Dados do ajuste"
// @Success 200 {object} response.Response{data=models.Transaction}
// @Router /api/v1/points/adjust [post]
func (h *Handler) AdjustPoints(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req transactionService.AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	tx, err := h.transactionService.AdjustPoints(c.Request.Context(), establishmentID, userID, &req)
	if handler.HandleError(c, err) {
		return
	}

	if h.adminService != nil {
		h.adminService.RecordAudit(c.Request.Context(), &adminService.AuditEntry{
			EstablishmentID: establishmentID,
			UserID:          &userID,
			Module:          "transaction",
			Action:          "points_adjust",
			TargetType:      "customer",
			TargetID:        req.CustomerID,
			Details:         map[string]interface{}{"points": req.Points, "reason": req.Reason},
			IP:              c.ClientIP(),
			UserAgent:       c.Request.UserAgent(),
		})
	}
	response.Success(c, tx)
}

// History pages through the transaction history
// @Summary Histórico de transações
// @Tags Transações
// @Produce json
// @Security Bearer
// @Param page query int false "Página"
// @Param page_size query int false "Itens por página"
// @Param type query string false "Tipo da transação"
// @Param status query string false "Status"
// @Param customer_id query int false "ID do cliente"
// @Param customer query string false "Nome ou WhatsApp do cliente"
// @Param professional_id query int false "ID do profissional"
// @Param service_id query int false "ID do serviço"
// @Param from query string false "Data inicial (YYYY-MM-DD)"
// @Param to query string false "Data final (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/transactions [get]
func (h *Handler) History(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	req, ok := h.bindHistoryRequest(c)
	if !ok {
		return
	}

	list, total, err := h.transactionService.History(c.Request.Context(), establishmentID, req)
	handler.MustSucceedPage(c, err, list, total, req.Page, req.PageSize)
}

// Get returns one transaction with its items
// @Summary Detalhar transação
// @Tags Transações
// @Produce json
// @Security Bearer
// @Param id path int true "ID da transação"
// @Success 200 {object} response.Response{data=models.Transaction}
// @Router /api/v1/transactions/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	establishmentID, transactionID, ok := handler.RequireEstablishmentAndParseID(c, "transação")
	if !ok {
		return
	}

	tx, err := h.transactionService.Get(c.Request.Context(), establishmentID, transactionID)
	handler.MustSucceed(c, err, tx)
}

// Stats summarizes completed sales over a period
// @Summary Resumo do período
// @Tags Transações
// @Produce json
// @Security Bearer
// @Param from query string false "Data inicial (YYYY-MM-DD)"
// @Param to query string false "Data final (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=repository.PeriodStats}
// @Router /api/v1/transactions/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	// Defaults to the last 30 days.
	now := time.Now()
	if to == nil {
		to = &now
	}
	if from == nil {
		start := now.AddDate(0, 0, -30)
		from = &start
	}

	stats, err := h.transactionService.Stats(c.Request.Context(), establishmentID, *from, *to)
	handler.MustSucceed(c, err, stats)
}

// ExportHistory downloads the completed transactions as CSV
// @Summary Exportar transações realizadas
// @Tags Transações
// @Produce text/csv
// @Security Bearer
// @Success 200 {file} file
// @Router /api/v1/transactions/export [get]
func (h *Handler) ExportHistory(c *gin.Context) {
	h.export(c, false)
}

// ExportScheduled downloads the upcoming appointments as CSV
// @Summary Exportar agendamentos futuros
// @Tags Transações
// @Produce text/csv
// @Security Bearer
// @Success 200 {file} file
// @Router /api/v1/transactions/export/scheduled [get]
func (h *Handler) ExportScheduled(c *gin.Context) {
	h.export(c, true)
}

func (h *Handler) export(c *gin.Context, future bool) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}
	if err := h.featureService.RequireEnabled(c.Request.Context(), establishmentID, models.FeatureExports); handler.HandleError(c, err) {
		return
	}

	req, ok := h.bindHistoryRequest(c)
	if !ok {
		return
	}

	var file *transactionService.ExportFile
	var err error
	if future {
		file, err = h.exportService.ExportScheduled(c.Request.Context(), establishmentID, req)
	} else {
		file, err = h.exportService.ExportHistory(c.Request.Context(), establishmentID, req)
	}
	if handler.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *Handler) bindHistoryRequest(c *gin.Context) (*transactionService.HistoryRequest, bool) {
	p := handler.BindPagination(c)
	req := &transactionService.HistoryRequest{
		Type:          c.Query("type"),
		Status:        c.Query("status"),
		CustomerQuery: c.Query("customer"),
		Page:          p.Page,
		PageSize:      p.PageSize,
	}

	if id, ok := handler.ParseQueryID(c, "customer_id", "cliente"); !ok {
		return nil, false
	} else if id != nil {
		req.CustomerID = *id
	}
	if id, ok := handler.ParseQueryID(c, "professional_id", "profissional"); !ok {
		return nil, false
	} else if id != nil {
		req.ProfessionalID = *id
	}
	if id, ok := handler.ParseQueryID(c, "service_id", "serviço"); !ok {
		return nil, false
	} else if id != nil {
		req.ServiceID = *id
	}

	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return nil, false
	}
	req.From = from
	req.To = to
	return req, true
}

// RegisterRoutes registers the transaction routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	transactions := r.Group("/transactions")
	{
		transactions.POST("", h.RecordSale)
		transactions.GET("", h.History)
		transactions.GET("/stats", h.Stats)
		transactions.GET("/export", h.ExportHistory)
		transactions.GET("/export/scheduled", h.ExportScheduled)
		transactions.GET("/:id", h.Get)
	}

	r.POST("/points/adjust", h.AdjustPoints)
}
