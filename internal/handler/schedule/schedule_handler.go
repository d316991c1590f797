// Package schedule provides the appointment HTTP handlers.
package schedule

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	featureService "github.com/fidelizapp/fideliza-backend/internal/service/feature"
	notificationService "github.com/fidelizapp/fideliza-backend/internal/service/notification"
	scheduleService "github.com/fidelizapp/fideliza-backend/internal/service/schedule"
)

// Handler serves appointment booking and its lifecycle transitions.
type Handler struct {
	scheduleService     *scheduleService.ScheduleService
	featureService      *featureService.FeatureService
	notificationService *notificationService.NotificationService
}

// NewHandler creates the schedule handler.
func NewHandler(
	scheduleSvc *scheduleService.ScheduleService,
	featureSvc *featureService.FeatureService,
	notificationSvc *notificationService.NotificationService,
) *Handler {
	return &Handler{
		scheduleService:     scheduleSvc,
		featureService:      featureSvc,
		notificationService: notificationSvc,
	}
}

// requireScheduling aborts the request when the scheduling flag is off for
// the tenant.
func (h *Handler) requireScheduling(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		c.Abort()
		return
	}
	if err := h.featureService.RequireEnabled(c.Request.Context(), establishmentID, models.FeatureScheduling); err != nil {
		handler.HandleError(c, err)
		c.Abort()
		return
	}
	c.Next()
}

// Create books an appointment
// @Summary Criar agendamento
// @Tags Agenda
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body scheduleService.CreateBookingRequest true "Dados do agendamento"
// @Success 200 {object} response.Response{data=models.Transaction}
// @Router /api/v1/appointments [post]
func (h *Handler) Create(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req scheduleService.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	booking, err := h.scheduleService.Create(c.Request.Context(), establishmentID, userID, &req)
	handler.MustSucceed(c, err, booking)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// Reschedule moves an appointment keeping its slot length
// @Summary Remarcar agendamento
// @Tags Agenda
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "ID do agendamento"
// @Param request body rescheduleRequest true "Novo horário"
// @Success 200 {object} response.Response{data=models.Transaction}
// @Router /api/v1/appointments/{id}/reschedule [put]
func (h *Handler) Reschedule(c *gin.Context) {
	establishmentID, bookingID, ok := handler.RequireEstablishmentAndParseID(c, "agendamento")
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	booking, err := h.scheduleService.Reschedule(c.Request.Context(), establishmentID, bookingID, req.ScheduledAt)
	handler.MustSucceed(c, err, booking)
}

// Confirm marks an appointment as confirmed
// @Summary Confirmar agendamento
// @Tags Agenda
// @Produce json
// @Security Bearer
// @Param id path int true "ID do agendamento"
// @Success 200 {object} response.Response
// @Router /api/v1/appointments/{id}/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	establishmentID, bookingID, ok := handler.RequireEstablishmentAndParseID(c, "agendamento")
	if !ok {
		return
	}

	err := h.scheduleService.Confirm(c.Request.Context(), establishmentID, bookingID)
	handler.MustSucceed(c, err, nil)
}

// Cancel releases the appointment slot
// @Summary Cancelar agendamento
// @Tags Agenda
// @Produce json
// @Security Bearer
// @Param id path int true "ID do agendamento"
// @Success 200 {object} response.Response
// @Router /api/v1/appointments/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	establishmentID, bookingID, ok := handler.RequireEstablishmentAndParseID(c, "agendamento")
	if !ok {
		return
	}

	err := h.scheduleService.Cancel(c.Request.Context(), establishmentID, bookingID)
	handler.MustSucceed(c, err, nil)
}

// Complete finishes an appointment and credits loyalty points
// @Summary Concluir agendamento
// @Tags Agenda
// @Produce json
// @Security Bearer
// @Param id path int true "ID do agendamento"
// @Success 200 {object} response.Response{data=scheduleService.CompleteResult}
// @Router /api/v1/appointments/{id}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	establishmentID, bookingID, ok := handler.RequireEstablishmentAndParseID(c, "agendamento")
	if !ok {
		return
	}

	result, err := h.scheduleService.Complete(c.Request.Context(), establishmentID, bookingID)
	if handler.HandleError(c, err) {
		return
	}

	if h.notificationService != nil && result.Accrual != nil && result.Accrual.RewardArmed &&
		result.Accrual.RewardExpiry != nil && result.Transaction.CustomerID != nil {
		h.notificationService.NotifyRewardReady(c.Request.Context(), establishmentID, *result.Transaction.CustomerID, *result.Accrual.RewardExpiry)
	}
	response.Success(c, result)
}

// Agenda pages through the professional's appointments
// @Summary Agenda
// @Tags Agenda
// @Produce json
// @Security Bearer
// @Param page query int false "Página"
// @Param page_size query int false "Itens por página"
// @Param professional_id query int false "ID do profissional"
// @Param future query bool false "Somente futuros"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/appointments [get]
func (h *Handler) Agenda(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	var professionalID int64
	if id, ok := handler.ParseQueryID(c, "professional_id", "profissional"); !ok {
		return
	} else if id != nil {
		professionalID = *id
	}

	p := handler.BindPagination(c)
	future := c.DefaultQuery("future", "true") == "true"
	list, total, err := h.scheduleService.Agenda(c.Request.Context(), establishmentID, professionalID, future, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// RegisterRoutes registers the appointment routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	appointments.Use(h.requireScheduling)
	{
		appointments.POST("", h.Create)
		appointments.GET("", h.Agenda)
		appointments.PUT("/:id/reschedule", h.Reschedule)
		appointments.POST("/:id/confirm", h.Confirm)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/complete", h.Complete)
	}
}
