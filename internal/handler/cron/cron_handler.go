// Package cron provides the HTTP triggers for scheduled maintenance jobs.
// They allow an external scheduler to drive the jobs when the in-process
// scheduler is disabled.
package cron

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	"github.com/fidelizapp/fideliza-backend/internal/jobs"
)

// Handler triggers the maintenance jobs over HTTP.
type Handler struct {
	runner *jobs.Runner
	secret string
}

// NewHandler creates the cron handler.
func NewHandler(runner *jobs.Runner, secret string) *Handler {
	return &Handler{
		runner: runner,
		secret: secret,
	}
}

// guard rejects requests without the shared cron secret.
func (h *Handler) guard(c *gin.Context) {
	if h.secret == "" {
		response.Forbidden(c, "Execução de tarefas desabilitada")
		c.Abort()
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		response.Unauthorized(c, "Credencial de tarefa inválida")
		c.Abort()
		return
	}
	c.Next()
}

// ExpireRewards sweeps overdue rewards
// @Summary Expirar prêmios vencidos
// @Tags Tarefas
// @Produce json
// @Success 200 {object} response.Response{data=map[string]int}
// @Router /api/v1/cron/expire-rewards [post]
func (h *Handler) ExpireRewards(c *gin.Context) {
	expired, err := h.runner.ExpireRewards(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"expired": expired})
}

// SendReminders sends the upcoming appointment reminders
// @Summary Enviar lembretes de agendamento
// @Tags Tarefas
// @Produce json
// @Success 200 {object} response.Response{data=map[string]int}
// @Router /api/v1/cron/reminders [post]
func (h *Handler) SendReminders(c *gin.Context) {
	sent := h.runner.SendReminders(c.Request.Context(), time.Now())
	response.Success(c, gin.H{"sent": sent})
}

// PruneLogs removes audit entries older than the retention window
// @Summary Limpar auditoria antiga
// @Tags Tarefas
// @Produce json
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/cron/prune-logs [post]
func (h *Handler) PruneLogs(c *gin.Context) {
	removed, err := h.runner.PruneLogs(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"removed": removed})
}

// RegisterRoutes registers the cron trigger routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cron := r.Group("/cron")
	cron.Use(h.guard)
	{
		cron.POST("/expire-rewards", h.ExpireRewards)
		cron.POST("/reminders", h.SendReminders)
		cron.POST("/prune-logs", h.PruneLogs)
	}
}
