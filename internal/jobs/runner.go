// Package jobs holds the scheduled maintenance jobs and their cron runner.
package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	adminService "github.com/fidelizapp/fideliza-backend/internal/service/admin"
	loyaltyService "github.com/fidelizapp/fideliza-backend/internal/service/loyalty"
	notificationService "github.com/fidelizapp/fideliza-backend/internal/service/notification"
)

const (
	// Expired rewards are swept in batches of this size.
	expireBatchSize = 200

	// Audit entries older than this are pruned.
	logRetention = 180 * 24 * time.Hour
)

// Runner executes the maintenance jobs. The cron scheduler and the HTTP cron
// triggers both drive the same runner so a job behaves identically no matter
// who fired it.
type Runner struct {
	loyaltyService      *loyaltyService.LoyaltyService
	notificationService *notificationService.NotificationService
	adminService        *adminService.AdminService
	reminderHorizon     time.Duration
}

// NewRunner creates the job runner.
func NewRunner(
	loyaltySvc *loyaltyService.LoyaltyService,
	notificationSvc *notificationService.NotificationService,
	adminSvc *adminService.AdminService,
	reminderHorizon time.Duration,
) *Runner {
	if reminderHorizon <= 0 {
		reminderHorizon = 24 * time.Hour
	}
	return &Runner{
		loyaltyService:      loyaltySvc,
		notificationService: notificationSvc,
		adminService:        adminSvc,
		reminderHorizon:     reminderHorizon,
	}
}

// ExpireRewards sweeps rewards whose validity window has passed.
func (r *Runner) ExpireRewards(ctx context.Context) (int, error) {
	expired, err := r.loyaltyService.ExpireOverdueRewards(ctx, expireBatchSize)
	if err != nil {
		logger.Error("Varredura de prêmios vencidos falhou", zap.Error(err))
		return expired, err
	}
	if expired > 0 {
		logger.Info("Prêmios vencidos expirados", zap.Int("expired", expired))
	}
	return expired, nil
}

// SendReminders notifies customers of appointments starting within the
// reminder horizon. The job is expected to run once per horizon window.
func (r *Runner) SendReminders(ctx context.Context, now time.Time) int {
	if r.notificationService == nil {
		return 0
	}
	sent := r.notificationService.SendAppointmentReminders(ctx, now, now.Add(r.reminderHorizon))
	if sent > 0 {
		logger.Info("Lembretes de agendamento enviados", zap.Int("sent", sent))
	}
	return sent
}

// PruneLogs removes audit entries past the retention window.
func (r *Runner) PruneLogs(ctx context.Context) (int64, error) {
	removed, err := r.adminService.PruneLogs(ctx, logRetention)
	if err != nil {
		logger.Error("Limpeza de auditoria falhou", zap.Error(err))
		return removed, err
	}
	if removed > 0 {
		logger.Info("Registros de auditoria removidos", zap.Int64("removed", removed))
	}
	return removed, nil
}
