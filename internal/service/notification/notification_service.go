// Package notification dispatches WhatsApp messages to customers.
package notification

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/metrics"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
	"github.com/fidelizapp/fideliza-backend/internal/service/feature"
	"github.com/fidelizapp/fideliza-backend/pkg/whatsapp"
)

// NotificationService sends customer-facing messages. Every dispatch respects
// the notifications feature flag of the tenant and never fails the calling
// operation.
type NotificationService struct {
	db         *gorm.DB
	sender     whatsapp.Sender
	featureSvc *feature.FeatureService
	metrics    *metrics.Metrics
}

// NewNotificationService creates a NotificationService. sender may be nil
// when no channel is configured.
func NewNotificationService(db *gorm.DB, sender whatsapp.Sender, featureSvc *feature.FeatureService, m *metrics.Metrics) *NotificationService {
	return &NotificationService{
		db:         db,
		sender:     sender,
		featureSvc: featureSvc,
		metrics:    m,
	}
}

func (s *NotificationService) enabled(ctx context.Context, establishmentID int64) bool {
	if s.sender == nil {
		return false
	}
	enabled, err := s.featureSvc.IsEnabled(ctx, establishmentID, models.FeatureNotifications)
	if err != nil {
		logger.Warn("falha ao resolver feature de notificações",
			logger.EstablishmentID(establishmentID), logger.Err(err))
		return false
	}
	return enabled
}

func (s *NotificationService) send(ctx context.Context, establishmentID int64, to string, template whatsapp.Template, params map[string]string) {
	err := s.sender.Send(ctx, to, template, params)
	status := "sent"
	if err != nil {
		status = "failed"
		logger.Warn("falha ao enviar notificação",
			logger.EstablishmentID(establishmentID),
			logger.String("template", string(template)),
			logger.Err(err),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordNotification(string(template), status)
	}
}

// NotifyRewardReady tells a customer the reward is available.
func (s *NotificationService) NotifyRewardReady(ctx context.Context, establishmentID, customerID int64, expiresAt time.Time) {
	if !s.enabled(ctx, establishmentID) {
		return
	}

	customer, err := repository.NewCustomerRepository(s.db).GetByID(ctx, establishmentID, customerID)
	if err != nil {
		return
	}
	est, err := repository.NewEstablishmentRepository(s.db).GetByIDWithConfig(ctx, establishmentID)
	if err != nil {
		return
	}
	reward := ""
	if est.Config != nil {
		reward = est.Config.RewardDescription
	}

	s.send(ctx, establishmentID, customer.WhatsApp, whatsapp.TemplateRewardReady, map[string]string{
		"establishment": est.Name,
		"reward":        reward,
		"expires_at":    expiresAt.Format("02/01/2006"),
	})
}

// SendAppointmentReminders messages customers whose bookings start inside the
// window. Returns how many reminders went out.
func (s *NotificationService) SendAppointmentReminders(ctx context.Context, from, to time.Time) int {
	if s.sender == nil {
		return 0
	}

	bookings, err := repository.NewTransactionRepository(s.db).ListUpcoming(ctx, from, to)
	if err != nil {
		logger.Error("falha ao listar agendamentos para lembrete", logger.Err(err))
		return 0
	}

	estNames := map[int64]string{}
	sent := 0
	for _, booking := range bookings {
		if booking.Customer == nil || booking.ScheduledAt == nil {
			continue
		}
		if !s.enabled(ctx, booking.EstablishmentID) {
			continue
		}

		name, ok := estNames[booking.EstablishmentID]
		if !ok {
			est, err := repository.NewEstablishmentRepository(s.db).GetByID(ctx, booking.EstablishmentID)
			if err != nil {
				continue
			}
			name = est.Name
			estNames[booking.EstablishmentID] = name
		}

		professional := ""
		if booking.Professional != nil {
			professional = booking.Professional.Name
		}

		s.send(ctx, booking.EstablishmentID, booking.Customer.WhatsApp, whatsapp.TemplateAppointmentReminder, map[string]string{
			"establishment": name,
			"scheduled_at":  booking.ScheduledAt.Format("02/01/2006 15:04"),
			"professional":  professional,
		})
		sent++
	}
	return sent
}

// NotifyWelcome greets a freshly registered customer with the card link.
func (s *NotificationService) NotifyWelcome(ctx context.Context, establishmentID int64, customer *models.Customer, cardURL string) {
	if !s.enabled(ctx, establishmentID) {
		return
	}
	est, err := repository.NewEstablishmentRepository(s.db).GetByID(ctx, establishmentID)
	if err != nil {
		return
	}
	s.send(ctx, establishmentID, customer.WhatsApp, whatsapp.TemplateWelcome, map[string]string{
		"establishment": est.Name,
		"card_url":      cardURL,
	})
}
