// Package schedule manages bookings, which are transactions carrying a slot.
package schedule

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
	"github.com/fidelizapp/fideliza-backend/internal/service/loyalty"
)

// ScheduleService books and transitions appointments. A booking occupies the
// half-open interval [scheduled_at, scheduled_end_at) of one professional.
type ScheduleService struct {
	db         *gorm.DB
	loyaltySvc *loyalty.LoyaltyService
}

// NewScheduleService creates a ScheduleService.
func NewScheduleService(db *gorm.DB, loyaltySvc *loyalty.LoyaltyService) *ScheduleService {
	return &ScheduleService{db: db, loyaltySvc: loyaltySvc}
}

// BookingItem is one service of a booking.
type BookingItem struct {
	ServiceID int64 `json:"service_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// CreateBookingRequest books a slot with a professional.
type CreateBookingRequest struct {
	CustomerID     int64         `json:"customer_id"`
	ProfessionalID int64         `json:"professional_id" binding:"required"`
	ScheduledAt    time.Time     `json:"scheduled_at" binding:"required"`
	Items          []BookingItem `json:"items" binding:"required"`
	Description    string        `json:"description"`
}

// Create books an appointment. The slot length is the summed duration of the
// requested services and the slot must not intersect another active booking
// of the same professional.
func (s *ScheduleService) Create(ctx context.Context, establishmentID, createdBy int64, req *CreateBookingRequest) (*models.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, errors.ErrAppointmentNoItems
	}
	if !req.ScheduledAt.After(time.Now()) {
		return nil, errors.ErrAppointmentPast
	}

	var booking *models.Transaction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		estRepo := repository.NewEstablishmentRepository(tx)
		est, err := estRepo.GetByID(ctx, establishmentID)
		if err != nil {
			return errors.ErrEstablishmentNotFound
		}
		if !est.IsOperational() {
			return errors.ErrEstablishmentInactive
		}

		catalogRepo := repository.NewCatalogRepository(tx)
		professional, err := catalogRepo.GetProfessionalByID(ctx, establishmentID, req.ProfessionalID)
		if err != nil || !professional.Active {
			return errors.ErrProfessionalNotFound
		}

		items, subtotal, duration, err := s.resolveItems(ctx, tx, establishmentID, req.Items)
		if err != nil {
			return err
		}

		start := req.ScheduledAt
		end := start.Add(duration)

		txRepo := repository.NewTransactionRepository(tx)
		conflicts, err := txRepo.FindOverlapping(ctx, establishmentID, professional.ID, start, end, 0)
		if err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao verificar agenda", err)
		}
		if len(conflicts) > 0 {
			return errors.ErrAppointmentConflict
		}

		booking = &models.Transaction{
			TransactionNo:   utils.GenerateTransactionNo("AG"),
			EstablishmentID: establishmentID,
			ProfessionalID:  &professional.ID,
			Type:            models.TransactionTypeCompra,
			Status:          models.TransactionStatusAgendada,
			Subtotal:        subtotal,
			Total:           subtotal,
			ScheduledAt:     &start,
			ScheduledEndAt:  &end,
			Description:     req.Description,
			CreatedBy:       createdBy,
			Items:           items,
		}

		if req.CustomerID > 0 {
			customerRepo := repository.NewCustomerRepository(tx)
			customer, err := customerRepo.GetByID(ctx, establishmentID, req.CustomerID)
			if err != nil {
				return errors.ErrCustomerNotFound
			}
			booking.CustomerID = &customer.ID
		}

		if err := txRepo.Create(ctx, booking); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao criar agendamento", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("agendamento criado",
		logger.EstablishmentID(establishmentID),
		logger.TransactionNo(booking.TransactionNo),
		logger.Time("scheduled_at", *booking.ScheduledAt),
	)
	return booking, nil
}

func (s *ScheduleService) resolveItems(ctx context.Context, tx *gorm.DB, establishmentID int64, items []BookingItem) ([]models.TransactionItem, float64, time.Duration, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ServiceID)
	}

	catalogRepo := repository.NewCatalogRepository(tx)
	services, err := catalogRepo.GetServicesByIDs(ctx, establishmentID, ids)
	if err != nil {
		return nil, 0, 0, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar serviços", err)
	}
	byID := make(map[int64]*models.Service, len(services))
	for _, service := range services {
		byID[service.ID] = service
	}

	result := make([]models.TransactionItem, 0, len(items))
	var subtotal float64
	var duration time.Duration
	for _, item := range items {
		service, ok := byID[item.ServiceID]
		if !ok {
			return nil, 0, 0, errors.ErrServiceNotFound
		}
		if !service.Active {
			return nil, 0, 0, errors.ErrServiceInactive
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		result = append(result, models.TransactionItem{
			ServiceID:   service.ID,
			ServiceName: service.Name,
			Quantity:    quantity,
			UnitPrice:   service.Price,
			DurationMin: service.DurationMin,
		})
		subtotal += service.Price * float64(quantity)
		duration += time.Duration(service.DurationMin*quantity) * time.Minute
	}

	if duration <= 0 {
		return nil, 0, 0, errors.ErrAppointmentNoItems
	}
	return result, subtotal, duration, nil
}

// Reschedule moves a booking to a new slot, keeping its services.
func (s *ScheduleService) Reschedule(ctx context.Context, establishmentID, bookingID int64, newStart time.Time) (*models.Transaction, error) {
	if !newStart.After(time.Now()) {
		return nil, errors.ErrAppointmentPast
	}

	var booking *models.Transaction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewTransactionRepository(tx)
		current, err := txRepo.GetByID(ctx, establishmentID, bookingID)
		if err != nil {
			return errors.ErrAppointmentNotFound
		}
		if !current.IsActiveBooking() || current.Status == models.TransactionStatusRealizada {
			return errors.ErrAppointmentStatus
		}
		if current.ProfessionalID == nil || current.ScheduledAt == nil || current.ScheduledEndAt == nil {
			return errors.ErrAppointmentNotFound
		}

		length := current.ScheduledEndAt.Sub(*current.ScheduledAt)
		newEnd := newStart.Add(length)

		conflicts, err := txRepo.FindOverlapping(ctx, establishmentID, *current.ProfessionalID, newStart, newEnd, current.ID)
		if err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao verificar agenda", err)
		}
		if len(conflicts) > 0 {
			return errors.ErrAppointmentConflict
		}

		if err := txRepo.UpdateFields(ctx, current.ID, map[string]interface{}{
			"scheduled_at":     newStart,
			"scheduled_end_at": newEnd,
		}); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao remarcar agendamento", err)
		}

		current.ScheduledAt = &newStart
		current.ScheduledEndAt = &newEnd
		booking = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Confirm moves a pending booking to confirmed.
func (s *ScheduleService) Confirm(ctx context.Context, establishmentID, bookingID int64) error {
	return s.transition(ctx, establishmentID, bookingID,
		[]string{models.TransactionStatusAgendada},
		models.TransactionStatusConfirmada)
}

// Cancel releases the slot of a pending or confirmed booking.
func (s *ScheduleService) Cancel(ctx context.Context, establishmentID, bookingID int64) error {
	return s.transition(ctx, establishmentID, bookingID,
		[]string{models.TransactionStatusAgendada, models.TransactionStatusConfirmada},
		models.TransactionStatusCancelada)
}

func (s *ScheduleService) transition(ctx context.Context, establishmentID, bookingID int64, from []string, to string) error {
	txRepo := repository.NewTransactionRepository(s.db)
	booking, err := txRepo.GetByID(ctx, establishmentID, bookingID)
	if err != nil {
		return errors.ErrAppointmentNotFound
	}
	if !booking.IsScheduled() {
		return errors.ErrAppointmentNotFound
	}

	ok, err := txRepo.UpdateStatus(ctx, booking.ID, from, to)
	if err != nil {
		return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao atualizar agendamento", err)
	}
	if !ok {
		return errors.ErrAppointmentStatus
	}
	return nil
}

// CompleteResult reports a completed booking and its accrual.
type CompleteResult struct {
	Transaction *models.Transaction    `json:"transaction"`
	Accrual     *loyalty.AccrualResult `json:"accrual,omitempty"`
}

// Complete marks a booking as performed and credits loyalty points over its
// total, the same way a direct sale would.
func (s *ScheduleService) Complete(ctx context.Context, establishmentID, bookingID int64) (*CompleteResult, error) {
	var result *CompleteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewTransactionRepository(tx)
		booking, err := txRepo.GetByID(ctx, establishmentID, bookingID)
		if err != nil {
			return errors.ErrAppointmentNotFound
		}
		if !booking.IsScheduled() {
			return errors.ErrAppointmentNotFound
		}

		ok, err := txRepo.UpdateStatus(ctx, booking.ID,
			[]string{models.TransactionStatusAgendada, models.TransactionStatusConfirmada},
			models.TransactionStatusRealizada)
		if err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao concluir agendamento", err)
		}
		if !ok {
			return errors.ErrAppointmentStatus
		}
		booking.Status = models.TransactionStatusRealizada

		result = &CompleteResult{Transaction: booking}

		if booking.CustomerID != nil {
			estRepo := repository.NewEstablishmentRepository(tx)
			cfg, err := estRepo.GetConfig(ctx, establishmentID)
			if err != nil {
				return errors.ErrConfigNotFound
			}
			accrual, err := s.loyaltySvc.AccrueTx(ctx, tx, cfg, *booking.CustomerID, booking.Total)
			if err != nil {
				return err
			}
			result.Accrual = accrual
			booking.PointsMoved = accrual.PointsEarned
			booking.BalanceAfter = accrual.NewBalance
			if err := txRepo.UpdateFields(ctx, booking.ID, map[string]interface{}{
				"points_moved":  accrual.PointsEarned,
				"balance_after": accrual.NewBalance,
			}); err != nil {
				return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao concluir agendamento", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Agenda lists bookings of a tenant. Future bookings come ordered by slot,
// past ones newest first.
func (s *ScheduleService) Agenda(ctx context.Context, establishmentID int64, professionalID int64, future bool, page, pageSize int) ([]*models.Transaction, int64, error) {
	pagination := utils.Pagination{Page: page, PageSize: pageSize}
	pagination.Normalize()

	txRepo := repository.NewTransactionRepository(s.db)
	return txRepo.List(ctx, establishmentID, pagination.GetOffset(), pagination.GetLimit(), repository.TransactionFilter{
		ProfessionalID: professionalID,
		Scheduled:      true,
		Future:         future,
		Now:            time.Now(),
	})
}
