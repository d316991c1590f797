package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

func createTestProfessional(t *testing.T, db *gorm.DB, establishmentID int64) *models.Professional {
	t.Helper()

	professional := &models.Professional{
		EstablishmentID: establishmentID,
		Name:            "Profissional Teste",
		Active:          true,
	}
	require.NoError(t, db.Create(professional).Error)
	return professional
}

func createBooking(t *testing.T, repo *TransactionRepository, establishmentID, professionalID int64, no string, start, end time.Time, status string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		TransactionNo:   no,
		EstablishmentID: establishmentID,
		ProfessionalID:  &professionalID,
		Type:            models.TransactionTypeCompra,
		Status:          status,
		ScheduledAt:     &start,
		ScheduledEndAt:  &end,
	}
	require.NoError(t, repo.Create(context.Background(), tx))
	return tx
}

func TestTransactionRepository_FindOverlapping(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	professional := createTestProfessional(t, db, est.ID)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	booked := createBooking(t, repo, est.ID, professional.ID, "TX20260910100000000001",
		base, base.Add(time.Hour), models.TransactionStatusAgendada)

	t.Run("detects intersecting slot", func(t *testing.T) {
		hits, err := repo.FindOverlapping(ctx, est.ID, professional.ID,
			base.Add(30*time.Minute), base.Add(90*time.Minute), 0)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, booked.ID, hits[0].ID)
	})

	t.Run("back to back slots do not overlap", func(t *testing.T) {
		hits, err := repo.FindOverlapping(ctx, est.ID, professional.ID,
			base.Add(time.Hour), base.Add(2*time.Hour), 0)
		require.NoError(t, err)
		assert.Empty(t, hits)

		hits, err = repo.FindOverlapping(ctx, est.ID, professional.ID,
			base.Add(-time.Hour), base, 0)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("other professional is free", func(t *testing.T) {
		other := createTestProfessional(t, db, est.ID)
		hits, err := repo.FindOverlapping(ctx, est.ID, other.ID,
			base, base.Add(time.Hour), 0)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("cancelled bookings release the slot", func(t *testing.T) {
		createBooking(t, repo, est.ID, professional.ID, "TX20260910100000000002",
			base.Add(3*time.Hour), base.Add(4*time.Hour), models.TransactionStatusCancelada)

		hits, err := repo.FindOverlapping(ctx, est.ID, professional.ID,
			base.Add(3*time.Hour), base.Add(4*time.Hour), 0)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("reschedule excludes its own booking", func(t *testing.T) {
		hits, err := repo.FindOverlapping(ctx, est.ID, professional.ID,
			base, base.Add(time.Hour), booked.ID)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestTransactionRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	professional := createTestProfessional(t, db, est.ID)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 9, 12, 14, 0, 0, 0, time.UTC)
	booking := createBooking(t, repo, est.ID, professional.ID, "TX20260912140000000001",
		start, start.Add(time.Hour), models.TransactionStatusAgendada)

	ok, err := repo.UpdateStatus(ctx, booking.ID,
		[]string{models.TransactionStatusAgendada}, models.TransactionStatusConfirmada)
	require.NoError(t, err)
	assert.True(t, ok)

	// The guard rejects a transition from a status the row no longer holds.
	ok, err = repo.UpdateStatus(ctx, booking.ID,
		[]string{models.TransactionStatusAgendada}, models.TransactionStatusCancelada)
	require.NoError(t, err)
	assert.False(t, ok)

	updated, err := repo.GetByID(ctx, est.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusConfirmada, updated.Status)
}

func TestTransactionRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	professional := createTestProfessional(t, db, est.ID)
	customer := createTestCustomer(t, db, est.ID, "5511999990100")
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	sale := &models.Transaction{
		TransactionNo:   "TX20260830120000000001",
		EstablishmentID: est.ID,
		CustomerID:      &customer.ID,
		Type:            models.TransactionTypeCompra,
		Status:          models.TransactionStatusRealizada,
		Subtotal:        100,
		Total:           100,
		PointsMoved:     10,
		BalanceAfter:    10,
	}
	require.NoError(t, repo.Create(ctx, sale))

	createBooking(t, repo, est.ID, professional.ID, "TX20260829120000000001",
		past, past.Add(time.Hour), models.TransactionStatusRealizada)
	createBooking(t, repo, est.ID, professional.ID, "TX20260903120000000001",
		future, future.Add(time.Hour), models.TransactionStatusAgendada)

	t.Run("future bookings only", func(t *testing.T) {
		rows, total, err := repo.List(ctx, est.ID, 0, 20, TransactionFilter{
			Scheduled: true,
			Future:    true,
			Now:       now,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, "TX20260903120000000001", rows[0].TransactionNo)
	})

	t.Run("past bookings only", func(t *testing.T) {
		rows, total, err := repo.List(ctx, est.ID, 0, 20, TransactionFilter{
			Scheduled: true,
			Future:    false,
			Now:       now,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, "TX20260829120000000001", rows[0].TransactionNo)
	})

	t.Run("filter by customer", func(t *testing.T) {
		rows, total, err := repo.List(ctx, est.ID, 0, 20, TransactionFilter{
			CustomerID: customer.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, sale.ID, rows[0].ID)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		other := &models.Establishment{Name: "Outra Loja", Slug: "outra-loja", Status: models.EstablishmentStatusAtivo}
		require.NoError(t, db.Create(other).Error)

		rows, total, err := repo.List(ctx, other.ID, 0, 20, TransactionFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, rows)
	})
}

func TestTransactionRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	customer := createTestCustomer(t, db, est.ID, "5511999990200")
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	for i, total := range []float64{100, 250.50} {
		tx := &models.Transaction{
			TransactionNo:   fmt.Sprintf("TXSTATS%014d", i+1),
			EstablishmentID: est.ID,
			CustomerID:      &customer.ID,
			Type:            models.TransactionTypeCompra,
			Status:          models.TransactionStatusRealizada,
			Subtotal:        total,
			Total:           total,
			PointsMoved:     int(total / 10),
			BalanceAfter:    int(total / 10),
		}
		require.NoError(t, repo.Create(ctx, tx))
	}

	// A redemption moves points out; the awarded total must ignore it.
	redeem := &models.Transaction{
		TransactionNo:   "TXSTATS00000000000003",
		EstablishmentID: est.ID,
		CustomerID:      &customer.ID,
		Type:            models.TransactionTypeResgate,
		Status:          models.TransactionStatusRealizada,
		Description:     "Resgate de recompensa",
		PointsMoved:     -10,
		BalanceAfter:    25,
	}
	require.NoError(t, repo.Create(ctx, redeem))

	stats, err := repo.Stats(ctx, est.ID, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TransactionCount)
	assert.InDelta(t, 350.50, stats.Revenue, 0.001)
	assert.Equal(t, int64(35), stats.PointsEarned)
}
