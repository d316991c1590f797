package admin

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

func setupTest(t *testing.T) (*gorm.DB, *AdminService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Establishment{},
		&models.EstablishmentLog{},
		&models.Customer{},
		&models.CustomerLoyalty{},
		&models.Transaction{},
		&models.TransactionItem{},
	))

	return db, NewAdminService(db)
}

func TestAdminService_Stats(t *testing.T) {
	ctx := context.Background()
	db, svc := setupTest(t)

	for i, st := range []string{
		models.EstablishmentStatusAtivo,
		models.EstablishmentStatusAtivo,
		models.EstablishmentStatusTrial,
		models.EstablishmentStatusInativo,
	} {
		require.NoError(t, db.Create(&models.Establishment{
			Name: "Loja " + st, Slug: fmt.Sprintf("loja-%d", i), Status: st,
		}).Error)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Establishments[models.EstablishmentStatusAtivo])
	assert.Equal(t, int64(1), stats.Establishments[models.EstablishmentStatusTrial])
	assert.Equal(t, int64(1), stats.Establishments[models.EstablishmentStatusInativo])
	assert.Zero(t, stats.Customers)
}

func TestAdminService_SetEstablishmentStatus(t *testing.T) {
	ctx := context.Background()
	db, svc := setupTest(t)

	est := &models.Establishment{Name: "Loja", Slug: "loja", Status: models.EstablishmentStatusTrial}
	require.NoError(t, db.Create(est).Error)

	require.NoError(t, svc.SetEstablishmentStatus(ctx, est.ID, models.EstablishmentStatusAtivo))

	var reloaded models.Establishment
	require.NoError(t, db.First(&reloaded, est.ID).Error)
	assert.Equal(t, models.EstablishmentStatusAtivo, reloaded.Status)

	t.Run("rejects unknown status", func(t *testing.T) {
		err := svc.SetEstablishmentStatus(ctx, est.ID, "suspenso")
		require.Error(t, err)
	})

	t.Run("rejects unknown tenant", func(t *testing.T) {
		err := svc.SetEstablishmentStatus(ctx, 99999, models.EstablishmentStatusAtivo)
		require.Error(t, err)
	})
}

func TestAdminService_Audit(t *testing.T) {
	ctx := context.Background()
	db, svc := setupTest(t)

	est := &models.Establishment{Name: "Loja", Slug: "loja", Status: models.EstablishmentStatusAtivo}
	require.NoError(t, db.Create(est).Error)

	userID := int64(7)
	svc.RecordAudit(ctx, &AuditEntry{
		EstablishmentID: est.ID,
		UserID:          &userID,
		Module:          "transactions",
		Action:          "create",
		TargetType:      "transaction",
		TargetID:        42,
		Details:         map[string]interface{}{"total": 99.9},
		IP:              "10.0.0.1",
	})
	svc.RecordAudit(ctx, &AuditEntry{
		EstablishmentID: est.ID,
		Module:          "config",
		Action:          "update",
		IP:              "10.0.0.2",
	})

	t.Run("filter by module", func(t *testing.T) {
		logs, total, err := svc.ListLogs(ctx, 1, 20, repository.LogFilter{
			EstablishmentID: est.ID,
			Module:          "transactions",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, logs, 1)
		assert.Equal(t, "create", logs[0].Action)
		require.NotNil(t, logs[0].TargetID)
		assert.Equal(t, int64(42), *logs[0].TargetID)
	})

	t.Run("csv export", func(t *testing.T) {
		data, err := svc.ExportLogs(ctx, 100, repository.LogFilter{EstablishmentID: est.ID})
		require.NoError(t, err)
		assert.Contains(t, string(data), "Módulo")
		assert.Contains(t, string(data), "transactions")
		assert.Contains(t, string(data), "transaction#42")
	})
}
