package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Invitation{},
		&models.Establishment{},
		&models.EstablishmentConfig{},
		&models.EstablishmentLog{},
		&models.Customer{},
		&models.CustomerLoyalty{},
		&models.RewardRedemption{},
		&models.Transaction{},
		&models.TransactionItem{},
		&models.Service{},
		&models.Professional{},
		&models.Feature{},
		&models.EstablishmentFeature{},
	)
	require.NoError(t, err)

	return db
}

func createTestEstablishment(t *testing.T, db *gorm.DB) *models.Establishment {
	t.Helper()

	est := &models.Establishment{
		Name:   "Barbearia Teste",
		Slug:   "barbearia-teste",
		Status: models.EstablishmentStatusAtivo,
	}
	require.NoError(t, db.Create(est).Error)
	return est
}

func createTestCustomer(t *testing.T, db *gorm.DB, establishmentID int64, whatsapp string) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		Name:     "Cliente Teste",
		WhatsApp: whatsapp,
	}
	require.NoError(t, db.Create(customer).Error)

	loyalty := &models.CustomerLoyalty{
		CustomerID:      customer.ID,
		EstablishmentID: establishmentID,
		StatusToken:     "token-" + whatsapp,
	}
	require.NoError(t, db.Create(loyalty).Error)

	return customer
}
