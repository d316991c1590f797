//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/cache"
	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	customerService "github.com/fidelizapp/fideliza-backend/internal/service/customer"
	featureService "github.com/fidelizapp/fideliza-backend/internal/service/feature"
	loyaltyService "github.com/fidelizapp/fideliza-backend/internal/service/loyalty"
	transactionService "github.com/fidelizapp/fideliza-backend/internal/service/transaction"
)

func migrateAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.AutoMigrate(
		&models.Establishment{},
		&models.EstablishmentConfig{},
		&models.EstablishmentLog{},
		&models.Feature{},
		&models.EstablishmentFeature{},
		&models.User{},
		&models.Invitation{},
		&models.Customer{},
		&models.CustomerLoyalty{},
		&models.RewardRedemption{},
		&models.Transaction{},
		&models.TransactionItem{},
		&models.Service{},
		&models.Professional{},
	))
}

// TestLoyaltyFlow exercises the accrual, arming and redemption cycle against
// real Postgres and Redis.
func TestLoyaltyFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tc := NewTestContainers(ctx)
	require.NoError(t, tc.StartAll(), "failed to start containers")
	t.Cleanup(func() {
		_ = tc.Cleanup()
	})

	db, err := tc.GetPostgresDB()
	require.NoError(t, err)
	migrateAll(t, db)

	redisClient, err := tc.GetRedisClient()
	require.NoError(t, err)
	cache.SetClient(redisClient)

	est := &models.Establishment{Name: "Barbearia do Zé", Slug: "barbearia-do-ze", Status: models.EstablishmentStatusAtivo}
	require.NoError(t, db.Create(est).Error)
	require.NoError(t, db.Create(&models.EstablishmentConfig{
		EstablishmentID:    est.ID,
		ProgramType:        models.ProgramTypeCarimbo,
		StampsForReward:    3,
		RewardDescription:  "Corte grátis",
		RewardValidityDays: 30,
	}).Error)
	require.NoError(t, db.Create(&models.Professional{
		EstablishmentID: est.ID,
		Name:            "Zé",
		Active:          true,
	}).Error)

	loyaltySvc := loyaltyService.NewLoyaltyService(db, nil, 30)
	customerSvc := customerService.NewCustomerService(db)
	transactionSvc := transactionService.NewTransactionService(db, loyaltySvc, nil, nil)

	customer, err := customerSvc.Create(ctx, est.ID, &customerService.CreateCustomerRequest{
		Name:     "João da Silva",
		WhatsApp: "(11) 98765-4321",
	})
	require.NoError(t, err)

	t.Run("accrual arms the reward at the threshold", func(t *testing.T) {
		var sale *transactionService.SaleResponse
		for i := 0; i < 3; i++ {
			var err error
			sale, err = transactionSvc.RecordSale(ctx, est.ID, 0, &transactionService.RecordSaleRequest{
				CustomerID: customer.ID,
				Subtotal:   40,
			})
			require.NoError(t, err)
		}
		require.NotNil(t, sale.Accrual)
		assert.Equal(t, 3, sale.Accrual.NewBalance)
		assert.True(t, sale.Accrual.RewardArmed)
	})

	t.Run("redeem consumes the armed reward once", func(t *testing.T) {
		result, err := loyaltySvc.Redeem(ctx, est.ID, customer.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, result.PointsUsed)

		_, err = loyaltySvc.Redeem(ctx, est.ID, customer.ID, 0)
		require.Error(t, err)
		assert.Equal(t, errors.ErrRewardNotAvailable.Code, errors.GetAppError(err).Code)
	})
}

// TestFeatureFlagsOverRedis verifies flag resolution and cache invalidation
// against a real Redis.
func TestFeatureFlagsOverRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tc := NewTestContainers(ctx)
	require.NoError(t, tc.StartAll(), "failed to start containers")
	t.Cleanup(func() {
		_ = tc.Cleanup()
	})

	db, err := tc.GetPostgresDB()
	require.NoError(t, err)
	migrateAll(t, db)

	redisClient, err := tc.GetRedisClient()
	require.NoError(t, err)
	cache.SetClient(redisClient)

	est := &models.Establishment{Name: "Loja Teste", Slug: "loja-teste", Status: models.EstablishmentStatusAtivo}
	require.NoError(t, db.Create(est).Error)

	featureSvc := featureService.NewFeatureService(db, time.Minute, nil)
	require.NoError(t, featureSvc.Seed(ctx))

	enabled, err := featureSvc.IsEnabled(ctx, est.ID, models.FeatureExports)
	require.NoError(t, err)
	assert.True(t, enabled, "exports defaults to enabled")

	require.NoError(t, featureSvc.SetOverride(ctx, est.ID, models.FeatureExports, false))

	enabled, err = featureSvc.IsEnabled(ctx, est.ID, models.FeatureExports)
	require.NoError(t, err)
	assert.False(t, enabled, "toggle takes effect immediately after invalidation")
}
