package loyalty

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Establishment{},
		&models.EstablishmentConfig{},
		&models.Customer{},
		&models.CustomerLoyalty{},
		&models.RewardRedemption{},
		&models.Transaction{},
		&models.TransactionItem{},
	))

	return db
}

func setupProgram(t *testing.T, db *gorm.DB, programType string, valuePerPoint float64, stampsForReward int) (*models.Establishment, *models.EstablishmentConfig) {
	t.Helper()

	est := &models.Establishment{
		Name:   "Estabelecimento Teste",
		Slug:   "estabelecimento-" + programType,
		Status: models.EstablishmentStatusAtivo,
	}
	require.NoError(t, db.Create(est).Error)

	cfg := &models.EstablishmentConfig{
		EstablishmentID:    est.ID,
		ProgramType:        programType,
		ValuePerPoint:      valuePerPoint,
		StampsForReward:    stampsForReward,
		RewardDescription:  "Corte grátis",
		RewardValidityDays: 30,
	}
	require.NoError(t, db.Create(cfg).Error)

	return est, cfg
}

func setupCustomer(t *testing.T, db *gorm.DB, establishmentID int64, whatsapp string) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		Name:     "Cliente Teste",
		WhatsApp: whatsapp,
	}
	require.NoError(t, db.Create(customer).Error)
	require.NoError(t, db.Create(&models.CustomerLoyalty{
		CustomerID:      customer.ID,
		EstablishmentID: establishmentID,
		StatusToken:     "token-" + whatsapp,
	}).Error)
	return customer
}

func TestComputePoints(t *testing.T) {
	points := &models.EstablishmentConfig{ProgramType: models.ProgramTypePontuacao, ValuePerPoint: 10}

	tests := []struct {
		name string
		cfg  *models.EstablishmentConfig
		base float64
		want int
	}{
		{"zero base earns nothing", points, 0, 0},
		{"below one point floors to zero", points, 9.4, 0},
		{"just under next point", points, 94.99, 9},
		{"exact multiple", points, 95, 9},
		{"large amount", points, 100000, 10000},
		{"negative base earns nothing", points, -50, 0},
		{
			"non positive rate earns nothing",
			&models.EstablishmentConfig{ProgramType: models.ProgramTypePontuacao, ValuePerPoint: 0},
			500, 0,
		},
		{
			"stamp program always one",
			&models.EstablishmentConfig{ProgramType: models.ProgramTypeCarimbo},
			0.01, 1,
		},
		{
			"stamp program ignores amount",
			&models.EstablishmentConfig{ProgramType: models.ProgramTypeCarimbo},
			100000, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePoints(tt.cfg, tt.base))
		})
	}
}

func TestLoyaltyService_AccrueTx(t *testing.T) {
	ctx := context.Background()

	t.Run("points program accrues floor of base over rate", func(t *testing.T) {
		db := setupTestDB(t)
		est, cfg := setupProgram(t, db, models.ProgramTypePontuacao, 10, 100)
		customer := setupCustomer(t, db, est.ID, "5511999990001")
		svc := NewLoyaltyService(db, nil, 30)

		var result *AccrualResult
		err := db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			result, txErr = svc.AccrueTx(ctx, tx, cfg, customer.ID, 94.99)
			return txErr
		})
		require.NoError(t, err)
		assert.Equal(t, 9, result.PointsEarned)
		assert.Equal(t, 9, result.NewBalance)
		assert.False(t, result.RewardArmed)
	})

	t.Run("stamp program arms on exact threshold", func(t *testing.T) {
		db := setupTestDB(t)
		est, cfg := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 3)
		customer := setupCustomer(t, db, est.ID, "5511999990002")
		svc := NewLoyaltyService(db, nil, 30)

		var last *AccrualResult
		for i := 0; i < 3; i++ {
			err := db.Transaction(func(tx *gorm.DB) error {
				var txErr error
				last, txErr = svc.AccrueTx(ctx, tx, cfg, customer.ID, 50)
				return txErr
			})
			require.NoError(t, err)
		}

		assert.Equal(t, 3, last.NewBalance)
		assert.True(t, last.RewardArmed)
		require.NotNil(t, last.RewardExpiry)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *last.RewardExpiry, time.Minute)
	})

	t.Run("points program never arms, even on the exact threshold", func(t *testing.T) {
		db := setupTestDB(t)
		est, cfg := setupProgram(t, db, models.ProgramTypePontuacao, 10, 100)
		customer := setupCustomer(t, db, est.ID, "5511999990005")
		svc := NewLoyaltyService(db, nil, 30)

		var result *AccrualResult
		err := db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			result, txErr = svc.AccrueTx(ctx, tx, cfg, customer.ID, 1000)
			return txErr
		})
		require.NoError(t, err)
		assert.Equal(t, 100, result.NewBalance)
		assert.False(t, result.RewardArmed)
		assert.Nil(t, result.RewardExpiry)

		loyalty, err := repository.NewLoyaltyRepository(db).Get(ctx, est.ID, customer.ID)
		require.NoError(t, err)
		assert.False(t, loyalty.RewardReady)
	})

	t.Run("overshooting the threshold does not arm", func(t *testing.T) {
		db := setupTestDB(t)
		est, cfg := setupProgram(t, db, models.ProgramTypePontuacao, 10, 100)
		customer := setupCustomer(t, db, est.ID, "5511999990003")
		svc := NewLoyaltyService(db, nil, 30)

		var result *AccrualResult
		err := db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			result, txErr = svc.AccrueTx(ctx, tx, cfg, customer.ID, 1500)
			return txErr
		})
		require.NoError(t, err)
		assert.Equal(t, 150, result.NewBalance)
		assert.False(t, result.RewardArmed)
	})

	t.Run("zero rate accrues nothing", func(t *testing.T) {
		db := setupTestDB(t)
		est, cfg := setupProgram(t, db, models.ProgramTypePontuacao, 0, 100)
		customer := setupCustomer(t, db, est.ID, "5511999990004")
		svc := NewLoyaltyService(db, nil, 30)

		var result *AccrualResult
		err := db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			result, txErr = svc.AccrueTx(ctx, tx, cfg, customer.ID, 500)
			return txErr
		})
		require.NoError(t, err)
		assert.Zero(t, result.PointsEarned)
		assert.Zero(t, result.NewBalance)
	})
}

func TestLoyaltyService_Redeem(t *testing.T) {
	ctx := context.Background()

	armReward := func(t *testing.T, db *gorm.DB, establishmentID, customerID int64, balance int, expiresAt time.Time) {
		t.Helper()
		repo := repository.NewLoyaltyRepository(db)
		require.NoError(t, repo.AddPoints(ctx, establishmentID, customerID, balance))
		armed, err := repo.ArmReward(ctx, establishmentID, customerID, balance, expiresAt)
		require.NoError(t, err)
		require.True(t, armed)
	}

	t.Run("stamp program carries the remainder", func(t *testing.T) {
		db := setupTestDB(t)
		est, _ := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
		customer := setupCustomer(t, db, est.ID, "5511999990010")
		svc := NewLoyaltyService(db, nil, 30)

		repo := repository.NewLoyaltyRepository(db)
		require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 10))
		armed, err := repo.ArmReward(ctx, est.ID, customer.ID, 10, time.Now().Add(24*time.Hour))
		require.NoError(t, err)
		require.True(t, armed)
		// Extra stamps land after the reward armed.
		require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 2))

		result, err := svc.Redeem(ctx, est.ID, customer.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 10, result.PointsUsed)
		assert.Equal(t, 2, result.NewBalance)
		assert.Equal(t, "Corte grátis", result.Description)

		loyalty, err := repo.Get(ctx, est.ID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, loyalty.PointsBalance)
		assert.False(t, loyalty.RewardReady)
	})

	t.Run("points program consumes the full balance", func(t *testing.T) {
		db := setupTestDB(t)
		est, _ := setupProgram(t, db, models.ProgramTypePontuacao, 10, 100)
		customer := setupCustomer(t, db, est.ID, "5511999990011")
		svc := NewLoyaltyService(db, nil, 30)

		armReward(t, db, est.ID, customer.ID, 100, time.Now().Add(24*time.Hour))

		result, err := svc.Redeem(ctx, est.ID, customer.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 100, result.PointsUsed)
		assert.Zero(t, result.NewBalance)
	})

	t.Run("rejects without an armed reward", func(t *testing.T) {
		db := setupTestDB(t)
		est, _ := setupProgram(t, db, models.ProgramTypePontuacao, 10, 100)
		customer := setupCustomer(t, db, est.ID, "5511999990012")
		svc := NewLoyaltyService(db, nil, 30)

		require.NoError(t, repository.NewLoyaltyRepository(db).AddPoints(ctx, est.ID, customer.ID, 50))

		_, err := svc.Redeem(ctx, est.ID, customer.ID, 1)
		require.Error(t, err)
		assert.Equal(t, errors.ErrRewardNotAvailable.Code, errors.GetAppError(err).Code)
	})

	t.Run("rejects an expired reward", func(t *testing.T) {
		db := setupTestDB(t)
		est, _ := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
		customer := setupCustomer(t, db, est.ID, "5511999990013")
		svc := NewLoyaltyService(db, nil, 30)

		armReward(t, db, est.ID, customer.ID, 10, time.Now().Add(-time.Hour))

		_, err := svc.Redeem(ctx, est.ID, customer.ID, 1)
		require.Error(t, err)
		assert.Equal(t, errors.ErrRewardExpired.Code, errors.GetAppError(err).Code)
	})

	t.Run("writes an audit trail", func(t *testing.T) {
		db := setupTestDB(t)
		est, _ := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
		customer := setupCustomer(t, db, est.ID, "5511999990014")
		svc := NewLoyaltyService(db, nil, 30)

		armReward(t, db, est.ID, customer.ID, 10, time.Now().Add(24*time.Hour))

		result, err := svc.Redeem(ctx, est.ID, customer.ID, 42)
		require.NoError(t, err)

		var redemption models.RewardRedemption
		require.NoError(t, db.First(&redemption, result.RedemptionID).Error)
		assert.Equal(t, customer.ID, redemption.CustomerID)
		assert.Equal(t, 10, redemption.PointsUsed)
		assert.False(t, redemption.Expired)
		require.NotNil(t, redemption.TransactionID)

		var tx models.Transaction
		require.NoError(t, db.First(&tx, *redemption.TransactionID).Error)
		assert.Equal(t, models.TransactionTypeResgate, tx.Type)
		assert.Equal(t, int64(42), tx.CreatedBy)
		assert.Equal(t, -10, tx.PointsMoved)
		assert.Equal(t, 0, tx.BalanceAfter)
		assert.Equal(t, "Corte grátis", tx.Description)

		loyalty, err := repository.NewLoyaltyRepository(db).Get(ctx, est.ID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, loyalty.RedemptionCount)
		require.NotNil(t, loyalty.LastTransactionAt)
	})

	t.Run("falls back to a default description", func(t *testing.T) {
		db := setupTestDB(t)
		est, cfg := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
		cfg.RewardDescription = ""
		require.NoError(t, db.Save(cfg).Error)
		customer := setupCustomer(t, db, est.ID, "5511999990015")
		svc := NewLoyaltyService(db, nil, 30)

		armReward(t, db, est.ID, customer.ID, 10, time.Now().Add(24*time.Hour))

		result, err := svc.Redeem(ctx, est.ID, customer.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "Resgate de recompensa", result.Description)
	})
}

func TestLoyaltyService_Balance(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	est, _ := setupProgram(t, db, models.ProgramTypePontuacao, 10, 0)
	customer := setupCustomer(t, db, est.ID, "5511999990030")
	svc := NewLoyaltyService(db, nil, 30)

	require.NoError(t, repository.NewLoyaltyRepository(db).AddPoints(ctx, est.ID, customer.ID, 7))

	loyalty, err := svc.Balance(ctx, est.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, loyalty.PointsBalance)

	t.Run("customer of another establishment is not visible", func(t *testing.T) {
		other, _ := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
		_, err := svc.Balance(ctx, other.ID, customer.ID)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCustomerNotFound.Code, errors.GetAppError(err).Code)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := svc.Balance(ctx, est.ID, 99999)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCustomerNotFound.Code, errors.GetAppError(err).Code)
	})
}

func TestLoyaltyService_ExpireOverdueRewards(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	est, _ := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
	svc := NewLoyaltyService(db, nil, 30)
	repo := repository.NewLoyaltyRepository(db)

	overdue := setupCustomer(t, db, est.ID, "5511999990020")
	require.NoError(t, repo.AddPoints(ctx, est.ID, overdue.ID, 10))
	armed, err := repo.ArmReward(ctx, est.ID, overdue.ID, 10, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, armed)

	current := setupCustomer(t, db, est.ID, "5511999990021")
	require.NoError(t, repo.AddPoints(ctx, est.ID, current.ID, 10))
	armed, err = repo.ArmReward(ctx, est.ID, current.ID, 10, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	require.True(t, armed)

	count, err := svc.ExpireOverdueRewards(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	loyalty, err := repo.Get(ctx, est.ID, overdue.ID)
	require.NoError(t, err)
	assert.Zero(t, loyalty.PointsBalance)
	assert.False(t, loyalty.RewardReady)

	var audit models.RewardRedemption
	require.NoError(t, db.Where("customer_id = ?", overdue.ID).First(&audit).Error)
	assert.True(t, audit.Expired)
	assert.Equal(t, 10, audit.PointsUsed)

	untouched, err := repo.Get(ctx, est.ID, current.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, untouched.PointsBalance)
	assert.True(t, untouched.RewardReady)

	// A second sweep is a no-op.
	count, err = svc.ExpireOverdueRewards(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoyaltyService_ExpireOverdueRewards_StalledBatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	est, _ := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
	svc := NewLoyaltyService(db, nil, 30)
	repo := repository.NewLoyaltyRepository(db)

	customer := setupCustomer(t, db, est.ID, "5511999990022")
	require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 10))
	armed, err := repo.ArmReward(ctx, est.ID, customer.ID, 10, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, armed)

	// With the audit table gone every claim rolls back, so the same row keeps
	// coming back. The sweep must stop instead of spinning on it.
	require.NoError(t, db.Migrator().DropTable(&models.RewardRedemption{}))

	count, err := svc.ExpireOverdueRewards(ctx, 100)
	require.Error(t, err)
	assert.Zero(t, count)
}
