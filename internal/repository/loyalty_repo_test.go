package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

func TestLoyaltyRepository_AddPoints(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	customer := createTestCustomer(t, db, est.ID, "5511999990001")
	repo := NewLoyaltyRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 7))
	require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 3))

	loyalty, err := repo.Get(ctx, est.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, loyalty.PointsBalance)
	assert.Equal(t, 10, loyalty.TotalEarned)
	assert.Equal(t, 0, loyalty.TotalRedeemed)
	assert.False(t, loyalty.RewardReady)
	require.NotNil(t, loyalty.LastTransactionAt)
}

func TestLoyaltyRepository_ArmReward(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	customer := createTestCustomer(t, db, est.ID, "5511999990002")
	repo := NewLoyaltyRepository(db)
	ctx := context.Background()
	expiresAt := time.Now().Add(30 * 24 * time.Hour)

	require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 10))

	t.Run("arms when balance matches", func(t *testing.T) {
		armed, err := repo.ArmReward(ctx, est.ID, customer.ID, 10, expiresAt)
		require.NoError(t, err)
		assert.True(t, armed)

		loyalty, err := repo.Get(ctx, est.ID, customer.ID)
		require.NoError(t, err)
		assert.True(t, loyalty.RewardReady)
		require.NotNil(t, loyalty.RewardExpiresAt)
	})

	t.Run("rejects when already armed", func(t *testing.T) {
		armed, err := repo.ArmReward(ctx, est.ID, customer.ID, 10, expiresAt)
		require.NoError(t, err)
		assert.False(t, armed)
	})

	t.Run("rejects when balance moved", func(t *testing.T) {
		other := createTestCustomer(t, db, est.ID, "5511999990003")
		require.NoError(t, repo.AddPoints(ctx, est.ID, other.ID, 12))

		armed, err := repo.ArmReward(ctx, est.ID, other.ID, 10, expiresAt)
		require.NoError(t, err)
		assert.False(t, armed)
	})
}

func TestLoyaltyRepository_RedeemPoints(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	repo := NewLoyaltyRepository(db)
	ctx := context.Background()
	expiresAt := time.Now().Add(24 * time.Hour)

	t.Run("consumes points and clears the reward", func(t *testing.T) {
		customer := createTestCustomer(t, db, est.ID, "5511999990010")
		require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 12))
		armed, err := repo.ArmReward(ctx, est.ID, customer.ID, 12, expiresAt)
		require.NoError(t, err)
		require.True(t, armed)

		ok, err := repo.RedeemPoints(ctx, est.ID, customer.ID, 10)
		require.NoError(t, err)
		assert.True(t, ok)

		loyalty, err := repo.Get(ctx, est.ID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, loyalty.PointsBalance)
		assert.Equal(t, 10, loyalty.TotalRedeemed)
		assert.Equal(t, 1, loyalty.RedemptionCount)
		assert.False(t, loyalty.RewardReady)
		assert.Nil(t, loyalty.RewardExpiresAt)
		require.NotNil(t, loyalty.LastTransactionAt)
	})

	t.Run("rejects without an armed reward", func(t *testing.T) {
		customer := createTestCustomer(t, db, est.ID, "5511999990011")
		require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 50))

		ok, err := repo.RedeemPoints(ctx, est.ID, customer.ID, 10)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects a second redeem", func(t *testing.T) {
		customer := createTestCustomer(t, db, est.ID, "5511999990012")
		require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 10))
		armed, err := repo.ArmReward(ctx, est.ID, customer.ID, 10, expiresAt)
		require.NoError(t, err)
		require.True(t, armed)

		ok, err := repo.RedeemPoints(ctx, est.ID, customer.ID, 10)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.RedeemPoints(ctx, est.ID, customer.ID, 10)
		require.NoError(t, err)
		assert.False(t, ok)

		loyalty, err := repo.Get(ctx, est.ID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, loyalty.RedemptionCount)
	})
}

func TestLoyaltyRepository_ClaimExpired(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	repo := NewLoyaltyRepository(db)
	ctx := context.Background()
	now := time.Now()

	customer := createTestCustomer(t, db, est.ID, "5511999990020")
	require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 10))
	armed, err := repo.ArmReward(ctx, est.ID, customer.ID, 10, now.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, armed)

	expired, err := repo.ListExpired(ctx, now, 100)
	require.NoError(t, err)
	require.Len(t, expired, 1)

	claimed, err := repo.ClaimExpired(ctx, expired[0].ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	loyalty, err := repo.Get(ctx, est.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loyalty.PointsBalance)
	assert.False(t, loyalty.RewardReady)

	// A second sweep finds nothing and cannot claim again.
	claimed, err = repo.ClaimExpired(ctx, expired[0].ID, now)
	require.NoError(t, err)
	assert.False(t, claimed)

	expired, err = repo.ListExpired(ctx, now, 100)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestLoyaltyRepository_GetByStatusToken(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	customer := createTestCustomer(t, db, est.ID, "5511999990025")
	repo := NewLoyaltyRepository(db)
	ctx := context.Background()

	loyalty, err := repo.GetByStatusToken(ctx, "token-5511999990025")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, loyalty.CustomerID)
	assert.Equal(t, est.ID, loyalty.EstablishmentID)
	require.NotNil(t, loyalty.Customer)
	assert.Equal(t, customer.WhatsApp, loyalty.Customer.WhatsApp)

	_, err = repo.GetByStatusToken(ctx, "no-such-token")
	require.Error(t, err)
}

func TestLoyaltyRepository_Redemptions(t *testing.T) {
	db := setupTestDB(t)
	est := createTestEstablishment(t, db)
	customer := createTestCustomer(t, db, est.ID, "5511999990030")
	repo := NewLoyaltyRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateRedemption(ctx, &models.RewardRedemption{
		CustomerID:      customer.ID,
		EstablishmentID: est.ID,
		PointsUsed:      10,
	}))
	require.NoError(t, repo.CreateRedemption(ctx, &models.RewardRedemption{
		CustomerID:      customer.ID,
		EstablishmentID: est.ID,
		PointsUsed:      8,
		Expired:         true,
	}))

	redemptions, total, err := repo.ListRedemptions(ctx, est.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, redemptions, 2)

	sum, err := repo.SumRedeemedPoints(ctx, est.ID, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum)
}
