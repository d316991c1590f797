package feature

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fidelizapp/fideliza-backend/internal/common/cache"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

func setupTest(t *testing.T) (*gorm.DB, *miniredis.Miniredis, *models.Establishment) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Establishment{},
		&models.Feature{},
		&models.EstablishmentFeature{},
	))

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	est := &models.Establishment{Name: "Loja", Slug: "loja", Status: models.EstablishmentStatusAtivo}
	require.NoError(t, db.Create(est).Error)

	return db, mr, est
}

func TestFeatureService_Resolution(t *testing.T) {
	ctx := context.Background()
	db, _, est := setupTest(t)
	svc := NewFeatureService(db, time.Minute, nil)
	require.NoError(t, svc.Seed(ctx))

	t.Run("default applies without override", func(t *testing.T) {
		enabled, err := svc.IsEnabled(ctx, est.ID, models.FeatureScheduling)
		require.NoError(t, err)
		assert.True(t, enabled)

		enabled, err = svc.IsEnabled(ctx, est.ID, models.FeatureNotifications)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("override beats the default", func(t *testing.T) {
		require.NoError(t, svc.SetOverride(ctx, est.ID, models.FeatureScheduling, false))

		enabled, err := svc.IsEnabled(ctx, est.ID, models.FeatureScheduling)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("clearing the override restores the default", func(t *testing.T) {
		require.NoError(t, svc.ClearOverride(ctx, est.ID, models.FeatureScheduling))

		enabled, err := svc.IsEnabled(ctx, est.ID, models.FeatureScheduling)
		require.NoError(t, err)
		assert.True(t, enabled)
	})

	t.Run("unknown flag resolves to disabled", func(t *testing.T) {
		enabled, err := svc.IsEnabled(ctx, est.ID, "inexistente")
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("override cannot target an unknown flag", func(t *testing.T) {
		err := svc.SetOverride(ctx, est.ID, "inexistente", true)
		require.Error(t, err)
	})
}

func TestFeatureService_Cache(t *testing.T) {
	ctx := context.Background()
	db, mr, est := setupTest(t)
	svc := NewFeatureService(db, time.Minute, nil)
	require.NoError(t, svc.Seed(ctx))

	// First resolution populates the cache.
	enabled, err := svc.IsEnabled(ctx, est.ID, models.FeatureExports)
	require.NoError(t, err)
	assert.True(t, enabled)

	// A direct database change is invisible while the entry lives.
	repo := repository.NewFeatureRepository(db)
	require.NoError(t, repo.SetOverride(ctx, est.ID, models.FeatureExports, false))

	enabled, err = svc.IsEnabled(ctx, est.ID, models.FeatureExports)
	require.NoError(t, err)
	assert.True(t, enabled, "stale cache entry still serves")

	// After the TTL passes the override is picked up.
	mr.FastForward(2 * time.Minute)

	enabled, err = svc.IsEnabled(ctx, est.ID, models.FeatureExports)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestFeatureService_ToggleInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	db, _, est := setupTest(t)
	svc := NewFeatureService(db, time.Minute, nil)
	require.NoError(t, svc.Seed(ctx))

	enabled, err := svc.IsEnabled(ctx, est.ID, models.FeatureLoyaltyCard)
	require.NoError(t, err)
	assert.True(t, enabled)

	// Toggling through the service drops the cached value immediately.
	require.NoError(t, svc.SetOverride(ctx, est.ID, models.FeatureLoyaltyCard, false))

	enabled, err = svc.IsEnabled(ctx, est.ID, models.FeatureLoyaltyCard)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestFeatureService_ListForTenant(t *testing.T) {
	ctx := context.Background()
	db, _, est := setupTest(t)
	svc := NewFeatureService(db, time.Minute, nil)
	require.NoError(t, svc.Seed(ctx))

	require.NoError(t, svc.SetOverride(ctx, est.ID, models.FeatureNotifications, true))

	flags, err := svc.ListForTenant(ctx, est.ID)
	require.NoError(t, err)
	require.Len(t, flags, 4)

	byKey := make(map[string]*TenantFlag)
	for _, f := range flags {
		byKey[f.Key] = f
	}
	assert.True(t, byKey[models.FeatureNotifications].Enabled)
	assert.True(t, byKey[models.FeatureNotifications].Overridden)
	assert.True(t, byKey[models.FeatureScheduling].Enabled)
	assert.False(t, byKey[models.FeatureScheduling].Overridden)
}
