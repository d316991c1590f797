// Package feature resolves feature flags per establishment.
package feature

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/cache"
	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/metrics"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// FeatureService resolves flags with a short-lived cache. Resolution order is
// tenant override, then platform default, then disabled.
type FeatureService struct {
	db       *gorm.DB
	cacheTTL time.Duration
	metrics  *metrics.Metrics
}

// NewFeatureService creates a FeatureService.
func NewFeatureService(db *gorm.DB, cacheTTL time.Duration, m *metrics.Metrics) *FeatureService {
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	return &FeatureService{db: db, cacheTTL: cacheTTL, metrics: m}
}

func cacheKey(establishmentID int64, key string) string {
	return cache.BuildKey(cache.KeyPrefixFeature, strconv.FormatInt(establishmentID, 10), key)
}

// IsEnabled resolves one flag for a tenant. Cache errors fall through to the
// database so a redis outage never blocks resolution.
func (s *FeatureService) IsEnabled(ctx context.Context, establishmentID int64, key string) (bool, error) {
	ck := cacheKey(establishmentID, key)
	if cached, err := cache.GetString(ctx, ck); err == nil {
		if s.metrics != nil {
			s.metrics.RecordCacheHit("feature")
		}
		return cached == "1", nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss("feature")
	}

	enabled, err := s.resolve(ctx, establishmentID, key)
	if err != nil {
		return false, err
	}

	value := "0"
	if enabled {
		value = "1"
	}
	if err := cache.SetString(ctx, ck, value, s.cacheTTL); err != nil {
		logger.Warn("falha ao gravar cache de feature", logger.String("key", ck), logger.Err(err))
	}
	return enabled, nil
}

func (s *FeatureService) resolve(ctx context.Context, establishmentID int64, key string) (bool, error) {
	repo := repository.NewFeatureRepository(s.db)

	override, err := repo.GetOverride(ctx, establishmentID, key)
	if err == nil {
		return override.Enabled, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao resolver feature", err)
	}

	feature, err := repo.GetFeatureByKey(ctx, key)
	if err == nil {
		return feature.DefaultEnabled, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao resolver feature", err)
	}

	// Unknown flags resolve to disabled.
	return false, nil
}

// SetOverride upserts a tenant override and drops the cached value.
func (s *FeatureService) SetOverride(ctx context.Context, establishmentID int64, key string, enabled bool) error {
	repo := repository.NewFeatureRepository(s.db)
	if _, err := repo.GetFeatureByKey(ctx, key); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrNotFound.WithMessage("Feature não encontrada")
		}
		return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar feature", err)
	}

	if err := repo.SetOverride(ctx, establishmentID, key, enabled); err != nil {
		return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao gravar feature", err)
	}
	s.invalidate(ctx, establishmentID, key)
	return nil
}

// ClearOverride removes a tenant override so the platform default applies.
func (s *FeatureService) ClearOverride(ctx context.Context, establishmentID int64, key string) error {
	repo := repository.NewFeatureRepository(s.db)
	if err := repo.DeleteOverride(ctx, establishmentID, key); err != nil {
		return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao remover feature", err)
	}
	s.invalidate(ctx, establishmentID, key)
	return nil
}

// SetDefault changes the platform-wide default of a flag. Cached tenant
// entries expire on their own TTL.
func (s *FeatureService) SetDefault(ctx context.Context, key string, enabled bool) error {
	repo := repository.NewFeatureRepository(s.db)
	if err := repo.UpdateFeatureDefault(ctx, key, enabled); err != nil {
		return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao gravar feature", err)
	}
	return nil
}

func (s *FeatureService) invalidate(ctx context.Context, establishmentID int64, key string) {
	if err := cache.Delete(ctx, cacheKey(establishmentID, key)); err != nil {
		logger.Warn("falha ao invalidar cache de feature", logger.Err(err))
	}
}

// TenantFlag is the resolved state of one flag for a tenant.
type TenantFlag struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Overridden  bool   `json:"overridden"`
}

// ListForTenant resolves every known flag for a tenant.
func (s *FeatureService) ListForTenant(ctx context.Context, establishmentID int64) ([]*TenantFlag, error) {
	repo := repository.NewFeatureRepository(s.db)

	features, err := repo.ListFeatures(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao listar features", err)
	}
	overrides, err := repo.ListOverrides(ctx, establishmentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao listar features", err)
	}
	overrideByKey := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		overrideByKey[o.FeatureKey] = o.Enabled
	}

	flags := make([]*TenantFlag, 0, len(features))
	for _, f := range features {
		flag := &TenantFlag{
			Key:         f.Key,
			Description: f.Description,
			Enabled:     f.DefaultEnabled,
		}
		if enabled, ok := overrideByKey[f.Key]; ok {
			flag.Enabled = enabled
			flag.Overridden = true
		}
		flags = append(flags, flag)
	}
	return flags, nil
}

// RequireEnabled turns a disabled flag into a permission error. Handlers use
// it to gate optional modules.
func (s *FeatureService) RequireEnabled(ctx context.Context, establishmentID int64, key string) error {
	enabled, err := s.IsEnabled(ctx, establishmentID, key)
	if err != nil {
		return err
	}
	if !enabled {
		return errors.ErrPermissionDenied.WithMessage("Recurso não habilitado para este estabelecimento")
	}
	return nil
}

// Seed inserts the built-in flag definitions when missing.
func (s *FeatureService) Seed(ctx context.Context) error {
	repo := repository.NewFeatureRepository(s.db)
	defaults := []models.Feature{
		{Key: models.FeatureScheduling, Description: "Agendamento de horários", DefaultEnabled: true},
		{Key: models.FeatureExports, Description: "Exportação de relatórios", DefaultEnabled: true},
		{Key: models.FeatureNotifications, Description: "Notificações por WhatsApp", DefaultEnabled: false},
		{Key: models.FeatureLoyaltyCard, Description: "Cartão fidelidade com QR code", DefaultEnabled: true},
	}
	for i := range defaults {
		if _, err := repo.GetFeatureByKey(ctx, defaults[i].Key); err == nil {
			continue
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := repo.CreateFeature(ctx, &defaults[i]); err != nil {
			return err
		}
	}
	return nil
}
