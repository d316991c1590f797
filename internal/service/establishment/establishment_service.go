// Package establishment manages tenant profiles and program settings.
package establishment

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// EstablishmentService serves tenant profile and configuration.
type EstablishmentService struct {
	db       *gorm.DB
	uploader Uploader
}

// NewEstablishmentService creates an EstablishmentService.
func NewEstablishmentService(db *gorm.DB, uploader Uploader) *EstablishmentService {
	return &EstablishmentService{db: db, uploader: uploader}
}

// Get loads a tenant with its program settings.
func (s *EstablishmentService) Get(ctx context.Context, establishmentID int64) (*models.Establishment, error) {
	est, err := repository.NewEstablishmentRepository(s.db).GetByIDWithConfig(ctx, establishmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrEstablishmentNotFound
		}
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar estabelecimento", err)
	}
	return est, nil
}

// UpdateProfileRequest edits the tenant profile.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	WhatsApp *string `json:"whatsapp,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// UpdateProfile edits name and contact data. The slug never changes after
// signup so printed QR codes stay valid.
func (s *EstablishmentService) UpdateProfile(ctx context.Context, establishmentID int64, req *UpdateProfileRequest) (*models.Establishment, error) {
	repo := repository.NewEstablishmentRepository(s.db)
	est, err := repo.GetByID(ctx, establishmentID)
	if err != nil {
		return nil, errors.ErrEstablishmentNotFound
	}

	if req.Name != nil {
		est.Name = *req.Name
	}
	if req.WhatsApp != nil {
		est.WhatsApp = req.WhatsApp
	}
	if req.Email != nil {
		est.Email = req.Email
	}

	if err := repo.Update(ctx, est); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao atualizar estabelecimento", err)
	}
	return est, nil
}

// UpdateConfigRequest edits the loyalty program settings.
type UpdateConfigRequest struct {
	ProgramType        *string  `json:"program_type,omitempty"`
	ValuePerPoint      *float64 `json:"value_per_point,omitempty"`
	StampsForReward    *int     `json:"stamps_for_reward,omitempty"`
	RewardDescription  *string  `json:"reward_description,omitempty"`
	RewardValidityDays *int     `json:"reward_validity_days,omitempty"`
}

// UpdateConfig edits the program settings. Changes apply to future accruals
// only; balances and armed rewards keep their state.
func (s *EstablishmentService) UpdateConfig(ctx context.Context, establishmentID int64, req *UpdateConfigRequest) (*models.EstablishmentConfig, error) {
	repo := repository.NewEstablishmentRepository(s.db)
	cfg, err := repo.GetConfig(ctx, establishmentID)
	if err != nil {
		return nil, errors.ErrConfigNotFound
	}

	if req.ProgramType != nil {
		if *req.ProgramType != models.ProgramTypePontuacao && *req.ProgramType != models.ProgramTypeCarimbo {
			return nil, errors.ErrProgramInvalid
		}
		cfg.ProgramType = *req.ProgramType
	}
	if req.ValuePerPoint != nil {
		if *req.ValuePerPoint < 0 {
			return nil, errors.ErrInvalidParams.WithMessage("Valor por ponto não pode ser negativo")
		}
		cfg.ValuePerPoint = *req.ValuePerPoint
	}
	if req.StampsForReward != nil {
		if *req.StampsForReward <= 0 {
			return nil, errors.ErrInvalidParams.WithMessage("Meta de carimbos deve ser positiva")
		}
		cfg.StampsForReward = *req.StampsForReward
	}
	if req.RewardDescription != nil {
		cfg.RewardDescription = *req.RewardDescription
	}
	if req.RewardValidityDays != nil {
		if *req.RewardValidityDays <= 0 {
			return nil, errors.ErrInvalidParams.WithMessage("Validade da recompensa deve ser positiva")
		}
		cfg.RewardValidityDays = *req.RewardValidityDays
	}

	if err := repo.UpdateConfig(ctx, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao atualizar configuração", err)
	}

	logger.Info("configuração do programa atualizada",
		logger.EstablishmentID(establishmentID),
		logger.String("program_type", cfg.ProgramType),
	)
	return cfg, nil
}

// UploadLogo stores the tenant logo and records its URL.
func (s *EstablishmentService) UploadLogo(ctx context.Context, establishmentID int64, data []byte, contentType string) (string, error) {
	if s.uploader == nil {
		return "", errors.ErrExternalService.WithMessage("Armazenamento de arquivos não configurado")
	}

	ext := "png"
	if contentType == "image/jpeg" {
		ext = "jpg"
	}
	key := fmt.Sprintf("logos/%d/%d.%s", establishmentID, time.Now().Unix(), ext)

	url, err := s.uploader.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", errors.Wrap(errors.ErrExternalService.Code, "Falha ao enviar logo", err)
	}

	repo := repository.NewEstablishmentRepository(s.db)
	if err := repo.UpdateFields(ctx, establishmentID, map[string]interface{}{"logo_url": url}); err != nil {
		return "", errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao gravar logo", err)
	}
	return url, nil
}
