package loyalty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/crypto"
	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/qrcode"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// CardService renders loyalty cards and serves the public status lookup.
type CardService struct {
	db            *gorm.DB
	qr            *qrcode.Generator
	uploader      Uploader
	statusBaseURL string
}

// NewCardService creates a CardService.
func NewCardService(db *gorm.DB, qr *qrcode.Generator, uploader Uploader, statusBaseURL string) *CardService {
	return &CardService{
		db:            db,
		qr:            qr,
		uploader:      uploader,
		statusBaseURL: strings.TrimRight(statusBaseURL, "/"),
	}
}

// StatusURL returns the public lookup URL of a customer card.
func (s *CardService) StatusURL(token string) string {
	return s.statusBaseURL + "/" + token
}

// CardImage contains the QR render of a customer card.
type CardImage struct {
	URL     string `json:"url,omitempty"`
	DataURL string `json:"data_url"`
}

// RenderCard generates the QR image pointing at the customer's status page.
// When an uploader is configured the PNG is also stored for reuse.
func (s *CardService) RenderCard(ctx context.Context, establishmentID, customerID int64) (*CardImage, error) {
	loyaltyRepo := repository.NewLoyaltyRepository(s.db)
	loyalty, err := loyaltyRepo.Get(ctx, establishmentID, customerID)
	if err != nil {
		return nil, errors.ErrCustomerNotFound
	}

	content := s.StatusURL(loyalty.StatusToken)
	dataURL, err := s.qr.GenerateDataURL(content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalError.Code, "Falha ao gerar QR code", err)
	}

	image := &CardImage{DataURL: dataURL}

	if s.uploader != nil {
		png, err := s.qr.GeneratePNG(content)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInternalError.Code, "Falha ao gerar QR code", err)
		}
		key := fmt.Sprintf("cards/%d/%s.png", establishmentID, loyalty.StatusToken)
		url, err := s.uploader.Upload(ctx, key, png, "image/png")
		if err != nil {
			return nil, errors.Wrap(errors.ErrInternalError.Code, "Falha ao enviar QR code", err)
		}
		image.URL = url
	}

	return image, nil
}

// CardStatus is the public view of a loyalty card. It carries no contact data
// beyond a masked WhatsApp number.
type CardStatus struct {
	CustomerName      string     `json:"customer_name"`
	WhatsAppMasked    string     `json:"whatsapp"`
	EstablishmentName string     `json:"establishment_name"`
	ProgramType       string     `json:"program_type"`
	PointsBalance     int        `json:"points_balance"`
	StampsForReward   int        `json:"stamps_for_reward"`
	RewardDescription string     `json:"reward_description"`
	RewardReady       bool       `json:"reward_ready"`
	RewardExpiresAt   *time.Time `json:"reward_expires_at,omitempty"`
}

// Status resolves the public card state by its token.
func (s *CardService) Status(ctx context.Context, token string) (*CardStatus, error) {
	loyaltyRepo := repository.NewLoyaltyRepository(s.db)
	loyalty, err := loyaltyRepo.GetByStatusToken(ctx, token)
	if err != nil {
		return nil, errors.ErrStatusTokenBad
	}

	estRepo := repository.NewEstablishmentRepository(s.db)
	est, err := estRepo.GetByIDWithConfig(ctx, loyalty.EstablishmentID)
	if err != nil {
		return nil, errors.ErrEstablishmentNotFound
	}

	status := &CardStatus{
		EstablishmentName: est.Name,
		PointsBalance:     loyalty.PointsBalance,
		RewardReady:       loyalty.HasValidReward(time.Now()),
	}
	if loyalty.Customer != nil {
		status.CustomerName = loyalty.Customer.Name
		status.WhatsAppMasked = crypto.MaskWhatsApp(loyalty.Customer.WhatsApp)
	}
	if est.Config != nil {
		status.ProgramType = est.Config.ProgramType
		status.StampsForReward = est.Config.StampsForReward
		status.RewardDescription = est.Config.RewardDescription
	}
	if status.RewardReady {
		status.RewardExpiresAt = loyalty.RewardExpiresAt
	}

	return status, nil
}
