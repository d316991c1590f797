package loyalty

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/qrcode"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

type fakeUploader struct {
	lastKey         string
	lastContentType string
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	f.lastKey = key
	f.lastContentType = contentType
	return "https://cdn.example.com/" + key, nil
}

func TestCardService_RenderCard(t *testing.T) {
	db := setupTestDB(t)
	est, _ := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
	customer := setupCustomer(t, db, est.ID, "5511999990100")
	uploader := &fakeUploader{}
	svc := NewCardService(db, qrcode.NewGenerator(), uploader, "https://fideliza.app/c/")
	ctx := context.Background()

	image, err := svc.RenderCard(ctx, est.ID, customer.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(image.DataURL, "data:image/png;base64,"))
	assert.Equal(t, "https://cdn.example.com/"+uploader.lastKey, image.URL)
	assert.Contains(t, uploader.lastKey, "token-5511999990100")
	assert.Equal(t, "image/png", uploader.lastContentType)

	t.Run("unknown customer", func(t *testing.T) {
		_, err := svc.RenderCard(ctx, est.ID, 99999)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCustomerNotFound.Code, errors.GetAppError(err).Code)
	})

	t.Run("customer of another tenant is invisible", func(t *testing.T) {
		other := &models.Establishment{Name: "Outra", Slug: "outra", Status: models.EstablishmentStatusAtivo}
		require.NoError(t, db.Create(other).Error)

		_, err := svc.RenderCard(ctx, other.ID, customer.ID)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCustomerNotFound.Code, errors.GetAppError(err).Code)
	})
}

func TestCardService_Status(t *testing.T) {
	db := setupTestDB(t)
	est, _ := setupProgram(t, db, models.ProgramTypeCarimbo, 0, 10)
	customer := setupCustomer(t, db, est.ID, "5511987654321")
	svc := NewCardService(db, qrcode.NewGenerator(), nil, "https://fideliza.app/c")
	ctx := context.Background()

	t.Run("masks the contact number", func(t *testing.T) {
		status, err := svc.Status(ctx, "token-5511987654321")
		require.NoError(t, err)
		assert.Equal(t, "Cliente Teste", status.CustomerName)
		assert.NotContains(t, status.WhatsAppMasked, "98765")
		assert.Equal(t, "Estabelecimento Teste", status.EstablishmentName)
		assert.Equal(t, models.ProgramTypeCarimbo, status.ProgramType)
		assert.Equal(t, 10, status.StampsForReward)
		assert.False(t, status.RewardReady)
	})

	t.Run("shows an armed reward", func(t *testing.T) {
		repo := repository.NewLoyaltyRepository(db)
		require.NoError(t, repo.AddPoints(ctx, est.ID, customer.ID, 10))
		armed, err := repo.ArmReward(ctx, est.ID, customer.ID, 10, time.Now().Add(24*time.Hour))
		require.NoError(t, err)
		require.True(t, armed)

		status, err := svc.Status(ctx, "token-5511987654321")
		require.NoError(t, err)
		assert.True(t, status.RewardReady)
		assert.Equal(t, 10, status.PointsBalance)
		require.NotNil(t, status.RewardExpiresAt)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Status(ctx, "nao-existe")
		require.Error(t, err)
		assert.Equal(t, errors.ErrStatusTokenBad.Code, errors.GetAppError(err).Code)
	})
}
