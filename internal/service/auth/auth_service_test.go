package auth

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
	"github.com/fidelizapp/fideliza-backend/internal/common/jwt"
	"github.com/fidelizapp/fideliza-backend/internal/models"
)

func setupTest(t *testing.T) (*gorm.DB, *AuthService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Invitation{},
		&models.Establishment{},
		&models.EstablishmentConfig{},
	))

	manager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret-key",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "fideliza-test",
	})
	return db, NewAuthService(db, manager, nil)
}

func signupRequest() *SignupRequest {
	return &SignupRequest{
		EstablishmentName: "Barbearia do Zé",
		OwnerName:         "José Santos",
		Email:             "ze@example.com",
		Password:          "senha-segura-123",
		ProgramType:       models.ProgramTypeCarimbo,
		StampsForReward:   10,
		RewardDescription: "Corte grátis",
	}
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions tenant, program and owner atomically", func(t *testing.T) {
		db, svc := setupTest(t)

		resp, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)
		assert.Equal(t, models.RoleLojista, resp.User.Role)
		assert.NotZero(t, resp.User.EstablishmentID)
		assert.NotEmpty(t, resp.TokenPair.AccessToken)

		var est models.Establishment
		require.NoError(t, db.First(&est, resp.User.EstablishmentID).Error)
		assert.Equal(t, "barbearia-do-ze", est.Slug)
		assert.Equal(t, models.EstablishmentStatusTrial, est.Status)

		var cfg models.EstablishmentConfig
		require.NoError(t, db.Where("establishment_id = ?", est.ID).First(&cfg).Error)
		assert.Equal(t, models.ProgramTypeCarimbo, cfg.ProgramType)
		assert.Equal(t, 10, cfg.StampsForReward)
		assert.Equal(t, 30, cfg.RewardValidityDays)

		var user models.User
		require.NoError(t, db.Where("email = ?", "ze@example.com").First(&user).Error)
		assert.NotEqual(t, "senha-segura-123", user.PasswordHash)
	})

	t.Run("duplicate email leaves no orphan establishment", func(t *testing.T) {
		db, svc := setupTest(t)

		_, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)

		second := signupRequest()
		second.EstablishmentName = "Outra Barbearia"
		_, err = svc.Signup(ctx, second)
		require.Error(t, err)
		assert.Equal(t, errors.ErrEmailExists.Code, errors.GetAppError(err).Code)

		var count int64
		require.NoError(t, db.Model(&models.Establishment{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("slug collision gets a suffix", func(t *testing.T) {
		_, svc := setupTest(t)

		first, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)

		second := signupRequest()
		second.Email = "outro@example.com"
		resp, err := svc.Signup(ctx, second)
		require.NoError(t, err)
		assert.NotEqual(t, first.User.EstablishmentID, resp.User.EstablishmentID)
	})

	t.Run("rejects unknown program type", func(t *testing.T) {
		_, svc := setupTest(t)

		req := signupRequest()
		req.ProgramType = "Milhas"
		_, err := svc.Signup(ctx, req)
		require.Error(t, err)
		assert.Equal(t, errors.ErrProgramInvalid.Code, errors.GetAppError(err).Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue a pair", func(t *testing.T) {
		_, svc := setupTest(t)
		_, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)

		resp, err := svc.Login(ctx, &LoginRequest{Email: "ZE@example.com", Password: "senha-segura-123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.TokenPair.AccessToken)
		assert.NotZero(t, resp.User.EstablishmentID)
	})

	t.Run("wrong password and unknown email return the same error", func(t *testing.T) {
		_, svc := setupTest(t)
		_, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)

		_, errSenha := svc.Login(ctx, &LoginRequest{Email: "ze@example.com", Password: "errada"})
		_, errEmail := svc.Login(ctx, &LoginRequest{Email: "nao@example.com", Password: "errada"})
		require.Error(t, errSenha)
		require.Error(t, errEmail)
		assert.Equal(t, errors.GetAppError(errSenha).Code, errors.GetAppError(errEmail).Code)
	})

	t.Run("disabled account cannot log in", func(t *testing.T) {
		db, svc := setupTest(t)
		_, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.User{}).Where("email = ?", "ze@example.com").Update("active", false).Error)

		_, err = svc.Login(ctx, &LoginRequest{Email: "ze@example.com", Password: "senha-segura-123"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrAccountDisabled.Code, errors.GetAppError(err).Code)
	})
}

func TestAuthService_Invitations(t *testing.T) {
	ctx := context.Background()

	t.Run("invite and accept", func(t *testing.T) {
		_, svc := setupTest(t)
		owner, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)

		invitation, err := svc.Invite(ctx, owner.User.ID, &InviteRequest{
			Email:           "equipe@example.com",
			EstablishmentID: owner.User.EstablishmentID,
		})
		require.NoError(t, err)
		assert.Len(t, invitation.Code, 10)

		resp, err := svc.AcceptInvite(ctx, &AcceptInviteRequest{
			Code:     invitation.Code,
			Name:     "Colaboradora",
			Password: "outra-senha-123",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleLojista, resp.User.Role)
		assert.Equal(t, owner.User.EstablishmentID, resp.User.EstablishmentID)
	})

	t.Run("a code is single use", func(t *testing.T) {
		_, svc := setupTest(t)
		owner, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)

		invitation, err := svc.Invite(ctx, owner.User.ID, &InviteRequest{
			Email:           "equipe@example.com",
			EstablishmentID: owner.User.EstablishmentID,
		})
		require.NoError(t, err)

		_, err = svc.AcceptInvite(ctx, &AcceptInviteRequest{
			Code: invitation.Code, Name: "A", Password: "senha-123-forte",
		})
		require.NoError(t, err)

		_, err = svc.AcceptInvite(ctx, &AcceptInviteRequest{
			Code: invitation.Code, Name: "B", Password: "senha-123-forte",
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrInvitationUsed.Code, errors.GetAppError(err).Code)
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		db, svc := setupTest(t)
		owner, err := svc.Signup(ctx, signupRequest())
		require.NoError(t, err)

		invitation, err := svc.Invite(ctx, owner.User.ID, &InviteRequest{
			Email:           "tarde@example.com",
			EstablishmentID: owner.User.EstablishmentID,
		})
		require.NoError(t, err)
		require.NoError(t, db.Model(invitation).Update("expires_at", time.Now().Add(-time.Hour)).Error)

		_, err = svc.AcceptInvite(ctx, &AcceptInviteRequest{
			Code: invitation.Code, Name: "Atrasada", Password: "senha-123-forte",
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrInvitationBad.Code, errors.GetAppError(err).Code)
	})

	t.Run("lojista invite requires an establishment", func(t *testing.T) {
		_, svc := setupTest(t)

		_, err := svc.Invite(ctx, 1, &InviteRequest{Email: "sem@example.com"})
		require.Error(t, err)
	})
}
