// Package auth handles signup, login and invitations.
package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/crypto"
	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/jwt"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// AuthService authenticates users and provisions tenants.
type AuthService struct {
	db         *gorm.DB
	jwtManager *jwt.Manager
	aes        *crypto.AES
}

// NewAuthService creates an AuthService. aes may be nil when CPF storage is
// disabled.
func NewAuthService(db *gorm.DB, jwtManager *jwt.Manager, aes *crypto.AES) *AuthService {
	return &AuthService{db: db, jwtManager: jwtManager, aes: aes}
}

// SignupRequest provisions a new establishment with its owner account.
type SignupRequest struct {
	EstablishmentName string  `json:"establishment_name" binding:"required"`
	OwnerName         string  `json:"owner_name" binding:"required"`
	Email             string  `json:"email" binding:"required,email"`
	Password          string  `json:"password" binding:"required,min=8"`
	WhatsApp          *string `json:"whatsapp,omitempty"`
	CPF               *string `json:"cpf,omitempty"`
	ProgramType       string  `json:"program_type"`
	ValuePerPoint     float64 `json:"value_per_point"`
	StampsForReward   int     `json:"stamps_for_reward"`
	RewardDescription string  `json:"reward_description"`
}

// AuthResponse carries the authenticated user and its tokens.
type AuthResponse struct {
	User      *UserInfo      `json:"user"`
	TokenPair *jwt.TokenPair `json:"token"`
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	EstablishmentID int64  `json:"establishment_id,omitempty"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "ã", "a", "â", "a",
		"é", "e", "ê", "e", "í", "i",
		"ó", "o", "õ", "o", "ô", "o",
		"ú", "u", "ü", "u", "ç", "c",
	)
	slug := replacer.Replace(strings.ToLower(name))
	slug = nonSlug.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// Signup provisions the establishment, its program settings and the owner
// account in one transaction. A failure at any step leaves nothing behind.
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	programType := req.ProgramType
	if programType == "" {
		programType = models.ProgramTypePontuacao
	}
	if programType != models.ProgramTypePontuacao && programType != models.ProgramTypeCarimbo {
		return nil, errors.ErrProgramInvalid
	}
	if req.CPF != nil && !utils.ValidateCPF(*req.CPF) {
		return nil, errors.ErrInvalidParams.WithMessage("CPF inválido")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalError.Code, "Falha ao processar senha", err)
	}

	var user *models.User
	var est *models.Establishment

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := repository.NewUserRepository(tx)
		estRepo := repository.NewEstablishmentRepository(tx)

		exists, err := userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consultar email", err)
		}
		if exists {
			return errors.ErrEmailExists
		}

		slug, err := s.uniqueSlug(ctx, estRepo, req.EstablishmentName)
		if err != nil {
			return err
		}

		est = &models.Establishment{
			Name:     req.EstablishmentName,
			Slug:     slug,
			Status:   models.EstablishmentStatusTrial,
			WhatsApp: req.WhatsApp,
		}
		if err := estRepo.Create(ctx, est); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao criar estabelecimento", err)
		}

		stamps := req.StampsForReward
		if stamps <= 0 {
			stamps = 10
		}
		if err := estRepo.CreateConfig(ctx, &models.EstablishmentConfig{
			EstablishmentID:    est.ID,
			ProgramType:        programType,
			ValuePerPoint:      req.ValuePerPoint,
			StampsForReward:    stamps,
			RewardDescription:  req.RewardDescription,
			RewardValidityDays: 30,
		}); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao configurar programa", err)
		}

		user = &models.User{
			Email:           email,
			PasswordHash:    hash,
			Name:            req.OwnerName,
			Role:            models.RoleLojista,
			EstablishmentID: &est.ID,
			Active:          true,
		}
		if req.CPF != nil && s.aes != nil {
			encrypted, err := s.aes.Encrypt(*req.CPF)
			if err != nil {
				return errors.Wrap(errors.ErrInternalError.Code, "Falha ao proteger CPF", err)
			}
			user.CPFEncrypted = &encrypted
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao criar usuário", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("estabelecimento cadastrado",
		logger.EstablishmentID(est.ID),
		logger.UserID(user.ID),
	)
	return s.respond(user)
}

func (s *AuthService) uniqueSlug(ctx context.Context, estRepo *repository.EstablishmentRepository, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "estabelecimento"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := estRepo.ExistsBySlug(ctx, slug)
		if err != nil {
			return "", errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consultar identificador", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the credentials and issues a token pair. The password error
// never reveals whether the email exists.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	userRepo := repository.NewUserRepository(s.db)
	user, err := userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPasswordError
		}
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consultar usuário", err)
	}
	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, errors.ErrPasswordError
	}
	if !user.Active {
		return nil, errors.ErrAccountDisabled
	}

	now := time.Now()
	if err := userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		logger.Warn("falha ao registrar login", logger.UserID(user.ID), logger.Err(err))
	}

	return s.respond(user)
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	pair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		return nil, errors.ErrTokenRefreshFail.WithError(err)
	}
	return pair, nil
}

func (s *AuthService) respond(user *models.User) (*AuthResponse, error) {
	userType := jwt.UserTypeUser
	if user.Role == models.RoleAdmin {
		userType = jwt.UserTypeAdmin
	}
	establishmentID := int64(0)
	if user.EstablishmentID != nil {
		establishmentID = *user.EstablishmentID
	}

	pair, err := s.jwtManager.GenerateTokenPair(user.ID, userType, user.Role, establishmentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalError.Code, "Falha ao gerar sessão", err)
	}

	return &AuthResponse{
		User: &UserInfo{
			ID:              user.ID,
			Email:           user.Email,
			Name:            user.Name,
			Role:            user.Role,
			EstablishmentID: establishmentID,
		},
		TokenPair: pair,
	}, nil
}

// InviteRequest creates an invitation for a new team member.
type InviteRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Role            string `json:"role"`
	EstablishmentID int64  `json:"establishment_id"`
}

// Invite issues a single-use invitation code valid for seven days.
func (s *AuthService) Invite(ctx context.Context, createdBy int64, req *InviteRequest) (*models.Invitation, error) {
	role := req.Role
	if role == "" {
		role = models.RoleLojista
	}
	if role != models.RoleAdmin && role != models.RoleLojista {
		return nil, errors.ErrInvalidParams.WithMessage("Papel inválido")
	}
	if role == models.RoleLojista && req.EstablishmentID <= 0 {
		return nil, errors.ErrInvalidParams.WithMessage("Convite de lojista exige estabelecimento")
	}

	invitation := &models.Invitation{
		Code:      utils.GenerateInviteCode(10),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Role:      role,
		CreatedBy: createdBy,
		ExpiresAt: time.Now().AddDate(0, 0, 7),
	}
	if req.EstablishmentID > 0 {
		invitation.EstablishmentID = &req.EstablishmentID
	}
	if err := repository.NewUserRepository(s.db).CreateInvitation(ctx, invitation); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao criar convite", err)
	}
	return invitation, nil
}

// AcceptInviteRequest redeems an invitation code into an account.
type AcceptInviteRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// AcceptInvite creates the invited account and burns the code. The code is
// consumed with a guarded update so two concurrent accepts cannot both win.
func (s *AuthService) AcceptInvite(ctx context.Context, req *AcceptInviteRequest) (*AuthResponse, error) {
	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalError.Code, "Falha ao processar senha", err)
	}

	var user *models.User

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := repository.NewUserRepository(tx)

		invitation, err := userRepo.GetInvitationByCode(ctx, strings.ToUpper(strings.TrimSpace(req.Code)))
		if err != nil {
			return errors.ErrInvitationBad
		}
		if invitation.UsedAt != nil {
			return errors.ErrInvitationUsed
		}
		if !invitation.IsUsable(time.Now()) {
			return errors.ErrInvitationBad
		}

		exists, err := userRepo.ExistsByEmail(ctx, invitation.Email)
		if err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consultar email", err)
		}
		if exists {
			return errors.ErrEmailExists
		}

		if err := userRepo.MarkInvitationUsed(ctx, invitation.ID, time.Now()); err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrInvitationUsed
			}
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consumir convite", err)
		}

		user = &models.User{
			Email:        invitation.Email,
			PasswordHash: hash,
			Name:         req.Name,
			Role:         invitation.Role,
			Active:       true,
		}
		user.EstablishmentID = invitation.EstablishmentID
		if err := userRepo.Create(ctx, user); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao criar usuário", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.respond(user)
}
