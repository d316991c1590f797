// Package jwt provides token management for API sessions.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the custom JWT claims.
type Claims struct {
	UserID          int64  `json:"user_id"`
	UserType        string `json:"user_type"` // user, admin
	Role            string `json:"role,omitempty"`
	EstablishmentID int64  `json:"establishment_id,omitempty"`
	jwt.RegisteredClaims
}

// Config holds signing settings.
type Config struct {
	Secret            string
	AccessExpireTime  time.Duration
	RefreshExpireTime time.Duration
	Issuer            string
}

// Manager issues and parses tokens.
type Manager struct {
	config *Config
}

// TokenPair is an access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenNotActive = errors.New("token not active yet")
)

// NewManager creates a token manager.
func NewManager(config *Config) *Manager {
	return &Manager{
		config: config,
	}
}

// GenerateTokenPair issues an access/refresh pair.
func (m *Manager) GenerateTokenPair(userID int64, userType, role string, establishmentID int64) (*TokenPair, error) {
	now := time.Now()
	accessExpireAt := now.Add(m.config.AccessExpireTime)
	refreshExpireAt := now.Add(m.config.RefreshExpireTime)

	accessToken, err := m.generateToken(userID, userType, role, establishmentID, accessExpireAt)
	if err != nil {
		return nil, err
	}

	refreshToken, err := m.generateToken(userID, userType, role, establishmentID, refreshExpireAt)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpireAt.Unix(),
	}, nil
}

func (m *Manager) generateToken(userID int64, userType, role string, establishmentID int64, expireAt time.Time) (string, error) {
	claims := &Claims{
		UserID:          userID,
		UserType:        userType,
		Role:            role,
		EstablishmentID: establishmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userType,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expireAt),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// ParseToken validates and parses a token.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(m.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrTokenMalformed
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotActive
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}

// RefreshToken issues a new pair from a refresh token.
func (m *Manager) RefreshToken(refreshTokenString string) (*TokenPair, error) {
	claims, err := m.ParseToken(refreshTokenString)
	if err != nil {
		return nil, err
	}

	return m.GenerateTokenPair(claims.UserID, claims.UserType, claims.Role, claims.EstablishmentID)
}

// ValidateToken reports whether a token is valid.
func (m *Manager) ValidateToken(tokenString string) (bool, error) {
	_, err := m.ParseToken(tokenString)
	if err != nil {
		return false, err
	}
	return true, nil
}

// User types.
const (
	UserTypeUser  = "user"
	UserTypeAdmin = "admin"
)

// Roles.
const (
	RoleAdmin   = "admin"
	RoleLojista = "lojista"
)
