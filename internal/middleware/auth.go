// Package middleware provides HTTP middleware.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/jwt"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
)

// AuthConfig configures the auth middleware.
type AuthConfig struct {
	JWTManager *jwt.Manager
	UserType   string // expected user type
}

// Context keys.
const (
	ContextKeyUserID          = "user_id"
	ContextKeyUserType        = "user_type"
	ContextKeyRole            = "role"
	ContextKeyEstablishmentID = "establishment_id"
	ContextKeyClaims          = "claims"
)

// Auth validates the session token and sets identity on the context.
func Auth(config *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "Faça login para continuar")
			c.Abort()
			return
		}

		claims, err := config.JWTManager.ParseToken(token)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				response.Unauthorized(c, "Sessão expirada. Faça login novamente")
			} else {
				response.Unauthorized(c, "Token inválido")
			}
			c.Abort()
			return
		}

		if config.UserType != "" && claims.UserType != config.UserType {
			response.Forbidden(c, "Acesso negado")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserType, claims.UserType)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyEstablishmentID, claims.EstablishmentID)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// UserAuth authenticates establishment users.
func UserAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return Auth(&AuthConfig{
		JWTManager: jwtManager,
		UserType:   jwt.UserTypeUser,
	})
}

// AdminAuth authenticates platform admins.
func AdminAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return Auth(&AuthConfig{
		JWTManager: jwtManager,
		UserType:   jwt.UserTypeAdmin,
	})
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	token := c.Query("token")
	if token != "" {
		return token
	}

	token, _ = c.Cookie("token")
	return token
}

// GetUserID returns the authenticated user id or 0.
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	return userID.(int64)
}

// GetEstablishmentID returns the session's establishment id or 0.
func GetEstablishmentID(c *gin.Context) int64 {
	id, exists := c.Get(ContextKeyEstablishmentID)
	if !exists {
		return 0
	}
	return id.(int64)
}

// GetAdminID returns the authenticated admin id or 0.
func GetAdminID(c *gin.Context) int64 {
	if GetUserType(c) != "admin" {
		return 0
	}
	return GetUserID(c)
}

// GetUserType returns the session user type.
func GetUserType(c *gin.Context) string {
	userType, exists := c.Get(ContextKeyUserType)
	if !exists {
		return ""
	}
	return userType.(string)
}

// GetRole returns the session role.
func GetRole(c *gin.Context) string {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	return role.(string)
}

// GetClaims returns the full claims.
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	return claims.(*jwt.Claims)
}

// IsLoggedIn reports whether the request is authenticated.
func IsLoggedIn(c *gin.Context) bool {
	_, exists := c.Get(ContextKeyUserID)
	return exists
}
