// Package auth provides the authentication and invitation HTTP handlers.
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	authService "github.com/fidelizapp/fideliza-backend/internal/service/auth"
)

// Handler serves signup, login and invitation endpoints.
type Handler struct {
	authService *authService.AuthService
}

// NewHandler creates the auth handler.
func NewHandler(authSvc *authService.AuthService) *Handler {
	return &Handler{
		authService: authSvc,
	}
}

// Signup registers an establishment together with its owner account
// @Summary Cadastrar estabelecimento
// @Tags Autenticação
// @Accept json
// @Produce json
// @Param request body authService.SignupRequest true "Dados do cadastro"
// @Success 200 {object} response.Response{data=authService.AuthResponse}
// @Router /api/v1/auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req authService.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// Login authenticates by e-mail and password
// @Summary Login
// @Tags Autenticação
// @Accept json
// @Produce json
// @Param request body authService.LoginRequest true "Credenciais"
// @Success 200 {object} response.Response{data=authService.AuthResponse}
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh renews the token pair
// @Summary Renovar token
// @Tags Autenticação
// @Accept json
// @Produce json
// @Param request body refreshRequest true "Refresh token"
// @Success 200 {object} response.Response{data=jwt.TokenPair}
// @Router /api/v1/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, pair)
}

// AcceptInvite redeems an invitation code into a new account
// @Summary Aceitar convite
// @Tags Autenticação
// @Accept json
// @Produce json
// @Param request body authService.AcceptInviteRequest true "Código e dados da conta"
// @Success 200 {object} response.Response{data=authService.AuthResponse}
// @Router /api/v1/auth/invitations/accept [post]
func (h *Handler) AcceptInvite(c *gin.Context) {
	var req authService.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	result, err := h.authService.AcceptInvite(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// Invite issues a single-use invitation code for a new team member
// @Summary Convidar membro
// @Tags Autenticação
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body authService.InviteRequest true "Dados do convite"
// @Success 200 {object} response.Response{data=models.Invitation}
// @Router /api/v1/auth/invitations [post]
func (h *Handler) Invite(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req authService.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	invitation, err := h.authService.Invite(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, invitation)
}

// RegisterRoutes registers the public routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/invitations/accept", h.AcceptInvite)
	}
}

// RegisterProtectedRoutes registers the routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/invitations", h.Invite)
	}
}
