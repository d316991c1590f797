// Package establishment provides the tenant profile and program settings handlers.
package establishment

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	"github.com/fidelizapp/fideliza-backend/internal/middleware"
	adminService "github.com/fidelizapp/fideliza-backend/internal/service/admin"
	establishmentService "github.com/fidelizapp/fideliza-backend/internal/service/establishment"
)

// Logo uploads above this size are rejected before reading the body.
const maxLogoSize = 2 << 20

// Handler serves the establishment profile, program settings and logo upload.
type Handler struct {
	establishmentService *establishmentService.EstablishmentService
	adminService         *adminService.AdminService
}

// NewHandler creates the establishment handler.
func NewHandler(establishmentSvc *establishmentService.EstablishmentService, adminSvc *adminService.AdminService) *Handler {
	return &Handler{
		establishmentService: establishmentSvc,
		adminService:         adminSvc,
	}
}

// Get returns the authenticated establishment
// @Summary Dados do estabelecimento
// @Tags Estabelecimento
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.Establishment}
// @Router /api/v1/establishment [get]
func (h *Handler) Get(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	est, err := h.establishmentService.Get(c.Request.Context(), establishmentID)
	handler.MustSucceed(c, err, est)
}

// UpdateProfile updates name, contact and address fields
// @Summary Atualizar perfil
// @Tags Estabelecimento
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body establishmentService.UpdateProfileRequest true "Dados do perfil"
// @Success 200 {object} response.Response{data=models.Establishment}
// @Router /api/v1/establishment [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	var req establishmentService.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	est, err := h.establishmentService.UpdateProfile(c.Request.Context(), establishmentID, &req)
	if handler.HandleError(c, err) {
		return
	}

	h.audit(c, establishmentID, "profile_update", nil)
	response.Success(c, est)
}

// UpdateConfig updates the loyalty program settings
// @Summary Atualizar programa de fidelidade
// @Tags Estabelecimento
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body establishmentService.UpdateConfigRequest true "Configuração do programa"
// @Success 200 {object} response.Response{data=models.EstablishmentConfig}
// @Router /api/v1/establishment/config [put]
func (h *Handler) UpdateConfig(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	var req establishmentService.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	cfg, err := h.establishmentService.UpdateConfig(c.Request.Context(), establishmentID, &req)
	if handler.HandleError(c, err) {
		return
	}

	h.audit(c, establishmentID, "config_update", map[string]interface{}{
		"program_type": cfg.ProgramType,
	})
	response.Success(c, cfg)
}

// UploadLogo stores the establishment logo
// @Summary Enviar logotipo
// @Tags Estabelecimento
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "Imagem do logotipo"
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/establishment/logo [post]
func (h *Handler) UploadLogo(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Arquivo de imagem obrigatório")
		return
	}
	if fileHeader.Size > maxLogoSize {
		response.BadRequest(c, "Imagem muito grande (máximo 2MB)")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "Falha ao ler o arquivo")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLogoSize))
	if err != nil {
		response.BadRequest(c, "Falha ao ler o arquivo")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.establishmentService.UploadLogo(c.Request.Context(), establishmentID, data, contentType)
	if handler.HandleError(c, err) {
		return
	}

	h.audit(c, establishmentID, "logo_upload", nil)
	response.Success(c, gin.H{"logo_url": url})
}

func (h *Handler) audit(c *gin.Context, establishmentID int64, action string, details map[string]interface{}) {
	if h.adminService == nil {
		return
	}
	entry := &adminService.AuditEntry{
		EstablishmentID: establishmentID,
		Module:          "establishment",
		Action:          action,
		Details:         details,
		IP:              c.ClientIP(),
		UserAgent:       c.Request.UserAgent(),
	}
	if userID := middleware.GetUserID(c); userID > 0 {
		entry.UserID = &userID
	}
	h.adminService.RecordAudit(c.Request.Context(), entry)
}

// RegisterRoutes registers the tenant-facing routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	est := r.Group("/establishment")
	{
		est.GET("", h.Get)
		est.PUT("", h.UpdateProfile)
		est.PUT("/config", h.UpdateConfig)
		est.POST("/logo", h.UploadLogo)
	}
}
