// Package customer provides the customer registry HTTP handlers.
package customer

import (
	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/handler"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	customerService "github.com/fidelizapp/fideliza-backend/internal/service/customer"
)

// Handler serves the per-tenant customer registry.
type Handler struct {
	customerService *customerService.CustomerService
}

// NewHandler creates the customer handler.
func NewHandler(customerSvc *customerService.CustomerService) *Handler {
	return &Handler{
		customerService: customerSvc,
	}
}

// Create registers a customer
// @Summary Cadastrar cliente
// @Tags Clientes
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body customerService.CreateCustomerRequest true "Dados do cliente"
// @Success 200 {object} response.Response{data=models.Customer}
// @Router /api/v1/customers [post]
func (h *Handler) Create(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	var req customerService.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), establishmentID, &req)
	handler.MustSucceed(c, err, customer)
}

// Update edits a customer's registration data
// @Summary Atualizar cliente
// @Tags Clientes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "ID do cliente"
// @Param request body customerService.UpdateCustomerRequest true "Dados do cliente"
// @Success 200 {object} response.Response{data=models.Customer}
// @Router /api/v1/customers/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	establishmentID, customerID, ok := handler.RequireEstablishmentAndParseID(c, "cliente")
	if !ok {
		return
	}

	var req customerService.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Parâmetros inválidos")
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), establishmentID, customerID, &req)
	handler.MustSucceed(c, err, customer)
}

// Get returns one customer with its loyalty card
// @Summary Detalhar cliente
// @Tags Clientes
// @Produce json
// @Security Bearer
// @Param id path int true "ID do cliente"
// @Success 200 {object} response.Response{data=models.Customer}
// @Router /api/v1/customers/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	establishmentID, customerID, ok := handler.RequireEstablishmentAndParseID(c, "cliente")
	if !ok {
		return
	}

	customer, err := h.customerService.Get(c.Request.Context(), establishmentID, customerID)
	handler.MustSucceed(c, err, customer)
}

// Lookup finds a customer by WhatsApp number
// @Summary Buscar cliente por WhatsApp
// @Tags Clientes
// @Produce json
// @Security Bearer
// @Param whatsapp query string true "Número de WhatsApp"
// @Success 200 {object} response.Response{data=models.Customer}
// @Router /api/v1/customers/lookup [get]
func (h *Handler) Lookup(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	whatsapp := c.Query("whatsapp")
	if whatsapp == "" {
		response.BadRequest(c, "Informe o número de WhatsApp")
		return
	}

	customer, err := h.customerService.FindByWhatsApp(c.Request.Context(), establishmentID, whatsapp)
	handler.MustSucceed(c, err, customer)
}

// List pages through the customer registry
// @Summary Listar clientes
// @Tags Clientes
// @Produce json
// @Security Bearer
// @Param page query int false "Página"
// @Param page_size query int false "Itens por página"
// @Param search query string false "Nome ou WhatsApp"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/customers [get]
func (h *Handler) List(c *gin.Context) {
	establishmentID, ok := handler.RequireEstablishmentID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	customers, total, err := h.customerService.List(c.Request.Context(), establishmentID, p.Page, p.PageSize, c.Query("search"))
	handler.MustSucceedPage(c, err, customers, total, p.Page, p.PageSize)
}

// RegisterRoutes registers the customer routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers")
	{
		customers.POST("", h.Create)
		customers.GET("", h.List)
		customers.GET("/lookup", h.Lookup)
		customers.GET("/:id", h.Get)
		customers.PUT("/:id", h.Update)
	}
}
