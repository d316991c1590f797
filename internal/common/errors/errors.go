// Package errors defines business error codes and error handling.
package errors

import (
	"fmt"
)

// AppError carries a business error code and a user-facing message.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an application error.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an underlying error with a code and message.
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage returns a copy with a different message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError returns a copy carrying the underlying error.
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Common error codes (1000-1999)
var (
	ErrUnknown         = New(1000, "Erro desconhecido")
	ErrInvalidParams   = New(1001, "Parâmetros inválidos")
	ErrNotFound        = New(1002, "Recurso não encontrado")
	ErrAlreadyExists   = New(1003, "Recurso já existe")
	ErrDatabaseError   = New(1004, "Erro no banco de dados")
	ErrCacheError      = New(1005, "Erro no cache")
	ErrInternalError   = New(1006, "Erro interno")
	ErrExternalService = New(1007, "Erro em serviço externo")
	ErrRateLimitExceed = New(1008, "Muitas requisições. Tente novamente em instantes")
	ErrOperationFailed = New(1009, "Operação falhou")
)

// Auth error codes (2000-2999)
var (
	ErrUnauthorized     = New(2000, "Não autenticado")
	ErrTokenExpired     = New(2001, "Sessão expirada")
	ErrTokenInvalid     = New(2002, "Token inválido")
	ErrTokenRefreshFail = New(2003, "Falha ao renovar sessão")
	ErrPermissionDenied = New(2004, "Permissão negada")
	ErrAccountDisabled  = New(2005, "Conta desativada")
	ErrPasswordError    = New(2006, "Email ou senha incorretos")
	ErrEmailExists      = New(2007, "Email já cadastrado")
	ErrInvitationUsed   = New(2008, "Convite já utilizado")
	ErrInvitationBad    = New(2009, "Convite inválido ou expirado")
)

// Establishment error codes (3000-3999)
var (
	ErrEstablishmentNotFound = New(3000, "Estabelecimento não encontrado")
	ErrEstablishmentInactive = New(3001, "Estabelecimento inativo")
	ErrConfigNotFound        = New(3002, "Configuração do programa não encontrada")
	ErrSlugExists            = New(3003, "Identificador já está em uso")
)

// Customer error codes (4000-4999)
var (
	ErrCustomerNotFound  = New(4000, "Cliente não encontrado")
	ErrCustomerExists    = New(4001, "Cliente já cadastrado com este WhatsApp")
	ErrWhatsAppInvalid   = New(4002, "Número de WhatsApp inválido")
	ErrStatusTokenBad    = New(4003, "Cartão não encontrado")
	ErrLoyaltyNotFound   = New(4004, "Cliente não participa do programa de fidelidade")
)

// Transaction error codes (5000-5999)
var (
	ErrTransactionNotFound  = New(5000, "Transação não encontrada")
	ErrAmountInvalid        = New(5001, "Valor inválido")
	ErrDiscountExceeds      = New(5002, "Desconto não pode ser maior que o subtotal")
	ErrServiceNotFound      = New(5003, "Serviço não encontrado")
	ErrServiceInactive      = New(5004, "Serviço indisponível")
	ErrProfessionalNotFound = New(5005, "Profissional não encontrado")
	ErrExportTooLarge       = New(5006, "Exportação excede o limite de linhas")
	ErrNoActiveProfessional = New(5007, "Não há profissionais ativos")
)

// Loyalty error codes (6000-6999)
var (
	ErrRewardNotAvailable = New(6000, "Cliente não possui recompensa disponível")
	ErrRewardExpired      = New(6001, "Recompensa expirada")
	ErrBalanceConflict    = New(6002, "Saldo foi alterado por outra operação. Tente novamente")
	ErrProgramInvalid     = New(6003, "Tipo de programa inválido")
)

// Appointment error codes (7000-7999)
var (
	ErrAppointmentNotFound = New(7000, "Agendamento não encontrado")
	ErrAppointmentConflict = New(7001, "Horário indisponível para este profissional")
	ErrAppointmentPast     = New(7002, "Não é possível agendar no passado")
	ErrAppointmentStatus   = New(7003, "Status de agendamento inválido")
	ErrAppointmentNoItems  = New(7004, "Agendamento precisa de ao menos um serviço")
)

// IsAppError reports whether err is an application error.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError converts err to an application error.
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
