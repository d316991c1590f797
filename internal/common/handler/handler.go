// Package handler provides shared helpers for API handlers:
// unified error handling, auth checks, parameter parsing and pagination.
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/middleware"
)

// ============================================================================
// Error handling
// ============================================================================

// HandleError sends the proper error response for err.
// Returns false when err is nil; returns true after writing the response,
// in which case the caller should return.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, err.Error())
	return true
}

// HandleErrorWithMessage handles err using a custom message for non-AppErrors.
func HandleErrorWithMessage(c *gin.Context, err error, message string) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, message)
	return true
}

// MustSucceed writes an error response for err or a success response with data.
// The caller must return after calling it.
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedWithMessage is MustSucceed with a custom success message.
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// MustSucceedPage is the paginated variant of MustSucceed.
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ============================================================================
// Auth checks
// ============================================================================

// RequireUserID returns the authenticated user id or writes a 401 response.
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "Faça login para continuar")
		return 0, false
	}
	return userID, true
}

// RequireEstablishmentID returns the establishment the session belongs to
// or writes a 401 response.
func RequireEstablishmentID(c *gin.Context) (int64, bool) {
	establishmentID := middleware.GetEstablishmentID(c)
	if establishmentID == 0 {
		response.Unauthorized(c, "Faça login para continuar")
		return 0, false
	}
	return establishmentID, true
}

// RequireAdminID returns the authenticated platform admin id or writes a 401 response.
func RequireAdminID(c *gin.Context) (int64, bool) {
	adminID := middleware.GetAdminID(c)
	if adminID == 0 {
		response.Unauthorized(c, "Faça login para continuar")
		return 0, false
	}
	return adminID, true
}

// ============================================================================
// ID parsing
// ============================================================================

// ParseID parses the "id" path parameter as int64.
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID parses a named path parameter as int64.
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "ID de "+resourceName+" inválido")
		return 0, false
	}
	return id, true
}

// ParseQueryID parses an optional query parameter as int64.
// Returns (nil, true) when the parameter is absent.
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "ID de "+resourceName+" inválido")
		return nil, false
	}
	return &id, true
}

// ============================================================================
// Time parsing
// ============================================================================

// Time formats accepted in query parameters and request bodies.
const (
	DateFormat        = "2006-01-02"
	DateTimeFormat    = "2006-01-02 15:04:05"
	DateTimeFormatISO = "2006-01-02T15:04:05Z07:00"
	DateTimeFormatMin = "2006-01-02 15:04"
)

var dateTimeFormats = []string{
	DateTimeFormatISO,
	DateTimeFormat,
	"2006-01-02T15:04:05",
	DateTimeFormatMin,
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// ParseDateTime parses a datetime string in any accepted format.
func ParseDateTime(s string) (time.Time, error) {
	for _, format := range dateTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.ErrInvalidParams.WithMessage("Formato de data/hora inválido")
}

// ParseQueryDate parses an optional date query parameter.
// Returns (nil, true) when absent, (nil, false) after writing a 400 response.
func ParseQueryDate(c *gin.Context, paramName, errorMsg string) (*time.Time, bool) {
	dateStr := c.Query(paramName)
	if dateStr == "" {
		return nil, true
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		response.BadRequest(c, errorMsg)
		return nil, false
	}
	return &t, true
}

// ParseQueryDateRange parses the optional from/to date query parameters.
// The end date is pushed to the end of its day.
func ParseQueryDateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var start, end *time.Time

	startStr := c.Query("from")
	if startStr != "" {
		t, err := ParseDate(startStr)
		if err != nil {
			response.BadRequest(c, "Data inicial inválida")
			return nil, nil, false
		}
		start = &t
	}

	endStr := c.Query("to")
	if endStr != "" {
		t, err := ParseDate(endStr)
		if err != nil {
			response.BadRequest(c, "Data final inválida")
			return nil, nil, false
		}
		endOfDay := t.Add(24*time.Hour - time.Second)
		end = &endOfDay
	}

	return start, end, true
}

// ============================================================================
// Pagination
// ============================================================================

// BindPagination binds and normalizes page/page_size query parameters.
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}

// ============================================================================
// Combined helpers
// ============================================================================

// RequireEstablishmentAndParseID checks the session and parses the "id" parameter.
func RequireEstablishmentAndParseID(c *gin.Context, resourceName string) (establishmentID, resourceID int64, ok bool) {
	establishmentID, ok = RequireEstablishmentID(c)
	if !ok {
		return 0, 0, false
	}
	resourceID, ok = ParseID(c, resourceName)
	if !ok {
		return 0, 0, false
	}
	return establishmentID, resourceID, true
}
