package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/inventory"
	"github.com/invsync/backend/internal/domain/shared"
	"github.com/invsync/backend/internal/infrastructure/logger"
	"github.com/invsync/backend/internal/interfaces/http/dto"
	"github.com/invsync/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving the status from code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// bindJSON decodes the request body into req. It writes the error response
// itself and returns false when the body is unusable.
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	if details := middleware.FieldErrors(err); details != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(details, middleware.GetRequestID(c)))
		return false
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		h.ErrorWithCode(c, dto.ErrCodeBodyTooLarge, "Request body too large")
		return false
	}
	h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, "Malformed JSON body")
	return false
}

// parseUUIDParam reads a path parameter as a UUID
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// HandleError converts application and domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var (
		notFound     *inventory.InventoryNotFoundError
		insufficient *inventory.InsufficientStockError
		transient    *integration.TransientAPIError
		httpStatus   *integration.HTTPStatusError
		domainErr    *shared.DomainError
	)

	switch {
	case errors.As(err, &notFound):
		h.ErrorWithCode(c, dto.ErrCodeNotFound, err.Error())
	case errors.As(err, &insufficient):
		h.ErrorWithCode(c, dto.ErrCodeInsufficientStock, err.Error())
	case errors.Is(err, inventory.ErrInvalidAdjustmentType),
		errors.Is(err, inventory.ErrInvalidAdjustmentQuantity),
		errors.Is(err, inventory.ErrQuantityOverflow),
		errors.Is(err, integration.ErrMarketplaceNameRequired),
		errors.Is(err, integration.ErrUnsupportedMarketplace),
		errors.Is(err, integration.ErrInvalidSettings):
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, integration.ErrSyncInProgress):
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, err.Error())
	case errors.Is(err, integration.ErrMarketplaceInactive):
		h.ErrorWithCode(c, dto.ErrCodeMarketplaceInactive, err.Error())
	case errors.As(err, &transient),
		errors.As(err, &httpStatus),
		errors.Is(err, integration.ErrHealthCheckFailed):
		h.ErrorWithCode(c, dto.ErrCodeMarketplaceUnavailable, err.Error())
	case errors.As(err, &domainErr):
		h.ErrorWithCode(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
	default:
		logger.GetGinLogger(c).Error("Unhandled request error", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeInternal, "An internal error occurred")
	}
}
