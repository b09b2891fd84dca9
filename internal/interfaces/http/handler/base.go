package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	appordering "github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/interfaces/http/dto"
	"github.com/shop/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct{}

// getRequestID extracts the request ID set by the RequestID middleware
func (h *BaseHandler) getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDContextKey)
}

// Success sends a successful response with data
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a successful response with pagination metadata
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response with data
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given code and message
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	status := dto.GetHTTPStatus(code)
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, h.getRequestID(c)))
}

// BadRequest sends a 400 error response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 error response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 error response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 error response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeForbidden, message)
}

// InternalError sends a 500 error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeInternal, message)
}

// HandleError maps application errors onto HTTP responses. Domain errors
// carry their own code; anything else is an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, h.getRequestID(c)))
		return
	}
	h.InternalError(c, "An unexpected error occurred")
}

// HandleValidationError converts request binding failures into a 400 with
// per-field details when the error is a validator error.
func (h *BaseHandler) HandleValidationError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]dto.ValidationDetail, 0, len(validationErrs))
		for _, fe := range validationErrs {
			details = append(details, dto.ValidationDetail{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", h.getRequestID(c), details))
		return
	}
	h.Error(c, dto.ErrCodeInvalidJSON, "Invalid request body")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is below the minimum of " + fe.Param()
	case "max":
		return "Value exceeds the maximum of " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "uuid":
		return "Must be a valid UUID"
	case "gt":
		return "Must be greater than " + fe.Param()
	default:
		return "Invalid value"
	}
}

// currentActor builds the acting account from the JWT middleware context.
// Returns false when the request is unauthenticated or the token carries
// a malformed account ID.
func (h *BaseHandler) currentActor(c *gin.Context) (appordering.Actor, bool) {
	accountID, err := uuid.Parse(middleware.GetJWTAccountID(c))
	if err != nil {
		return appordering.Actor{}, false
	}
	return appordering.Actor{
		AccountID: accountID,
		Username:  middleware.GetJWTUsername(c),
		Role:      identity.Role(middleware.GetJWTRole(c)),
	}, true
}
