package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/shop/backend/internal/application/identity"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService    *appidentity.AuthService
	tokenBlacklist auth.TokenBlacklist
	logger         *zap.Logger
}

// NewAuthHandler creates a new auth handler. tokenBlacklist may be nil,
// in which case logout is a no-op beyond the client discarding its token.
func NewAuthHandler(authService *appidentity.AuthService, tokenBlacklist auth.TokenBlacklist, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		authService:    authService,
		tokenBlacklist: tokenBlacklist,
		logger:         log,
	}
}

// Register godoc
// @Summary      Register a customer account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RegisterRequest true "Registration details"
// @Success      201 {object} dto.Response{data=identity.AccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req appidentity.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	account, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// Login godoc
// @Summary      Authenticate with username and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=identity.LoginResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req appidentity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Logout godoc
// @Summary      Revoke the current token
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if h.tokenBlacklist != nil && claims.ID != "" && claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			if err := h.tokenBlacklist.AddToBlacklist(c.Request.Context(), claims.ID, ttl); err != nil {
				h.logger.Error("Failed to blacklist token on logout",
					zap.String("jti", claims.ID),
					zap.Error(err))
			}
		}
	}

	h.Success(c, gin.H{"message": "Logged out"})
}

// GetProfile godoc
// @Summary      Get the authenticated account's profile
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.AccountResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	accountID, err := uuid.Parse(middleware.GetJWTAccountID(c))
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	account, err := h.authService.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// UpdateProfile godoc
// @Summary      Update the authenticated account's profile
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdateProfileRequest true "Profile fields"
// @Success      200 {object} dto.Response{data=identity.AccountResponse}
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	accountID, err := uuid.Parse(middleware.GetJWTAccountID(c))
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appidentity.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	account, err := h.authService.UpdateProfile(c.Request.Context(), accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// ChangePassword godoc
// @Summary      Change the authenticated account's password
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body identity.ChangePasswordRequest true "Current and new password"
// @Success      204 "No Content"
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	accountID, err := uuid.Parse(middleware.GetJWTAccountID(c))
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appidentity.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), accountID, req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// CreateEmployee godoc
// @Summary      Create a staff account (admin only)
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body identity.CreateEmployeeRequest true "Employee details"
// @Success      201 {object} dto.Response{data=identity.AccountResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/employees [post]
func (h *AuthHandler) CreateEmployee(c *gin.Context) {
	var req appidentity.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	role := identity.Role(middleware.GetJWTRole(c))
	account, err := h.authService.CreateEmployee(c.Request.Context(), role, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// ListEmployees godoc
// @Summary      List staff accounts (admin only)
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identity.AccountResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/employees [get]
func (h *AuthHandler) ListEmployees(c *gin.Context) {
	role := identity.Role(middleware.GetJWTRole(c))
	employees, err := h.authService.ListEmployees(c.Request.Context(), role)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, employees)
}

// RemoveEmployee godoc
// @Summary      Remove a staff account (admin only)
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Employee account ID"
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/employees/{id} [delete]
func (h *AuthHandler) RemoveEmployee(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid employee ID")
		return
	}

	role := identity.Role(middleware.GetJWTRole(c))
	if err := h.authService.RemoveEmployee(c.Request.Context(), role, employeeID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
