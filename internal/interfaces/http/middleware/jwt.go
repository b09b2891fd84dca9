package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey    = "jwt_claims"
	JWTAccountIDKey = "jwt_account_id"
	JWTUsernameKey  = "jwt_username"
	JWTRoleKey      = "jwt_role"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// JWTAuthMiddleware creates JWT authentication middleware with no skip paths
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{JWTService: jwtService})
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Missing token")
			return
		}

		claims, err := cfg.JWTService.Validate(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Token validation failed")
			return
		}

		if cfg.TokenBlacklist != nil && claims.ID != "" {
			blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				// Fail open for availability; revocation is best-effort
				if cfg.Logger != nil {
					cfg.Logger.Error("Failed to check token blacklist",
						zap.String("jti", claims.ID),
						zap.Error(err))
				}
			} else if blacklisted {
				abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Token has been revoked")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTAccountIDKey, claims.AccountID)
		c.Set(JWTUsernameKey, claims.Username)
		c.Set(JWTRoleKey, claims.Role)

		// Propagate the account into the request-scoped logger
		ctx := c.Request.Context()
		ctx, _ = logger.WithAccountID(ctx, logger.FromContext(ctx), claims.AccountID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireStaff rejects requests from accounts that are not employees or admins
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := identity.Role(GetJWTRole(c))
		if !role.IsStaff() {
			abortForbidden(c, "Staff access required")
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from accounts that are not admins
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity.Role(GetJWTRole(c)) != identity.RoleAdmin {
			abortForbidden(c, "Admin access required")
			return
		}
		c.Next()
	}
}

// GetJWTClaims returns the validated claims stored by the JWT middleware
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if value, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := value.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTAccountID returns the authenticated account ID or an empty string
func GetJWTAccountID(c *gin.Context) string {
	return c.GetString(JWTAccountIDKey)
}

// GetJWTUsername returns the authenticated username or an empty string
func GetJWTUsername(c *gin.Context) string {
	return c.GetString(JWTUsernameKey)
}

// GetJWTRole returns the authenticated role or an empty string
func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message))
}

func abortForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(dto.ErrCodeForbidden, message))
}
