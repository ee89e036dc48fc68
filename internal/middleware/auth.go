// File: internal/middleware/auth.go
package middleware

import (
	"strings"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserClaimsKey stores the whole claims object
const UserClaimsKey = "userClaims"

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(tokenService shared.TokenService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(common.AuthorizationHeader)
		if authHeader == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], common.AuthorizationTypeBearer) {
			logger.Debug("Authorization header format invalid")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		claims, err := tokenService.ValidateToken(parts[1])
		if err != nil {
			logger.Warn("Token validation failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails(err.Error()))
			return
		}
		if !claims.Role.Valid() {
			logger.Warn("Token carries unknown role", zap.String("role", claims.Role.String()))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Token role is not recognised."))
			return
		}

		c.Set(common.UserIDKey, claims.UserID)
		c.Set(common.UserEmailKey, claims.Email)
		c.Set(common.UserRoleKey, claims.Role)
		c.Set(UserClaimsKey, claims)

		logger.Debug("User authenticated successfully",
			zap.String("userID", claims.UserID.String()),
			zap.String("role", claims.Role.String()),
		)

		c.Next()
	}
}

// GetUserClaimsFromContext retrieves the full claims object from the Gin context.
func GetUserClaimsFromContext(c *gin.Context) *shared.Claims {
	val, exists := c.Get(UserClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := val.(*shared.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RoleAuthMiddleware creates a middleware to check if the authenticated user has one of the required roles.
func RoleAuthMiddleware(allowedRoles ...common.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
