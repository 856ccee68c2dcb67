package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localcooks/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// Platform roles carried in JWT claims
const (
	RoleChef    = "CHEF"
	RoleManager = "MANAGER"
	RolePartner = "PARTNER"
	RoleAdmin   = "ADMIN"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when the role check fails (optional)
	OnDenied func(c *gin.Context, requiredRoles []string)
}

// RequireRole creates middleware that requires a specific role.
// ADMIN always passes: the platform operator can act on any surface.
func RequireRole(role string) gin.HandlerFunc {
	return RequireAnyRole(role)
}

// RequireRoleWithConfig creates middleware with custom config
func RequireRoleWithConfig(role string, cfg RoleConfig) gin.HandlerFunc {
	return RequireAnyRoleWithConfig(cfg, role)
}

// RequireAnyRole creates middleware that requires any of the specified roles
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return RequireAnyRoleWithConfig(RoleConfig{}, roles...)
}

// RequireAnyRoleWithConfig creates middleware that requires any of the specified roles with custom config
func RequireAnyRoleWithConfig(cfg RoleConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		if claims.Role != RoleAdmin && !claims.HasRole(roles...) {
			handleRoleDenied(c, cfg, roles, "User lacks required role")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("user_id", claims.UserID),
				zap.String("role", claims.Role),
				zap.Strings("required_any", roles),
			)
		}

		c.Next()
	}
}

// RequireAdmin creates middleware that only admits the platform operator
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, RoleConfig{}, []string{RoleAdmin}, "No authentication claims found")
			return
		}

		if claims.Role != RoleAdmin {
			handleRoleDenied(c, RoleConfig{}, []string{RoleAdmin}, "User is not an admin")
			return
		}

		c.Next()
	}
}

// handleRoleDenied handles role check failures
func handleRoleDenied(c *gin.Context, cfg RoleConfig, requiredRoles []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredRoles)
		return
	}

	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		userID := ""
		role := ""
		if claims != nil {
			userID = claims.UserID
			role = claims.Role
		}

		cfg.Logger.Warn("Role denied",
			zap.String("reason", reason),
			zap.String("user_id", userID),
			zap.String("role", role),
			zap.Strings("required_roles", requiredRoles),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_FORBIDDEN",
			"message": "Access denied: insufficient role",
		},
	})
}

// HasRole is a helper function to check the caller's role in handlers.
// ADMIN passes every check.
func HasRole(c *gin.Context, roles ...string) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	if claims.Role == RoleAdmin {
		return true
	}
	return claims.HasRole(roles...)
}

// IsAdmin reports whether the caller is the platform operator
func IsAdmin(c *gin.Context) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.Role == RoleAdmin
}

// MustHaveRole aborts the request if the caller lacks all of the given roles.
// Returns true if the caller passed, false if aborted.
func MustHaveRole(c *gin.Context, roles ...string) bool {
	if !HasRole(c, roles...) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ERR_FORBIDDEN",
				"message": "Access denied: insufficient role",
			},
		})
		return false
	}
	return true
}

// CheckRoleFunc is a function type for custom authorization checks
type CheckRoleFunc func(claims *auth.Claims, c *gin.Context) bool

// RequireCustomCheck creates middleware with a custom authorization function.
// Used where ownership matters beyond the role itself, such as a manager
// acting only on their own locations.
func RequireCustomCheck(checkFunc CheckRoleFunc) gin.HandlerFunc {
	return RequireCustomCheckWithConfig(checkFunc, RoleConfig{})
}

// RequireCustomCheckWithConfig creates custom authorization middleware with config
func RequireCustomCheckWithConfig(checkFunc CheckRoleFunc, cfg RoleConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, []string{"custom"}, "No authentication claims found")
			return
		}

		if !checkFunc(claims, c) {
			handleRoleDenied(c, cfg, []string{"custom"}, "Custom authorization check failed")
			return
		}

		c.Next()
	}
}
