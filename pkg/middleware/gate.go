package middleware

import (
	"context"
	"net/http"

	"bitwise74/bucket-panel/pkg/permission"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequirePermissions lets the request through only when the session holds
// the required permissions. Must run after NewSessionMiddleware.
func RequirePermissions(mode permission.Mode, required ...permission.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not authenticated",
				"requestID": RequestID(c),
			})
			return
		}

		res := permission.Evaluate(sess.Permissions, required, mode)
		if !res.Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "insufficient permission",
				"missing":   res.Missing,
				"requestID": RequestID(c),
			})
			return
		}

		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles
func RequireRole(roles ...permission.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not authenticated",
				"requestID": RequestID(c),
			})
			return
		}

		for _, r := range roles {
			if sess.Role == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "insufficient role",
			"requestID": RequestID(c),
		})
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRole(permission.Admin)
}

// RequireEditor allows admins and editors
func RequireEditor() gin.HandlerFunc {
	return RequireRole(permission.Admin, permission.Editor)
}

type OnboardingChecker interface {
	Completed(ctx context.Context) (bool, error)
}

// RequireOnboarding blocks the request until the first time setup is done
func RequireOnboarding(o OnboardingChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		done, err := o.Completed(c.Request.Context())
		if err != nil {
			zap.L().Error("Failed to check onboarding state", zap.Error(err), zap.String("requestID", RequestID(c)))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": RequestID(c),
			})
			return
		}

		if !done {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":     "Setup required",
				"requestID": RequestID(c),
			})
			return
		}

		c.Next()
	}
}
