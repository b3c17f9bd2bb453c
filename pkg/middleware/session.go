package middleware

import (
	"context"
	"errors"
	"net/http"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/internal/service"
	"bitwise74/bucket-panel/pkg/permission"
	"bitwise74/bucket-panel/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "session"

// UserLookup finds the current state of a user by id
type UserLookup interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

// CookieConfig describes how the session cookie is written
type CookieConfig struct {
	Secure bool
	Domain string
}

// SetSessionCookie stores token in the session cookie
func (cc CookieConfig) SetSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(security.SessionCookie, token, maxAge, "/", cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(security.SessionCookie, "", -1, "/", cc.Domain, cc.Secure, true)
}

// NewSessionMiddleware verifies the session cookie and loads the user behind
// it. Blocked or removed users are logged out. The stored session reflects
// the user's current role and permissions, not the ones in the token.
func NewSessionMiddleware(signer *security.SessionSigner, users UserLookup, cc CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := RequestID(c)

		tokenStr, err := c.Cookie(security.SessionCookie)
		if err != nil || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not authenticated",
				"requestID": requestID,
			})
			return
		}

		sess, err := signer.Verify(tokenStr)
		if err != nil {
			msg := "Authorization token invalid"
			if errors.Is(err, security.ErrTokenExpired) {
				msg = "Authorization token expired. Please log in again"
			}

			cc.ClearSessionCookie(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     msg,
				"requestID": requestID,
			})
			return
		}

		user, err := users.Get(c.Request.Context(), sess.ID)
		if err != nil || user.Status == permission.Blocked {
			if err != nil && !errors.Is(err, service.ErrNotFound) {
				zap.L().Error("Failed to load session user", zap.Error(err), zap.String("requestID", requestID))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "Internal server error",
					"requestID": requestID,
				})
				return
			}

			cc.ClearSessionCookie(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not authenticated",
				"requestID": requestID,
			})
			return
		}

		current := service.SessionFor(user)

		c.Set(sessionKey, &current)
		c.Set("userID", user.ID)
		c.Next()
	}
}

// GetSession returns the session set by NewSessionMiddleware
func GetSession(c *gin.Context) *security.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}

	s, _ := v.(*security.Session)
	return s
}
