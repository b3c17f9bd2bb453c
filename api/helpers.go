package api

import (
	"net/http"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/internal/service"
	"bitwise74/bucket-panel/internal/storage"
	"bitwise74/bucket-panel/pkg/middleware"
	"bitwise74/bucket-panel/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func actor(s *security.Session) service.Actor {
	return service.Actor{
		ID:    s.ID,
		Name:  s.Name,
		Email: s.Email,
	}
}

// issueSession signs a fresh token for u and stores it in the cookie
func (a *API) issueSession(c *gin.Context, u *model.User) (security.Session, bool) {
	sess := service.SessionFor(u)

	token, _, err := a.Signer.Issue(sess)
	if err != nil {
		abort(c, http.StatusInternalServerError, "Internal server error")
		zap.L().Error("Failed to issue session token", zap.Error(err), zap.String("requestID", middleware.RequestID(c)))
		return sess, false
	}

	a.Cookies.SetSessionCookie(c, token, int(a.Signer.TTL().Seconds()))
	return sess, true
}

// bucket loads the stored settings and the client for them. Responds and
// returns false when that's not possible.
func (a *API) bucket(c *gin.Context) (storage.Bucket, *model.Settings, bool) {
	settings, err := a.Settings.Get(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to load settings")
		return nil, nil, false
	}

	b, err := a.Buckets.Get(c.Request.Context(), service.BucketCredentials(settings))
	if err != nil {
		fail(c, err, "Failed to create bucket client")
		return nil, nil, false
	}

	return b, settings, true
}

func location(s *model.Settings) storage.Location {
	return service.BucketCredentials(s).Location
}

// bindJSON decodes the request body into v. Responds and returns false when
// the body is too large or malformed.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		if middleware.IsBodyTooLarge(err) {
			abort(c, http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
			return false
		}

		abort(c, http.StatusBadRequest, "Invalid request body")
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", middleware.RequestID(c)))
		return false
	}

	return true
}
