package api

import (
	"errors"
	"net/http"

	"bitwise74/bucket-panel/internal/service"
	"bitwise74/bucket-panel/internal/storage"
	"bitwise74/bucket-panel/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     msg,
		"requestID": middleware.RequestID(c),
	})
}

// fail maps service errors to a response. Anything unknown is logged and
// reported as a generic 500.
func fail(c *gin.Context, err error, logMsg string) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		abort(c, http.StatusUnprocessableEntity, vErr.Msg)
	case errors.Is(err, service.ErrNotFound):
		abort(c, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrConflict):
		abort(c, http.StatusConflict, "Already exists")
	case errors.Is(err, service.ErrForbidden):
		abort(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, service.ErrInvalidCredentials):
		abort(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrSetupCompleted):
		abort(c, http.StatusConflict, "Setup already completed")
	case errors.Is(err, service.ErrSetupRequired):
		abort(c, http.StatusBadRequest, "Setup required")
	case errors.Is(err, storage.ErrBucketNotFound):
		abort(c, http.StatusBadRequest, err.Error())
	case middleware.IsBodyTooLarge(err):
		abort(c, http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
	default:
		abort(c, http.StatusInternalServerError, "Internal server error")
		zap.L().Error(logMsg, zap.Error(err), zap.String("requestID", middleware.RequestID(c)))
	}
}
