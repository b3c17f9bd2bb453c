package api

import (
	"fmt"
	"net/http"
	"strings"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/pkg/middleware"
	"bitwise74/bucket-panel/pkg/util"
	"bitwise74/bucket-panel/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type presignBody struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Prefix      string `json:"prefix"`
	Size        int64  `json:"size"`
}

const defaultContentType = "application/octet-stream"

// FilesPresign signs a PUT url the client uploads to directly
func (a *API) FilesPresign(c *gin.Context) {
	requestID := middleware.RequestID(c)
	sess := middleware.GetSession(c)

	var data presignBody
	if !bindJSON(c, &data) {
		return
	}

	bucket, settings, ok := a.bucket(c)
	if !ok {
		return
	}

	maxSize := int64(a.Config.Upload.MaxSize)
	if data.Size > maxSize {
		abort(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %s limit", util.FormatBytes(maxSize)))
		return
	}

	if data.Size < 0 {
		abort(c, http.StatusUnprocessableEntity, "Invalid file size")
		return
	}

	key, err := validators.ObjectKey(data.Prefix, data.FileName)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	contentType := strings.TrimSpace(data.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	signed, err := bucket.PresignPut(c.Request.Context(), key, contentType, a.Config.Upload.URLTTL)
	if err != nil {
		abort(c, http.StatusInternalServerError, "Internal server error")
		zap.L().Error("Failed to presign upload", zap.Error(err), zap.String("key", key), zap.String("requestID", requestID))
		return
	}

	loc := location(settings)
	a.Activity.Record(actor(sess), model.ActionUploadPrepared, key, fmt.Sprintf("size %s, %s", util.FormatBytes(data.Size), contentType))

	c.JSON(http.StatusOK, gin.H{
		"uploadUrl": signed.URL,
		"method":    signed.Method,
		"key":       key,
		"expiresAt": signed.ExpiresAt,
		"headers": gin.H{
			"Content-Type": contentType,
		},
		"publicUrl": loc.PublicURL(key),
		"cdnUrl":    loc.CDNURL(key),
	})
}
