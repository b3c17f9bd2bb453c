package api

import (
	"fmt"
	"io"
	"net/http"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/internal/storage"
	"bitwise74/bucket-panel/pkg/explorer"
	"bitwise74/bucket-panel/pkg/middleware"
	"bitwise74/bucket-panel/pkg/util"
	"bitwise74/bucket-panel/validators"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FilesUpload streams a multipart upload through the server into the bucket.
// Only meant for small files, large ones go through FilesPresign.
func (a *API) FilesUpload(c *gin.Context) {
	requestID := middleware.RequestID(c)
	sess := middleware.GetSession(c)

	header, err := c.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			abort(c, http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
			return
		}

		abort(c, http.StatusBadRequest, "File is required")
		return
	}

	key, err := validators.ObjectKey(c.PostForm("prefix"), header.Filename)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	bucket, settings, ok := a.bucket(c)
	if !ok {
		return
	}

	f, err := header.Open()
	if err != nil {
		abort(c, http.StatusInternalServerError, "Internal server error")
		zap.L().Error("Failed to open multipart file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		abort(c, http.StatusInternalServerError, "Internal server error")
		zap.L().Error("Failed to detect file type", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		abort(c, http.StatusInternalServerError, "Internal server error")
		zap.L().Error("Failed to rewind multipart file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := bucket.Upload(c.Request.Context(), key, mime.String(), f, header.Size); err != nil {
		fail(c, err, "Failed to upload file")
		return
	}

	a.Activity.Record(actor(sess), model.ActionUploaded, key, fmt.Sprintf("size %s, %s", util.FormatBytes(header.Size), mime.String()))

	c.JSON(http.StatusCreated, explorer.NewFile(storage.Object{
		Key:          key,
		Size:         header.Size,
		LastModified: a.now(),
		Owner:        sess.Name,
	}, location(settings)))
}
