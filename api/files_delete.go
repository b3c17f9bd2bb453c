package api

import (
	"net/http"
	"strings"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (a *API) FilesDelete(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		abort(c, http.StatusUnprocessableEntity, "Key is required")
		return
	}

	bucket, _, ok := a.bucket(c)
	if !ok {
		return
	}

	if err := bucket.Delete(c.Request.Context(), key); err != nil {
		fail(c, err, "Failed to delete object")
		return
	}

	a.Activity.Record(actor(middleware.GetSession(c)), model.ActionDeleted, key, "")

	c.JSON(http.StatusOK, gin.H{
		"key": key,
	})
}
