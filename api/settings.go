package api

import (
	"net/http"

	"bitwise74/bucket-panel/internal/service"

	"github.com/gin-gonic/gin"
)

func (a *API) SettingsGet(c *gin.Context) {
	settings, err := a.Settings.Load(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to load settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settings": service.Sanitize(settings),
	})
}

func (a *API) SettingsUpdate(c *gin.Context) {
	var data service.SettingsInput
	if !bindJSON(c, &data) {
		return
	}

	settings, err := a.Settings.Upsert(c.Request.Context(), data)
	if err != nil {
		fail(c, err, "Failed to save settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settings": service.Sanitize(settings),
	})
}

// SettingsCheck makes sure the stored credentials can reach the bucket
func (a *API) SettingsCheck(c *gin.Context) {
	bucket, _, ok := a.bucket(c)
	if !ok {
		return
	}

	if err := bucket.Check(c.Request.Context()); err != nil {
		fail(c, err, "Bucket check failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bucket": bucket.Name(),
		"ok":     true,
	})
}
