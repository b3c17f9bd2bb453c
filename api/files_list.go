package api

import (
	"net/http"

	"bitwise74/bucket-panel/pkg/explorer"

	"github.com/gin-gonic/gin"
)

// FilesList lists the whole bucket. When a prefix or search is passed the
// folder view for it is returned as well.
func (a *API) FilesList(c *gin.Context) {
	bucket, settings, ok := a.bucket(c)
	if !ok {
		return
	}

	objects, err := bucket.List(c.Request.Context(), "", a.Config.Storage.ListMaxKeys)
	if err != nil {
		fail(c, err, "Failed to list bucket")
		return
	}

	listing := explorer.NewListing(objects, location(settings), a.now())

	res := gin.H{
		"files":         listing.Files,
		"stats":         listing.Stats,
		"recentUploads": listing.RecentUploads,
	}

	prefix, hasPrefix := c.GetQuery("prefix")
	search, hasSearch := c.GetQuery("search")
	if hasPrefix || hasSearch {
		res["explorer"] = explorer.Build(listing.Files, prefix, search)
	}

	c.JSON(http.StatusOK, res)
}
