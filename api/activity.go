package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (a *API) ActivityList(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			abort(c, http.StatusBadRequest, "Invalid limit")
			return
		}

		limit = n
	}

	entries, err := a.Activity.Query(c.Request.Context(), c.Query("search"), limit)
	if err != nil {
		fail(c, err, "Failed to query activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": entries,
	})
}
