package api

import (
	"net/http"

	"bitwise74/bucket-panel/pkg/middleware"
	"bitwise74/bucket-panel/pkg/permission"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) AuthLogin(c *gin.Context) {
	var data loginBody
	if !bindJSON(c, &data) {
		return
	}

	if data.Email == "" || data.Password == "" {
		abort(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := a.Users.Authenticate(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		fail(c, err, "Failed to authenticate user")
		return
	}

	if _, ok := a.issueSession(c, user); !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

func (a *API) AuthLogout(c *gin.Context) {
	a.Cookies.ClearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

func (a *API) AuthSession(c *gin.Context) {
	sess := middleware.GetSession(c)

	c.JSON(http.StatusOK, gin.H{
		"user":         sess,
		"capabilities": permission.Describe(sess.Permissions),
	})
}
