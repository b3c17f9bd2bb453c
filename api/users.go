package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"bitwise74/bucket-panel/internal/service"
	"bitwise74/bucket-panel/pkg/middleware"
	"bitwise74/bucket-panel/pkg/permission"

	"github.com/gin-gonic/gin"
)

type termsBody struct {
	Confirmation string `json:"confirmation"`
}

func (a *API) UsersAcceptTerms(c *gin.Context) {
	sess := middleware.GetSession(c)

	var data termsBody
	if !bindJSON(c, &data) {
		return
	}

	user, err := a.Users.AcceptTerms(c.Request.Context(), sess.ID, data.Confirmation)
	if err != nil {
		fail(c, err, "Failed to accept terms")
		return
	}

	updated, ok := a.issueSession(c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": updated,
	})
}

func (a *API) UsersList(c *gin.Context) {
	users, err := a.Users.List(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":                users,
		"availablePermissions": permission.All,
	})
}

type createUserBody struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Permissions any    `json:"permissions"`
}

func (a *API) UsersCreate(c *gin.Context) {
	var data createUserBody
	if !bindJSON(c, &data) {
		return
	}

	user, password, err := a.Users.Create(c.Request.Context(), service.CreateUserRequest{
		Name:        data.Name,
		Email:       data.Email,
		Role:        permission.Role(data.Role),
		Permissions: permission.Parse(data.Permissions),
	})
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			abort(c, http.StatusConflict, "A user with this email already exists")
			return
		}

		fail(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":     user,
		"password": password,
	})
}

// Fields are optional, so presence is checked on the raw object
func parsePatch(raw map[string]json.RawMessage) (service.UserPatch, bool) {
	var p service.UserPatch

	str := func(key string) (*string, bool) {
		v, ok := raw[key]
		if !ok {
			return nil, true
		}

		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, false
		}

		return &s, true
	}

	var ok bool
	if p.Name, ok = str("name"); !ok {
		return p, false
	}
	if p.Email, ok = str("email"); !ok {
		return p, false
	}
	if p.Role, ok = str("role"); !ok {
		return p, false
	}
	if p.Status, ok = str("status"); !ok {
		return p, false
	}

	if v, ok := raw["permissions"]; ok {
		var perms any
		if err := json.Unmarshal(v, &perms); err != nil {
			return p, false
		}

		p.Permissions = permission.Parse(perms)
		p.SetPermissions = true
	}

	if v, ok := raw["regeneratePassword"]; ok {
		if err := json.Unmarshal(v, &p.RegeneratePassword); err != nil {
			return p, false
		}
	}

	return p, true
}

func (a *API) UsersUpdate(c *gin.Context) {
	sess := middleware.GetSession(c)

	raw := map[string]json.RawMessage{}
	if !bindJSON(c, &raw) {
		return
	}

	patch, ok := parsePatch(raw)
	if !ok {
		abort(c, http.StatusUnprocessableEntity, "Invalid field type")
		return
	}

	id := c.Param("id")

	user, password, err := a.Users.Update(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			abort(c, http.StatusConflict, "A user with this email already exists")
			return
		}

		fail(c, err, "Failed to update user")
		return
	}

	// Keep the caller's own cookie in line with their new role
	if user.ID == sess.ID {
		if _, ok := a.issueSession(c, user); !ok {
			return
		}
	}

	res := gin.H{"user": user}
	if password != "" {
		res["password"] = password
	}

	c.JSON(http.StatusOK, res)
}
