package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/internal/service"
	"bitwise74/bucket-panel/pkg/permission"
	"bitwise74/bucket-panel/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[string]*model.User

func (f fakeUsers) Get(_ context.Context, id string) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}

	return nil, service.ErrNotFound
}

type fakeOnboarding struct {
	done bool
	err  error
}

func (f fakeOnboarding) Completed(context.Context) (bool, error) {
	return f.done, f.err
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionRouter(t *testing.T, users fakeUsers, extra ...gin.HandlerFunc) (*gin.Engine, *security.SessionSigner) {
	t.Helper()

	signer := security.NewSessionSigner("secret", time.Hour)
	r := gin.New()
	r.Use(NewRequestIDMiddleware())

	handlers := append([]gin.HandlerFunc{NewSessionMiddleware(signer, users, CookieConfig{})}, extra...)
	handlers = append(handlers, ok)
	r.GET("/x", handlers...)

	return r, signer
}

func withToken(t *testing.T, signer *security.SessionSigner, s security.Session) *http.Request {
	t.Helper()

	token, _, err := signer.Issue(s)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookie, Value: token})

	return req
}

func TestSessionMiddleware(t *testing.T) {
	users := fakeUsers{
		"u1": {ID: "u1", Role: permission.Editor, Status: permission.Active, Permissions: model.StringSlice{"upload"}},
		"u2": {ID: "u2", Role: permission.Viewer, Status: permission.Blocked},
	}
	r, signer := sessionRouter(t, users)

	t.Run("no cookie", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: security.SessionCookie, Value: "abc"})

		w := do(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Header().Get("Set-Cookie"), security.SessionCookie+"=;")
	})

	t.Run("valid", func(t *testing.T) {
		w := do(r, withToken(t, signer, security.Session{ID: "u1", Role: permission.Editor}))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("blocked", func(t *testing.T) {
		w := do(r, withToken(t, signer, security.Session{ID: "u2", Role: permission.Viewer}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deleted", func(t *testing.T) {
		w := do(r, withToken(t, signer, security.Session{ID: "gone", Role: permission.Viewer}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequirePermissionsUsesStoredPermissions(t *testing.T) {
	users := fakeUsers{
		"v": {ID: "v", Role: permission.Viewer, Status: permission.Active, Permissions: model.StringSlice{"visualizar"}},
	}
	r, signer := sessionRouter(t, users, RequirePermissions(permission.ModeAll, permission.Upload))

	// The token claims upload, the stored user doesn't have it anymore
	w := do(r, withToken(t, signer, security.Session{
		ID:          "v",
		Role:        permission.Viewer,
		Permissions: []permission.Permission{permission.Upload},
	}))
	require.Equal(t, http.StatusForbidden, w.Code)

	var body struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "insufficient permission", body.Error)
	assert.Equal(t, []string{"upload"}, body.Missing)
}

func TestRequireRole(t *testing.T) {
	users := fakeUsers{
		"a": {ID: "a", Role: permission.Admin, Status: permission.Active},
		"e": {ID: "e", Role: permission.Editor, Status: permission.Active},
		"v": {ID: "v", Role: permission.Viewer, Status: permission.Active},
	}

	admin, signer := sessionRouter(t, users, RequireAdmin())
	editor, _ := sessionRouter(t, users, RequireEditor())

	tests := []struct {
		id         string
		adminCode  int
		editorCode int
	}{
		{"a", http.StatusOK, http.StatusOK},
		{"e", http.StatusForbidden, http.StatusOK},
		{"v", http.StatusForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		s := security.Session{ID: tt.id, Role: users[tt.id].Role}

		assert.Equal(t, tt.adminCode, do(admin, withToken(t, signer, s)).Code, tt.id)
		assert.Equal(t, tt.editorCode, do(editor, withToken(t, signer, s)).Code, tt.id)
	}
}

func TestRequireOnboarding(t *testing.T) {
	tests := []struct {
		name string
		o    fakeOnboarding
		code int
	}{
		{"pending", fakeOnboarding{}, http.StatusConflict},
		{"done", fakeOnboarding{done: true}, http.StatusOK},
		{"error", fakeOnboarding{err: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(NewRequestIDMiddleware())
			r.GET("/x", RequireOnboarding(tt.o), ok)

			w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.code, w.Code)

			if tt.code == http.StatusConflict {
				assert.Contains(t, w.Body.String(), "Setup required")
			}
		})
	}
}

func TestBodySizeLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodySizeLimiter(8), func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if IsBodyTooLarge(err) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.Status(http.StatusOK)
	})

	w := do(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("way too long body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// Unknown length, caught while reading
	req := httptest.NewRequest(http.MethodPost, "/x", io.NopCloser(strings.NewReader("way too long body")))
	req.ContentLength = -1
	w = do(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimiterMiddleware(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2}), ok)

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestTurnstile(t *testing.T) {
	verify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)

		json.NewEncoder(w).Encode(turnstileResponse{Success: body["response"] == "good" && body["secret"] == "s"})
	}))
	defer verify.Close()

	r := gin.New()
	r.POST("/x", NewTurnstileMiddleware(TurnstileConfig{Enabled: true, Secret: "s", VerifyURL: verify.URL}), ok)

	req := func(token string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		if token != "" {
			req.Header.Set("TurnstileToken", token)
		}
		return req
	}

	assert.Equal(t, http.StatusBadRequest, do(r, req("")).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, req("bad")).Code)
	assert.Equal(t, http.StatusOK, do(r, req("good")).Code)

	off := gin.New()
	off.POST("/x", NewTurnstileMiddleware(TurnstileConfig{}), ok)
	assert.Equal(t, http.StatusOK, do(off, req("")).Code)
}
