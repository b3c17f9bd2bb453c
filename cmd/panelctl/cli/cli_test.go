package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"bitwise74/bucket-panel/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePanel struct {
	mu   sync.Mutex
	puts map[string]int
}

func newFakePanel(t *testing.T) *httptest.Server {
	p := &fakePanel{puts: map[string]int{}}

	var srv *httptest.Server

	authed := func(w http.ResponseWriter, r *http.Request) bool {
		c, err := r.Cookie(security.SessionCookie)
		if err != nil || c.Value != "token" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"Not authenticated"}`)
			return false
		}

		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: security.SessionCookie, Value: "token", Path: "/"})
		io.WriteString(w, `{"user":{}}`)
	})
	mux.HandleFunc("GET /api/files", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}

		io.WriteString(w, `{
			"files":[
				{"key":"2024/jan/a.png","fileName":"a.png","size":2048},
				{"key":"2024/report.pdf","fileName":"report.pdf","size":1048576}
			],
			"stats":{"totalFiles":2,"totalSize":1050624,"bucket":"media"},
			"recentUploads":[]
		}`)
	})
	mux.HandleFunc("POST /api/files/presign", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		key := body["fileName"].(string)
		if prefix, _ := body["prefix"].(string); prefix != "" {
			key = prefix + "/" + key
		}

		json.NewEncoder(w).Encode(map[string]any{
			"uploadUrl": srv.URL + "/bucket/" + key,
			"method":    http.MethodPut,
			"key":       key,
			"headers":   map[string]string{"Content-Type": body["contentType"].(string)},
		})
	})
	mux.HandleFunc("PUT /bucket/", func(w http.ResponseWriter, r *http.Request) {
		n, _ := io.Copy(io.Discard, r.Body)

		p.mu.Lock()
		p.puts[r.URL.Path] = int(n)
		p.mu.Unlock()
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand(VersionInfo{Version: "test", Commit: "test"})
	root.AddCommand(NewLoginCommand(), NewUploadCommand(), NewLsCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	srv := newFakePanel(t)

	_, err := run(t, "ls", "--server", srv.URL)
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, err := run(t, "login", "--server", srv.URL, "--email", "a@example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as a@example.com")

	token, err := loadSession()
	require.NoError(t, err)
	assert.Equal(t, "token", token)

	out, err = run(t, "ls", "--server", srv.URL, "--prefix", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "jan/")
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "1.0 MiB")
	assert.NotContains(t, out, "a.png")

	dir := t.TempDir()
	small := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(small, []byte("hello"), 0o644))

	big := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(big, bytes.Repeat([]byte{0}, 4<<20), 0o644))

	out, err = run(t, "upload", "--server", srv.URL, "--prefix", "docs", small, big)
	require.NoError(t, err)
	assert.Contains(t, out, "OK   notes.txt -> docs/notes.txt")
	assert.Contains(t, out, "SKIP photo.png")

	out, err = run(t, "upload", "--server", srv.URL, "--yes", big)
	require.NoError(t, err)
	assert.Contains(t, out, "OK   photo.png -> photo.png (4.0 MiB)")
	assert.Contains(t, out, "photo.png 100%")

	_, err = run(t, "upload", "--server", srv.URL, filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
