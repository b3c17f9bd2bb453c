package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	return p
}

func TestLoadDefaults(t *testing.T) {
	v.Reset()
	t.Setenv("JWT_SECRET", "secret")

	c, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "development", c.App.Env)
	assert.False(t, c.Production())
	assert.Equal(t, 8*time.Hour, c.Auth.TokenTTL)
	assert.Equal(t, ByteSize(5<<30), c.Upload.MaxSize)
	assert.Equal(t, ByteSize(50<<20), c.Upload.ProxyMaxSize)
	assert.Equal(t, 10*time.Minute, c.Upload.URLTTL)
	assert.Equal(t, 1000, c.Storage.ListMaxKeys)
	assert.Equal(t, time.Minute, c.Onboarding.CacheTTL)
	assert.Equal(t, "sqlite", c.DB.Driver)
}

func TestLoadFileAndEnv(t *testing.T) {
	v.Reset()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("UPLOAD_URL_TTL", "15m")

	c, err := Load(writeConfig(t, `
[app]
env = "production"
log_level = "debug"

[upload]
max_size = "1GiB"
proxy_max_size = 1048576

[db]
driver = "postgres"
dsn = "host=localhost user=panel dbname=panel"
`))
	require.NoError(t, err)

	assert.True(t, c.Production())
	assert.Equal(t, "debug", c.App.LogLevel)
	assert.Equal(t, ByteSize(1<<30), c.Upload.MaxSize)
	assert.Equal(t, ByteSize(1<<20), c.Upload.ProxyMaxSize)
	assert.Equal(t, 15*time.Minute, c.Upload.URLTTL)
	assert.Equal(t, "postgres", c.DB.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		v.Reset()
		t.Setenv("JWT_SECRET", "")

		_, err := Load(writeConfig(t, ""))
		assert.ErrorIs(t, err, ErrMissingSecret)
	})

	tests := map[string]string{
		"log level":     "[app]\nlog_level = \"loud\"",
		"db driver":     "[db]\ndriver = \"mysql\"",
		"ssl":           "[host.ssl]\nenabled = true",
		"turnstile":     "[cloudflare.turnstile]\nenabled = true",
		"proxy too big": "[upload]\nmax_size = \"1MiB\"\nproxy_max_size = \"2MiB\"",
		"bad size":      "[upload]\nmax_size = \"lots\"",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			v.Reset()
			t.Setenv("JWT_SECRET", "secret")

			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
