// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.String("config", "", "Path to the config.toml file")
	port       = pflag.Int("port", 0, "Port to listen on, overrides host.port")

	ErrMissingSecret = errors.New("no jwt secret set")
)

// Every key listed here can be overridden with the upper cased env
// variable, e.g. app.log_level -> APP_LOG_LEVEL
var envKeys = []string{
	"app.env",
	"app.log_level",
	"app.log_file",

	"host.port",
	"host.domain",
	"host.cors_origins",
	"host.ssl.enabled",
	"host.ssl.certificate_path",
	"host.ssl.certificate_key_path",

	"jwt.secret",
	"auth.token_ttl",

	"db.driver",
	"db.dsn",

	"upload.max_size",
	"upload.proxy_max_size",
	"upload.url_ttl",

	"storage.list_max_keys",

	"activity.queue_size",
	"activity.cache_ttl",

	"onboarding.cache_ttl",

	"rate_limit.requests_per_second",
	"rate_limit.burst",

	"cloudflare.turnstile.enabled",
	"cloudflare.turnstile.secret_token",
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() (*Config, error) {
	pflag.Parse()

	// A missing .env is fine, the variables may come from the environment
	_ = godotenv.Load()

	if *port != 0 {
		v.Set("host.port", *port)
	}

	c, err := Load(*configPath)
	if errors.Is(err, ErrMissingSecret) {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return c, err
}

// Load reads the config file (when present), environment and defaults into
// the global viper instance and returns the validated result
func Load(path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, k := range envKeys {
		v.BindEnv(k)
	}

	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if v.GetString("jwt.secret") == "" {
		return nil, ErrMissingSecret
	}

	var c Config
	if err := v.Unmarshal(&c, v.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config, %w", err)
	}

	if err := Validate(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults() {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("auth.token_ttl", 8*time.Hour)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("upload.max_size", "5GiB")
	v.SetDefault("upload.proxy_max_size", "50MiB")
	v.SetDefault("upload.url_ttl", 10*time.Minute)

	v.SetDefault("storage.list_max_keys", 1000)

	v.SetDefault("activity.queue_size", 256)
	v.SetDefault("activity.cache_ttl", 15*time.Second)

	v.SetDefault("onboarding.cache_ttl", time.Minute)

	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("cloudflare.turnstile.enabled", false)
}
