package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
)

// ByteSize accepts plain numbers or human readable sizes like "50MiB"
type ByteSize int64

type Config struct {
	App struct {
		Env      string `mapstructure:"env" validate:"oneof=development production"`
		LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error fatal"`
		LogFile  string `mapstructure:"log_file"`
	} `mapstructure:"app"`

	Host struct {
		Port        int      `mapstructure:"port" validate:"gt=0,lte=65535"`
		Domain      string   `mapstructure:"domain" validate:"required"`
		CORSOrigins []string `mapstructure:"cors_origins" validate:"dive,url"`
		SSL         struct {
			Enabled            bool   `mapstructure:"enabled"`
			CertificatePath    string `mapstructure:"certificate_path" validate:"required_if=Enabled true"`
			CertificateKeyPath string `mapstructure:"certificate_key_path" validate:"required_if=Enabled true"`
		} `mapstructure:"ssl"`
	} `mapstructure:"host"`

	JWT struct {
		Secret string `mapstructure:"secret" validate:"required"`
	} `mapstructure:"jwt"`

	Auth struct {
		TokenTTL time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	} `mapstructure:"auth"`

	DB struct {
		Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
		DSN    string `mapstructure:"dsn" validate:"required"`
	} `mapstructure:"db"`

	Upload struct {
		MaxSize      ByteSize      `mapstructure:"max_size" validate:"gt=0"`
		ProxyMaxSize ByteSize      `mapstructure:"proxy_max_size" validate:"gt=0"`
		URLTTL       time.Duration `mapstructure:"url_ttl" validate:"gt=0,lte=168h"`
	} `mapstructure:"upload"`

	Storage struct {
		ListMaxKeys int `mapstructure:"list_max_keys" validate:"gt=0"`
	} `mapstructure:"storage"`

	Activity struct {
		QueueSize int           `mapstructure:"queue_size" validate:"gt=0"`
		CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	} `mapstructure:"activity"`

	Onboarding struct {
		CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	} `mapstructure:"onboarding"`

	RateLimit struct {
		RequestsPerSecond int `mapstructure:"requests_per_second" validate:"gt=0"`
		Burst             int `mapstructure:"burst" validate:"gt=0"`
	} `mapstructure:"rate_limit"`

	Cloudflare struct {
		Turnstile struct {
			Enabled     bool   `mapstructure:"enabled"`
			SecretToken string `mapstructure:"secret_token" validate:"required_if=Enabled true"`
		} `mapstructure:"turnstile"`
	} `mapstructure:"cloudflare"`
}

func (c *Config) Production() bool {
	return c.App.Env == "production"
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func byteSizeHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(ByteSize(0)) || from.Kind() != reflect.String {
		return data, nil
	}

	n, err := humanize.ParseBytes(data.(string))
	if err != nil {
		return nil, fmt.Errorf("invalid size %q, %w", data, err)
	}

	return ByteSize(n), nil
}
