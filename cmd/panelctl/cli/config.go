package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bitwise74/bucket-panel/pkg/uploader"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var errNotLoggedIn = errors.New("not logged in, run panelctl login first")

func initConfig(path string) error {
	// Missing .env files are fine
	_ = godotenv.Load(".env")

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.panelctl")
	}

	viper.SetEnvPrefix("PANELCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// sessionPath is where the session token is kept between runs
func sessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir, %w", err)
	}

	return filepath.Join(dir, "panelctl", "session"), nil
}

func saveSession(token string) error {
	p, err := sessionPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir, %w", err)
	}

	return os.WriteFile(p, []byte(token), 0o600)
}

func loadSession() (string, error) {
	p, err := sessionPath()
	if err != nil {
		return "", err
	}

	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errNotLoggedIn
		}

		return "", err
	}

	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", errNotLoggedIn
	}

	return token, nil
}

// client returns an API client using the stored session
func client() (*uploader.Client, error) {
	token, err := loadSession()
	if err != nil {
		return nil, err
	}

	return uploader.NewClient(viper.GetString("server"), token)
}
