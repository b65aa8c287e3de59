package jwtmw

import (
	"fmt"
	"os"
	"time"
)

const (
	// EnvKeyJWTSecret は署名鍵を保持する環境変数名です。
	EnvKeyJWTSecret = "JWT_SECRET"
	// EnvKeyJWTExpiration はトークン有効期間(time.ParseDuration形式)の環境変数名です。
	EnvKeyJWTExpiration = "JWT_EXPIRATION"

	defaultExpiration = 24 * time.Hour
)

// Config holds the token signing settings.
type Config struct {
	Secret     string
	Expiration time.Duration
}

// LoadConfig reads JWT_SECRET and JWT_EXPIRATION. The secret is required.
func LoadConfig() (Config, error) {
	cfg := Config{
		Secret:     os.Getenv(EnvKeyJWTSecret),
		Expiration: defaultExpiration,
	}
	if cfg.Secret == "" {
		return Config{}, fmt.Errorf("%s is not set", EnvKeyJWTSecret)
	}
	if v := os.Getenv(EnvKeyJWTExpiration); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q", EnvKeyJWTExpiration, v)
		}
		cfg.Expiration = d
	}
	return cfg, nil
}
