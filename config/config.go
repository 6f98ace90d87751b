// Package config handles loading and validation of the client's
// configuration from environment variables and an optional config file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/campusdesk/campusdesk-notify/logger"
)

// Environment represents the running environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// ConnectionConfig holds the push connection settings.
type ConnectionConfig struct {
	// ServerURL is the ws:// or wss:// endpoint of the push channel.
	ServerURL string `mapstructure:"SERVER_URL" yaml:"server_url"`
	// Token is the bearer token appended to the connection URL and parsed
	// for the auth frame's identity claims.
	Token string `mapstructure:"TOKEN" yaml:"token"`
	// Reconnect delay after the server closes an established connection.
	CloseRetrySeconds int `mapstructure:"CLOSE_RETRY_SECONDS" yaml:"close_retry_seconds"`
	// Reconnect delay after a failed connection attempt.
	DialRetrySeconds int `mapstructure:"DIAL_RETRY_SECONDS" yaml:"dial_retry_seconds"`
	// MaxReconnectAttempts caps consecutive reconnect attempts.
	// Zero means retry forever.
	MaxReconnectAttempts int `mapstructure:"MAX_RECONNECT_ATTEMPTS" yaml:"max_reconnect_attempts"`
}

// CloseRetryDelay returns the post-close reconnect delay.
func (c *ConnectionConfig) CloseRetryDelay() time.Duration {
	return time.Duration(c.CloseRetrySeconds) * time.Second
}

// DialRetryDelay returns the post-dial-failure reconnect delay.
func (c *ConnectionConfig) DialRetryDelay() time.Duration {
	return time.Duration(c.DialRetrySeconds) * time.Second
}

// DialURL returns the full connection URL with the bearer token attached
// as a query parameter.
func (c *ConnectionConfig) DialURL() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	q := u.Query()
	q.Set("token", c.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// StorageConfig holds the durable storage settings.
type StorageConfig struct {
	// Path is the SQLite database file. Empty selects in-memory storage,
	// which loses notifications when the process exits.
	Path string `mapstructure:"PATH" yaml:"path"`
}

// NotificationConfig holds store-level tuning.
type NotificationConfig struct {
	// Cap is the maximum number of retained notifications.
	Cap int `mapstructure:"CAP" yaml:"cap"`
}

// Config is the root client configuration.
type Config struct {
	Environment   Environment        `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Connection    ConnectionConfig   `mapstructure:"CONNECTION" yaml:"connection"`
	Storage       StorageConfig      `mapstructure:"STORAGE" yaml:"storage"`
	Notifications NotificationConfig `mapstructure:"NOTIFICATIONS" yaml:"notifications"`
}

// LoadConfig reads configuration from an optional notify.yaml file and
// NOTIFY_-prefixed environment variables, applies defaults, and validates
// the result.
func LoadConfig() (*Config, error) {
	log := logger.GetLogger()

	v := viper.New()
	v.SetConfigName("notify")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/campusdesk")

	v.SetEnvPrefix("NOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		log.Debug("No config file found, using environment and defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", cfg.Environment,
		"serverURL", cfg.Connection.ServerURL,
		"token", logger.MaskToken(cfg.Connection.Token),
		"storagePath", cfg.Storage.Path)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", string(EnvDevelopment))
	// Registering empty defaults makes AutomaticEnv visible to Unmarshal.
	v.SetDefault("CONNECTION.SERVER_URL", "")
	v.SetDefault("CONNECTION.TOKEN", "")
	v.SetDefault("STORAGE.PATH", "")
	v.SetDefault("CONNECTION.CLOSE_RETRY_SECONDS", 5)
	v.SetDefault("CONNECTION.DIAL_RETRY_SECONDS", 10)
	v.SetDefault("CONNECTION.MAX_RECONNECT_ATTEMPTS", 0)
	v.SetDefault("NOTIFICATIONS.CAP", 100)
}

// Validate checks the configuration for values the client cannot run with.
func (c *Config) Validate() error {
	if c.Connection.ServerURL == "" {
		return fmt.Errorf("connection server URL is required")
	}

	u, err := url.Parse(c.Connection.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid connection server URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("connection server URL must use ws or wss scheme, got %q", u.Scheme)
	}

	if c.Connection.CloseRetrySeconds <= 0 || c.Connection.DialRetrySeconds <= 0 {
		return fmt.Errorf("reconnect delays must be positive")
	}
	if c.Connection.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max reconnect attempts must not be negative")
	}
	if c.Notifications.Cap < 0 {
		return fmt.Errorf("notification cap must not be negative")
	}

	return nil
}
