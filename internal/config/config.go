package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug|info|warn|error
	Format string `mapstructure:"format" yaml:"format"` // text|json
}

type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// CloudConfig points at the Postgres table mirroring the state blob.
type CloudConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	AccessToken string `mapstructure:"access_token" yaml:"access_token"`
	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

type Config struct {
	DBPath        string              `mapstructure:"db_path" yaml:"db_path"`
	Timezone      string              `mapstructure:"timezone" yaml:"timezone"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Cloud         CloudConfig         `mapstructure:"cloud" yaml:"cloud"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Notifications: NotificationsConfig{Enabled: false},
	}
}

// DefaultPath returns ~/.config/habitline/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "habitline", "config.yaml"), nil
}

// Load reads the YAML config at path (DefaultPath when empty), then applies
// a .env file from the working directory and HABITLINE_* variables on top.
// A missing config file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	// ok if missing
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix("HABITLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("timezone", cfg.Timezone)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("cloud.enabled", cfg.Cloud.Enabled)
	v.SetDefault("cloud.dsn", cfg.Cloud.DSN)
	v.SetDefault("cloud.access_token", cfg.Cloud.AccessToken)
	v.SetDefault("cloud.jwt_secret", cfg.Cloud.JWTSecret)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config read: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config unmarshal: %w", err)
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	return cfg, nil
}

// Location is the zone used to decide what "today" is.
func (c Config) Location() *time.Location {
	if tz := strings.TrimSpace(c.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}

// CloudReady reports whether enough is configured to reach the remote table.
func (c Config) CloudReady() bool {
	return c.Cloud.Enabled && strings.TrimSpace(c.Cloud.DSN) != ""
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	out := c
	out.Cloud.DSN = mask(c.Cloud.DSN)
	out.Cloud.AccessToken = mask(c.Cloud.AccessToken)
	out.Cloud.JWTSecret = mask(c.Cloud.JWTSecret)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", 8)
}
