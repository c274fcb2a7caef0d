package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MinSessionSecretLength mirrors the session manager's requirement so a bad
// secret is reported at startup rather than on first request.
const MinSessionSecretLength = 32

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Session struct {
		Secret     string `yaml:"secret"`
		TTL        string `yaml:"ttl"`
		CookieName string `yaml:"cookie_name"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`
	Bootstrap struct {
		AdminUsername string `yaml:"admin_username"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"bootstrap"`
	Login struct {
		RatePerMinute int `yaml:"rate_per_minute"`
		Burst         int `yaml:"burst"`
	} `yaml:"login"`
	Log LogConfig `yaml:"log"`
}

// LogConfig selects the log level and an optional rotating log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads YAML config from path, then applies .env, environment overrides
// and defaults. A missing file is not an error. Load does not validate; call
// Validate before serving.
func Load(path string) (Config, error) {
	cfg := Config{}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return cfg, fmt.Errorf("load .env: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Validate reports configuration the server cannot start without.
func (c Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("session secret not configured (set session.secret or QUIZDESK_SESSION_SECRET)")
	}
	if len(c.Session.Secret) < MinSessionSecretLength {
		return fmt.Errorf("session secret must be at least %d bytes", MinSessionSecretLength)
	}
	if c.Login.RatePerMinute <= 0 || c.Login.Burst <= 0 {
		return errors.New("login rate_per_minute and burst must be positive")
	}
	return nil
}

// SessionTTL is the configured session lifetime.
func (c Config) SessionTTL() time.Duration {
	return TTLDuration(c.Session.TTL, 24*time.Hour)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("QUIZDESK_SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("QUIZDESK_ADMIN_PASSWORD"); v != "" {
		c.Bootstrap.AdminPassword = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "quizdesk_session"
	}
	if c.Bootstrap.AdminUsername == "" {
		c.Bootstrap.AdminUsername = "admin"
	}
	if c.Login.RatePerMinute == 0 {
		c.Login.RatePerMinute = 10
	}
	if c.Login.Burst == 0 {
		c.Login.Burst = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
