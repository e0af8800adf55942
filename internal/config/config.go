// Package config loads the typed application configuration.
//
// Sources, lowest priority first:
//
//  1. <dir>/base.yaml
//  2. <dir>/<env>.yaml (env is APP_ENV, default "local")
//  3. <dir>/secrets.env and ./.env, read with godotenv
//  4. process environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sitecraft/backend/internal/mailer"
)

// Environments.
const (
	EnvLocal      = "local"
	EnvProduction = "production"
)

// DevSessionSecret is the placeholder secret shipped in base.yaml.
// Production refuses to start with it.
const DevSessionSecret = "dev-secret-change-in-production-32bytes"

// Config is the full application configuration.
type Config struct {
	Env string `yaml:"-"`

	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Mail      MailConfig      `yaml:"mail"`
	Uploads   UploadConfig    `yaml:"uploads"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig is the HTTP listener and the URLs the site is reached at.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	FrontendURL  string        `yaml:"frontend_url"`
	PublicURL    string        `yaml:"public_url"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig is the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig is optional. An empty Addr keeps rate limiting in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SessionConfig controls admin session tokens.
type SessionConfig struct {
	Secret       string        `yaml:"secret"`
	TTL          time.Duration `yaml:"ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// MailConfig holds the relay settings.
type MailConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Encryption     string        `yaml:"encryption"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	FromAddress    string        `yaml:"from_address"`
	FromName       string        `yaml:"from_name"`
	AdminAddress   string        `yaml:"admin_address"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// UploadConfig is the local file store for images and reply attachments.
type UploadConfig struct {
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
	MaxBytes  int64  `yaml:"max_bytes"`
}

// RateLimitConfig is the per-IP budget for public write endpoints.
type RateLimitConfig struct {
	ContactLimit  int           `yaml:"contact_limit"`
	ContactWindow time.Duration `yaml:"contact_window"`
	LoginLimit    int           `yaml:"login_limit"`
	LoginWindow   time.Duration `yaml:"login_window"`
}

// Env returns APP_ENV, defaulting to local.
func Env() string {
	if env := strings.TrimSpace(os.Getenv("APP_ENV")); env != "" {
		return env
	}
	return EnvLocal
}

// FindDir returns "config" or, when run from a subdirectory, "../config".
func FindDir() string {
	dir := "config"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../config"
	}
	return dir
}

// Load reads the configuration for env from dir. An empty env means Env().
func Load(env, dir string) (*Config, error) {
	if env == "" {
		env = Env()
	}
	if dir == "" {
		dir = FindDir()
	}

	cfg := &Config{Env: env}
	if err := decodeFile(filepath.Join(dir, "base.yaml"), cfg); err != nil {
		return nil, fmt.Errorf("config: base.yaml: %w", err)
	}
	envFile := filepath.Join(dir, env+".yaml")
	if _, err := os.Stat(envFile); err == nil {
		if err := decodeFile(envFile, cfg); err != nil {
			return nil, fmt.Errorf("config: %s.yaml: %w", env, err)
		}
	}

	secrets := map[string]string{}
	if m, err := godotenv.Read(filepath.Join(dir, "secrets.env")); err == nil {
		secrets = m
	}
	_ = godotenv.Load()

	if err := cfg.applyEnv(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return secrets[key]
	}); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeFile overlays the YAML document at path onto cfg. Keys absent from
// the document keep their current values.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Server.Port)
	str("FRONTEND_URL", &c.Server.FrontendURL)
	str("PUBLIC_URL", &c.Server.PublicURL)
	str("DATABASE_URL", &c.Database.URL)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("SESSION_SECRET", &c.Session.Secret)
	str("SMTP_HOST", &c.Mail.Host)
	str("SMTP_ENCRYPTION", &c.Mail.Encryption)
	str("SMTP_USERNAME", &c.Mail.Username)
	str("SMTP_PASSWORD", &c.Mail.Password)
	str("MAIL_FROM", &c.Mail.FromAddress)
	str("MAIL_FROM_NAME", &c.Mail.FromName)
	str("ADMIN_EMAIL", &c.Mail.AdminAddress)
	str("UPLOAD_DIR", &c.Uploads.Dir)

	if v := strings.TrimSpace(getenv("SMTP_PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: SMTP_PORT: %w", err)
		}
		c.Mail.Port = p
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = c.Server.FrontendURL
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "./uploads"
	}
	if c.Uploads.URLPrefix == "" {
		c.Uploads.URLPrefix = "/uploads"
	}
	if c.Uploads.MaxBytes <= 0 {
		c.Uploads.MaxBytes = 5 << 20
	}
	if c.RateLimit.ContactLimit <= 0 {
		c.RateLimit.ContactLimit = 5
	}
	if c.RateLimit.ContactWindow <= 0 {
		c.RateLimit.ContactWindow = time.Hour
	}
	if c.RateLimit.LoginLimit <= 0 {
		c.RateLimit.LoginLimit = 10
	}
	if c.RateLimit.LoginWindow <= 0 {
		c.RateLimit.LoginWindow = 15 * time.Minute
	}
}

// Validate checks settings the server cannot run without. Mail settings are
// checked separately by MailerConfig().Validate so a broken relay
// configuration only disables notifications.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url (DATABASE_URL) is required"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session.secret (SESSION_SECRET) is required"))
	}
	if c.IsProduction() {
		if c.Session.Secret == DevSessionSecret {
			errs = append(errs, errors.New("session.secret must be changed in production"))
		} else if len(c.Session.Secret) < 32 {
			errs = append(errs, errors.New("session.secret must be at least 32 bytes in production"))
		}
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("server.port %q is not a valid port", c.Server.Port))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsProduction reports whether the production environment is active.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// MailerConfig converts the mail section into the dispatcher's typed config.
func (c *Config) MailerConfig() mailer.Config {
	return mailer.Config{
		Host:           c.Mail.Host,
		Port:           c.Mail.Port,
		Encryption:     mailer.Encryption(strings.ToLower(strings.TrimSpace(c.Mail.Encryption))),
		Username:       c.Mail.Username,
		Password:       c.Mail.Password,
		FromAddress:    c.Mail.FromAddress,
		FromName:       c.Mail.FromName,
		AdminAddress:   c.Mail.AdminAddress,
		PublicURL:      c.Server.PublicURL,
		DialTimeout:    c.Mail.DialTimeout,
		CommandTimeout: c.Mail.CommandTimeout,
	}
}
