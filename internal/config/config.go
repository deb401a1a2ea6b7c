package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env      string `mapstructure:"BLOG_ENV"`
	HTTPAddr string `mapstructure:"BLOG_HTTP_ADDR"`

	Database DBConfig       `mapstructure:",squash"`
	Cache    CacheConfig    `mapstructure:",squash"`
	Mail     MailConfig     `mapstructure:",squash"`
	SMS      SMSConfig      `mapstructure:",squash"`
	Captcha  CaptchaConfig  `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
	Admin    AdminConfig    `mapstructure:",squash"`
}

type DBConfig struct {
	Backend     string `mapstructure:"BLOG_DB_BACKEND"` // "memory", "postgres"
	PostgresDSN string `mapstructure:"BLOG_POSTGRES_DSN"`
}

type CacheConfig struct {
	Backend  string `mapstructure:"BLOG_KV_BACKEND"` // "memory", "redis"
	RedisURL string `mapstructure:"BLOG_REDIS_URL"`
}

type MailConfig struct {
	Host     string `mapstructure:"BLOG_SMTP_HOST"`
	Port     int    `mapstructure:"BLOG_SMTP_PORT"`
	Username string `mapstructure:"BLOG_SMTP_USERNAME"`
	Password string `mapstructure:"BLOG_SMTP_PASSWORD"`
	From     string `mapstructure:"BLOG_MAIL_FROM"`
	Inbox    string `mapstructure:"BLOG_MAIL_INBOX"` // site-owner mail lands here
}

type SMSConfig struct {
	AccountSID string `mapstructure:"BLOG_TWILIO_ACCOUNT_SID"`
	AuthToken  string `mapstructure:"BLOG_TWILIO_AUTH_TOKEN"`
	From       string `mapstructure:"BLOG_TWILIO_FROM"`
	To         string `mapstructure:"BLOG_TWILIO_TO"`
}

type CaptchaConfig struct {
	SiteKey   string `mapstructure:"BLOG_RECAPTCHA_SITE_KEY"`
	SecretKey string `mapstructure:"BLOG_RECAPTCHA_SECRET_KEY"`
	VerifyURL string `mapstructure:"BLOG_RECAPTCHA_VERIFY_URL"`
}

type SecurityConfig struct {
	SessionTTL         time.Duration `mapstructure:"BLOG_SESSION_TTL"`
	CookieSecure       bool          `mapstructure:"BLOG_COOKIE_SECURE"`
	CORSAllowedOrigins []string      `mapstructure:"BLOG_CORS_ALLOWED_ORIGINS"`
	NotifyConcurrency  int           `mapstructure:"BLOG_NOTIFY_CONCURRENCY"`
}

type AdminConfig struct {
	Email    string `mapstructure:"BLOG_ADMIN_EMAIL"`
	Password string `mapstructure:"BLOG_ADMIN_PASSWORD"`
	Name     string `mapstructure:"BLOG_ADMIN_NAME"`
}

func loadDotEnvFiles() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = gotenv.Load(path) // env vars already set take precedence
		}
	}
}

func Load() (*Config, error) {
	loadDotEnvFiles()

	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("BLOG_ENV", "dev")
	viper.SetDefault("BLOG_HTTP_ADDR", ":8080")
	viper.SetDefault("BLOG_DB_BACKEND", "memory")
	viper.SetDefault("BLOG_POSTGRES_DSN", "")
	viper.SetDefault("BLOG_KV_BACKEND", "memory")
	viper.SetDefault("BLOG_REDIS_URL", "redis://127.0.0.1:6379/0")
	viper.SetDefault("BLOG_SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("BLOG_SMTP_PORT", 587)
	viper.SetDefault("BLOG_SESSION_TTL", "24h")
	viper.SetDefault("BLOG_COOKIE_SECURE", false)
	viper.SetDefault("BLOG_CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("BLOG_NOTIFY_CONCURRENCY", 4)
	viper.SetDefault("BLOG_ADMIN_EMAIL", "")
	viper.SetDefault("BLOG_ADMIN_PASSWORD", "")
	viper.SetDefault("BLOG_ADMIN_NAME", "Admin")

	if origins := viper.GetString("BLOG_CORS_ALLOWED_ORIGINS"); origins != "" {
		viper.Set("BLOG_CORS_ALLOWED_ORIGINS", strings.Split(origins, ","))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Backend {
	case "memory":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("BLOG_POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid BLOG_DB_BACKEND %q (must be memory or postgres)", c.Database.Backend)
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("BLOG_REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid BLOG_KV_BACKEND %q (must be memory or redis)", c.Cache.Backend)
	}

	if c.IsProd() {
		if c.Admin.Email == "" || c.Admin.Password == "" {
			return fmt.Errorf("BLOG_ADMIN_EMAIL and BLOG_ADMIN_PASSWORD are required in prod")
		}
		if c.Mail.Host == "" || c.Mail.From == "" {
			return fmt.Errorf("SMTP settings are required in prod")
		}
	}

	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
