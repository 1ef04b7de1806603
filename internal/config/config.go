package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort          string `env:"HTTP_PORT" envDefault:"8080"`
	AppEnv            string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL       string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate       bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	AppBaseURL        string `env:"APP_BASE_URL" envDefault:"http://localhost:5173"`
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN"`

	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"720"`
	JWTSecret       string `env:"JWT_SECRET"`
	InviteTTLHours  int    `env:"INVITE_TTL_HOURS" envDefault:"168"`

	SignInRateWindowMinutes int `env:"SIGNIN_RATE_WINDOW_MINUTES" envDefault:"10"`
	SignInRateMax           int `env:"SIGNIN_RATE_MAX" envDefault:"5"`

	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string `env:"SMTP_USER"`
	SMTPPass       string `env:"SMTP_PASS"`
	SMTPFrom       string `env:"SMTP_FROM"`
	SMTPFromName   string `env:"SMTP_FROM_NAME" envDefault:"Taskboard"`
	SMTPUseTLS     bool   `env:"SMTP_USE_TLS" envDefault:"false"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction indica si la cookie de sesión debe marcarse como Secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) InviteTTL() time.Duration {
	if c.InviteTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.InviteTTLHours) * time.Hour
}

func (c *Config) SignInRateWindow() time.Duration {
	if c.SignInRateWindowMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.SignInRateWindowMinutes) * time.Minute
}

// ClientConfig es la configuración del cliente de terminal.
type ClientConfig struct {
	APIURL   string `env:"TASKBOARD_API_URL" envDefault:"http://localhost:8080"`
	Email    string `env:"TASKBOARD_EMAIL"`
	Password string `env:"TASKBOARD_PASSWORD"`
}

// LoadClientConfig carga la configuración del cliente desde el entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
