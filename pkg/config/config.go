package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Appointment AppointmentConfig
	Mail        MailConfig
	Logging     LoggingConfig
	Telemetry   TelemetryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port             string
	Env              string
	BookingRateRPS   float64
	BookingRateBurst int
}

// DatabaseConfig holds the relational and document store settings
type DatabaseConfig struct {
	URL           string // postgres://... or sqlite://...
	MongoURI      string
	MongoDatabase string
	MaxRetries    int
}

// RedisConfig holds the snapshot store settings
type RedisConfig struct {
	URL     string
	Enabled bool
	Prefix  string
}

// AuthConfig holds token and identity provider settings
type AuthConfig struct {
	JWTSecret               string
	TokenTTLHours           int
	FirebaseCredentialsPath string
}

// AppointmentConfig holds booking workflow settings
type AppointmentConfig struct {
	MeetingBaseURL    string
	ReconcileSchedule string
}

// MailConfig holds SMTP settings. Mail is disabled when Host is empty.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled           bool
	PrometheusEnabled bool
	ServiceName       string
}

// Load reads .env, then environment variables (FOLIO_ prefix) and an optional config.yaml.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.folio")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:             v.GetString("port"),
			Env:              v.GetString("env"),
			BookingRateRPS:   v.GetFloat64("booking_rate_rps"),
			BookingRateBurst: v.GetInt("booking_rate_burst"),
		},
		Database: DatabaseConfig{
			URL:           v.GetString("database_url"),
			MongoURI:      v.GetString("mongo_uri"),
			MongoDatabase: v.GetString("mongo_database"),
			MaxRetries:    v.GetInt("db_max_retries"),
		},
		Redis: RedisConfig{
			URL:     v.GetString("redis_url"),
			Enabled: v.GetString("redis_url") != "",
			Prefix:  v.GetString("redis_prefix"),
		},
		Auth: AuthConfig{
			JWTSecret:               v.GetString("jwt_secret"),
			TokenTTLHours:           v.GetInt("token_ttl_hours"),
			FirebaseCredentialsPath: v.GetString("firebase_credentials_path"),
		},
		Appointment: AppointmentConfig{
			MeetingBaseURL:    v.GetString("meeting_base_url"),
			ReconcileSchedule: v.GetString("reconcile_schedule"),
		},
		Mail: MailConfig{
			Host:     v.GetString("smtp_host"),
			Port:     v.GetInt("smtp_port"),
			Username: v.GetString("smtp_username"),
			Password: v.GetString("smtp_password"),
			From:     v.GetString("mail_from"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry_enabled"),
			PrometheusEnabled: v.GetBool("prometheus_enabled"),
			ServiceName:       v.GetString("service_name"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("booking_rate_rps", 1.0)
	v.SetDefault("booking_rate_burst", 5)
	v.SetDefault("database_url", "sqlite://folio.db")
	v.SetDefault("mongo_database", "folio")
	v.SetDefault("db_max_retries", 5)
	v.SetDefault("redis_prefix", "folio")
	v.SetDefault("jwt_secret", "supersecretjwtkey")
	v.SetDefault("token_ttl_hours", 72)
	v.SetDefault("meeting_base_url", "https://meet.folio.app")
	v.SetDefault("reconcile_schedule", "@hourly")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("mail_from", "no-reply@folio.app")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("telemetry_enabled", true)
	v.SetDefault("prometheus_enabled", true)
	v.SetDefault("service_name", "folio")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database_url is required")
	}
	if !strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") &&
		!strings.HasPrefix(c.Database.URL, "sqlite://") {
		return fmt.Errorf("database_url must start with postgres:// or sqlite://")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("token_ttl_hours must be positive")
	}
	if c.Server.BookingRateRPS <= 0 || c.Server.BookingRateBurst <= 0 {
		return fmt.Errorf("booking rate limits must be positive")
	}
	if c.Database.MaxRetries < 0 {
		return fmt.Errorf("db_max_retries must not be negative")
	}
	return nil
}

// MailEnabled reports whether an SMTP host is configured
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != ""
}
