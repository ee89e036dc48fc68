// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSource          string        `mapstructure:"DB_SOURCE"`
	DBAutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogFile   string `mapstructure:"LOG_FILE"`

	// JWT Configuration
	JWTSecretKey                string        `mapstructure:"JWT_SECRET_KEY"`
	JWTAccessTokenExpiryMinutes time.Duration `mapstructure:"JWT_ACCESS_TOKEN_EXPIRY_MINUTES"`

	// Notification Configuration
	NotificationDefaultLimit      int `mapstructure:"NOTIFICATION_DEFAULT_LIMIT"`
	NotificationMaxLimit          int `mapstructure:"NOTIFICATION_MAX_LIMIT"`
	LowStockHighPriorityThreshold int `mapstructure:"LOW_STOCK_HIGH_PRIORITY_THRESHOLD"`
	LowStockAlertExpiryHours      int `mapstructure:"LOW_STOCK_ALERT_EXPIRY_HOURS"`
	TriggerCheckRatePerMinute     int `mapstructure:"TRIGGER_CHECK_RATE_PER_MINUTE"`

	// Comma separated shoutrrr URLs that receive high priority notifications.
	NotificationForwardURLs []string `mapstructure:"-"`

	// Cron Jobs
	TriggerCheckJobSchedule       string `mapstructure:"TRIGGER_CHECK_JOB_SCHEDULE"`
	NotificationExpiryJobSchedule string `mapstructure:"NOTIFICATION_EXPIRY_JOB_SCHEDULE"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.JWTAccessTokenExpiryMinutes = time.Duration(v.GetInt("JWT_ACCESS_TOKEN_EXPIRY_MINUTES")) * time.Minute
	cfg.NotificationForwardURLs = splitList(v.GetString("NOTIFICATION_FORWARD_URLS"))

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if strings.TrimSpace(v.GetString("DB_SOURCE")) == "" && cfg.DBDriver == "postgres" {
		cfg.DBSource = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBTimezone)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "ezm_trade_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRY_MINUTES", 60)

	v.SetDefault("NOTIFICATION_DEFAULT_LIMIT", 50)
	v.SetDefault("NOTIFICATION_MAX_LIMIT", 200)
	v.SetDefault("LOW_STOCK_HIGH_PRIORITY_THRESHOLD", 5)
	v.SetDefault("LOW_STOCK_ALERT_EXPIRY_HOURS", 48)
	v.SetDefault("TRIGGER_CHECK_RATE_PER_MINUTE", 6)
	v.SetDefault("NOTIFICATION_FORWARD_URLS", "")

	v.SetDefault("TRIGGER_CHECK_JOB_SCHEDULE", "@every 15m")
	v.SetDefault("NOTIFICATION_EXPIRY_JOB_SCHEDULE", "@hourly")
}

// Validate checks the settings the application cannot start without.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("FATAL: DB_DRIVER %q is not supported (postgres, mysql, sqlite)", c.DBDriver)
	}
	if c.DBDriver != "postgres" && strings.TrimSpace(c.DBSource) == "" {
		return fmt.Errorf("FATAL: DB_SOURCE is required for DB_DRIVER=%s", c.DBDriver)
	}
	if c.GinMode == "release" && strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("FATAL: JWT_SECRET_KEY is not set. This is required in release mode")
	}
	if c.NotificationDefaultLimit <= 0 {
		return fmt.Errorf("FATAL: NOTIFICATION_DEFAULT_LIMIT must be positive, got %d", c.NotificationDefaultLimit)
	}
	if c.NotificationMaxLimit < c.NotificationDefaultLimit {
		return fmt.Errorf("FATAL: NOTIFICATION_MAX_LIMIT (%d) must be >= NOTIFICATION_DEFAULT_LIMIT (%d)",
			c.NotificationMaxLimit, c.NotificationDefaultLimit)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
