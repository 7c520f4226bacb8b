package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string    `mapstructure:"env"`      // current application environment (local, dev, prod etc)
	Timezone         string    `mapstructure:"timezone"` // fixed civil timezone for all calendar-day logic (IANA identifier)
	TelegramAPIToken string    `mapstructure:"-"`        // Telegram API token for the badge notifier, optional
	XP               XP        `mapstructure:"xp"`       // experience point policy section
	Features         Features  `mapstructure:"features"` // feature flag defaults
	Reconcile        Reconcile `mapstructure:"reconcile"`
	Server           Server    `mapstructure:"server"`   // HTTP server section
	DB               DB        `mapstructure:"database"` // database configuration section
}

// Server contains HTTP listener parameters.
type Server struct {
	Addr string `mapstructure:"addr"` // listen address for the settlement endpoint
}

// XP contains experience-point policy defaults.
type XP struct {
	Multiplier float64 `mapstructure:"multiplier"` // global XP multiplier applied when > 1
}

// Features contains default feature flag values, used when no
// engine settings row exists in the database yet.
type Features struct {
	StreakFreeze         bool `mapstructure:"streak_freeze"`          // allow consuming streak freezes
	BadgeRevocationSweep bool `mapstructure:"badge_revocation_sweep"` // enable the administrative badge sweep
}

// Reconcile configures the nightly reconciliation job.
type Reconcile struct {
	CronSpec string `mapstructure:"cron_spec"` // cron expression evaluated in the configured timezone
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Location resolves the configured timezone identifier against the tz
// database. The zone is deployment configuration, never the server locale,
// so "today" means the same civil day on every instance.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("timezone", "Asia/Almaty")
	v.SetDefault("xp.multiplier", 1.0)
	v.SetDefault("features.streak_freeze", true)
	v.SetDefault("features.badge_revocation_sweep", false)
	v.SetDefault("reconcile.cron_spec", "0 3 * * *")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("timezone", "APP_TIMEZONE")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	// The Telegram token is optional: without it the badge notifier is disabled.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	return &cfg, nil
}
