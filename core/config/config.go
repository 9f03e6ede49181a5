package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	GoogleAPI  GoogleAPIConfig  `mapstructure:"google_api"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"db_name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in minutes
	MigrationsDir   string `mapstructure:"migrations_dir"`
}

// DSN returns a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GoogleAPIConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	FreeBusyURL  string `mapstructure:"freebusy_url"`
}

// SchedulingConfig holds the platform defaults of the suggestion engine.
type SchedulingConfig struct {
	PanelCap                int           `mapstructure:"panel_cap"`
	DefaultMaxSuggestions   int           `mapstructure:"default_max_suggestions"`
	MaxSuggestionsLimit     int           `mapstructure:"max_suggestions_limit"`
	MinDurationMins         int           `mapstructure:"min_duration_mins"`
	MaxDurationMins         int           `mapstructure:"max_duration_mins"`
	DefaultBufferBeforeMins int           `mapstructure:"default_buffer_before_mins"`
	DefaultBufferAfterMins  int           `mapstructure:"default_buffer_after_mins"`
	DefaultMinNoticeMins    int           `mapstructure:"default_min_notice_mins"`
	AlignToHalfHour         bool          `mapstructure:"align_to_half_hour"`
	ExternalTimeout         time.Duration `mapstructure:"external_timeout"`
	InternalTimeout         time.Duration `mapstructure:"internal_timeout"`
	GridSlotMins            int           `mapstructure:"grid_slot_mins"`
	MaxWindowDays           int           `mapstructure:"max_window_days"`
	DefaultTimezone         string        `mapstructure:"default_timezone"`
	DefaultWorkdayStartMin  int           `mapstructure:"default_workday_start_min"`
	DefaultWorkdayEndMin    int           `mapstructure:"default_workday_end_min"`
	DefaultWorkdays         []int         `mapstructure:"default_workdays"`
	CredentialCacheSize     int           `mapstructure:"credential_cache_size"`
	TokenRefreshSkew        time.Duration `mapstructure:"token_refresh_skew"`
}

type WorkerConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	RefreshCron string `mapstructure:"refresh_cron"`
	Concurrency int    `mapstructure:"concurrency"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Init loads configuration and stores it for GetSafe.
func Init() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

// GetSafe returns the loaded configuration and whether Init has run.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}

// Load reads .env (without overriding the real environment) and the
// environment into a Config with typed defaults.
func Load() (*Config, error) {
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.db_name", "interview_scheduler")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.migrations_dir", "db/migrations")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("google_api.client_id", "")
	v.SetDefault("google_api.client_secret", "")
	v.SetDefault("google_api.redirect_uri", "")
	v.SetDefault("google_api.freebusy_url", "https://www.googleapis.com/calendar/v3/freeBusy")

	v.SetDefault("scheduling.panel_cap", 5)
	v.SetDefault("scheduling.default_max_suggestions", 10)
	v.SetDefault("scheduling.max_suggestions_limit", 50)
	v.SetDefault("scheduling.min_duration_mins", 15)
	v.SetDefault("scheduling.max_duration_mins", 480)
	v.SetDefault("scheduling.default_buffer_before_mins", 0)
	v.SetDefault("scheduling.default_buffer_after_mins", 0)
	v.SetDefault("scheduling.default_min_notice_mins", 0)
	v.SetDefault("scheduling.align_to_half_hour", true)
	v.SetDefault("scheduling.external_timeout", 5*time.Second)
	v.SetDefault("scheduling.internal_timeout", 5*time.Second)
	v.SetDefault("scheduling.grid_slot_mins", 30)
	v.SetDefault("scheduling.max_window_days", 31)
	v.SetDefault("scheduling.default_timezone", "UTC")
	v.SetDefault("scheduling.default_workday_start_min", 9*60)
	v.SetDefault("scheduling.default_workday_end_min", 17*60)
	v.SetDefault("scheduling.default_workdays", []int{1, 2, 3, 4, 5})
	v.SetDefault("scheduling.credential_cache_size", 1024)
	v.SetDefault("scheduling.token_refresh_skew", 5*time.Minute)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.refresh_cron", "@every 5m")
	v.SetDefault("worker.concurrency", 2)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvs(v *viper.Viper) {
	for _, k := range v.AllKeys() {
		_ = v.BindEnv(k)
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port is required")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return errors.New("database host, db_name and user are required")
	}
	s := c.Scheduling
	if s.PanelCap < 1 {
		return errors.New("scheduling.panel_cap must be at least 1")
	}
	if s.MinDurationMins < 1 || s.MaxDurationMins < s.MinDurationMins {
		return errors.New("scheduling duration bounds are invalid")
	}
	if s.DefaultMaxSuggestions < 1 || s.MaxSuggestionsLimit < s.DefaultMaxSuggestions {
		return errors.New("scheduling suggestion limits are invalid")
	}
	if s.DefaultBufferBeforeMins < 0 || s.DefaultBufferAfterMins < 0 || s.DefaultMinNoticeMins < 0 {
		return errors.New("scheduling buffers and notice must not be negative")
	}
	if s.ExternalTimeout <= 0 || s.InternalTimeout <= 0 {
		return errors.New("scheduling timeouts must be positive")
	}
	if s.GridSlotMins < 1 || s.MaxWindowDays < 1 {
		return errors.New("scheduling grid and window bounds must be positive")
	}
	if s.DefaultWorkdayStartMin < 0 || s.DefaultWorkdayEndMin > 24*60 || s.DefaultWorkdayStartMin >= s.DefaultWorkdayEndMin {
		return errors.New("scheduling default workday is invalid")
	}
	if _, err := time.LoadLocation(s.DefaultTimezone); err != nil {
		return fmt.Errorf("scheduling.default_timezone: %w", err)
	}
	return nil
}

// ServerAddr returns host:port for the HTTP listener.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
