// Package config provides configuration management for guidesync using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/guidesync/guidesync/pkg/bytesize"
	"github.com/guidesync/guidesync/pkg/duration"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort       = 8080
	defaultServerTimeout    = 30 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultMaxOpenConns     = 25
	defaultMaxIdleConns     = 10
	defaultConnMaxIdleTime  = 30 * time.Minute
	defaultFreshnessWindow  = 24 * time.Hour
	defaultEPGFetchTimeout  = 120 * time.Second
	defaultPlaylistTimeout  = 30 * time.Second
	defaultProgramBatchSize = 1000
	defaultMirrorTimeout    = 30 * time.Second
	defaultMirrorMaxBytes   = 5 * 1024 * 1024 // 5MB
	defaultSyncThreshold    = 0.8
	defaultAutoMapThreshold = 0.6
	defaultChannelCacheTTL  = 60 * time.Second
	defaultUserAgent        = "Mozilla/5.0 (compatible; guidesync/1.0)"
	defaultLocale           = "ru"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Ingest    IngestConfig    `mapstructure:"ingest" yaml:"ingest"`
	Mirror    MirrorConfig    `mapstructure:"mirror" yaml:"mirror"`
	Reconcile ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"` // silent, error, warn, info
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	// BaseDir is the root data directory. The EPG fetch cache and mirrored
	// assets live underneath it.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
	// CacheDir is the EPG document cache directory, relative to BaseDir.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`
	// AssetDir is the mirrored asset directory, relative to BaseDir.
	AssetDir string `mapstructure:"asset_dir" yaml:"asset_dir"`
	// PublicBaseURL is the externally reachable base URL for mirrored assets.
	PublicBaseURL string `mapstructure:"public_base_url" yaml:"public_base_url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// IngestConfig holds feed ingestion configuration.
type IngestConfig struct {
	// FreshnessWindow is how long a cached EPG document is reused without
	// refetching. Syncs are expected to run at most once per window.
	FreshnessWindow time.Duration `mapstructure:"freshness_window" yaml:"freshness_window"`
	// EPGFetchTimeout bounds the EPG document download. Generous because
	// feeds can be tens of megabytes.
	EPGFetchTimeout time.Duration `mapstructure:"epg_fetch_timeout" yaml:"epg_fetch_timeout"`
	// PlaylistFetchTimeout bounds remote M3U downloads.
	PlaylistFetchTimeout time.Duration `mapstructure:"playlist_fetch_timeout" yaml:"playlist_fetch_timeout"`
	// ProgramBatchSize is the schedule-write insert batch size.
	ProgramBatchSize int `mapstructure:"program_batch_size" yaml:"program_batch_size"`
	// UserAgent is sent on all outbound feed and asset requests.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// DefaultLocale is assigned to EPG channels that carry no language.
	DefaultLocale string `mapstructure:"default_locale" yaml:"default_locale"`
	// ChannelCacheTTL is the TTL of the per-tenant channel list cache.
	ChannelCacheTTL time.Duration `mapstructure:"channel_cache_ttl" yaml:"channel_cache_ttl"`
}

// MirrorConfig holds asset mirroring configuration.
type MirrorConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// ReconcileConfig holds channel reconciliation thresholds.
//
// The two thresholds are intentionally different: automap backs an
// operator-reviewed suggestion flow, sync gates an unattended write.
type ReconcileConfig struct {
	SyncThreshold    float64 `mapstructure:"sync_threshold" yaml:"sync_threshold"`
	AutoMapThreshold float64 `mapstructure:"automap_threshold" yaml:"automap_threshold"`
}

// SchedulerConfig holds the background sync scheduler configuration.
type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Cron    string `mapstructure:"cron" yaml:"cron"` // standard 5-field cron expression
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with GUIDESYNC_ and use underscores
// for nesting. Example: GUIDESYNC_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/guidesync")
		v.AddConfigPath("$HOME/.guidesync")
	}

	v.SetEnvPrefix("GUIDESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// decodeHooks extends the standard string conversions so config files
// and environment variables may use human-readable values: durations
// like "30d" or "2 weeks", and byte sizes like "5MB" for *_bytes keys.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		humanDurationHook,
		byteSizeHook,
		mapstructure.StringToSliceHookFunc(","),
	)
}

func humanDurationHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != durationType {
		return data, nil
	}
	return duration.Parse(data.(string))
}

// byteSizeHook applies to plain int64 targets only; time.Duration has
// the same underlying kind and is handled above.
func byteSizeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Int64 || to == durationType {
		return data, nil
	}
	size, err := bytesize.Parse(data.(string))
	if err != nil {
		return nil, err
	}
	return size.Int64(), nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "guidesync.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Storage defaults
	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.cache_dir", "epg_cache")
	v.SetDefault("storage.asset_dir", "assets")
	v.SetDefault("storage.public_base_url", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Ingest defaults
	v.SetDefault("ingest.freshness_window", defaultFreshnessWindow)
	v.SetDefault("ingest.epg_fetch_timeout", defaultEPGFetchTimeout)
	v.SetDefault("ingest.playlist_fetch_timeout", defaultPlaylistTimeout)
	v.SetDefault("ingest.program_batch_size", defaultProgramBatchSize)
	v.SetDefault("ingest.user_agent", defaultUserAgent)
	v.SetDefault("ingest.default_locale", defaultLocale)
	v.SetDefault("ingest.channel_cache_ttl", defaultChannelCacheTTL)

	// Mirror defaults
	v.SetDefault("mirror.timeout", defaultMirrorTimeout)
	v.SetDefault("mirror.max_bytes", defaultMirrorMaxBytes)

	// Reconcile defaults
	v.SetDefault("reconcile.sync_threshold", defaultSyncThreshold)
	v.SetDefault("reconcile.automap_threshold", defaultAutoMapThreshold)

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.cron", "0 4 * * *") // daily at 4 AM
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Ingest.FreshnessWindow <= 0 {
		return fmt.Errorf("ingest.freshness_window must be positive")
	}
	if c.Ingest.ProgramBatchSize < 1 {
		return fmt.Errorf("ingest.program_batch_size must be at least 1")
	}

	if c.Reconcile.SyncThreshold < 0 || c.Reconcile.SyncThreshold > 1 {
		return fmt.Errorf("reconcile.sync_threshold must be between 0 and 1")
	}
	if c.Reconcile.AutoMapThreshold < 0 || c.Reconcile.AutoMapThreshold > 1 {
		return fmt.Errorf("reconcile.automap_threshold must be between 0 and 1")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CachePath returns the full path to the EPG document cache directory.
func (c *StorageConfig) CachePath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.CacheDir)
}

// AssetPath returns the full path to the mirrored asset directory.
func (c *StorageConfig) AssetPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.AssetDir)
}
