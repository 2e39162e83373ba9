// Package config holds the service configuration, loaded with viper from a
// YAML file, .env files and the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"   yaml:"upload"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Jobs     JobsConfig     `mapstructure:"jobs"     yaml:"jobs"`
	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                 int      `mapstructure:"port"                   yaml:"port"`
	BindAddress          string   `mapstructure:"bind_address"           yaml:"bind_address"`
	AllowOrigins         []string `mapstructure:"allow_origins"          yaml:"allow_origins"`
	ReadTimeout          int      `mapstructure:"read_timeout_seconds"   yaml:"read_timeout_seconds"`
	WriteTimeout         int      `mapstructure:"write_timeout_seconds"  yaml:"write_timeout_seconds"`
	IdleTimeout          int      `mapstructure:"idle_timeout_seconds"   yaml:"idle_timeout_seconds"`
	ShutdownTimeout      string   `mapstructure:"shutdown_timeout"       yaml:"shutdown_timeout"`
	BodyLimit            string   `mapstructure:"body_limit"             yaml:"body_limit"`
	EnableRequestLogging bool     `mapstructure:"enable_request_logging" yaml:"enable_request_logging"`
	EnableCompression    bool     `mapstructure:"enable_compression"     yaml:"enable_compression"`
	CompressionLevel     int      `mapstructure:"compression_level"      yaml:"compression_level"`
}

// StorageConfig contains file storage settings.
type StorageConfig struct {
	DataDirectory    string `mapstructure:"data_directory"    yaml:"data_directory"`
	UploadsDirectory string `mapstructure:"uploads_directory" yaml:"uploads_directory"`
}

// UploadConfig controls which files are accepted.
type UploadConfig struct {
	AllowedExtensions []string `mapstructure:"allowed_extensions" yaml:"allowed_extensions"`
	MaxFileSizeMB     int64    `mapstructure:"max_file_size_mb"   yaml:"max_file_size_mb"`
	PreviewRows       int      `mapstructure:"preview_rows"       yaml:"preview_rows"`
}

// DatabaseConfig selects and configures the record store.
type DatabaseConfig struct {
	// Driver is one of sqlite, postgres or duckdb.
	Driver   string       `mapstructure:"driver"    yaml:"driver"`
	Path     string       `mapstructure:"path"      yaml:"path"`
	DSN      string       `mapstructure:"dsn"       yaml:"dsn"`
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	DuckDB   DuckDBConfig `mapstructure:"duckdb"    yaml:"duckdb"`
}

// DuckDBConfig holds the pragmas applied to every DuckDB connection.
type DuckDBConfig struct {
	Threads     int    `mapstructure:"threads"      yaml:"threads"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit"`
}

// JobsConfig controls retention of asynchronous insert jobs.
type JobsConfig struct {
	RetentionMinutes       int `mapstructure:"retention_minutes"        yaml:"retention_minutes"`
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes" yaml:"cleanup_interval_minutes"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level      string            `mapstructure:"level"       yaml:"level"`
	TimeFormat string            `mapstructure:"time_format" yaml:"time_format"`
	File       string            `mapstructure:"file"        yaml:"file"`
	NoColor    bool              `mapstructure:"no_color"    yaml:"no_color"`
	JSON       bool              `mapstructure:"json"        yaml:"json"`
	NoTerminal bool              `mapstructure:"no_terminal" yaml:"no_terminal"`
	Rotation   LogRotationConfig `mapstructure:"rotation"    yaml:"rotation"`
}

type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"    yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"     yaml:"max_age"`
	Compress   bool `mapstructure:"compress"    yaml:"compress"`
}

// Load registers defaults on v and unmarshals the merged configuration.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	bindLegacyEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.Upload.AllowedExtensions = normalizeExtensions(cfg.Upload.AllowedExtensions)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverDuckDB:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for the postgres driver")
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("upload.max_file_size_mb must be positive, got %d", c.Upload.MaxFileSizeMB)
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("upload.allowed_extensions must not be empty")
	}
	if c.Upload.PreviewRows <= 0 {
		return fmt.Errorf("upload.preview_rows must be positive, got %d", c.Upload.PreviewRows)
	}
	if c.Jobs.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("jobs.cleanup_interval_minutes must be positive, got %d", c.Jobs.CleanupIntervalMinutes)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer f.Close()

	return c.Write(f)
}

// Write encodes the configuration as YAML to w.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return enc.Close()
}

// ServerAddr returns the server bind address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// MaxFileSize returns the upload size limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return c.Upload.MaxFileSizeMB * 1024 * 1024
}

// EnsureDirectories creates all necessary directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// normalizeExtensions lowercases extensions, strips leading dots and splits
// entries that still hold a comma separated list.
func normalizeExtensions(exts []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range exts {
		for _, e := range strings.Split(raw, ",") {
			e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
			if e == "" || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
