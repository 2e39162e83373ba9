package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. UPLOADER_SERVER_PORT.
const EnvPrefix = "UPLOADER"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Default returns the default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        8000,
			BindAddress: "0.0.0.0",
			AllowOrigins: []string{
				"http://localhost:8080",
				"http://127.0.0.1:8080",
			},
			ReadTimeout:          30,
			WriteTimeout:         60,
			IdleTimeout:          120,
			ShutdownTimeout:      "10s",
			BodyLimit:            "20M",
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./uploads",
		},
		Upload: UploadConfig{
			AllowedExtensions: []string{"xls", "xlsx"},
			MaxFileSizeMB:     10,
			PreviewRows:       10,
		},
		Database: DatabaseConfig{
			Driver:   DriverSQLite,
			Path:     "./data/uploader.db",
			LogLevel: "warn",
			DuckDB: DuckDBConfig{
				Threads:     4,
				MemoryLimit: "1GB",
			},
		},
		Jobs: JobsConfig{
			RetentionMinutes:       30,
			CleanupIntervalMinutes: 5,
		},
		Log: LogConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "logs/app.log",
			Rotation: LogRotationConfig{
				MaxSize:    64,
				MaxBackups: 5,
				MaxAge:     14,
			},
		},
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.bind_address", d.Server.BindAddress)
	v.SetDefault("server.allow_origins", d.Server.AllowOrigins)
	v.SetDefault("server.read_timeout_seconds", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout_seconds", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout_seconds", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.enable_request_logging", d.Server.EnableRequestLogging)
	v.SetDefault("server.enable_compression", d.Server.EnableCompression)
	v.SetDefault("server.compression_level", d.Server.CompressionLevel)

	v.SetDefault("storage.data_directory", d.Storage.DataDirectory)
	v.SetDefault("storage.uploads_directory", d.Storage.UploadsDirectory)

	v.SetDefault("upload.allowed_extensions", d.Upload.AllowedExtensions)
	v.SetDefault("upload.max_file_size_mb", d.Upload.MaxFileSizeMB)
	v.SetDefault("upload.preview_rows", d.Upload.PreviewRows)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.log_level", d.Database.LogLevel)
	v.SetDefault("database.duckdb.threads", d.Database.DuckDB.Threads)
	v.SetDefault("database.duckdb.memory_limit", d.Database.DuckDB.MemoryLimit)

	v.SetDefault("jobs.retention_minutes", d.Jobs.RetentionMinutes)
	v.SetDefault("jobs.cleanup_interval_minutes", d.Jobs.CleanupIntervalMinutes)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.time_format", d.Log.TimeFormat)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.no_color", d.Log.NoColor)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.no_terminal", d.Log.NoTerminal)
	v.SetDefault("log.rotation.max_size", d.Log.Rotation.MaxSize)
	v.SetDefault("log.rotation.max_backups", d.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age", d.Log.Rotation.MaxAge)
	v.SetDefault("log.rotation.compress", d.Log.Rotation.Compress)
}

// ConfigureEnv makes every key overridable as UPLOADER_<SECTION>_<KEY>.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// bindLegacyEnv keeps the unprefixed variable names of earlier deployments
// working. The prefixed name wins when both are set.
func bindLegacyEnv(v *viper.Viper) {
	legacy := map[string]string{
		"storage.uploads_directory": "UPLOAD_FOLDER",
		"upload.max_file_size_mb":   "MAX_FILE_SIZE_MB",
		"upload.allowed_extensions": "ALLOWED_EXTENSIONS",
		"database.dsn":              "DATABASE_URL",
	}
	for key, env := range legacy {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}
}
