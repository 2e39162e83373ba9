package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sheet-uploader/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// insertBatchSize keeps every INSERT statement below the bind variable
// limits of sqlite and postgres.
const insertBatchSize = 500

// GormStore implements RecordStore on top of GORM. It serves the sqlite and
// postgres drivers.
type GormStore struct {
	db *gorm.DB
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path     string
	LogLevel logger.LogLevel
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// NewSQLiteStore creates a new SQLite-backed record store
func NewSQLiteStore(ctx context.Context, cfg SQLiteConfig) (*GormStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	store, err := openGorm(sqlite.Open(cfg.Path), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite only supports 1 writer
	if err := store.connect(ctx, 1); err != nil {
		return nil, err
	}
	return store, nil
}

// NewPostgresStore creates a new PostgreSQL-backed record store
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*GormStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}

	store, err := openGorm(postgres.Open(cfg.DSN), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := store.connect(ctx, cfg.MaxOpenConns); err != nil {
		return nil, err
	}
	return store, nil
}

func openGorm(dialector gorm.Dialector, level logger.LogLevel) (*GormStore, error) {
	// Default to silent logging
	if level == 0 {
		level = logger.Silent
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) connect(ctx context.Context, maxOpen int) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate creates or updates the excel_files and excel_data tables
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.UploadedFile{},
		&models.DataRecord{},
	)
}

// Health checks database connectivity
func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// File metadata operations

func (s *GormStore) InsertFileMetadata(ctx context.Context, file *models.UploadedFile) error {
	if file.UploadDate.IsZero() {
		file.UploadDate = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(file).Error
}

func (s *GormStore) GetFileMetadata(ctx context.Context, id uint) (*models.UploadedFile, error) {
	var file models.UploadedFile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&file).Error
	if err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

func (s *GormStore) ListFileMetadata(ctx context.Context) ([]models.UploadedFile, error) {
	files := []models.UploadedFile{}
	err := s.db.WithContext(ctx).
		Order("upload_date DESC").
		Order("id DESC").
		Find(&files).Error
	return files, err
}

func (s *GormStore) DeleteFile(ctx context.Context, id uint) (bool, error) {
	deleted := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var file models.UploadedFile
		if err := tx.Where("id = ?", id).First(&file).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("file_id = ?", id).Delete(&models.DataRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
		if err := tx.Delete(&file).Error; err != nil {
			return fmt.Errorf("failed to delete file metadata: %w", err)
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Record operations

func (s *GormStore) BulkInsertRecords(ctx context.Context, records []models.DataRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&records, insertBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("bulk insert failed: %w", err)
	}
	return len(records), nil
}

func (s *GormStore) ListRecords(ctx context.Context, fileID uint) ([]models.DataRecord, error) {
	records := []models.DataRecord{}
	err := s.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

func (s *GormStore) AggregateByProduct(ctx context.Context) ([]models.ChartAggregate, error) {
	totals := []models.ChartAggregate{}
	err := s.db.WithContext(ctx).
		Model(&models.DataRecord{}).
		Select("product, CAST(SUM(quantity) AS BIGINT) AS total").
		Group("product").
		Order("product ASC").
		Scan(&totals).Error
	return totals, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ParseLogLevel maps a level name to the GORM logger level.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return logger.Error
	case "warn", "warning":
		return logger.Warn
	case "info", "debug":
		return logger.Info
	default:
		return logger.Silent
	}
}
