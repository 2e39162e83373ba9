// Package db persists upload metadata and extracted records.
package db

import (
	"context"
	"errors"

	"github.com/sheet-uploader/backend/internal/models"
)

// ErrNotFound is returned when a metadata lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// RecordStore defines the persistence operations of the service.
type RecordStore interface {
	// Lifecycle
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error

	// File metadata
	InsertFileMetadata(ctx context.Context, file *models.UploadedFile) error
	GetFileMetadata(ctx context.Context, id uint) (*models.UploadedFile, error)
	ListFileMetadata(ctx context.Context) ([]models.UploadedFile, error)
	// DeleteFile removes the metadata and every record of the file in one
	// transaction. It reports false when no such file exists.
	DeleteFile(ctx context.Context, id uint) (bool, error)

	// Records
	BulkInsertRecords(ctx context.Context, records []models.DataRecord) (int, error)
	ListRecords(ctx context.Context, fileID uint) ([]models.DataRecord, error)
	AggregateByProduct(ctx context.Context) ([]models.ChartAggregate, error)
}
