package testutil

import (
	"context"

	"github.com/sheet-uploader/backend/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRecordStore is a testify mock of db.RecordStore, used where a test
// needs to inject backend failures.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRecordStore) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRecordStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRecordStore) InsertFileMetadata(ctx context.Context, file *models.UploadedFile) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockRecordStore) GetFileMetadata(ctx context.Context, id uint) (*models.UploadedFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UploadedFile), args.Error(1)
}

func (m *MockRecordStore) ListFileMetadata(ctx context.Context) ([]models.UploadedFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UploadedFile), args.Error(1)
}

func (m *MockRecordStore) DeleteFile(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecordStore) BulkInsertRecords(ctx context.Context, records []models.DataRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockRecordStore) ListRecords(ctx context.Context, fileID uint) ([]models.DataRecord, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DataRecord), args.Error(1)
}

func (m *MockRecordStore) AggregateByProduct(ctx context.Context) ([]models.ChartAggregate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChartAggregate), args.Error(1)
}
