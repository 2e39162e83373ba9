package upload

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sheet-uploader/backend/internal/logging"
	"github.com/sheet-uploader/backend/internal/models"
	"github.com/sheet-uploader/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func newTestManager(maxSize int64) (*Manager, *testutil.MemoryRecordStore, *testutil.MemoryFileStore) {
	records := testutil.NewMemoryRecordStore()
	files := testutil.NewMemoryFileStore()
	m := NewManager(records, files, Config{
		AllowedExtensions: []string{"xls", "xlsx"},
		MaxFileSize:       maxSize,
	}, logging.Nop())
	return m, records, files
}

func TestAllowedFile(t *testing.T) {
	m, _, _ := newTestManager(1024)

	tests := []struct {
		name string
		want bool
	}{
		{"a.xlsx", true},
		{"A.XLS", true},
		{"report.final.xlsx", true},
		{"notes.csv", false},
		{"noextension", false},
		{"trailingdot.", false},
		{"xlsx", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.AllowedFile(tt.name), tt.name)
	}
}

func TestAccept(t *testing.T) {
	t.Run("stores and registers", func(t *testing.T) {
		m, records, files := newTestManager(1024)

		file, err := m.Accept(context.Background(), "orders.xlsx", xlsxType, strings.NewReader("workbook bytes"))
		require.NoError(t, err)
		assert.NotZero(t, file.ID)
		assert.Equal(t, "orders.xlsx", file.Filename)
		assert.Equal(t, int64(len("workbook bytes")), file.Filesize)
		assert.Equal(t, xlsxType, file.Filetype)
		assert.NotEmpty(t, file.Checksum)
		assert.False(t, file.UploadDate.IsZero())
		assert.True(t, files.Exists(file.Filepath))

		stored, err := records.GetFileMetadata(context.Background(), file.ID)
		require.NoError(t, err)
		assert.Equal(t, file.Filepath, stored.Filepath)
	})

	t.Run("rejects extension before storing", func(t *testing.T) {
		m, _, files := newTestManager(1024)

		_, err := m.Accept(context.Background(), "notes.csv", "text/csv", strings.NewReader("a,b"))
		assert.ErrorIs(t, err, ErrExtensionNotAllowed)
		assert.Zero(t, files.Len())
	})

	t.Run("rejects oversize and removes the stored file", func(t *testing.T) {
		m, records, files := newTestManager(10)

		_, err := m.Accept(context.Background(), "big.xlsx", xlsxType, strings.NewReader(strings.Repeat("x", 11)))
		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Zero(t, files.Len())

		list, _ := records.ListFileMetadata(context.Background())
		assert.Empty(t, list)
	})

	t.Run("exact limit is accepted", func(t *testing.T) {
		m, _, _ := newTestManager(10)

		_, err := m.Accept(context.Background(), "edge.xls", "application/vnd.ms-excel", strings.NewReader(strings.Repeat("x", 10)))
		assert.NoError(t, err)
	})

	t.Run("metadata failure removes the stored file", func(t *testing.T) {
		store := new(testutil.MockRecordStore)
		store.On("InsertFileMetadata", mock.Anything, mock.Anything).Return(errors.New("db down"))
		files := testutil.NewMemoryFileStore()
		m := NewManager(store, files, Config{AllowedExtensions: []string{"xlsx"}, MaxFileSize: 100}, logging.Nop())

		_, err := m.Accept(context.Background(), "a.xlsx", xlsxType, strings.NewReader("x"))
		assert.Error(t, err)
		assert.Zero(t, files.Len())
		store.AssertExpectations(t)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m, records, files := newTestManager(1024)

	file, err := m.Accept(ctx, "orders.xlsx", xlsxType, strings.NewReader("data"))
	require.NoError(t, err)

	batch := make([]models.DataRecord, 42)
	for i := range batch {
		batch[i] = models.DataRecord{Product: "Widget", Quantity: 1, SheetName: "S", FileID: file.ID}
	}
	_, err = records.BulkInsertRecords(ctx, batch)
	require.NoError(t, err)

	deleted, err := m.Delete(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, deleted.ID)
	assert.False(t, files.Exists(file.Filepath))
	assert.Zero(t, records.RecordCount())

	_, err = m.Delete(ctx, file.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestRecords(t *testing.T) {
	ctx := context.Background()
	m, records, _ := newTestManager(1024)

	file, err := m.Accept(ctx, "orders.xlsx", xlsxType, strings.NewReader("data"))
	require.NoError(t, err)
	_, err = records.BulkInsertRecords(ctx, []models.DataRecord{{Name: "Ann", FileID: file.ID}})
	require.NoError(t, err)

	got, rows, err := m.Records(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ann", rows[0].Name)

	_, _, err = m.Records(ctx, 999)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
