// mock_storage.go - In-memory collaborators for testing
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/sheet-uploader/backend/internal/db"
	"github.com/sheet-uploader/backend/internal/models"
	"github.com/sheet-uploader/backend/internal/storage"
)

// MemoryFileStore implements storage.Store in memory.
type MemoryFileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
	seq   int
}

// NewMemoryFileStore creates an empty in-memory file store.
func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{files: make(map[string][]byte)}
}

func (m *MemoryFileStore) Save(name string, r io.Reader) (*storage.StoredFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.SaveBytes(name, data), nil
}

// SaveBytes stores data directly and returns its descriptor.
func (m *MemoryFileStore) SaveBytes(name string, data []byte) *storage.StoredFile {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	p := fmt.Sprintf("/mem/%d-%s", m.seq, path.Base(name))
	m.files[p] = data
	return &storage.StoredFile{
		Name:     name,
		Path:     p,
		Size:     int64(len(data)),
		Checksum: fmt.Sprintf("%016x", len(data)),
	}
}

func (m *MemoryFileStore) SizeOf(p string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[p]
	if !ok {
		return 0, os.ErrNotExist
	}
	return int64(len(data)), nil
}

func (m *MemoryFileStore) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	return nil
}

func (m *MemoryFileStore) Exists(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[p]
	return ok
}

func (m *MemoryFileStore) Open(p string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Len returns the number of stored files.
func (m *MemoryFileStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// MemoryRecordStore implements db.RecordStore in memory.
type MemoryRecordStore struct {
	mu       sync.RWMutex
	files    map[uint]models.UploadedFile
	records  []models.DataRecord
	nextFile uint
	nextRec  uint
}

// NewMemoryRecordStore creates an empty in-memory record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{files: make(map[uint]models.UploadedFile)}
}

func (m *MemoryRecordStore) Migrate(ctx context.Context) error { return nil }
func (m *MemoryRecordStore) Health(ctx context.Context) error  { return nil }
func (m *MemoryRecordStore) Close() error                      { return nil }

func (m *MemoryRecordStore) InsertFileMetadata(ctx context.Context, file *models.UploadedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextFile++
	file.ID = m.nextFile
	m.files[file.ID] = *file
	return nil
}

func (m *MemoryRecordStore) GetFileMetadata(ctx context.Context, id uint) (*models.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &f, nil
}

func (m *MemoryRecordStore) ListFileMetadata(ctx context.Context) ([]models.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]models.UploadedFile, 0, len(m.files))
	for _, f := range m.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].UploadDate.Equal(files[j].UploadDate) {
			return files[i].ID > files[j].ID
		}
		return files[i].UploadDate.After(files[j].UploadDate)
	})
	return files, nil
}

func (m *MemoryRecordStore) DeleteFile(ctx context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return false, nil
	}
	delete(m.files, id)

	kept := m.records[:0]
	for _, r := range m.records {
		if r.FileID != id {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return true, nil
}

func (m *MemoryRecordStore) BulkInsertRecords(ctx context.Context, records []models.DataRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		m.nextRec++
		r.ID = m.nextRec
		m.records = append(m.records, r)
	}
	return len(records), nil
}

func (m *MemoryRecordStore) ListRecords(ctx context.Context, fileID uint) ([]models.DataRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.DataRecord{}
	for _, r := range m.records {
		if r.FileID == fileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryRecordStore) AggregateByProduct(ctx context.Context) ([]models.ChartAggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[string]int64)
	for _, r := range m.records {
		totals[r.Product] += r.Quantity
	}

	out := make([]models.ChartAggregate, 0, len(totals))
	for product, total := range totals {
		out = append(out, models.ChartAggregate{Product: product, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product < out[j].Product })
	return out, nil
}

// RecordCount returns the number of stored records.
func (m *MemoryRecordStore) RecordCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
