// Package upload accepts workbook uploads and manages their lifecycle.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sheet-uploader/backend/internal/db"
	"github.com/sheet-uploader/backend/internal/logging"
	"github.com/sheet-uploader/backend/internal/models"
	"github.com/sheet-uploader/backend/internal/storage"
)

var (
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrFileNotFound        = errors.New("file not found")
)

// Config controls which uploads are accepted.
type Config struct {
	AllowedExtensions []string
	// MaxFileSize is the limit in bytes.
	MaxFileSize int64
}

// Manager stores uploads and keeps their metadata in the record store.
type Manager struct {
	records db.RecordStore
	files   storage.Store
	cfg     Config
	log     logging.Logger
	now     func() time.Time
}

// NewManager creates a new upload manager.
func NewManager(records db.RecordStore, files storage.Store, cfg Config, log logging.Logger) *Manager {
	return &Manager{
		records: records,
		files:   files,
		cfg:     cfg,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AllowedFile reports whether filename carries an accepted extension.
// Matching ignores case; a name without a dot is never accepted.
func (m *Manager) AllowedFile(filename string) bool {
	ext := filepath.Ext(filename)
	if ext == "" || ext == "." {
		return false
	}
	ext = strings.ToLower(ext[1:])
	for _, allowed := range m.cfg.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}

// AllowedExtensions returns the accepted extensions.
func (m *Manager) AllowedExtensions() []string {
	return m.cfg.AllowedExtensions
}

// Accept stores r as filename and registers its metadata. Files above the
// size limit are removed again and rejected with ErrFileTooLarge.
func (m *Manager) Accept(ctx context.Context, filename, contentType string, r io.Reader) (*models.UploadedFile, error) {
	if !m.AllowedFile(filename) {
		return nil, fmt.Errorf("%w: %s", ErrExtensionNotAllowed, filename)
	}

	// One byte past the limit is enough to detect an oversized upload.
	stored, err := m.files.Save(filename, io.LimitReader(r, m.cfg.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	size, err := m.files.SizeOf(stored.Path)
	if err != nil {
		m.discard(stored.Path)
		return nil, fmt.Errorf("failed to measure upload: %w", err)
	}
	if size > m.cfg.MaxFileSize {
		m.discard(stored.Path)
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, filename, m.cfg.MaxFileSize)
	}

	file := &models.UploadedFile{
		Filename:   filename,
		Filepath:   stored.Path,
		Filesize:   size,
		Filetype:   contentType,
		Checksum:   stored.Checksum,
		UploadDate: m.now(),
	}
	if err := m.records.InsertFileMetadata(ctx, file); err != nil {
		m.discard(stored.Path)
		return nil, fmt.Errorf("failed to register upload: %w", err)
	}

	m.log.Info("file uploaded: %s (id=%d, %d bytes, checksum=%s)", file.Filename, file.ID, file.Filesize, file.Checksum)
	return file, nil
}

// List returns every upload, newest first.
func (m *Manager) List(ctx context.Context) ([]models.UploadedFile, error) {
	return m.records.ListFileMetadata(ctx)
}

// Get returns the metadata of one upload.
func (m *Manager) Get(ctx context.Context, id uint) (*models.UploadedFile, error) {
	file, err := m.records.GetFileMetadata(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrFileNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Records returns the persisted records of one upload.
func (m *Manager) Records(ctx context.Context, id uint) (*models.UploadedFile, []models.DataRecord, error) {
	file, err := m.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	records, err := m.records.ListRecords(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list records: %w", err)
	}
	return file, records, nil
}

// Delete removes the metadata and records of an upload, then its physical
// file. A failure to remove the physical file is logged, not returned.
func (m *Manager) Delete(ctx context.Context, id uint) (*models.UploadedFile, error) {
	file, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	deleted, err := m.records.DeleteFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete file %d: %w", id, err)
	}
	if !deleted {
		return nil, fmt.Errorf("%w: %d", ErrFileNotFound, id)
	}

	if m.files.Exists(file.Filepath) {
		m.discard(file.Filepath)
	}

	m.log.Info("file deleted: %s (id=%d)", file.Filename, file.ID)
	return file, nil
}

func (m *Manager) discard(path string) {
	if err := m.files.Remove(path); err != nil {
		m.log.Warn("failed to remove stored file %s: %v", path, err)
	}
}
