package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ErrOutsideStore is returned for paths that do not belong to the store.
var ErrOutsideStore = errors.New("path outside upload directory")

// StoredFile describes a file written by Save.
type StoredFile struct {
	Name     string
	Path     string
	Size     int64
	Checksum string
}

// Store defines the interface for file storage.
type Store interface {
	Save(name string, r io.Reader) (*StoredFile, error)
	SizeOf(path string) (int64, error)
	Remove(path string) error
	Exists(path string) bool
	Open(path string) (io.ReadCloser, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	abs, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("resolving upload directory: %w", err)
	}

	return &LocalStore{uploadDir: abs}, nil
}

// Dir returns the absolute upload directory.
func (s *LocalStore) Dir() string {
	return s.uploadDir
}

// Save writes r under a unique name derived from name and returns where it
// landed, its size and its xxhash64 checksum.
func (s *LocalStore) Save(name string, r io.Reader) (*StoredFile, error) {
	path := filepath.Join(s.uploadDir, uuid.New().String()+"-"+sanitize(name))

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	hasher := xxhash.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	return &StoredFile{
		Name:     name,
		Path:     path,
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// SizeOf returns the size of a stored file in bytes.
func (s *LocalStore) SizeOf(path string) (int64, error) {
	p, err := s.resolve(path)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(p)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	return info.Size(), nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (s *LocalStore) Remove(path string) error {
	p, err := s.resolve(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Exists reports whether a stored file is present.
func (s *LocalStore) Exists(path string) bool {
	p, err := s.resolve(path)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Open returns a reader over a stored file.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	p, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return f, nil
}

// resolve accepts absolute paths inside the upload directory and bare names
// relative to it.
func (s *LocalStore) resolve(path string) (string, error) {
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.uploadDir, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(s.uploadDir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideStore, path)
	}
	return p, nil
}

// sanitize keeps only the base name of a client supplied file name.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
