package sheet

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Registry holds the available workbook readers.
type Registry struct {
	readers []Reader
}

// NewRegistry returns a registry with the xlsx and xls readers.
func NewRegistry() *Registry {
	return &Registry{
		readers: []Reader{
			NewXLSXReader(),
			NewXLSReader(),
		},
	}
}

// FindReader returns the reader for a file name.
func (r *Registry) FindReader(filename string) (Reader, error) {
	for _, reader := range r.readers {
		if reader.CanRead(filename) {
			return reader, nil
		}
	}
	return nil, fmt.Errorf("no reader for file: %s", filepath.Base(filename))
}

// ReaderByName returns a reader by its name.
func (r *Registry) ReaderByName(name string) (Reader, error) {
	name = strings.ToLower(name)
	for _, reader := range r.readers {
		if strings.ToLower(reader.Name()) == name {
			return reader, nil
		}
	}
	return nil, fmt.Errorf("reader not found: %s", name)
}

// Read decodes data. The reader matching filename is tried first; when it
// fails or none matches, every other reader is tried in turn, so a file
// whose extension lies about its format can still be opened.
func (r *Registry) Read(filename string, data []byte) (*Workbook, error) {
	var firstErr error
	tried := make(map[string]bool, len(r.readers))

	if reader, err := r.FindReader(filename); err == nil {
		tried[reader.Name()] = true
		wb, err := reader.Read(bytes.NewReader(data))
		if err == nil {
			return wb, nil
		}
		firstErr = fmt.Errorf("%s: %w", reader.Name(), err)
	}

	for _, reader := range r.readers {
		if tried[reader.Name()] {
			continue
		}
		wb, err := reader.Read(bytes.NewReader(data))
		if err == nil {
			return wb, nil
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", reader.Name(), err)
		}
	}

	if firstErr == nil {
		firstErr = fmt.Errorf("no reader for file: %s", filepath.Base(filename))
	}
	return nil, firstErr
}

func hasExtension(filename string, exts ...string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
