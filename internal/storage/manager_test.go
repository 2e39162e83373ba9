// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTestStore(t *testing.T) *LocalStore {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads")

		store, err := NewLocalStore(uploadDir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
		if !filepath.IsAbs(store.Dir()) {
			t.Errorf("Expected absolute upload dir, got %s", store.Dir())
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)
		content := "Hello, World!"

		info, err := store.Save("orders.xlsx", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.Name != "orders.xlsx" {
			t.Errorf("Expected name 'orders.xlsx', got %v", info.Name)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if !strings.HasSuffix(info.Path, "-orders.xlsx") {
			t.Errorf("Expected unique path ending in the name, got %s", info.Path)
		}
		if len(info.Checksum) != 16 {
			t.Errorf("Expected 16 hex chars checksum, got %q", info.Checksum)
		}

		data, err := os.ReadFile(info.Path)
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})

	t.Run("same name twice gets distinct paths", func(t *testing.T) {
		store := createTestStore(t)

		a, err := store.Save("dup.xls", strings.NewReader("a"))
		if err != nil {
			t.Fatal(err)
		}
		b, err := store.Save("dup.xls", strings.NewReader("b"))
		if err != nil {
			t.Fatal(err)
		}
		if a.Path == b.Path {
			t.Error("Expected different paths for identical names")
		}
		if a.Checksum == b.Checksum {
			t.Error("Expected different checksums for different content")
		}
	})

	t.Run("strips directories from client names", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("../../etc/passwd.xlsx", strings.NewReader("x"))
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Dir(info.Path) != store.Dir() {
			t.Errorf("Expected file inside %s, got %s", store.Dir(), info.Path)
		}
	})
}

func TestLocalStore_SizeOpenRemove(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("data.xlsx", strings.NewReader("0123456789"))
	if err != nil {
		t.Fatal(err)
	}

	size, err := store.SizeOf(info.Path)
	if err != nil {
		t.Fatalf("SizeOf failed: %v", err)
	}
	if size != 10 {
		t.Errorf("Expected size 10, got %d", size)
	}

	rc, err := store.Open(filepath.Base(info.Path))
	if err != nil {
		t.Fatalf("Open by relative name failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "0123456789" {
		t.Errorf("Unexpected content %q", string(data))
	}

	if !store.Exists(info.Path) {
		t.Error("Expected file to exist")
	}
	if err := store.Remove(info.Path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.Exists(info.Path) {
		t.Error("Expected file to be gone")
	}
	if err := store.Remove(info.Path); err != nil {
		t.Errorf("Removing a missing file should succeed, got %v", err)
	}
}

func TestLocalStore_RejectsOutsidePaths(t *testing.T) {
	store := createTestStore(t)
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := store.Remove(outside); !errors.Is(err, ErrOutsideStore) {
		t.Errorf("Expected ErrOutsideStore, got %v", err)
	}
	if _, err := store.Open("../secret.txt"); !errors.Is(err, ErrOutsideStore) {
		t.Errorf("Expected ErrOutsideStore, got %v", err)
	}
	if store.Exists(outside) {
		t.Error("Expected Exists to be false outside the store")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("Expected outside file to be untouched")
	}
}
