package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	location, err := store.Save(context.Background(), "My Clip.mp4", strings.NewReader("video-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if !strings.HasPrefix(location, "/uploads/") {
		t.Fatalf("expected location under /uploads, got %q", location)
	}
	if !strings.HasSuffix(location, ".mp4") {
		t.Fatalf("expected extension preserved, got %q", location)
	}

	filename := strings.TrimPrefix(location, "/uploads/")
	contents, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(contents) != "video-bytes" {
		t.Fatalf("unexpected stored contents: %q", contents)
	}
}

func TestLocalStorageSaveStripsPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}

	location, err := store.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	filename := strings.TrimPrefix(location, "/uploads/")
	if strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		t.Fatalf("expected sanitized filename, got %q", filename)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one stored file, got %d", len(entries))
	}
}

func TestLocalStorageRequiresDir(t *testing.T) {
	if _, err := NewLocalStorage("  ", "/uploads"); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
