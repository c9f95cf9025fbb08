package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorePutDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/media")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	url, err := s.Put(ctx, "injury_reports/abc.jpg", []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/media/injury_reports/abc.jpg" {
		t.Fatalf("url = %q", url)
	}
	got, err := os.ReadFile(filepath.Join(dir, "injury_reports", "abc.jpg"))
	if err != nil || string(got) != "jpeg" {
		t.Fatalf("stored content = %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "injury_reports", "abc.jpg.part")); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}

	if err := s.Delete(ctx, "injury_reports/abc.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "injury_reports/abc.jpg"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if _, err := s.Put(context.Background(), "../escape.jpg", []byte("x"), ""); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if _, err := NewLocalStore("  ", ""); err == nil {
		t.Fatal("expected blank base path error")
	}
}
