package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"PriceCast/internal/domain/models"
)

func TestFileArtifactStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileArtifactStore(filepath.Join(dir, "models"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Get(ctx, "model.json"); !errors.Is(err, models.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
	if err := s.Put(ctx, "model.json", []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "model.json", []byte("v2")); err != nil {
		t.Fatalf("put again: %v", err)
	}
	got, err := s.Get(ctx, "model.json")
	if err != nil || string(got) != "v2" {
		t.Fatalf("get = %q, %v", got, err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "models"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileArtifactStoreRejectsPaths(t *testing.T) {
	s, _ := NewFileArtifactStore(t.TempDir())
	if err := s.Put(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatalf("expected error for path traversal")
	}
}
