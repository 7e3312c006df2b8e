package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/planetland/backend/models"
)

func TestJSONFileRepositoryMissingDocument(t *testing.T) {
	repo := NewJSONFileRepository(filepath.Join(t.TempDir(), "data", DefaultImagesFile))

	c, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.PropertyImages == nil || len(c.PropertyImages) != 0 {
		t.Fatalf("expected empty collection, got %#v", c.PropertyImages)
	}
}

func TestJSONFileRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	repo := NewJSONFileRepository(filepath.Join(dir, DefaultImagesFile))

	want := &models.ImageCollection{PropertyImages: []models.ImageRecord{
		{ID: "img-1", PropertyID: "101", URL: "/uploads/a.jpg", Type: "exterior", Order: 1},
	}}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if raw[0] != '{' || raw[1] != '\n' || raw[2] != ' ' || raw[3] != ' ' {
		t.Fatalf("expected two-space indented JSON, got %q", raw[:8])
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the document in %s, found %d entries", dir, len(entries))
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.PropertyImages) != 1 || got.PropertyImages[0] != want.PropertyImages[0] {
		t.Fatalf("round trip mismatch: %+v", got.PropertyImages)
	}
}

func TestJSONFileRepositoryMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultImagesFile)
	if err := os.WriteFile(path, []byte(`{"property_images": [`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewJSONFileRepository(path).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestJSONFileRepositoryKeyIsAbsolute(t *testing.T) {
	repo := NewJSONFileRepository(filepath.Join("data", DefaultImagesFile))
	if !filepath.IsAbs(repo.Key()) {
		t.Fatalf("expected absolute key, got %s", repo.Key())
	}
}
