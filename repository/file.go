package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/planetland/backend/imagestore"
	"github.com/planetland/backend/models"
)

// DefaultImagesFile is the document name inside the data directory.
const DefaultImagesFile = "property_images.json"

// JSONFileRepository keeps the image collection in one JSON file.
type JSONFileRepository struct {
	path string
}

// NewJSONFileRepository creates a repository for the document at path.
func NewJSONFileRepository(path string) *JSONFileRepository {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &JSONFileRepository{path: path}
}

// Path returns the absolute document path
func (r *JSONFileRepository) Path() string {
	return r.path
}

func (r *JSONFileRepository) Key() string {
	return r.path
}

// Load reads the document. A missing file is an empty collection.
func (r *JSONFileRepository) Load(ctx context.Context) (*models.ImageCollection, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewImageCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}

	collection := models.NewImageCollection()
	if err := json.Unmarshal(data, collection); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.path, err)
	}
	if collection.PropertyImages == nil {
		collection.PropertyImages = []models.ImageRecord{}
	}
	return collection, nil
}

// Save replaces the document through a temp file and rename, so readers
// never see a partial write.
func (r *JSONFileRepository) Save(ctx context.Context, collection *models.ImageCollection) error {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode image collection: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}

	return nil
}

var _ imagestore.CollectionRepository = (*JSONFileRepository)(nil)
