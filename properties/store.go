package properties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/planetland/backend/models"
)

// DefaultPropertiesFile is the document name inside the data directory.
const DefaultPropertiesFile = "properties.json"

// ErrNotFound is returned by Get when no property has the id.
var ErrNotFound = errors.New("property not found")

// Store reads properties from a JSON array document. It never writes.
type Store struct {
	path string
}

// NewStore creates a store over the document at path.
func NewStore(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// List returns every property. A missing document is an empty list.
func (s *Store) List(ctx context.Context) ([]models.Property, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Property{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var list []models.Property
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	if list == nil {
		list = []models.Property{}
	}
	return list, nil
}

// Get returns the property with the given id.
func (s *Store) Get(ctx context.Context, id string) (models.Property, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range list {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// Exists reports whether a property with the id is listed.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
