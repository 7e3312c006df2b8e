package imagestore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"strings"

	"github.com/planetland/backend/models"
)

type recordKey struct {
	id         string
	propertyID string
}

// decodeImport validates the shape of an import document.
func decodeImport(data []byte) ([]models.ImageRecord, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, validationError("Invalid JSON file")
	}

	raw, ok := doc["property_images"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, validationError("Invalid JSON structure")
	}

	var records []models.ImageRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, validationError("Invalid JSON structure")
	}

	for i, record := range records {
		if record.ID == "" || record.PropertyID == "" {
			return nil, validationError("Image %d is missing id or propertyId", i+1)
		}
		if err := validatePropertyID(record.PropertyID); err != nil {
			return nil, validationError("Image %d has an invalid propertyId", i+1)
		}
		if record.Metadata != nil && !isPlainFilename(record.Metadata.Filename) {
			return nil, validationError("Image %d has an invalid metadata filename", i+1)
		}
	}
	return records, nil
}

// isPlainFilename reports whether name is empty or a bare file name that
// stays inside its property folder.
func isPlainFilename(name string) bool {
	if name == "" {
		return true
	}
	if strings.ContainsAny(name, `/\`+"\x00") || strings.Contains(name, "..") {
		return false
	}
	return path.Base(name) == name
}

// Import merges a {property_images: [...]} document into the collection.
// Records whose (id, propertyId) already exist are skipped, not overwritten.
func (s *Store) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	data, tooLarge, err := readUpload(r, s.opts.MaxFileSize)
	if err != nil {
		s.logger.Error("Failed to read import document: %v", err)
		return nil, storageError("Failed to read import file", err)
	}
	if tooLarge {
		return nil, validationError("File exceeds the %d byte limit", s.opts.MaxFileSize)
	}

	records, err := decodeImport(data)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	err = s.mutate(ctx, "import images", func(c *models.ImageCollection) (bool, error) {
		existing := make(map[recordKey]bool, len(c.PropertyImages)+len(records))
		for _, image := range c.PropertyImages {
			existing[recordKey{image.ID, image.PropertyID}] = true
		}

		for _, record := range records {
			key := recordKey{record.ID, record.PropertyID}
			if existing[key] {
				result.Skipped++
				continue
			}
			existing[key] = true
			c.PropertyImages = append(c.PropertyImages, record)
			result.Imported++
		}
		return result.Imported > 0, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Imported %d images, skipped %d duplicates", result.Imported, result.Skipped)
	return result, nil
}

// ImportFile imports from a temporary file and removes it on every path.
func (s *Store) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warning("Failed to remove temporary import file %s: %v", path, err)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		s.logger.Error("Failed to open import file %s: %v", path, err)
		return nil, storageError("Failed to read import file", err)
	}
	defer file.Close()

	return s.Import(ctx, file)
}

// Export returns the whole collection, or only propertyID's images when set.
func (s *Store) Export(ctx context.Context, propertyID string) (*models.ImageCollection, error) {
	if propertyID != "" {
		if err := validatePropertyID(propertyID); err != nil {
			return nil, err
		}
	}

	var exported *models.ImageCollection
	err := s.view(ctx, "export images", func(c *models.ImageCollection) error {
		if propertyID == "" {
			exported = c
			return nil
		}
		exported = &models.ImageCollection{PropertyImages: c.ForProperty(propertyID)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exported, nil
}
