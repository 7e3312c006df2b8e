package imagestore

import (
	"context"

	"github.com/planetland/backend/models"
)

// UpdateImage overwrites the provided fields of one image.
func (s *Store) UpdateImage(ctx context.Context, propertyID, imageID string, update ImageUpdate) (*models.ImageRecord, error) {
	if err := validatePropertyID(propertyID); err != nil {
		return nil, err
	}

	var updated models.ImageRecord
	err := s.mutate(ctx, "update image", func(c *models.ImageCollection) (bool, error) {
		i := c.IndexOf(propertyID, imageID)
		if i == -1 {
			return false, notFoundError("Image not found")
		}

		image := &c.PropertyImages[i]
		if update.Description != nil {
			image.Description = *update.Description
		}
		if update.Order != nil {
			image.Order = *update.Order
		}
		if update.Type != nil {
			image.Type = *update.Type
		}
		image.Touch(s.now())

		updated = *image
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updated image %s of property %s", imageID, propertyID)
	return &updated, nil
}

// DeleteImage removes the record and, for uploads, its original and
// thumbnail files. File removal failures are logged only.
func (s *Store) DeleteImage(ctx context.Context, propertyID, imageID string) error {
	if err := validatePropertyID(propertyID); err != nil {
		return err
	}

	var removed models.ImageRecord
	err := s.mutate(ctx, "delete image", func(c *models.ImageCollection) (bool, error) {
		i := c.IndexOf(propertyID, imageID)
		if i == -1 {
			return false, notFoundError("Image not found")
		}

		removed = c.PropertyImages[i]
		c.PropertyImages = append(c.PropertyImages[:i], c.PropertyImages[i+1:]...)
		return true, nil
	})
	if err != nil {
		return err
	}

	if removed.IsUpload() {
		s.deleteFiles(ctx, &removed)
	}

	s.logger.Info("Deleted image %s of property %s", imageID, propertyID)
	return nil
}

func (s *Store) deleteFiles(ctx context.Context, image *models.ImageRecord) {
	if !isPlainFilename(image.Metadata.Filename) || validatePropertyID(image.PropertyID) != nil {
		s.logger.Warning("Refusing to delete files of image %s with unsafe path %q", image.ID, image.Metadata.Filename)
		return
	}

	disk, err := s.disk()
	if err != nil {
		return
	}

	paths := []string{
		s.pathGenerator.GetPath(image.PropertyID, image.Metadata.Filename),
		s.pathGenerator.GetThumbnailPath(image.PropertyID, image.Metadata.Filename),
	}
	for _, p := range paths {
		if err := disk.Delete(ctx, p); err != nil {
			s.logger.Warning("Failed to delete file %s for image %s: %v", p, image.ID, err)
		}
	}
}

// Reorder applies new order values to a property's images. A request
// without either form is invalid; an empty map matches nothing.
func (s *Store) Reorder(ctx context.Context, propertyID string, req ReorderRequest) error {
	if err := validatePropertyID(propertyID); err != nil {
		return err
	}
	if len(req.OrderedIDs) == 0 && req.OrderMap == nil {
		return validationError("Invalid order map")
	}

	err := s.mutate(ctx, "reorder images", func(c *models.ImageCollection) (bool, error) {
		if len(req.OrderedIDs) > 0 {
			return true, applyOrderedIDs(c, propertyID, req.OrderedIDs)
		}
		return true, applyOrderMap(c, propertyID, req.OrderMap)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Reordered images of property %s", propertyID)
	return nil
}

func applyOrderMap(c *models.ImageCollection, propertyID string, orderMap map[string]int) error {
	updated := false
	for i := range c.PropertyImages {
		image := &c.PropertyImages[i]
		if image.PropertyID != propertyID {
			continue
		}
		if order, ok := orderMap[image.ID]; ok {
			image.Order = order
			updated = true
		}
	}
	if !updated {
		return notFoundError("No images found for the given property ID")
	}
	return nil
}

// applyOrderedIDs validates the whole list before touching any record.
func applyOrderedIDs(c *models.ImageCollection, propertyID string, ids []string) error {
	positions := make(map[string]int, len(c.PropertyImages))
	for i, image := range c.PropertyImages {
		if image.PropertyID == propertyID {
			positions[image.ID] = i
		}
	}
	if len(positions) == 0 {
		return notFoundError("No images found for the given property ID")
	}
	if len(ids) != len(positions) {
		return validationError("Expected %d image IDs, got %d", len(positions), len(ids))
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := positions[id]; !ok {
			return validationError("Image %s does not belong to property %s", id, propertyID)
		}
		if seen[id] {
			return validationError("Image %s is listed more than once", id)
		}
		seen[id] = true
	}

	for order, id := range ids {
		c.PropertyImages[positions[id]].Order = order + 1
	}
	return nil
}
