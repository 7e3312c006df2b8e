package imagestore

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/planetland/backend/models"
	"github.com/planetland/backend/storage"
)

func newImageID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return "img-" + id.String(), nil
}

// storeUpload writes the original and its thumbnail to the disk and returns
// the record for them. The order is left for the caller to assign.
func (s *Store) storeUpload(ctx context.Context, propertyID string, file *FileUpload, details ImageDetails) (*models.ImageRecord, error) {
	if file == nil || file.Content == nil {
		return nil, validationError("No image file uploaded")
	}
	if file.Size > s.opts.MaxFileSize {
		return nil, validationError("File exceeds the %d byte limit", s.opts.MaxFileSize)
	}

	data, tooLarge, err := readUpload(file.Content, s.opts.MaxFileSize)
	if err != nil {
		s.logger.Error("Failed to read upload %s: %v", file.OriginalName, err)
		return nil, storageError("Failed to read uploaded file", err)
	}
	if tooLarge {
		return nil, validationError("File exceeds the %d byte limit", s.opts.MaxFileSize)
	}
	if len(data) == 0 {
		return nil, validationError("Uploaded file is empty")
	}

	mimeType, detectedExt := detectMimeType(data)
	if !isImageMimeType(mimeType) {
		s.logger.Warning("Rejected upload %s with mime type %s", file.OriginalName, mimeType)
		return nil, validationError("Only image files are allowed")
	}
	s.logger.Debug("Detected mime type: %s for file size: %d bytes", mimeType, len(data))

	imageID, err := newImageID()
	if err != nil {
		s.logger.Error("Failed to generate UUID: %v", err)
		return nil, storageError("Failed to generate image ID", err)
	}

	ext := strings.ToLower(filepath.Ext(file.OriginalName))
	if ext == "" {
		ext = detectedExt
	}
	filename := imageID + ext

	disk, err := s.disk()
	if err != nil {
		return nil, err
	}

	originalPath := s.pathGenerator.GetPath(propertyID, filename)
	s.logger.Info("Saving upload %s to path %s", file.OriginalName, originalPath)

	err = disk.Save(ctx, originalPath, bytes.NewReader(data),
		storage.WithVisibility(storage.VisibilityPublic),
		storage.WithCacheControl(storage.ImmutableCacheControl),
		storage.WithContentType(mimeType))
	if err != nil {
		s.logger.Error("Failed to store file: %v", err)
		return nil, storageError("Failed to store image file", err)
	}

	thumbnail, err := s.deriver.Derive(ctx, data, filename)
	if err != nil {
		s.logger.Error("Failed to derive thumbnail for %s: %v", filename, err)
		if derr := disk.Delete(ctx, originalPath); derr != nil {
			s.logger.Warning("Failed to remove original %s: %v", originalPath, derr)
		}
		return nil, storageError("Failed to create thumbnail", err)
	}

	thumbnailPath := s.pathGenerator.GetThumbnailPath(propertyID, filename)
	err = disk.Save(ctx, thumbnailPath, bytes.NewReader(thumbnail),
		storage.WithVisibility(storage.VisibilityPublic),
		storage.WithCacheControl(storage.ImmutableCacheControl),
		storage.WithContentType(mimeType))
	if err != nil {
		s.logger.Error("Failed to store thumbnail: %v", err)
		if derr := disk.Delete(ctx, originalPath); derr != nil {
			s.logger.Warning("Failed to remove original %s: %v", originalPath, derr)
		}
		return nil, storageError("Failed to store thumbnail", err)
	}

	return &models.ImageRecord{
		ID:           imageID,
		PropertyID:   propertyID,
		URL:          disk.URL(originalPath),
		ThumbnailURL: disk.URL(thumbnailPath),
		Description:  details.Description,
		Type:         s.imageType(details.Type),
		Timestamp:    models.FormatTimestamp(s.now()),
		Metadata: &models.ImageMetadata{
			Filename:     filename,
			OriginalName: file.OriginalName,
			Size:         int64(len(data)),
			MimeType:     mimeType,
		},
	}, nil
}

// AddImage stores one uploaded image and appends it after the property's
// existing images.
func (s *Store) AddImage(ctx context.Context, propertyID string, file *FileUpload, details ImageDetails) (*models.ImageRecord, error) {
	s.logger.Debug("Adding uploaded image to property %s", propertyID)

	if err := s.checkProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	image, err := s.storeUpload(ctx, propertyID, file, details)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, "add image", func(c *models.ImageCollection) (bool, error) {
		image.Order = c.CountForProperty(propertyID) + 1
		c.PropertyImages = append(c.PropertyImages, *image)
		return true, nil
	})
	if err != nil {
		s.deleteFiles(ctx, image)
		return nil, err
	}

	s.logger.Info("Added image %s to property %s", image.ID, propertyID)
	return image, nil
}

// AddImageURL records an externally hosted image without any file I/O.
func (s *Store) AddImageURL(ctx context.Context, propertyID string, url string, details ImageDetails) (*models.ImageRecord, error) {
	s.logger.Debug("Adding image from URL: %s to property %s", url, propertyID)

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, validationError("Image URL is required")
	}
	if err := s.checkProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	imageID, err := newImageID()
	if err != nil {
		s.logger.Error("Failed to generate UUID: %v", err)
		return nil, storageError("Failed to generate image ID", err)
	}

	image := &models.ImageRecord{
		ID:           imageID,
		PropertyID:   propertyID,
		URL:          url,
		ThumbnailURL: url,
		Description:  details.Description,
		Type:         s.imageType(details.Type),
		Timestamp:    models.FormatTimestamp(s.now()),
		Metadata:     &models.ImageMetadata{Source: "url"},
	}

	err = s.mutate(ctx, "add image URL", func(c *models.ImageCollection) (bool, error) {
		image.Order = c.CountForProperty(propertyID) + 1
		c.PropertyImages = append(c.PropertyImages, *image)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Added URL image %s to property %s", image.ID, propertyID)
	return image, nil
}

// BulkUpload stores several files and writes the collection once. A failing
// file aborts the rest and the files already written for the batch are
// removed again.
func (s *Store) BulkUpload(ctx context.Context, propertyID string, files []*FileUpload, descriptions, types []string) (_ []models.ImageRecord, err error) {
	if len(files) == 0 {
		return nil, validationError("No image files uploaded")
	}
	if len(files) > s.opts.MaxBulkFiles {
		return nil, validationError("At most %d files can be uploaded at once", s.opts.MaxBulkFiles)
	}
	if err := s.checkProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	s.logger.Info("Bulk uploading %d images to property %s", len(files), propertyID)

	images := make([]models.ImageRecord, 0, len(files))
	defer func() {
		if err == nil {
			return
		}
		for i := range images {
			s.deleteFiles(ctx, &images[i])
		}
	}()

	for i, file := range files {
		details := ImageDetails{
			Description: valueAt(descriptions, i),
			Type:        valueAt(types, i),
		}

		image, err := s.storeUpload(ctx, propertyID, file, details)
		if err != nil {
			s.logger.Warning("Bulk upload to %s stopped at file %d of %d: %v", propertyID, i+1, len(files), err)
			return nil, err
		}
		images = append(images, *image)
	}

	err = s.mutate(ctx, "bulk upload images", func(c *models.ImageCollection) (bool, error) {
		base := c.MaxOrderForProperty(propertyID)
		for i := range images {
			images[i].Order = base + i + 1
		}
		c.PropertyImages = append(c.PropertyImages, images...)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return images, nil
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
