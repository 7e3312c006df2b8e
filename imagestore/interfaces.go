package imagestore

import (
	"context"
	"io"

	"github.com/planetland/backend/models"
)

// ImageStore defines the operations over property images
type ImageStore interface {
	ListImages(ctx context.Context) ([]models.ImageRecord, error)

	ListPropertyImages(ctx context.Context, propertyID string) ([]models.ImageRecord, error)

	AddImage(ctx context.Context, propertyID string, file *FileUpload, details ImageDetails) (*models.ImageRecord, error)

	AddImageURL(ctx context.Context, propertyID string, url string, details ImageDetails) (*models.ImageRecord, error)

	UpdateImage(ctx context.Context, propertyID, imageID string, update ImageUpdate) (*models.ImageRecord, error)

	DeleteImage(ctx context.Context, propertyID, imageID string) error

	BulkUpload(ctx context.Context, propertyID string, files []*FileUpload, descriptions, types []string) ([]models.ImageRecord, error)

	Import(ctx context.Context, r io.Reader) (*ImportResult, error)

	ImportFile(ctx context.Context, path string) (*ImportResult, error)

	Export(ctx context.Context, propertyID string) (*models.ImageCollection, error)

	Reorder(ctx context.Context, propertyID string, req ReorderRequest) error

	// TempDir is where callers spool uploads before handing them to the store.
	TempDir() string
}

// CollectionRepository loads and saves the whole image collection document
type CollectionRepository interface {
	// Load returns an empty collection when the document does not exist yet
	// and an error when it cannot be decoded.
	Load(ctx context.Context) (*models.ImageCollection, error)

	Save(ctx context.Context, collection *models.ImageCollection) error

	// Key identifies the document; stores sharing a key share a lock.
	Key() string
}

// PathGenerator defines the interface for generating disk paths for image files
type PathGenerator interface {
	GetPath(propertyID, filename string) string

	GetThumbnailPath(propertyID, filename string) string
}

// PropertyChecker reports whether a property exists
type PropertyChecker interface {
	Exists(ctx context.Context, propertyID string) (bool, error)
}
