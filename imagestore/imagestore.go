package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/planetland/backend/conversion"
	"github.com/planetland/backend/models"
	"github.com/planetland/backend/storage"
)

var (
	documentLocksMu sync.Mutex
	documentLocks   = make(map[string]*sync.RWMutex)
)

// documentLock returns the process-wide lock for a collection document.
func documentLock(key string) *sync.RWMutex {
	documentLocksMu.Lock()
	defer documentLocksMu.Unlock()

	lock, ok := documentLocks[key]
	if !ok {
		lock = &sync.RWMutex{}
		documentLocks[key] = lock
	}
	return lock
}

// Store owns the image collection document and the image files on disk.
// Every read-modify-write cycle on the document runs under one lock.
type Store struct {
	diskManager   *storage.DiskManager
	repository    CollectionRepository
	pathGenerator PathGenerator
	deriver       conversion.Deriver
	properties    PropertyChecker
	logger        Logger
	opts          *Options
	lock          *sync.RWMutex
}

var _ ImageStore = (*Store)(nil)

// New creates a store and bootstraps its directories.
func New(diskManager *storage.DiskManager, repository CollectionRepository, options ...Option) (*Store, error) {
	opts := &Options{
		Disk:                DefaultDiskName,
		UploadsDir:          "uploads",
		DataDir:             "data",
		PathGeneratorPrefix: DefaultPathPrefix,
		MaxFileSize:         DefaultMaxFileSize,
		MaxBulkFiles:        DefaultMaxBulkFiles,
		DefaultType:         DefaultImageType,
		LogLevel:            LogLevelInfo,
		Clock:               time.Now,
	}

	for _, opt := range options {
		opt(opts)
	}

	if repository == nil {
		return nil, fmt.Errorf("collection repository is required")
	}
	if diskManager == nil || !diskManager.HasDisk(opts.Disk) {
		return nil, fmt.Errorf("disk %s is not registered", opts.Disk)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.MaxBulkFiles <= 0 {
		opts.MaxBulkFiles = DefaultMaxBulkFiles
	}
	if opts.DefaultType == "" {
		opts.DefaultType = DefaultImageType
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewDefaultLogger(opts.LogLevel, nil)
	}

	deriver := opts.Deriver
	if deriver == nil {
		deriver = conversion.CopyDeriver{}
	}

	s := &Store{
		diskManager:   diskManager,
		repository:    repository,
		pathGenerator: &DefaultPathGenerator{prefix: opts.PathGeneratorPrefix},
		deriver:       deriver,
		properties:    opts.Properties,
		logger:        logger,
		opts:          opts,
		lock:          documentLock(repository.Key()),
	}

	if err := s.Bootstrap(); err != nil {
		return nil, err
	}

	return s, nil
}

// Bootstrap creates the uploads, temp, per-property and data directories.
// It is safe to call repeatedly.
func (s *Store) Bootstrap() error {
	dirs := []string{
		s.opts.UploadsDir,
		s.TempDir(),
		filepath.Join(s.opts.UploadsDir, filepath.FromSlash(s.opts.PathGeneratorPrefix)),
		s.opts.DataDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			s.logger.Error("Failed to create directory %s: %v", dir, err)
			return storageError("Failed to prepare storage directories", err)
		}
	}

	s.logger.Debug("Directories ready under %s and %s", s.opts.UploadsDir, s.opts.DataDir)
	return nil
}

func (s *Store) TempDir() string {
	return filepath.Join(s.opts.UploadsDir, "temp")
}

func (s *Store) now() time.Time {
	return s.opts.Clock()
}

func (s *Store) imageType(t string) string {
	if t == "" {
		return s.opts.DefaultType
	}
	return t
}

func (s *Store) disk() (storage.Storage, error) {
	disk, err := s.diskManager.GetDisk(s.opts.Disk)
	if err != nil {
		s.logger.Error("Failed to get disk %s: %v", s.opts.Disk, err)
		return nil, storageError("Image storage is unavailable", err)
	}
	return disk, nil
}

// recoverOp turns a panic inside an operation into a storage error.
func (s *Store) recoverOp(op string, err *error) {
	if r := recover(); r != nil {
		s.logger.Error("Recovered from panic in %s: %v", op, r)
		*err = storageError("Failed to "+op, fmt.Errorf("panic: %v", r))
	}
}

func (s *Store) load(ctx context.Context) (*models.ImageCollection, error) {
	collection, err := s.repository.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to read image collection %s: %v", s.repository.Key(), err)
		return nil, storageError("Failed to read image data", err)
	}
	if collection.PropertyImages == nil {
		collection.PropertyImages = []models.ImageRecord{}
	}
	return collection, nil
}

// view runs fn against a freshly loaded collection under the read lock.
func (s *Store) view(ctx context.Context, op string, fn func(*models.ImageCollection) error) (err error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	defer s.recoverOp(op, &err)

	collection, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(collection)
}

// mutate loads the collection, applies fn and saves the result, all under
// the write lock. fn reports whether anything changed.
func (s *Store) mutate(ctx context.Context, op string, fn func(*models.ImageCollection) (bool, error)) (err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	defer s.recoverOp(op, &err)

	collection, err := s.load(ctx)
	if err != nil {
		return err
	}

	changed, err := fn(collection)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := s.repository.Save(ctx, collection); err != nil {
		s.logger.Error("Failed to write image collection %s: %v", s.repository.Key(), err)
		return storageError("Failed to save image data", err)
	}
	return nil
}

func validatePropertyID(propertyID string) error {
	if strings.TrimSpace(propertyID) == "" {
		return validationError("Property ID is required")
	}
	if strings.ContainsAny(propertyID, `/\`+"\x00") || propertyID == "." || strings.Contains(propertyID, "..") {
		return validationError("Invalid property ID")
	}
	return nil
}

func (s *Store) checkProperty(ctx context.Context, propertyID string) error {
	if err := validatePropertyID(propertyID); err != nil {
		return err
	}
	if s.properties == nil {
		return nil
	}

	exists, err := s.properties.Exists(ctx, propertyID)
	if err != nil {
		s.logger.Error("Failed to look up property %s: %v", propertyID, err)
		return storageError("Failed to read property data", err)
	}
	if !exists {
		return notFoundError("Property not found")
	}
	return nil
}

// ListImages returns every stored image
func (s *Store) ListImages(ctx context.Context) ([]models.ImageRecord, error) {
	var images []models.ImageRecord
	err := s.view(ctx, "get images", func(c *models.ImageCollection) error {
		images = c.PropertyImages
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// ListPropertyImages returns the images of one property in stored order
func (s *Store) ListPropertyImages(ctx context.Context, propertyID string) ([]models.ImageRecord, error) {
	if err := validatePropertyID(propertyID); err != nil {
		return nil, err
	}

	var images []models.ImageRecord
	err := s.view(ctx, "get property images", func(c *models.ImageCollection) error {
		images = c.ForProperty(propertyID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
