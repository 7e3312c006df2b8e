package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Storage is a disk holding binary image assets under relative paths.
type Storage interface {
	Save(ctx context.Context, path string, contents io.Reader, options ...Option) error

	// Delete removes path. A missing path is not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL clients use to fetch path.
	URL(path string) string
}

// Visibility controls whether a saved object may be read anonymously.
// Disks without access control ignore it.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// ImmutableCacheControl suits objects whose path never gets new content.
const ImmutableCacheControl = "public, max-age=31536000, immutable"

// DiskManager keeps the named disks available to the image store.
type DiskManager struct {
	disks map[string]Storage
	mu    sync.RWMutex
}

func NewDiskManager() *DiskManager {
	return &DiskManager{
		disks: make(map[string]Storage),
	}
}

func (dm *DiskManager) AddDisk(name string, disk Storage) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.disks[name] = disk
}

func (dm *DiskManager) GetDisk(name string) (Storage, error) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	disk, ok := dm.disks[name]
	if !ok {
		return nil, fmt.Errorf("disk %s not found (registered: %v)", name, dm.namesLocked())
	}
	return disk, nil
}

func (dm *DiskManager) HasDisk(name string) bool {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	_, ok := dm.disks[name]
	return ok
}

// Names lists the registered disks in sorted order.
func (dm *DiskManager) Names() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.namesLocked()
}

func (dm *DiskManager) namesLocked() []string {
	names := make([]string, 0, len(dm.disks))
	for name := range dm.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Option adjusts how one object is written.
type Option func(*Options)

type Options struct {
	ContentType  string
	Visibility   Visibility
	CacheControl string
}

func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

func WithVisibility(visibility Visibility) Option {
	return func(o *Options) {
		o.Visibility = visibility
	}
}

func WithCacheControl(cacheControl string) Option {
	return func(o *Options) {
		o.CacheControl = cacheControl
	}
}

// NewOptions applies opts over private visibility.
func NewOptions(opts ...Option) *Options {
	options := &Options{Visibility: VisibilityPrivate}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
