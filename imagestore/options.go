package imagestore

import (
	"time"

	"github.com/planetland/backend/conversion"
)

const (
	DefaultMaxFileSize  int64 = 10 << 20
	DefaultMaxBulkFiles       = 20
	DefaultImageType          = "exterior"
	DefaultDiskName           = "local"
	DefaultPathPrefix         = "properties"
)

// Option is a function that configures Options
type Option func(*Options)

// Options holds the configuration for the store
type Options struct {
	Disk                string
	UploadsDir          string
	DataDir             string
	PathGeneratorPrefix string
	MaxFileSize         int64
	MaxBulkFiles        int
	DefaultType         string
	LogLevel            LogLevel
	Logger              Logger
	Deriver             conversion.Deriver
	Properties          PropertyChecker
	Clock               func() time.Time
}

// WithDisk selects the disk that receives originals and thumbnails
func WithDisk(disk string) Option {
	return func(o *Options) {
		o.Disk = disk
	}
}

// WithUploadsDir sets the uploads root created at bootstrap
func WithUploadsDir(dir string) Option {
	return func(o *Options) {
		o.UploadsDir = dir
	}
}

// WithDataDir sets the directory holding the JSON documents
func WithDataDir(dir string) Option {
	return func(o *Options) {
		o.DataDir = dir
	}
}

// WithPathGeneratorPrefix sets the path prefix for the path generator
func WithPathGeneratorPrefix(prefix string) Option {
	return func(o *Options) {
		o.PathGeneratorPrefix = prefix
	}
}

// WithMaxFileSize limits the size of a single upload in bytes
func WithMaxFileSize(size int64) Option {
	return func(o *Options) {
		o.MaxFileSize = size
	}
}

// WithMaxBulkFiles limits how many files one bulk upload may carry
func WithMaxBulkFiles(n int) Option {
	return func(o *Options) {
		o.MaxBulkFiles = n
	}
}

// WithDefaultType sets the type given to images added without one
func WithDefaultType(imageType string) Option {
	return func(o *Options) {
		o.DefaultType = imageType
	}
}

// WithLogLevel sets the log level for the default logger
func WithLogLevel(level LogLevel) Option {
	return func(o *Options) {
		o.LogLevel = level
	}
}

// WithLogger replaces the default logger
func WithLogger(logger Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithDeriver sets the thumbnail derivation step
func WithDeriver(deriver conversion.Deriver) Option {
	return func(o *Options) {
		o.Deriver = deriver
	}
}

// WithPropertyChecker makes add operations reject unknown property ids
func WithPropertyChecker(checker PropertyChecker) Option {
	return func(o *Options) {
		o.Properties = checker
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}
