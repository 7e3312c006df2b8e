package main

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/planetland/backend/config"
	"github.com/planetland/backend/conversion"
	"github.com/planetland/backend/imagestore"
	"github.com/planetland/backend/logging"
	"github.com/planetland/backend/properties"
	"github.com/planetland/backend/repository"
	"github.com/planetland/backend/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// app holds the wired services for one command run.
type app struct {
	cfg        *config.Config
	logWriter  io.Writer
	logger     imagestore.Logger
	store      *imagestore.Store
	properties *properties.Store
	closers    []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	writer, closer, err := logging.Setup(cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	a.logWriter = writer
	a.closers = append(a.closers, closer)
	a.logger = imagestore.NewDefaultLogger(imagestore.ParseLogLevel(cfg.Logging.Level), writer)

	disks, err := a.disks(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	repo, err := a.repository()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.properties = properties.NewStore(cfg.Data.PropertiesPath())

	options := []imagestore.Option{
		imagestore.WithDisk(cfg.Storage.Disk),
		imagestore.WithUploadsDir(cfg.Storage.UploadsDir),
		imagestore.WithDataDir(cfg.Data.Dir),
		imagestore.WithMaxFileSize(cfg.Images.MaxFileSize()),
		imagestore.WithMaxBulkFiles(cfg.Images.MaxBulkFiles),
		imagestore.WithDefaultType(cfg.Images.DefaultType),
		imagestore.WithLogger(a.logger),
	}

	deriver, err := a.deriver()
	if err != nil {
		a.Close()
		return nil, err
	}
	options = append(options, imagestore.WithDeriver(deriver))

	if cfg.Images.ValidateProperties {
		options = append(options, imagestore.WithPropertyChecker(a.properties))
	}

	a.store, err = imagestore.New(disks, repo, options...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create image store: %w", err)
	}

	return a, nil
}

func (a *app) disks(ctx context.Context) (*storage.DiskManager, error) {
	disks := storage.NewDiskManager()

	local, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: a.cfg.Storage.UploadsDir,
		BaseURL:  a.cfg.Storage.PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local disk: %w", err)
	}
	disks.AddDisk("local", local)

	if a.cfg.Storage.Disk == "s3" {
		s3cfg := a.cfg.Storage.S3
		s3Disk, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:     s3cfg.Bucket,
			Region:     s3cfg.Region,
			Endpoint:   s3cfg.Endpoint,
			Prefix:     s3cfg.Prefix,
			BaseURL:    s3cfg.BaseURL,
			PublicURLs: true,
			AccessKey:  s3cfg.AccessKey,
			SecretKey:  s3cfg.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 disk: %w", err)
		}
		disks.AddDisk("s3", s3Disk)
	}

	return disks, nil
}

func (a *app) repository() (imagestore.CollectionRepository, error) {
	if a.cfg.Data.Backend != "postgres" {
		return repository.NewJSONFileRepository(a.cfg.Data.ImagesPath()), nil
	}

	db, err := gorm.Open(postgres.Open(a.cfg.Data.Postgres.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	a.closers = append(a.closers, sqlDB)

	repo := repository.NewGormCollectionRepository(db, a.cfg.Data.DocumentName)
	if err := repo.AutoMigrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (a *app) deriver() (conversion.Deriver, error) {
	thumb := a.cfg.Images.Thumbnail
	if thumb.Mode != "resize" {
		return conversion.CopyDeriver{}, nil
	}

	fit, err := conversion.ParseFit(thumb.Fit)
	if err != nil {
		return nil, fmt.Errorf("invalid thumbnail config: %w", err)
	}

	transformer := conversion.NewImagingTransformer(conversion.WithFit(fit))
	transformer.RegisterThumbnail(thumb.Width, thumb.Height)
	return conversion.NewImagingDeriver(transformer, conversion.ThumbnailConversion, conversion.WithQuality(thumb.Quality)), nil
}

// staticRoute is the image subtree of the uploads dir and the URL it is
// served under. Both are empty when images live on a remote disk. The temp
// dir beside it is never served.
func (a *app) staticRoute() (string, string) {
	if a.cfg.Storage.Disk != "local" {
		return "", ""
	}
	return path.Join(a.cfg.Storage.PublicURL, imagestore.DefaultPathPrefix),
		filepath.Join(a.cfg.Storage.UploadsDir, imagestore.DefaultPathPrefix)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Warning("Failed to close resource: %v", err)
		}
	}
	a.closers = nil
}
