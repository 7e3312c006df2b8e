package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PLANETLAND_"

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Data    DataConfig    `yaml:"data"`
	Images  ImagesConfig  `yaml:"images"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string   `yaml:"host"`
	Port                   int      `yaml:"port"`
	CORSOrigins            []string `yaml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// StorageConfig selects the disk for image files
type StorageConfig struct {
	Disk       string   `yaml:"disk"`
	UploadsDir string   `yaml:"uploads_dir"`
	PublicURL  string   `yaml:"public_url"`
	S3         S3Config `yaml:"s3"`
}

// S3Config contains S3 bucket settings
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	BaseURL   string `yaml:"base_url"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// DataConfig says where the JSON documents live
type DataConfig struct {
	Dir            string         `yaml:"dir"`
	ImagesFile     string         `yaml:"images_file"`
	PropertiesFile string         `yaml:"properties_file"`
	Backend        string         `yaml:"backend"`
	DocumentName   string         `yaml:"document_name"`
	Postgres       PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// ImagesConfig contains upload limits and thumbnail settings
type ImagesConfig struct {
	MaxFileSizeMB      int             `yaml:"max_file_size_mb"`
	MaxBulkFiles       int             `yaml:"max_bulk_files"`
	DefaultType        string          `yaml:"default_type"`
	ValidateProperties bool            `yaml:"validate_properties"`
	Thumbnail          ThumbnailConfig `yaml:"thumbnail"`
}

// ThumbnailConfig selects how thumbnails are derived
type ThumbnailConfig struct {
	Mode    string `yaml:"mode"`
	Fit     string `yaml:"fit"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Quality int    `yaml:"quality"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "",
			Port:                   5000,
			CORSOrigins:            []string{"*"},
			ShutdownTimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			Disk:       "local",
			UploadsDir: "uploads",
			PublicURL:  "/uploads",
		},
		Data: DataConfig{
			Dir:            "data",
			ImagesFile:     "property_images.json",
			PropertiesFile: "properties.json",
			Backend:        "file",
			DocumentName:   "property_images",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Images: ImagesConfig{
			MaxFileSizeMB: 10,
			MaxBulkFiles:  20,
			DefaultType:   "exterior",
			Thumbnail: ThumbnailConfig{
				Mode:    "copy",
				Fit:     "contain",
				Width:   400,
				Height:  300,
				Quality: 85,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path (if it exists), then .env, then PLANETLAND_* variables.
func Load(path string) (*Config, error) {
	return LoadWithEnvFile(path, ".env")
}

// LoadWithEnvFile is Load with an explicit dotenv file. Variables already
// set in the process environment win over the dotenv file.
func LoadWithEnvFile(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
		if values != nil {
			dotenv = values
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok && v != ""
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var firstErr error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
				}
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
				}
				return
			}
			*dst = b
		}
	}

	str("HOST", &c.Server.Host)
	num("PORT", &c.Server.Port)
	if v, ok := lookup("CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}

	str("DISK", &c.Storage.Disk)
	str("UPLOADS_DIR", &c.Storage.UploadsDir)
	str("PUBLIC_URL", &c.Storage.PublicURL)
	str("S3_BUCKET", &c.Storage.S3.Bucket)
	str("S3_REGION", &c.Storage.S3.Region)
	str("S3_ENDPOINT", &c.Storage.S3.Endpoint)
	str("S3_PREFIX", &c.Storage.S3.Prefix)
	str("S3_BASE_URL", &c.Storage.S3.BaseURL)
	str("S3_ACCESS_KEY", &c.Storage.S3.AccessKey)
	str("S3_SECRET_KEY", &c.Storage.S3.SecretKey)

	str("DATA_DIR", &c.Data.Dir)
	str("DATA_BACKEND", &c.Data.Backend)
	str("POSTGRES_HOST", &c.Data.Postgres.Host)
	num("POSTGRES_PORT", &c.Data.Postgres.Port)
	str("POSTGRES_USER", &c.Data.Postgres.User)
	str("POSTGRES_PASSWORD", &c.Data.Postgres.Password)
	str("POSTGRES_DATABASE", &c.Data.Postgres.Database)
	str("POSTGRES_SSLMODE", &c.Data.Postgres.SSLMode)

	num("MAX_FILE_SIZE_MB", &c.Images.MaxFileSizeMB)
	num("MAX_BULK_FILES", &c.Images.MaxBulkFiles)
	str("DEFAULT_IMAGE_TYPE", &c.Images.DefaultType)
	flag("VALIDATE_PROPERTIES", &c.Images.ValidateProperties)
	str("THUMBNAIL_MODE", &c.Images.Thumbnail.Mode)
	str("THUMBNAIL_FIT", &c.Images.Thumbnail.Fit)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FILE", &c.Logging.File)

	return firstErr
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Storage.Disk {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 disk requires a bucket")
		}
	default:
		return fmt.Errorf("unknown storage disk %q", c.Storage.Disk)
	}
	switch c.Data.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown data backend %q", c.Data.Backend)
	}
	switch c.Images.Thumbnail.Mode {
	case "copy", "resize":
	default:
		return fmt.Errorf("unknown thumbnail mode %q", c.Images.Thumbnail.Mode)
	}
	if c.Images.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max_file_size_mb must be positive")
	}
	if c.Images.MaxBulkFiles <= 0 {
		return fmt.Errorf("max_bulk_files must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// ImagesPath returns the image collection document path
func (c *DataConfig) ImagesPath() string {
	return filepath.Join(c.Dir, c.ImagesFile)
}

// PropertiesPath returns the properties document path
func (c *DataConfig) PropertiesPath() string {
	return filepath.Join(c.Dir, c.PropertiesFile)
}

// DSN builds the PostgreSQL connection string
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// MaxFileSize returns the upload limit in bytes
func (c *ImagesConfig) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
