package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/planetland/backend/imagestore"
	"github.com/planetland/backend/models"
)

// PropertySource lists the read-only property documents.
type PropertySource interface {
	List(ctx context.Context) ([]models.Property, error)
	Get(ctx context.Context, id string) (models.Property, error)
}

// Server exposes the image store and properties over HTTP.
type Server struct {
	store      imagestore.ImageStore
	properties PropertySource
	logger     imagestore.Logger
	opts       *Options
	engine     *gin.Engine
}

// Option is a function that configures Options
type Option func(*Options)

// Options holds the HTTP server configuration
type Options struct {
	Addr            string
	CORSOrigins     []string
	StaticURL       string
	StaticDir       string
	MaxBodySize     int64
	ShutdownTimeout time.Duration
	LogWriter       io.Writer
	Logger          imagestore.Logger
}

// WithAddr sets the listen address
func WithAddr(addr string) Option {
	return func(o *Options) {
		o.Addr = addr
	}
}

// WithCORSOrigins sets the allowed origins; "*" allows all
func WithCORSOrigins(origins ...string) Option {
	return func(o *Options) {
		o.CORSOrigins = origins
	}
}

// WithStatic serves dir under urlPath. Used for the image files of the local disk.
func WithStatic(urlPath, dir string) Option {
	return func(o *Options) {
		o.StaticURL = urlPath
		o.StaticDir = dir
	}
}

// WithMaxBodySize caps request bodies in bytes
func WithMaxBodySize(n int64) Option {
	return func(o *Options) {
		o.MaxBodySize = n
	}
}

// WithShutdownTimeout bounds graceful shutdown
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = d
	}
}

// WithLogWriter sets where request logs go
func WithLogWriter(w io.Writer) Option {
	return func(o *Options) {
		o.LogWriter = w
	}
}

// WithLogger sets the logger for handler errors
func WithLogger(logger imagestore.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// New builds the gin engine and registers every route.
func New(store imagestore.ImageStore, properties PropertySource, options ...Option) *Server {
	opts := &Options{
		Addr:            ":5000",
		CORSOrigins:     []string{"*"},
		MaxBodySize:     (imagestore.DefaultMaxFileSize * imagestore.DefaultMaxBulkFiles) + 1<<20,
		ShutdownTimeout: 10 * time.Second,
		LogWriter:       os.Stdout,
	}
	for _, opt := range options {
		opt(opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = imagestore.NewDefaultLogger(imagestore.LogLevelInfo, opts.LogWriter)
	}

	s := &Server{
		store:      store,
		properties: properties,
		logger:     logger,
		opts:       opts,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(s.opts.LogWriter))
	r.Use(gin.RecoveryWithWriter(s.opts.LogWriter))
	r.Use(cors.New(s.corsConfig()))
	r.MaxMultipartMemory = 8 << 20

	r.GET("/health", s.health)

	if s.opts.StaticDir != "" && s.opts.StaticURL != "" {
		r.Static(s.opts.StaticURL, s.opts.StaticDir)
	}

	api := r.Group("/api")

	images := api.Group("/images")
	images.Use(s.limitBody())
	images.GET("", s.listImages)
	images.GET("/export", s.exportImages)
	images.POST("/import", s.importImages)
	images.GET("/property/:propertyId", s.listPropertyImages)
	images.POST("/property/:propertyId/upload", s.uploadImage)
	images.POST("/property/:propertyId/url", s.addImageURL)
	images.POST("/property/:propertyId/bulk", s.bulkUpload)
	images.PUT("/property/:propertyId/reorder", s.reorderImages)
	images.PUT("/property/:propertyId/image/:imageId", s.updateImage)
	images.DELETE("/property/:propertyId/image/:imageId", s.deleteImage)

	if s.properties != nil {
		api.GET("/properties", s.listProperties)
		api.GET("/properties/:id", s.getProperty)
	}

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range s.opts.CORSOrigins {
		if strings.TrimSpace(origin) == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = s.opts.CORSOrigins
	return cfg
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.MaxBodySize > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodySize)
		}
		c.Next()
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shut down HTTP server: %v", err)
		}
	}()

	s.logger.Info("Listening on %s", s.opts.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
