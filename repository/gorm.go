package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/planetland/backend/imagestore"
	"github.com/planetland/backend/models"
	"gorm.io/gorm"
)

// DefaultDocumentName is the row that holds the image collection.
const DefaultDocumentName = "property_images"

// Document is one JSON document stored as a single row.
type Document struct {
	Name      string `gorm:"primaryKey;size:255"`
	Content   string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of naming strategy
func (Document) TableName() string {
	return "documents"
}

// GormCollectionRepository keeps the whole image collection in one row, so
// it keeps the same load-all save-all contract as the JSON file.
type GormCollectionRepository struct {
	db   *gorm.DB
	name string
}

// NewGormCollectionRepository creates a repository for the named document.
func NewGormCollectionRepository(db *gorm.DB, name string) *GormCollectionRepository {
	if name == "" {
		name = DefaultDocumentName
	}
	return &GormCollectionRepository{
		db:   db,
		name: name,
	}
}

// AutoMigrate creates the documents table
func (r *GormCollectionRepository) AutoMigrate() error {
	err := r.db.AutoMigrate(&Document{})
	if err != nil {
		return fmt.Errorf("failed to migrate document model: %w", err)
	}
	return nil
}

func (r *GormCollectionRepository) Key() string {
	return "gorm:" + r.name
}

// Load reads the document row. A missing row is an empty collection.
func (r *GormCollectionRepository) Load(ctx context.Context) (*models.ImageCollection, error) {
	var doc Document

	tx := r.db.WithContext(ctx)
	if err := tx.Where("name = ?", r.name).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewImageCollection(), nil
		}
		return nil, fmt.Errorf("failed to find document %s: %w", r.name, err)
	}

	collection := models.NewImageCollection()
	if err := json.Unmarshal([]byte(doc.Content), collection); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", r.name, err)
	}
	if collection.PropertyImages == nil {
		collection.PropertyImages = []models.ImageRecord{}
	}
	return collection, nil
}

// Save upserts the document row.
func (r *GormCollectionRepository) Save(ctx context.Context, collection *models.ImageCollection) error {
	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("failed to encode image collection: %w", err)
	}

	doc := Document{
		Name:    r.name,
		Content: string(data),
	}

	tx := r.db.WithContext(ctx)
	if err := tx.Save(&doc).Error; err != nil {
		return fmt.Errorf("failed to save document %s: %w", r.name, err)
	}

	return nil
}

var _ imagestore.CollectionRepository = (*GormCollectionRepository)(nil)
