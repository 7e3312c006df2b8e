package repository

import (
	"context"
	"os"
	"testing"

	"github.com/planetland/backend/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGormCollectionRepositoryKey(t *testing.T) {
	if got := NewGormCollectionRepository(nil, "").Key(); got != "gorm:"+DefaultDocumentName {
		t.Fatalf("default key = %q", got)
	}
	if got := NewGormCollectionRepository(nil, "staging_images").Key(); got != "gorm:staging_images" {
		t.Fatalf("named key = %q", got)
	}
}

// Set PLANETLAND_TEST_POSTGRES_DSN to run against a real database.
func TestGormCollectionRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("PLANETLAND_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PLANETLAND_TEST_POSTGRES_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	repo := NewGormCollectionRepository(db, "test_"+t.Name())
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		db.Where("name = ?", "test_"+t.Name()).Delete(&Document{})
	})

	empty, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if len(empty.PropertyImages) != 0 {
		t.Fatalf("expected empty collection, got %d records", len(empty.PropertyImages))
	}

	for i := 1; i <= 2; i++ {
		c := &models.ImageCollection{PropertyImages: make([]models.ImageRecord, i)}
		for j := range c.PropertyImages {
			c.PropertyImages[j] = models.ImageRecord{ID: "img-" + string(rune('a'+j)), PropertyID: "101", Order: j + 1}
		}
		if err := repo.Save(ctx, c); err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.PropertyImages) != 2 || got.PropertyImages[1].ID != "img-b" {
		t.Fatalf("unexpected collection after upsert: %+v", got.PropertyImages)
	}
}
