package services

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"aletheon/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Artifact{}, &models.ArtifactImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedArtifact(t *testing.T, db *gorm.DB, id, title string, createdAt time.Time) {
	t.Helper()
	artifact := models.Artifact{
		ID:        id,
		OwnerID:   "anonymous",
		Title:     title,
		Status:    models.StatusPending,
		CreatedAt: createdAt,
	}
	if err := db.Create(&artifact).Error; err != nil {
		t.Fatalf("seed artifact %s: %v", id, err)
	}
}

func TestCatalogGet_ReadThrough(t *testing.T) {
	db := openTestDB(t)
	seedArtifact(t, db, "art-1", "Funerary Mask", time.Now())
	db.Create(&models.ArtifactImage{ArtifactID: "art-1", PublicURL: "https://cdn.test/thumb.jpg", IsPrimary: true})

	svc, err := NewCatalogService(db, 8, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}

	entry, err := svc.Get("art-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Title != "Funerary Mask" {
		t.Errorf("Title = %q", entry.Title)
	}
	if entry.ThumbnailURL != "https://cdn.test/thumb.jpg" {
		t.Errorf("ThumbnailURL = %q", entry.ThumbnailURL)
	}

	// Nach dem ersten Get kommt die Antwort aus dem Cache, auch wenn die
	// Zeile in der Datenbank längst weg ist.
	db.Delete(&models.Artifact{}, "id = ?", "art-1")
	if _, err := svc.Get("art-1"); err != nil {
		t.Fatalf("cached Get: %v", err)
	}

	svc.Invalidate("art-1")
	if _, err := svc.Get("art-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("after invalidate err = %v, want ErrRecordNotFound", err)
	}
}

func TestCatalogGet_Miss(t *testing.T) {
	svc, err := NewCatalogService(openTestDB(t), 8, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	if _, err := svc.Get("does-not-exist"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestCatalogRecent(t *testing.T) {
	db := openTestDB(t)
	base := time.Now().Add(-time.Hour)
	seedArtifact(t, db, "art-1", "Oldest", base)
	seedArtifact(t, db, "art-2", "Middle", base.Add(10*time.Minute))
	seedArtifact(t, db, "art-3", "Newest", base.Add(20*time.Minute))

	svc, err := NewCatalogService(db, 8, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}

	entries, err := svc.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Title != "Newest" || entries[1].Title != "Middle" {
		t.Errorf("order = %q, %q", entries[0].Title, entries[1].Title)
	}

	// Recent wärmt den Cache: die Einträge sind danach ohne DB abrufbar.
	db.Delete(&models.Artifact{}, "id = ?", "art-3")
	if _, err := svc.Get("art-3"); err != nil {
		t.Errorf("warmed entry not served from cache: %v", err)
	}
}

func TestCatalogReconcile(t *testing.T) {
	db := openTestDB(t)
	seedArtifact(t, db, "art-1", "Original Title", time.Now())
	seedArtifact(t, db, "art-2", "Doomed", time.Now())

	svc, err := NewCatalogService(db, 8, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	if _, err := svc.Get("art-1"); err != nil {
		t.Fatalf("warm art-1: %v", err)
	}
	if _, err := svc.Get("art-2"); err != nil {
		t.Fatalf("warm art-2: %v", err)
	}

	db.Model(&models.Artifact{}).Where("id = ?", "art-1").Update("title", "Revised Title")
	db.Delete(&models.Artifact{}, "id = ?", "art-2")

	refreshed, err := svc.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", refreshed)
	}

	entry, err := svc.Get("art-1")
	if err != nil {
		t.Fatalf("Get after reconcile: %v", err)
	}
	if entry.Title != "Revised Title" {
		t.Errorf("Title = %q, want refreshed value", entry.Title)
	}
	if _, ok := svc.Cache.Get("art-2"); ok {
		t.Error("deleted artifact must leave the cache during reconcile")
	}
}
