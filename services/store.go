package services

import (
	"gorm.io/gorm"

	"aletheon/models"
)

// GormStore ist die Postgres-Implementierung des ArtifactStore.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore erstellt einen neuen GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// CreateArtifact legt den Artefakt-Datensatz an.
func (g *GormStore) CreateArtifact(artifact *models.Artifact) error {
	return g.DB.Create(artifact).Error
}

// CreateImage legt eine ArtifactImage-Zeile an.
func (g *GormStore) CreateImage(image *models.ArtifactImage) error {
	return g.DB.Create(image).Error
}
