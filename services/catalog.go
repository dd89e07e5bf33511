package services

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"aletheon/models"
)

// CatalogService ist ein Read-Through-Cache über den Artefakt-Kurzfassungen
// für Katalog- und Vault-Ansichten. Die Datenbank bleibt immer die
// autoritative Quelle; der Cache wird gegen sie abgeglichen, nie umgekehrt.
type CatalogService struct {
	DB     *gorm.DB
	Cache  *lru.Cache[string, models.CatalogEntry]
	Logger *zap.Logger
}

// NewCatalogService erstellt einen neuen CatalogService mit begrenztem Cache.
func NewCatalogService(db *gorm.DB, size int, logger *zap.Logger) (*CatalogService, error) {
	cache, err := lru.New[string, models.CatalogEntry](size)
	if err != nil {
		return nil, err
	}
	return &CatalogService{DB: db, Cache: cache, Logger: logger}, nil
}

// Get liefert die Kurzfassung eines Artefakts, bei einem Cache-Miss wird sie
// aus der Datenbank geladen und eingelagert.
func (c *CatalogService) Get(id string) (models.CatalogEntry, error) {
	if entry, ok := c.Cache.Get(id); ok {
		return entry, nil
	}

	entry, err := c.load(id)
	if err != nil {
		return models.CatalogEntry{}, err
	}
	c.Cache.Add(id, entry)
	return entry, nil
}

// Invalidate wirft einen Eintrag aus dem Cache, z.B. nach einem Update.
func (c *CatalogService) Invalidate(id string) {
	c.Cache.Remove(id)
}

// Recent liefert die jüngsten Kurzfassungen direkt aus der Datenbank und
// wärmt dabei den Cache.
func (c *CatalogService) Recent(limit int) ([]models.CatalogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var artifacts []models.Artifact
	if err := c.DB.Preload("Images").Order("created_at desc").Limit(limit).Find(&artifacts).Error; err != nil {
		return nil, err
	}

	entries := make([]models.CatalogEntry, 0, len(artifacts))
	for i := range artifacts {
		entry := entryFromArtifact(&artifacts[i])
		c.Cache.Add(entry.ID, entry)
		entries = append(entries, entry)
	}
	return entries, nil
}

// Reconcile gleicht alle gecachten Einträge gegen die Datenbank ab:
// verschwundene Artefakte fliegen raus, veränderte werden aufgefrischt.
func (c *CatalogService) Reconcile() (int, error) {
	refreshed := 0
	for _, id := range c.Cache.Keys() {
		entry, err := c.load(id)
		if err != nil {
			c.Cache.Remove(id)
			if err != gorm.ErrRecordNotFound {
				c.Logger.Warn("Abgleich für Eintrag fehlgeschlagen", zap.String("artifact_id", id), zap.Error(err))
			}
			continue
		}
		c.Cache.Add(id, entry)
		refreshed++
	}
	return refreshed, nil
}

func (c *CatalogService) load(id string) (models.CatalogEntry, error) {
	var artifact models.Artifact
	if err := c.DB.Preload("Images").First(&artifact, "id = ?", id).Error; err != nil {
		return models.CatalogEntry{}, err
	}
	return entryFromArtifact(&artifact), nil
}

func entryFromArtifact(a *models.Artifact) models.CatalogEntry {
	entry := models.CatalogEntry{
		ID:             a.ID,
		Title:          a.Title,
		Classification: a.Classification,
		Era:            a.Era,
		Region:         a.Region,
		Confidence:     a.Confidence,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, img := range a.Images {
		if entry.ThumbnailURL == "" || img.IsPrimary {
			entry.ThumbnailURL = img.PublicURL
		}
		if img.IsPrimary {
			break
		}
	}
	return entry
}
