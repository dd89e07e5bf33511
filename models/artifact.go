package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gültige Lifecycle-Status eines Artefakts.
const (
	StatusStable   = "stable"
	StatusCritical = "critical"
	StatusPending  = "pending"
)

// ValidStatus prüft, ob ein Status-Wert erlaubt ist.
func ValidStatus(s string) bool {
	return s == StatusStable || s == StatusCritical || s == StatusPending
}

// Artifact repräsentiert ein katalogisiertes Artefakt inklusive des
// vollständigen KI-Berichts als JSON-Payload.
type Artifact struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OwnerID string `json:"owner_id" gorm:"index;not null;default:'anonymous'"`

	Title          string `json:"title"`
	Classification string `json:"classification" gorm:"index"`
	// Beschreibung = visuelle Beschreibung + rohe Vision-Ausgabe
	Description string `json:"description,omitempty" gorm:"type:text"`

	Material string `json:"material,omitempty" gorm:"index"`
	Era      string `json:"era,omitempty"`
	Region   string `json:"region,omitempty" gorm:"index"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	ExcavationNotes string `json:"excavation_notes,omitempty" gorm:"type:text"`

	// Vollständiger Bericht inkl. similar_artifacts als jsonb
	Report datatypes.JSON `json:"report" gorm:"type:jsonb"`

	Confidence float64 `json:"confidence"`
	Status     string  `json:"status" gorm:"index;default:'pending'"`

	Images []ArtifactImage `json:"images,omitempty" gorm:"foreignKey:ArtifactID"`
}

// ArtifactImage ist genau ein hochgeladenes Bild eines Artefakts.
// Pro Artefakt trägt genau ein Bild das Primary-Flag.
type ArtifactImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ArtifactID string `json:"artifact_id" gorm:"index;not null;type:uuid"`
	PublicURL  string `json:"public_url" gorm:"type:text;not null"`
	IsPrimary  bool   `json:"is_primary" gorm:"default:false"`
}

// TableName gibt explizit den Tabellennamen an.
func (ArtifactImage) TableName() string {
	return "artifact_images"
}
