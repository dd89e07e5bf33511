package models

// AIReport ist der strukturierte wissenschaftliche Bericht, den das Modell
// für ein Artefakt liefert. Nach der Normalisierung ist jedes Feld garantiert
// nicht-leer und der Confidence-Wert liegt in [0,1].
type AIReport struct {
	Title                    string  `json:"title"`
	Classification           string  `json:"classification"`
	VisualDescription        string  `json:"visual_description"`
	MaterialAnalysis         string  `json:"material_analysis"`
	StructuralInterpretation string  `json:"structural_interpretation"`
	Symbolism                string  `json:"symbolism"`
	CulturalContext          string  `json:"cultural_context"`
	GeographicSignificance   string  `json:"geographic_significance"`
	OriginHypothesis         string  `json:"origin_hypothesis"`
	ComparativeAnalysis      string  `json:"comparative_analysis"`
	Confidence               float64 `json:"confidence"`
}

// SearchResult ist ein Kandidat aus einem externen Museumskatalog.
// MatchScore ist rein rangbasiert und kein Ähnlichkeitsmaß.
type SearchResult struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	ImageURL     string  `json:"image_url,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Era          string  `json:"era,omitempty"`
	Region       string  `json:"region,omitempty"`
	Culture      string  `json:"culture,omitempty"`
	Material     string  `json:"material,omitempty"`
	ObjectType   string  `json:"object_type,omitempty"`
	SourceURL    string  `json:"source_url,omitempty"`
	MatchScore   float64 `json:"match_score"`
}

// Location ist ein optionales Koordinatenpaar einer Einreichung.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AnalysisInput ist die flüchtige Eingabe einer Analyse-Anfrage.
type AnalysisInput struct {
	Images   []string  `json:"images"` // base64-kodierte Bilddaten
	Notes    string    `json:"notes,omitempty"`
	Location *Location `json:"location,omitempty"`
	UserID   string    `json:"userId,omitempty"`
}

// ReportPayload ist die persistierte Form des Berichts auf dem Artifact-Datensatz.
type ReportPayload struct {
	AIReport
	SimilarArtifacts []SearchResult `json:"similar_artifacts"`
}

// CatalogEntry ist die gecachte Kurzfassung eines Artefakts für die
// Katalog- und Vault-Ansichten.
type CatalogEntry struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Classification string  `json:"classification"`
	Era            string  `json:"era,omitempty"`
	Region         string  `json:"region,omitempty"`
	Confidence     float64 `json:"confidence"`
	Status         string  `json:"status"`
	ThumbnailURL   string  `json:"thumbnail_url,omitempty"`
	CreatedAt      string  `json:"created_at"`
}
