package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aletheon/config"
	"aletheon/models"
	"aletheon/providers"
	"aletheon/providers/openrouter"
)

// ErrNoImages wird zurückgegeben, wenn eine Analyse ohne Bilder eingereicht
// wird. Der Handler übersetzt das in einen 400er.
var ErrNoImages = errors.New("analysis requires at least one image")

const anonymousOwner = "anonymous"

// uploadWorkers begrenzt die parallelen Bild-Uploads pro Anfrage.
const uploadWorkers = 3

// AIClient ist die vom Orchestrator benötigte Sicht auf den AI-Provider.
type AIClient interface {
	DescribeImage(ctx context.Context, imageB64 string) (string, error)
	GenerateReport(ctx context.Context, in openrouter.ReportInput) (models.AIReport, error)
}

// ArtifactStore sind die Persistenz-Operationen des Orchestrators.
type ArtifactStore interface {
	CreateArtifact(artifact *models.Artifact) error
	CreateImage(image *models.ArtifactImage) error
}

// ObjectStore lädt Blobs hoch und gibt deren öffentliche URL zurück.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// AnalysisResult ist das Ergebnis einer erfolgreichen Analyse inklusive der
// explizit ausgewiesenen Teilfehler beim Bild-Upload.
type AnalysisResult struct {
	ArtifactID     string               `json:"artifactId"`
	Report         models.ReportPayload `json:"report"`
	ImageURL       string               `json:"image_url,omitempty"`
	ImagesAttached []string             `json:"images_attached"`
	ImagesFailed   []int                `json:"images_failed"`
}

// AnalysisService orchestriert die gesamte Analyse-Pipeline:
// Vision-Beschreibung, Berichtserzeugung, Katalog-Abgleich, Persistenz und
// den Best-Effort-Upload der Bilder.
type AnalysisService struct {
	Config    *config.Config
	Store     ArtifactStore
	Objects   ObjectStore
	AI        AIClient
	Providers []providers.CatalogProvider
	Logger    *zap.Logger
}

// NewAnalysisService erstellt eine neue Instanz des AnalysisService.
func NewAnalysisService(cfg *config.Config, store ArtifactStore, objects ObjectStore, ai AIClient, catalogProviders []providers.CatalogProvider, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		Config:    cfg,
		Store:     store,
		Objects:   objects,
		AI:        ai,
		Providers: catalogProviders,
		Logger:    logger,
	}
}

// Analyze führt die Pipeline für genau eine Einreichung aus. Fehler bis
// einschließlich des Artefakt-Inserts brechen alles ab; danach sind nur noch
// Teilfehler pro Bild möglich, die im Ergebnis ausgewiesen werden.
func (s *AnalysisService) Analyze(ctx context.Context, input models.AnalysisInput) (*AnalysisResult, error) {
	if len(input.Images) == 0 {
		return nil, ErrNoImages
	}

	owner := input.UserID
	if owner == "" {
		owner = anonymousOwner
	}

	log := s.Logger.With(zap.String("owner", owner), zap.Int("images", len(input.Images)))
	log.Info("Starte Analyse-Pipeline.")

	// Vision-Beschreibung nur für das erste Bild.
	vision, err := s.AI.DescribeImage(ctx, input.Images[0])
	if err != nil {
		return nil, fmt.Errorf("vision describe: %w", err)
	}

	report, err := s.AI.GenerateReport(ctx, openrouter.ReportInput{
		Images:            input.Images,
		Notes:             input.Notes,
		Location:          input.Location,
		VisionDescription: vision,
	})
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	params := providers.BuildParamsFromReport(report)
	similar := s.CrossReference(ctx, params)

	payload := models.ReportPayload{AIReport: report, SimilarArtifacts: similar}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal report payload: %w", err)
	}

	artifact := &models.Artifact{
		ID:              uuid.NewString(),
		OwnerID:         owner,
		Title:           report.Title,
		Classification:  report.Classification,
		Description:     report.VisualDescription + "\n\n" + vision,
		Material:        params.Material,
		Era:             params.Era,
		Region:          params.Region,
		ExcavationNotes: input.Notes,
		Report:          payloadJSON,
		Confidence:      report.Confidence,
		Status:          models.StatusPending,
	}
	if input.Location != nil {
		lat, lng := input.Location.Lat, input.Location.Lng
		artifact.Latitude = &lat
		artifact.Longitude = &lng
	}

	// Der Artefakt-Datensatz muss vor jedem Bild geschrieben sein.
	if err := s.Store.CreateArtifact(artifact); err != nil {
		return nil, fmt.Errorf("persist artifact: %w", err)
	}
	log = log.With(zap.String("artifact_id", artifact.ID))
	log.Info("Artefakt persistiert", zap.String("title", artifact.Title))

	result := &AnalysisResult{
		ArtifactID:     artifact.ID,
		Report:         payload,
		ImagesAttached: []string{},
		ImagesFailed:   []int{},
	}
	s.attachImages(ctx, artifact.ID, input.Images, result, log)

	log.Info("Analyse abgeschlossen",
		zap.Int("images_attached", len(result.ImagesAttached)),
		zap.Int("images_failed", len(result.ImagesFailed)),
	)
	return result, nil
}

// CrossReference fragt alle aktiven Katalog-Provider ab und fusioniert die
// Treffer dedupliziert in Originalreihenfolge. Provider-Fehler werden
// geloggt und übersprungen; der Abgleich ist nie ein harter Fehler. Auch die
// Discovery-Suche nutzt diesen Pfad.
func (s *AnalysisService) CrossReference(ctx context.Context, params providers.SearchParams) []models.SearchResult {
	merged := []models.SearchResult{}
	seen := make(map[string]bool)

	for _, provider := range s.Providers {
		results, err := provider.Search(ctx, params)
		if err != nil {
			s.Logger.Warn("Katalog-Provider übersprungen", zap.String("provider", provider.Name()), zap.Error(err))
			continue
		}
		for _, r := range results {
			key := r.SourceURL
			if key == "" {
				key = provider.Name() + "/" + r.ID
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, r)
		}
	}
	return merged
}

// attachImages lädt die Bilder parallel (begrenzt) hoch und schreibt die
// ArtifactImage-Zeilen anschließend sequenziell in Einreichungsreihenfolge.
// Das Primary-Flag bekommt das erste erfolgreich hochgeladene Bild; die
// Zuordnung hängt nie von der Upload-Reihenfolge ab.
func (s *AnalysisService) attachImages(ctx context.Context, artifactID string, images []string, result *AnalysisResult, log *zap.Logger) {
	type uploadOutcome struct {
		url string
		err error
	}
	outcomes := make([]uploadOutcome, len(images))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, uploadWorkers)
	for i, img := range images {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(index int, payload string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			data, contentType, err := decodeImage(payload)
			if err != nil {
				outcomes[index] = uploadOutcome{err: err}
				return
			}
			key := fmt.Sprintf("artifacts/%s/%d%s", artifactID, index, extensionFor(contentType))
			url, err := s.Objects.Upload(ctx, key, data, contentType)
			outcomes[index] = uploadOutcome{url: url, err: err}
		}(i, img)
	}
	wg.Wait()

	primaryAssigned := false
	for i, outcome := range outcomes {
		if outcome.err != nil {
			log.Warn("Bild übersprungen", zap.Int("index", i), zap.Error(outcome.err))
			result.ImagesFailed = append(result.ImagesFailed, i)
			continue
		}
		row := &models.ArtifactImage{
			ArtifactID: artifactID,
			PublicURL:  outcome.url,
			IsPrimary:  !primaryAssigned,
		}
		if err := s.Store.CreateImage(row); err != nil {
			log.Warn("Bild-Datensatz übersprungen", zap.Int("index", i), zap.Error(err))
			result.ImagesFailed = append(result.ImagesFailed, i)
			continue
		}
		primaryAssigned = true
		result.ImagesAttached = append(result.ImagesAttached, outcome.url)
		if result.ImageURL == "" {
			result.ImageURL = outcome.url
		}
	}
}

// decodeImage dekodiert ein base64-Bild, optional mit data-URL-Präfix.
func decodeImage(payload string) ([]byte, string, error) {
	contentType := "image/jpeg"
	if strings.HasPrefix(payload, "data:") {
		head, rest, found := strings.Cut(payload, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data url")
		}
		if mt := strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64"); mt != "" {
			contentType = mt
		}
		payload = rest
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	return data, contentType, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
