package harvardart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"aletheon/config"
	"aletheon/models"
	"aletheon/providers"
)

const pageSize = 20

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Fetcher implementiert das CatalogProvider-Interface für die
// Harvard Art Museums API. Die Suche ist reine Best-Effort-Anreicherung:
// bei jedem Fehler (fehlender Key, Netzwerk, Status) liefert sie die feste
// Mock-Liste statt eines Fehlers.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen Harvard-Art-Museums-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "harvardart"
}

// Search führt die Objektsuche aus und normalisiert die Treffer.
func (f *Fetcher) Search(ctx context.Context, params providers.SearchParams) ([]models.SearchResult, error) {
	query := params.FreeTextQuery()
	log := f.Logger.With(zap.String("provider", f.Name()), zap.String("query", query))

	if f.Config.HarvardArtAPIKey == "" {
		log.Debug("Kein API-Key konfiguriert, liefere Mock-Daten.")
		return mockResults(), nil
	}

	searchURL := fmt.Sprintf("%s/object?apikey=%s&q=%s&size=%d",
		f.Config.HarvardArtBaseURL,
		url.QueryEscape(f.Config.HarvardArtAPIKey),
		url.QueryEscape(query),
		pageSize,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return mockResults(), nil
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Warn("Katalog-Suche fehlgeschlagen, liefere Mock-Daten.", zap.Error(err))
		return mockResults(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Katalog-API antwortete mit Fehlerstatus, liefere Mock-Daten.", zap.Int("status", resp.StatusCode))
		return mockResults(), nil
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		log.Warn("Katalog-Antwort nicht lesbar, liefere Mock-Daten.", zap.Error(err))
		return mockResults(), nil
	}

	total := len(sr.Records)
	results := make([]models.SearchResult, 0, total)
	for i, rec := range sr.Records {
		results = append(results, mapRecordToResult(&rec, i, total))
	}

	log.Info("Katalog-Suche abgeschlossen", zap.Int("found", len(results)))
	return results, nil
}

// mapRecordToResult konvertiert einen Harvard-Objekt-Datensatz in unser
// internes SearchResult-Modell.
func mapRecordToResult(rec *objectRecord, index, total int) models.SearchResult {
	result := models.SearchResult{
		ID:         strconv.Itoa(rec.ObjectID),
		Title:      rec.Title,
		Era:        rec.Dated,
		Culture:    rec.Culture,
		Material:   rec.Medium,
		ObjectType: rec.Classification,
		SourceURL:  rec.URL,
		ImageURL:   rec.PrimaryImageURL,
		MatchScore: providers.MatchScore(index, total),
	}
	if result.ID == "0" && rec.ObjectNumber != "" {
		result.ID = rec.ObjectNumber
	}
	if len(rec.Images) > 0 {
		result.ThumbnailURL = rec.Images[0].BaseImageURL
	}
	if len(rec.Places) > 0 {
		result.Region = rec.Places[0].DisplayName
	}
	return result
}

// mockResults ist die feste Ersatzliste für den unkonfigurierten Betrieb
// und für Upstream-Ausfälle.
func mockResults() []models.SearchResult {
	mocks := []models.SearchResult{
		{
			ID:         "mock-1",
			Title:      "Funerary Mask of a Nobleman",
			Era:        "1400 BCE",
			Region:     "Egypt",
			Culture:    "Egyptian",
			Material:   "Gold",
			ObjectType: "Mask",
			SourceURL:  "https://example.org/catalog/mock-1",
		},
		{
			ID:         "mock-2",
			Title:      "Black-Figure Amphora",
			Era:        "530 BCE",
			Region:     "Greece",
			Culture:    "Greek",
			Material:   "Ceramic",
			ObjectType: "Vessel",
			SourceURL:  "https://example.org/catalog/mock-2",
		},
		{
			ID:         "mock-3",
			Title:      "Votive Bronze Figurine",
			Era:        "800 BCE",
			Region:     "Mesopotamia",
			Culture:    "Babylonian",
			Material:   "Bronze",
			ObjectType: "Figurine",
			SourceURL:  "https://example.org/catalog/mock-3",
		},
	}
	for i := range mocks {
		mocks[i].MatchScore = providers.MatchScore(i, len(mocks))
	}
	return mocks
}
