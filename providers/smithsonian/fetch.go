package smithsonian

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"aletheon/config"
	"aletheon/models"
	"aletheon/providers"
)

const pageSize = 20

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Fetcher implementiert das CatalogProvider-Interface für die Smithsonian
// Open Access API. Anders als der Harvard-Provider propagiert er Fehler;
// der Orchestrator überspringt ihn dann einfach.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen Smithsonian-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "smithsonian"
}

// Search führt die Suche auf der Open-Access-API aus.
func (f *Fetcher) Search(ctx context.Context, params providers.SearchParams) ([]models.SearchResult, error) {
	if f.Config.SmithsonianAPIKey == "" {
		return nil, fmt.Errorf("smithsonian api key ist nicht konfiguriert")
	}

	query := params.FreeTextQuery()
	log := f.Logger.With(zap.String("provider", f.Name()), zap.String("query", query))

	searchURL := fmt.Sprintf("%s/search?api_key=%s&q=%s&rows=%d",
		f.Config.SmithsonianBaseURL,
		url.QueryEscape(f.Config.SmithsonianAPIKey),
		url.QueryEscape(query),
		pageSize,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("smithsonian request failed with status: %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}

	total := len(sr.Response.Rows)
	results := make([]models.SearchResult, 0, total)
	for i, r := range sr.Response.Rows {
		results = append(results, mapRowToResult(&r, i, total))
	}

	log.Info("Smithsonian-Suche abgeschlossen", zap.Int("found", len(results)))
	return results, nil
}

// mapRowToResult konvertiert einen Open-Access-Treffer in unser internes
// SearchResult-Modell.
func mapRowToResult(r *row, index, total int) models.SearchResult {
	result := models.SearchResult{
		ID:         r.ID,
		Title:      r.Title,
		Era:        first(r.Content.IndexedStructured.Date),
		Region:     first(r.Content.IndexedStructured.Place),
		Culture:    first(r.Content.IndexedStructured.Culture),
		ObjectType: first(r.Content.IndexedStructured.ObjectType),
		Material:   first(r.Content.IndexedStructured.Material),
		SourceURL:  r.Content.DescriptiveNonRepeating.RecordLink,
		MatchScore: providers.MatchScore(index, total),
	}
	if result.SourceURL == "" {
		result.SourceURL = r.Content.DescriptiveNonRepeating.GUID
	}
	if media := r.Content.DescriptiveNonRepeating.OnlineMedia.Media; len(media) > 0 {
		result.ImageURL = media[0].Content
		result.ThumbnailURL = media[0].Thumbnail
	}
	return result
}
