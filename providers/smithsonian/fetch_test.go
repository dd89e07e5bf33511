package smithsonian

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"aletheon/config"
	"aletheon/providers"
)

func TestSearch_MissingAPIKey(t *testing.T) {
	f := NewFetcher(&config.Config{}, zap.NewNop())
	if _, err := f.Search(context.Background(), providers.SearchParams{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestSearch_MapsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "si-key" {
			t.Errorf("api_key = %q", q.Get("api_key"))
		}
		if q.Get("rows") != "20" {
			t.Errorf("rows = %q", q.Get("rows"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 200,
			"response": {
				"rowCount": 2,
				"rows": [
					{
						"id": "edanmdm-nmnh-1",
						"title": "Votive Bronze Figurine",
						"content": {
							"descriptiveNonRepeating": {
								"record_link": "https://si.edu/object/nmnh-1",
								"online_media": {
									"media": [{"content": "https://ids.si.edu/full.jpg", "thumbnail": "https://ids.si.edu/thumb.jpg"}]
								}
							},
							"indexedStructured": {
								"date": ["800 BCE"],
								"place": ["Mesopotamia"],
								"culture": ["Babylonian"],
								"object_type": ["Figurines"],
								"material": ["bronze"]
							}
						}
					},
					{
						"id": "edanmdm-nmnh-2",
						"title": "Bare Record",
						"content": {
							"descriptiveNonRepeating": {"guid": "https://n2t.net/ark:/65665/x2"}
						}
					}
				]
			}
		}`))
	}))
	defer srv.Close()

	f := NewFetcher(&config.Config{
		SmithsonianBaseURL: srv.URL,
		SmithsonianAPIKey:  "si-key",
	}, zap.NewNop())

	results, err := f.Search(context.Background(), providers.SearchParams{Keywords: []string{"figurine"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	first := results[0]
	if first.ID != "edanmdm-nmnh-1" {
		t.Errorf("ID = %q", first.ID)
	}
	if first.Era != "800 BCE" || first.Region != "Mesopotamia" || first.Culture != "Babylonian" {
		t.Errorf("indexed fields = %+v", first)
	}
	if first.Material != "bronze" || first.ObjectType != "Figurines" {
		t.Errorf("material/type = %q/%q", first.Material, first.ObjectType)
	}
	if first.SourceURL != "https://si.edu/object/nmnh-1" {
		t.Errorf("SourceURL = %q", first.SourceURL)
	}
	if first.ImageURL != "https://ids.si.edu/full.jpg" || first.ThumbnailURL != "https://ids.si.edu/thumb.jpg" {
		t.Errorf("media = %q/%q", first.ImageURL, first.ThumbnailURL)
	}
	if first.MatchScore != providers.MatchScore(0, 2) {
		t.Errorf("MatchScore = %v", first.MatchScore)
	}

	// Ohne record_link greift der GUID-Fallback, leere Medienliste bleibt leer.
	if results[1].SourceURL != "https://n2t.net/ark:/65665/x2" {
		t.Errorf("guid fallback = %q", results[1].SourceURL)
	}
	if results[1].ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty", results[1].ImageURL)
	}
}

func TestSearch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFetcher(&config.Config{
		SmithsonianBaseURL: srv.URL,
		SmithsonianAPIKey:  "si-key",
	}, zap.NewNop())

	if _, err := f.Search(context.Background(), providers.SearchParams{}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
