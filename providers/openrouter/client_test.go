package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"aletheon/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		AIBaseURL:     baseURL,
		AIAPIKey:      "sk-test",
		AIModel:       "test-report-model",
		AIVisionModel: "test-vision-model",
		AITemperature: 0.2,
		AIMaxTokens:   1024,
		AppReferer:    "https://aletheon.app",
		AppTitle:      "Aletheon",
	}
}

func chatResponseBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestDescribeImage_MissingAPIKey(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.AIAPIKey = ""
	c := NewClient(cfg, zap.NewNop())

	if _, err := c.DescribeImage(context.Background(), "aGVsbG8="); err == nil {
		t.Fatal("expected configuration error, got nil")
	}
}

func TestDescribeImage_RequestShape(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://aletheon.app" {
			t.Errorf("HTTP-Referer = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "Aletheon" {
			t.Errorf("X-Title = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponseBody("a corroded bronze figurine")))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zap.NewNop())
	got, err := c.DescribeImage(context.Background(), "aGVsbG8=")
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if got != "a corroded bronze figurine" {
		t.Errorf("description = %q", got)
	}

	if captured.Model != "test-vision-model" {
		t.Errorf("model = %q, want vision model", captured.Model)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
	parts, ok := captured.Messages[0].Content.([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("content parts = %+v, want [text, image_url]", captured.Messages[0].Content)
	}
	imgPart, _ := parts[1].(map[string]any)
	ref, _ := imgPart["image_url"].(map[string]any)
	url, _ := ref["url"].(string)
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Errorf("image url = %q, want data url", url)
	}
}

func TestDescribeImage_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"provider down"}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zap.NewNop())
	_, err := c.DescribeImage(context.Background(), "aGVsbG8=")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestGenerateReport_ValidJSON(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponseBody(`{"title":"Funerary Mask","classification":"Gold mask","confidence":0.9}`)))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zap.NewNop())
	report, err := c.GenerateReport(context.Background(), ReportInput{
		Images:            []string{"aGVsbG8="},
		Notes:             "found in tomb shaft",
		VisionDescription: "gold mask with inlay",
	})
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if report.Title != "Funerary Mask" {
		t.Errorf("Title = %q", report.Title)
	}
	if report.Confidence != 0.9 {
		t.Errorf("Confidence = %v", report.Confidence)
	}

	if captured.Model != "test-report-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", captured.ResponseFormat)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v, want system + user", captured.Messages)
	}
	userText, _ := json.Marshal(captured.Messages[1].Content)
	if !strings.Contains(string(userText), "gold mask with inlay") {
		t.Error("vision description not included in report prompt")
	}
	if !strings.Contains(string(userText), "found in tomb shaft") {
		t.Error("notes not included in report prompt")
	}
}

func TestGenerateReport_MalformedContentIsAbsorbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponseBody("I cannot produce JSON today, sorry.")))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zap.NewNop())
	report, err := c.GenerateReport(context.Background(), ReportInput{Images: []string{"aGVsbG8="}})
	if err != nil {
		t.Fatalf("malformed content must not surface as error, got %v", err)
	}
	if report.Title != "Unidentified Artifact" {
		t.Errorf("Title = %q, want sentinel", report.Title)
	}
	if report.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want default", report.Confidence)
	}
}

func TestGenerateReport_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zap.NewNop())
	if _, err := c.GenerateReport(context.Background(), ReportInput{Images: []string{"aGVsbG8="}}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
