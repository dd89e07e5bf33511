package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"aletheon/config"
	"aletheon/models"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

const describePrompt = "You are an expert archaeologist. Describe the artifact in this image " +
	"in precise scholarly language: form, material, surface condition, decoration, " +
	"inscriptions and any visible manufacturing traces. Do not speculate beyond the visible evidence."

const reportSystemPrompt = "You are a senior archaeologist compiling a catalog entry. " +
	"Respond with a single JSON object and nothing else. The object must contain exactly these keys: " +
	`"title", "classification", "visual_description", "material_analysis", ` +
	`"structural_interpretation", "symbolism", "cultural_context", "geographic_significance", ` +
	`"origin_hypothesis", "comparative_analysis", "confidence". ` +
	`"confidence" is a number between 0 and 1; all other values are strings.`

// ReportInput bündelt alles, was in die Berichtserzeugung einfließt.
type ReportInput struct {
	Images            []string // base64-kodierte Bilddaten
	Notes             string
	Location          *models.Location
	VisionDescription string
}

// Client spricht eine OpenAI-kompatible Chat-Completions-API (OpenRouter).
type Client struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewClient erstellt einen neuen AI-Provider-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{Config: cfg, Logger: logger}
}

// DescribeImage schickt genau ein Bild mit festem Prompt an das Vision-Modell
// und gibt die rohe Textbeschreibung zurück.
func (c *Client) DescribeImage(ctx context.Context, imageB64 string) (string, error) {
	messages := []chatMessage{
		{Role: "user", Content: []contentPart{
			textPart(describePrompt),
			imagePart(dataURL(imageB64)),
		}},
	}
	return c.complete(ctx, c.Config.AIVisionModel, messages, false)
}

// GenerateReport fordert den strukturierten Bericht als JSON an. Formfehler
// in der Antwort werden lokal über den Fallback-Parser und die
// Normalisierung abgefangen und führen nie zu einem Fehler.
func (c *Client) GenerateReport(ctx context.Context, in ReportInput) (models.AIReport, error) {
	var sb strings.Builder
	sb.WriteString("Produce the catalog entry for the artifact shown in the attached image(s).")
	if in.VisionDescription != "" {
		sb.WriteString("\n\nVisual analysis of the primary image:\n")
		sb.WriteString(in.VisionDescription)
	}
	if in.Notes != "" {
		sb.WriteString("\n\nExcavation notes from the submitter:\n")
		sb.WriteString(in.Notes)
	}
	if in.Location != nil {
		sb.WriteString(fmt.Sprintf("\n\nFind location: latitude %f, longitude %f.", in.Location.Lat, in.Location.Lng))
	}

	parts := []contentPart{textPart(sb.String())}
	for _, img := range in.Images {
		parts = append(parts, imagePart(dataURL(img)))
	}
	messages := []chatMessage{
		{Role: "system", Content: reportSystemPrompt},
		{Role: "user", Content: parts},
	}

	raw, err := c.complete(ctx, c.Config.AIModel, messages, true)
	if err != nil {
		return models.AIReport{}, err
	}
	return ParseReport(raw), nil
}

// complete führt einen Chat-Completions-Request aus und gibt den Text der
// ersten Choice zurück. Netzwerk- und Statusfehler werden propagiert.
func (c *Client) complete(ctx context.Context, model string, messages []chatMessage, jsonMode bool) (string, error) {
	if c.Config.AIAPIKey == "" {
		return "", fmt.Errorf("AI_API_KEY ist nicht konfiguriert")
	}

	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.Config.AITemperature,
		MaxTokens:   c.Config.AIMaxTokens,
		Stream:      false,
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.Config.AIBaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Config.AIAPIKey)
	// OpenRouter identifiziert aufrufende Apps über diese beiden Header.
	req.Header.Set("HTTP-Referer", c.Config.AppReferer)
	req.Header.Set("X-Title", c.Config.AppTitle)

	c.Logger.Debug("Rufe AI-Provider auf", zap.String("model", model), zap.Bool("json_mode", jsonMode))

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("ai provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("ai provider error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("ai provider returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// dataURL verpackt base64-Bilddaten als data-URL, falls nicht schon geschehen.
func dataURL(imageB64 string) string {
	if strings.HasPrefix(imageB64, "data:") {
		return imageB64
	}
	return "data:image/jpeg;base64," + imageB64
}
