package openrouter

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"aletheon/models"
)

// Sentinel-Werte für fehlende Berichtsfelder. Downstream-Code muss dadurch
// nie auf leere Felder prüfen.
const (
	sentinelTitle          = "Unidentified Artifact"
	sentinelClassification = "unidentified"
	sentinelPending        = "pending"
	defaultConfidence      = 0.5
)

// reportWire spiegelt das erwartete JSON des Modells. Confidence ist ein
// Pointer, damit "fehlt" von "explizit 0" unterscheidbar bleibt.
type reportWire struct {
	Title                    string   `json:"title"`
	Classification           string   `json:"classification"`
	VisualDescription        string   `json:"visual_description"`
	MaterialAnalysis         string   `json:"material_analysis"`
	StructuralInterpretation string   `json:"structural_interpretation"`
	Symbolism                string   `json:"symbolism"`
	CulturalContext          string   `json:"cultural_context"`
	GeographicSignificance   string   `json:"geographic_significance"`
	OriginHypothesis         string   `json:"origin_hypothesis"`
	ComparativeAnalysis      string   `json:"comparative_analysis"`
	Confidence               *float64 `json:"confidence"`
}

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// sectionPattern matcht Zeilen der Form `keyword: Rest der Zeile`,
// optional mit Anführungszeichen um das Keyword.
var sectionPattern = regexp.MustCompile(`^\s*"?([A-Za-z_ ]+?)"?\s*:\s*(.+?)\s*,?\s*$`)

// ParseReport macht aus der rohen Modellantwort einen vollständig
// normalisierten Bericht. Erst wird JSON versucht, dann der zeilenbasierte
// Fallback-Extraktor; fehlende Felder werden mit Sentinels aufgefüllt.
func ParseReport(raw string) models.AIReport {
	text := raw
	if m := codeFencePattern.FindStringSubmatch(raw); m != nil {
		text = m[1]
	}

	var w reportWire
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		w = extractSections(raw)
	}
	return normalizeReport(w)
}

// extractSections ist der Best-Effort-Fallback für nicht-JSON-Antworten.
func extractSections(raw string) reportWire {
	var w reportWire
	for _, line := range strings.Split(raw, "\n") {
		m := sectionPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(m[1]))
		key = strings.ReplaceAll(key, " ", "_")
		value := strings.Trim(strings.TrimSpace(m[2]), `"`)
		if value == "" {
			continue
		}

		switch key {
		case "title":
			w.Title = value
		case "classification":
			w.Classification = value
		case "visual_description":
			w.VisualDescription = value
		case "material_analysis":
			w.MaterialAnalysis = value
		case "structural_interpretation":
			w.StructuralInterpretation = value
		case "symbolism":
			w.Symbolism = value
		case "cultural_context":
			w.CulturalContext = value
		case "geographic_significance":
			w.GeographicSignificance = value
		case "origin_hypothesis":
			w.OriginHypothesis = value
		case "comparative_analysis":
			w.ComparativeAnalysis = value
		case "confidence":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				w.Confidence = &f
			}
		}
	}
	return w
}

// normalizeReport füllt jedes leere Feld mit seinem Sentinel und klemmt den
// Confidence-Wert in [0,1] (Default 0.5, wenn er fehlt).
func normalizeReport(w reportWire) models.AIReport {
	confidence := defaultConfidence
	if w.Confidence != nil {
		confidence = *w.Confidence
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return models.AIReport{
		Title:                    orDefault(w.Title, sentinelTitle),
		Classification:           orDefault(w.Classification, sentinelClassification),
		VisualDescription:        orDefault(w.VisualDescription, sentinelPending),
		MaterialAnalysis:         orDefault(w.MaterialAnalysis, sentinelPending),
		StructuralInterpretation: orDefault(w.StructuralInterpretation, sentinelPending),
		Symbolism:                orDefault(w.Symbolism, sentinelPending),
		CulturalContext:          orDefault(w.CulturalContext, sentinelPending),
		GeographicSignificance:   orDefault(w.GeographicSignificance, sentinelPending),
		OriginHypothesis:         orDefault(w.OriginHypothesis, sentinelPending),
		ComparativeAnalysis:      orDefault(w.ComparativeAnalysis, sentinelPending),
		Confidence:               confidence,
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
