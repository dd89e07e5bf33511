package providers

import (
	"regexp"
	"strings"

	"aletheon/models"
)

// Feste Vokabulare für die Extraktion aus Freitext. Die Listen sind bewusst
// geschlossen; die Treffer dienen nur als Such-Anreicherung, nicht als
// autoritative Klassifikation.
var (
	regionVocabulary = []string{
		"Egypt", "Greece", "Rome", "Mesopotamia", "Persia",
		"China", "Maya", "Aztec", "Inca",
	}
	cultureVocabulary = []string{
		"Egyptian", "Greek", "Roman", "Sumerian", "Babylonian",
		"Persian", "Celtic", "Viking", "Mayan",
	}
	materialVocabulary = []string{
		"Gold", "Silver", "Bronze", "Copper", "Iron",
		"Ceramic", "Terracotta", "Stone", "Marble", "Obsidian",
		"Wood", "Ivory", "Bone", "Glass", "Textile",
	}
)

// Stopwörter, die trotz ausreichender Länge keine brauchbaren Suchbegriffe sind.
var keywordStopwords = map[string]bool{
	"ancient":      true,
	"artifact":     true,
	"artefact":     true,
	"object":       true,
	"style":        true,
	"period":       true,
	"fragment":     true,
	"unknown":      true,
	"unidentified": true,
}

const maxKeywords = 5

var eraPattern = regexp.MustCompile(`(\d+)\s*(BCE|BC|CE|AD)`)

// BuildParamsFromReport leitet Suchparameter aus einem KI-Bericht ab:
// Keywords aus der Klassifikation, Ära per Regex, Region/Kultur/Material
// per Substring-Scan gegen die festen Vokabulare.
func BuildParamsFromReport(report models.AIReport) SearchParams {
	return SearchParams{
		Keywords: ExtractKeywords(report.Classification),
		Era:      ExtractEra(report.Classification),
		Region:   MatchVocabulary(report.GeographicSignificance, regionVocabulary),
		Culture:  MatchVocabulary(report.CulturalContext, cultureVocabulary),
		Material: MatchVocabulary(report.MaterialAnalysis, materialVocabulary),
	}
}

// ExtractKeywords zerlegt einen Klassifikationstext in Suchbegriffe.
// Behalten werden Wörter ab 5 Zeichen, Stopwörter fliegen raus, maximal
// maxKeywords Begriffe in Originalreihenfolge.
func ExtractKeywords(classification string) []string {
	var keywords []string
	for _, word := range strings.Fields(classification) {
		word = strings.ToLower(strings.Trim(word, ".,;:()[]\"'"))
		if len(word) < 5 || keywordStopwords[word] {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// ExtractEra sucht ein Muster wie "1323 BCE" im Text. Ohne Treffer wird der
// Originaltext unverändert durchgereicht.
func ExtractEra(text string) string {
	m := eraPattern.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	return m[1] + " " + m[2]
}

// MatchVocabulary gibt den ersten Vokabular-Eintrag zurück, der als
// case-insensitiver Substring im Text vorkommt, sonst den leeren String.
func MatchVocabulary(text string, vocabulary []string) string {
	lower := strings.ToLower(text)
	for _, term := range vocabulary {
		if strings.Contains(lower, strings.ToLower(term)) {
			return term
		}
	}
	return ""
}
