package providers

import (
	"context"

	"aletheon/models"
)

// SearchParams sind die Suchparameter für eine Katalog-Abfrage.
// Leere Felder werden beim Aufbau der Freitext-Query ignoriert.
type SearchParams struct {
	Keywords   []string
	Material   string
	Culture    string
	ObjectType string
	Region     string
	Era        string
}

// CatalogProvider ist das Interface, das jeder Katalog-Provider
// (z.B. Harvard Art Museums, Smithsonian) implementieren muss.
type CatalogProvider interface {
	// Search führt eine Suche aus und gibt normalisierte Katalog-Kandidaten zurück.
	Search(ctx context.Context, params SearchParams) ([]models.SearchResult, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "harvardart").
	Name() string
}

// FreeTextQuery verbindet alle gesetzten Parameter konjunktiv zu einer
// Freitext-Query für die Such-Endpunkte der Museums-APIs.
func (p SearchParams) FreeTextQuery() string {
	parts := make([]string, 0, len(p.Keywords)+4)
	parts = append(parts, p.Keywords...)
	for _, s := range []string{p.Material, p.Culture, p.ObjectType, p.Region} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

// MatchScore berechnet den rein rangbasierten Score für das Ergebnis an
// Position index von total: 1 - (index/total)*0.5. Das erste Ergebnis
// bekommt immer 1.0, das letzte nähert sich 0.5 an.
func MatchScore(index, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 1 - (float64(index)/float64(total))*0.5
}
