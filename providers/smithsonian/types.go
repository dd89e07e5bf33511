package smithsonian

// searchResponse ist die Top-Level-Struktur der Smithsonian Open Access API.
type searchResponse struct {
	Status   int `json:"status"`
	Response struct {
		Rows     []row `json:"rows"`
		RowCount int   `json:"rowCount"`
	} `json:"response"`
}

// row ist ein einzelner Treffer. Die Struktur ist tief verschachtelt und
// fast jedes Feld optional.
type row struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content struct {
		DescriptiveNonRepeating struct {
			RecordLink  string `json:"record_link"`
			GUID        string `json:"guid"`
			OnlineMedia struct {
				Media []struct {
					Content   string `json:"content"`
					Thumbnail string `json:"thumbnail"`
				} `json:"media"`
			} `json:"online_media"`
		} `json:"descriptiveNonRepeating"`
		IndexedStructured struct {
			Date       []string `json:"date"`
			Place      []string `json:"place"`
			Culture    []string `json:"culture"`
			ObjectType []string `json:"object_type"`
			Material   []string `json:"material"`
		} `json:"indexedStructured"`
	} `json:"content"`
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
