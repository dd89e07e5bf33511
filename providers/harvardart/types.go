package harvardart

// searchResponse ist die Top-Level-Struktur der Harvard Art Museums API.
type searchResponse struct {
	Info struct {
		TotalRecords int `json:"totalrecords"`
	} `json:"info"`
	Records []objectRecord `json:"records"`
}

// objectRecord repräsentiert einen einzelnen Objekt-Datensatz. Viele Felder
// sind optional; die Abbildung liest sie defensiv.
type objectRecord struct {
	ObjectID        int    `json:"objectid"`
	ObjectNumber    string `json:"objectnumber"`
	Title           string `json:"title"`
	Dated           string `json:"dated"`
	Culture         string `json:"culture"`
	Medium          string `json:"medium"`
	Classification  string `json:"classification"`
	URL             string `json:"url"`
	PrimaryImageURL string `json:"primaryimageurl"`
	Images          []struct {
		BaseImageURL string `json:"baseimageurl"`
	} `json:"images"`
	Places []struct {
		DisplayName string `json:"displayname"`
	} `json:"places"`
}
