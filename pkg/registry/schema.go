// pkg/registry/schema.go
package registry

type JurisdictionRegistry struct {
	Version       string         `json:"version"`
	LastUpdated   string         `json:"lastUpdated"`
	Jurisdictions []Jurisdiction `json:"jurisdictions"`
}

type Jurisdiction struct {
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	OfficialLinks     []string `json:"officialLinks"`
	RetrievalProvider string   `json:"retrievalProvider"`
	FetchTopics       []string `json:"fetchTopics"`
	Enabled           bool     `json:"enabled"`
}
