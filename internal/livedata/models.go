// Package livedata fetches fresh license information from an external search
// service, extracts license-like entries from the returned snippets and
// merges them into the in-progress retrieval context.
package livedata

// FetchedDocument is one raw search result before extraction.
type FetchedDocument struct {
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
}
