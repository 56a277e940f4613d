// Package retriever returns catalog license entries semantically similar to
// a query. Three interchangeable variants exist: an embedding index built at
// startup, an external Elasticsearch index, and a keyword scan over the same
// catalog texts. All variants produce the same output shape so callers never
// branch on which one is active.
package retriever

import (
	"context"
	"strings"

	"license-navigator/internal/models"
)

// DefaultTopK bounds result lists when the caller passes a non-positive top_k.
const DefaultTopK = 5

// Retriever is the polymorphic retrieval contract. Entries come back tagged
// origin=similarity, sorted by descending score, ties broken by catalog
// declaration order.
type Retriever interface {
	Retrieve(ctx context.Context, query, jurisdiction string, topK int) ([]models.LicenseEntry, error)
	Name() string
}

// docID encodes a catalog license doc into a stable index identifier.
func docID(licenseID, jurisdiction string) string {
	return licenseID + "|" + jurisdiction
}

// splitDocID reverses docID.
func splitDocID(id string) (licenseID, jurisdiction string) {
	if i := strings.LastIndex(id, "|"); i >= 0 {
		return id[:i], id[i+1:]
	}
	return id, ""
}

func clampTopK(topK int) int {
	if topK < 1 {
		return DefaultTopK
	}
	return topK
}
