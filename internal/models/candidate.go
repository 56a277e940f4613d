package models

// UnknownBusinessType is the sentinel appended when no catalog type scores
// above the classifier threshold. Downstream stages always have a target.
const UnknownBusinessType = "unknown"

// BusinessTypeCandidate is one ranked classifier result. Immutable once
// created; the candidate list is sorted by confidence descending with ties
// broken by catalog declaration order.
type BusinessTypeCandidate struct {
	TypeID          string   `json:"typeId"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matchedKeywords"`
}

// SimilarityHit is one nearest-neighbor result from the embedding index.
// Score is cosine similarity in [-1,1]; the hit list is sorted descending by
// score with ties broken by catalog order.
type SimilarityHit struct {
	LicenseID string  `json:"licenseId"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}
