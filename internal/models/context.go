package models

// Turn is one prior exchange in the conversation, owned by the chat shell
// and read-only to the pipeline.
type Turn struct {
	UserInput string `json:"userInput"`
	Response  string `json:"response"`
}

// RetrievalContext is the aggregate passed between pipeline stages for a
// single query. Candidates are written once by the classifier; the license
// map is written by the matcher and retriever and finalized by the merger,
// which is the only stage allowed to overwrite entries.
type RetrievalContext struct {
	QueryID      string
	Query        string
	Jurisdiction string
	Candidates   []BusinessTypeCandidate
	History      []Turn

	licenses map[string]*LicenseEntry
	order    []string
}

// NewRetrievalContext creates an empty context for one query.
func NewRetrievalContext(queryID, query, jurisdiction string, history []Turn) *RetrievalContext {
	return &RetrievalContext{
		QueryID:      queryID,
		Query:        query,
		Jurisdiction: jurisdiction,
		History:      history,
		licenses:     make(map[string]*LicenseEntry),
	}
}

// TopCandidate returns the highest-confidence business type candidate.
func (rc *RetrievalContext) TopCandidate() BusinessTypeCandidate {
	if len(rc.Candidates) == 0 {
		return BusinessTypeCandidate{TypeID: UnknownBusinessType, Confidence: 1.0}
	}
	return rc.Candidates[0]
}

// AddLicense inserts an entry if its normalized key is not present yet.
// Insertion order is preserved; use ReplaceLicense for precedence overwrites.
func (rc *RetrievalContext) AddLicense(entry LicenseEntry) bool {
	key := entry.NormalizedKey()
	if _, ok := rc.licenses[key]; ok {
		return false
	}
	e := entry
	rc.licenses[key] = &e
	rc.order = append(rc.order, key)
	return true
}

// Lookup returns the entry stored under the given normalized key.
func (rc *RetrievalContext) Lookup(key string) (LicenseEntry, bool) {
	e, ok := rc.licenses[key]
	if !ok {
		return LicenseEntry{}, false
	}
	return *e, true
}

// ReplaceLicense overwrites the entry stored under key, keeping its position
// in the insertion order. The key must already exist.
func (rc *RetrievalContext) ReplaceLicense(key string, entry LicenseEntry) bool {
	if _, ok := rc.licenses[key]; !ok {
		return false
	}
	e := entry
	rc.licenses[key] = &e
	return true
}

// Licenses returns entries in precedence-resolved insertion order.
func (rc *RetrievalContext) Licenses() []LicenseEntry {
	out := make([]LicenseEntry, 0, len(rc.order))
	for _, key := range rc.order {
		out = append(out, *rc.licenses[key])
	}
	return out
}

// LicenseCount returns the number of distinct entries.
func (rc *RetrievalContext) LicenseCount() int {
	return len(rc.order)
}
