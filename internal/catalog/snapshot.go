package catalog

import (
	"strings"

	"license-navigator/internal/models"
)

// Snapshot is the immutable, process-lifetime view of the catalog. All
// accessors are safe for concurrent use; reloading requires constructing a
// new Snapshot and restarting the consumers.
type Snapshot struct {
	version       string
	types         []BusinessType
	typeIndex     map[string]int
	jurisdictions map[string]Jurisdiction
	keywordFreq   map[string]int
	docs          []LicenseDoc
}

// NewSnapshot builds a Snapshot from a validated document.
func NewSnapshot(doc *Document) *Snapshot {
	s := &Snapshot{
		version:       doc.Version,
		types:         doc.BusinessTypes,
		typeIndex:     make(map[string]int, len(doc.BusinessTypes)),
		jurisdictions: make(map[string]Jurisdiction, len(doc.Jurisdictions)),
		keywordFreq:   make(map[string]int),
	}

	for i, bt := range doc.BusinessTypes {
		s.typeIndex[bt.TypeID] = i
		seen := make(map[string]bool, len(bt.Keywords))
		for _, kw := range bt.Keywords {
			norm := strings.ToLower(strings.TrimSpace(kw))
			if norm == "" || seen[norm] {
				continue
			}
			seen[norm] = true
			s.keywordFreq[norm]++
		}
		for _, tpl := range bt.Templates {
			s.docs = append(s.docs, flattenTemplate(bt, tpl, ""))
		}
	}

	for _, j := range doc.Jurisdictions {
		s.jurisdictions[strings.ToUpper(j.Code)] = j
		for _, ov := range j.Overrides {
			idx, ok := s.typeIndex[ov.TypeID]
			if !ok {
				continue
			}
			for _, tpl := range ov.Templates {
				s.docs = append(s.docs, flattenTemplate(s.types[idx], tpl, j.Code))
			}
		}
	}

	return s
}

func flattenTemplate(bt BusinessType, tpl LicenseTemplate, jurisdiction string) LicenseDoc {
	var text strings.Builder
	text.WriteString(tpl.Title)
	text.WriteString(". Category: ")
	text.WriteString(tpl.Category)
	text.WriteString(". Business type: ")
	text.WriteString(bt.DisplayName)
	text.WriteString(". Related terms: ")
	text.WriteString(strings.Join(bt.Keywords, ", "))
	return LicenseDoc{
		LicenseID:    tpl.LicenseID,
		TypeID:       bt.TypeID,
		Title:        tpl.Title,
		Category:     tpl.Category,
		Jurisdiction: strings.ToUpper(jurisdiction),
		Text:         text.String(),
		Template:     tpl,
	}
}

// Version returns the catalog document version.
func (s *Snapshot) Version() string {
	return s.version
}

// ListTypes returns business types in declaration order.
func (s *Snapshot) ListTypes() []BusinessType {
	return s.types
}

// GetBusinessType looks up one type by ID.
func (s *Snapshot) GetBusinessType(typeID string) (BusinessType, bool) {
	idx, ok := s.typeIndex[typeID]
	if !ok {
		return BusinessType{}, false
	}
	return s.types[idx], true
}

// TypeOrder returns the declaration index of typeID, used for deterministic
// tie-breaking. Unknown types sort last.
func (s *Snapshot) TypeOrder(typeID string) int {
	if idx, ok := s.typeIndex[typeID]; ok {
		return idx
	}
	return len(s.types)
}

// GetJurisdiction looks up a jurisdiction by its two-letter code.
func (s *Snapshot) GetJurisdiction(code string) (Jurisdiction, bool) {
	j, ok := s.jurisdictions[strings.ToUpper(strings.TrimSpace(code))]
	return j, ok
}

// KeywordFrequency returns how many business types declare the keyword.
// Rarer keywords carry more classification weight.
func (s *Snapshot) KeywordFrequency(keyword string) int {
	return s.keywordFreq[strings.ToLower(keyword)]
}

// LicenseDocs returns the flattened license corpus in catalog order: generic
// templates first (declaration order), then jurisdiction overrides.
func (s *Snapshot) LicenseDocs() []LicenseDoc {
	return s.docs
}

// FindDoc returns the doc for a license ID, preferring an exact jurisdiction
// match over the generic entry.
func (s *Snapshot) FindDoc(licenseID, jurisdiction string) (LicenseDoc, bool) {
	jurisdiction = strings.ToUpper(strings.TrimSpace(jurisdiction))
	var generic *LicenseDoc
	for i := range s.docs {
		if s.docs[i].LicenseID != licenseID {
			continue
		}
		if s.docs[i].Jurisdiction == jurisdiction {
			return s.docs[i], true
		}
		if s.docs[i].Jurisdiction == "" && generic == nil {
			generic = &s.docs[i]
		}
	}
	if generic != nil {
		return *generic, true
	}
	return LicenseDoc{}, false
}

// EntryFromDoc converts a license doc into a similarity-tagged LicenseEntry.
func EntryFromDoc(doc LicenseDoc, score float64) models.LicenseEntry {
	return models.LicenseEntry{
		LicenseID:    doc.LicenseID,
		Title:        doc.Title,
		Jurisdiction: doc.Jurisdiction,
		Category:     doc.Category,
		Cost:         doc.Template.Cost,
		Timeline:     doc.Template.Timeline,
		SourceURLs:   append([]string(nil), doc.Template.SourceURLs...),
		Origin:       models.OriginSimilarity,
		Score:        score,
	}
}
