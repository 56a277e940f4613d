// Package catalog holds the static business-type taxonomy: keywords, license
// templates, cost/timeline ranges and resource links. The document is loaded
// once at startup into an immutable Snapshot that is passed by handle into
// the pipeline.
package catalog

import "license-navigator/internal/models"

// Document is the on-disk catalog shape.
type Document struct {
	Version       string         `json:"version"`
	BusinessTypes []BusinessType `json:"businessTypes"`
	Jurisdictions []Jurisdiction `json:"jurisdictions"`
}

// BusinessType maps a coarse business category to its keywords and generic
// license templates.
type BusinessType struct {
	TypeID      string            `json:"typeId"`
	DisplayName string            `json:"displayName"`
	Keywords    []string          `json:"keywords"`
	Templates   []LicenseTemplate `json:"templates"`
	Resources   []string          `json:"resources"`
}

// LicenseTemplate is one generic or jurisdiction-specific license entry.
type LicenseTemplate struct {
	LicenseID  string               `json:"licenseId"`
	Title      string               `json:"title"`
	Category   string               `json:"category"`
	Cost       models.CostRange     `json:"cost"`
	Timeline   models.TimelineRange `json:"timeline"`
	SourceURLs []string             `json:"sourceUrls"`
}

// Jurisdiction carries state-specific overrides and official resource links.
type Jurisdiction struct {
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	OfficialLinks []string   `json:"officialLinks"`
	Overrides     []Override `json:"overrides"`
}

// Override replaces the generic templates of one business type that share a
// category with jurisdiction-specific ones.
type Override struct {
	TypeID    string            `json:"typeId"`
	Templates []LicenseTemplate `json:"templates"`
}

// LicenseDoc is the flattened text form of one template, used both to build
// the embedding index and as the corpus for the keyword fallback search.
type LicenseDoc struct {
	LicenseID    string
	TypeID       string
	Title        string
	Category     string
	Jurisdiction string
	Text         string
	Template     LicenseTemplate
}
