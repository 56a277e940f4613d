// Package matcher resolves a classified business type to its catalog license
// entries, applying jurisdiction-specific template overrides.
package matcher

import (
	"strings"

	"license-navigator/internal/catalog"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/models"
)

type Matcher struct {
	snapshot *catalog.Snapshot
	logger   logger.Logger
}

func New(snapshot *catalog.Snapshot, log logger.Logger) *Matcher {
	return &Matcher{
		snapshot: snapshot,
		logger:   log.With(map[string]interface{}{"component": "matcher"}),
	}
}

// Match returns the catalog license entries for the candidate's business
// type, tagged origin=catalog and scored with the candidate's confidence.
// When the jurisdiction declares overrides for the type, the overrides
// replace the generic templates that share their category. The result is
// deterministic: the same (type, jurisdiction) pair always yields the same
// ordered list.
func (m *Matcher) Match(candidate models.BusinessTypeCandidate, jurisdiction string) []models.LicenseEntry {
	bt, ok := m.snapshot.GetBusinessType(candidate.TypeID)
	if !ok {
		// the unknown sentinel and stale type IDs have no catalog templates
		m.logger.Debug("no catalog templates for type", map[string]interface{}{
			"typeId": candidate.TypeID,
		})
		return nil
	}

	jurisdiction = strings.ToUpper(strings.TrimSpace(jurisdiction))
	templates := m.applyOverrides(bt, jurisdiction)

	entries := make([]models.LicenseEntry, 0, len(templates))
	for _, tpl := range templates {
		entries = append(entries, models.LicenseEntry{
			LicenseID:    tpl.LicenseID,
			Title:        tpl.Title,
			Jurisdiction: jurisdiction,
			Category:     tpl.Category,
			Cost:         tpl.Cost,
			Timeline:     tpl.Timeline,
			SourceURLs:   append([]string(nil), tpl.SourceURLs...),
			Origin:       models.OriginCatalog,
			Score:        candidate.Confidence,
		})
	}
	return entries
}

// applyOverrides splices jurisdiction templates into the generic list.
// Override templates take the list position of the first generic template
// sharing their category; categories the generic list never mentions are
// appended at the end in override declaration order.
func (m *Matcher) applyOverrides(bt catalog.BusinessType, jurisdiction string) []catalog.LicenseTemplate {
	generic := bt.Templates
	if jurisdiction == "" {
		return generic
	}
	j, ok := m.snapshot.GetJurisdiction(jurisdiction)
	if !ok {
		return generic
	}

	var overriding []catalog.LicenseTemplate
	for _, ov := range j.Overrides {
		if ov.TypeID == bt.TypeID {
			overriding = append(overriding, ov.Templates...)
		}
	}
	if len(overriding) == 0 {
		return generic
	}

	byCategory := make(map[string][]catalog.LicenseTemplate)
	for _, tpl := range overriding {
		byCategory[tpl.Category] = append(byCategory[tpl.Category], tpl)
	}

	var out []catalog.LicenseTemplate
	emitted := make(map[string]bool)
	for _, tpl := range generic {
		if replacements, ok := byCategory[tpl.Category]; ok {
			if !emitted[tpl.Category] {
				out = append(out, replacements...)
				emitted[tpl.Category] = true
			}
			continue
		}
		out = append(out, tpl)
	}
	for _, tpl := range overriding {
		if !emitted[tpl.Category] {
			out = append(out, tpl)
		}
	}
	return out
}
