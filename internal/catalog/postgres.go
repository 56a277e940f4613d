package catalog

import (
	"context"
	"database/sql"
	"encoding/json"

	apperrors "license-navigator/internal/common/errors"
)

// LoadPostgres assembles a catalog document from the relational store used by
// deployments that manage the taxonomy outside of version control. Row order
// is fixed by the position columns so the resulting Snapshot is
// bit-for-bit deterministic.
func LoadPostgres(ctx context.Context, db *sql.DB) (*Snapshot, error) {
	doc := &Document{Version: "postgres"}

	rows, err := db.QueryContext(ctx, `
		SELECT type_id, display_name, keywords, resources
		FROM business_types ORDER BY position`)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("business_types", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bt BusinessType
		var keywords, resources []byte
		if err := rows.Scan(&bt.TypeID, &bt.DisplayName, &keywords, &resources); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("business_types", err)
		}
		if err := json.Unmarshal(keywords, &bt.Keywords); err != nil {
			bt.Keywords = nil
		}
		if err := json.Unmarshal(resources, &bt.Resources); err != nil {
			bt.Resources = nil
		}
		doc.BusinessTypes = append(doc.BusinessTypes, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("business_types", err)
	}

	if err := loadTemplates(ctx, db, doc); err != nil {
		return nil, err
	}
	if err := loadJurisdictions(ctx, db, doc); err != nil {
		return nil, err
	}

	if len(doc.BusinessTypes) == 0 {
		return nil, apperrors.NewConfigInvalidError("business_types table is empty")
	}
	if err := checkReferences(doc); err != nil {
		return nil, err
	}

	return NewSnapshot(doc), nil
}

func loadTemplates(ctx context.Context, db *sql.DB, doc *Document) error {
	rows, err := db.QueryContext(ctx, `
		SELECT license_id, type_id, COALESCE(jurisdiction, ''), title, category,
		       cost_min, cost_max, timeline_min_weeks, timeline_max_weeks, source_urls
		FROM license_templates ORDER BY position`)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("license_templates", err)
	}
	defer rows.Close()

	byType := make(map[string]int, len(doc.BusinessTypes))
	for i, bt := range doc.BusinessTypes {
		byType[bt.TypeID] = i
	}
	// jurisdiction overrides accumulate per (code, typeId) pair
	overrides := make(map[string]map[string][]LicenseTemplate)
	var codes []string

	for rows.Next() {
		var tpl LicenseTemplate
		var typeID, jurisdiction string
		var urls []byte
		if err := rows.Scan(&tpl.LicenseID, &typeID, &jurisdiction, &tpl.Title, &tpl.Category,
			&tpl.Cost.Min, &tpl.Cost.Max, &tpl.Timeline.MinWeeks, &tpl.Timeline.MaxWeeks, &urls); err != nil {
			return apperrors.NewQueryExecutionFailedError("license_templates", err)
		}
		if err := json.Unmarshal(urls, &tpl.SourceURLs); err != nil {
			tpl.SourceURLs = nil
		}

		if jurisdiction == "" {
			if idx, ok := byType[typeID]; ok {
				doc.BusinessTypes[idx].Templates = append(doc.BusinessTypes[idx].Templates, tpl)
			}
			continue
		}
		if overrides[jurisdiction] == nil {
			overrides[jurisdiction] = make(map[string][]LicenseTemplate)
			codes = append(codes, jurisdiction)
		}
		overrides[jurisdiction][typeID] = append(overrides[jurisdiction][typeID], tpl)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewQueryExecutionFailedError("license_templates", err)
	}

	for _, code := range codes {
		j := Jurisdiction{Code: code, Name: code}
		for _, bt := range doc.BusinessTypes {
			if tpls, ok := overrides[code][bt.TypeID]; ok {
				j.Overrides = append(j.Overrides, Override{TypeID: bt.TypeID, Templates: tpls})
			}
		}
		doc.Jurisdictions = append(doc.Jurisdictions, j)
	}

	return nil
}

func loadJurisdictions(ctx context.Context, db *sql.DB, doc *Document) error {
	rows, err := db.QueryContext(ctx, `
		SELECT code, name, official_links FROM jurisdictions ORDER BY code`)
	if err != nil {
		// The table is optional; overrides alone are enough.
		return nil
	}
	defer rows.Close()

	meta := make(map[string]Jurisdiction)
	var extra []Jurisdiction
	for rows.Next() {
		var j Jurisdiction
		var links []byte
		if err := rows.Scan(&j.Code, &j.Name, &links); err != nil {
			return apperrors.NewQueryExecutionFailedError("jurisdictions", err)
		}
		if err := json.Unmarshal(links, &j.OfficialLinks); err != nil {
			j.OfficialLinks = nil
		}
		meta[j.Code] = j
		extra = append(extra, j)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewQueryExecutionFailedError("jurisdictions", err)
	}

	known := make(map[string]bool)
	for i := range doc.Jurisdictions {
		known[doc.Jurisdictions[i].Code] = true
		if m, ok := meta[doc.Jurisdictions[i].Code]; ok {
			doc.Jurisdictions[i].Name = m.Name
			doc.Jurisdictions[i].OfficialLinks = m.OfficialLinks
		}
	}
	for _, j := range extra {
		if !known[j.Code] {
			doc.Jurisdictions = append(doc.Jurisdictions, j)
		}
	}

	return nil
}
