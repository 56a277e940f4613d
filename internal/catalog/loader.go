package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "license-navigator/internal/common/errors"
)

// LoadFile reads, validates and snapshots a catalog document. Validation
// failures are fatal: the process must not serve queries from a catalog it
// cannot trust.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(err)
	}
	return Parse(data)
}

// Parse validates raw catalog JSON against the document schema and builds a
// Snapshot.
func Parse(data []byte) (*Snapshot, error) {
	schemaLoader := gojsonschema.NewStringLoader(documentSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, apperrors.NewConfigInvalidError(strings.Join(details, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(err)
	}

	if err := checkReferences(&doc); err != nil {
		return nil, err
	}

	return NewSnapshot(&doc), nil
}

// checkReferences enforces cross-field constraints the JSON schema cannot
// express: unique type IDs and override targets that exist.
func checkReferences(doc *Document) error {
	typeIDs := make(map[string]bool, len(doc.BusinessTypes))
	for _, bt := range doc.BusinessTypes {
		if typeIDs[bt.TypeID] {
			return apperrors.NewConfigInvalidError(fmt.Sprintf("duplicate typeId %q", bt.TypeID))
		}
		typeIDs[bt.TypeID] = true
	}

	for _, j := range doc.Jurisdictions {
		for _, ov := range j.Overrides {
			if !typeIDs[ov.TypeID] {
				return apperrors.NewConfigInvalidError(
					fmt.Sprintf("jurisdiction %s overrides unknown typeId %q", j.Code, ov.TypeID))
			}
		}
	}

	return nil
}
