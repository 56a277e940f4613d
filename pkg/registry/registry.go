// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`^[A-Z]{2}$`)

func LoadRegistry(path string) (*JurisdictionRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg JurisdictionRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate enforces the registry invariants: non-empty uppercase
// two-letter codes, no duplicates, a name per jurisdiction.
func (r *JurisdictionRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Jurisdictions))
	for i, j := range r.Jurisdictions {
		if !codePattern.MatchString(j.Code) {
			return fmt.Errorf("jurisdiction %d: invalid code %q", i, j.Code)
		}
		if j.Name == "" {
			return fmt.Errorf("jurisdiction %s: missing name", j.Code)
		}
		if seen[j.Code] {
			return fmt.Errorf("jurisdiction %s: duplicate code", j.Code)
		}
		seen[j.Code] = true
	}
	return nil
}

// Find looks up a jurisdiction by code, case-insensitively.
func (r *JurisdictionRegistry) Find(code string) (*Jurisdiction, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i := range r.Jurisdictions {
		if r.Jurisdictions[i].Code == code {
			return &r.Jurisdictions[i], true
		}
	}
	return nil, false
}

// Enabled returns the jurisdictions available for live fetching,
// in registry order.
func (r *JurisdictionRegistry) Enabled() []Jurisdiction {
	var out []Jurisdiction
	for _, j := range r.Jurisdictions {
		if j.Enabled {
			out = append(out, j)
		}
	}
	return out
}
