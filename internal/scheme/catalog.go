package scheme

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed catalog.json
var catalogJSON []byte

// Catalog is the immutable scheme set. Loaded once at process start; safe to
// share read-only across all concurrent callers since it never mutates.
//
// A production deployment would source this from a managed store; the catalog
// changes rarely enough that a redeploy per change is acceptable here.
type Catalog struct {
	schemes []Scheme
	byID    map[string]Scheme
}

// LoadCatalog parses and validates the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	var schemes []Scheme
	if err := json.Unmarshal(catalogJSON, &schemes); err != nil {
		return nil, fmt.Errorf("parse scheme catalog: %w", err)
	}

	byID := make(map[string]Scheme, len(schemes))
	for _, s := range schemes {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("scheme with missing id or name in catalog")
		}
		if s.Status != StatusActive && s.Status != StatusClosed {
			return nil, fmt.Errorf("scheme %s: invalid status %q", s.ID, s.Status)
		}
		if s.Deadline == "" {
			return nil, fmt.Errorf("scheme %s: missing deadline", s.ID)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scheme id %s", s.ID)
		}
		byID[s.ID] = s
	}

	return &Catalog{schemes: schemes, byID: byID}, nil
}

// All returns every catalog entry in file order. Callers must not mutate the
// returned slice elements.
func (c *Catalog) All() []Scheme {
	out := make([]Scheme, len(c.schemes))
	copy(out, c.schemes)
	return out
}

// ByID looks up a single scheme.
func (c *Catalog) ByID(id string) (Scheme, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Len reports the catalog size.
func (c *Catalog) Len() int {
	return len(c.schemes)
}
