package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrDuplicateDisasterType = errors.New("duplicate disaster type")
	ErrDuplicateUnit         = errors.New("duplicate resource unit")
	ErrEmptyKeyword          = errors.New("empty vulnerability keyword")
	ErrMissingReferenceData  = errors.New("missing reference data")
)

// DisasterType is a specific incident classification with its verification checklist.
type DisasterType struct {
	Name      string
	Checklist []string
}

// Category groups related disaster types, e.g. "Natural" or "Infrastructure".
type Category struct {
	Name  string
	Types []DisasterType
}

// Taxonomy is the ordered two-level hazard taxonomy. Lookups walk categories
// in slice order, so declaration order is authoritative.
type Taxonomy []Category

// Validate checks that every disaster type has a name and a non-empty
// checklist, and that names are unique across the whole taxonomy.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: taxonomy has no categories", ErrMissingReferenceData)
	}
	seen := make(map[string]string)
	for _, cat := range t {
		if cat.Name == "" {
			return errors.New("taxonomy category with empty name")
		}
		for _, dt := range cat.Types {
			if dt.Name == "" {
				return fmt.Errorf("category %q: disaster type with empty name", cat.Name)
			}
			if len(dt.Checklist) == 0 {
				return fmt.Errorf("category %q: disaster type %q has an empty checklist", cat.Name, dt.Name)
			}
			if prev, ok := seen[dt.Name]; ok {
				return fmt.Errorf("%w: %q in categories %q and %q", ErrDuplicateDisasterType, dt.Name, prev, cat.Name)
			}
			seen[dt.Name] = cat.Name
		}
	}
	return nil
}

// DisasterTypes flattens the taxonomy into disaster-type names in lookup order.
func (t Taxonomy) DisasterTypes() []string {
	var names []string
	for _, cat := range t {
		for _, dt := range cat.Types {
			names = append(names, dt.Name)
		}
	}
	return names
}

// ResourceRegistry maps a unit name to its current status description.
type ResourceRegistry map[string]string

// Units returns the registered unit names, sorted.
func (r ResourceRegistry) Units() []string {
	units := make([]string, 0, len(r))
	for name := range r {
		units = append(units, name)
	}
	sort.Strings(units)
	return units
}

// KeywordSet holds lowercase words that signal a life-critical situation.
type KeywordSet []string

// NewKeywordSet lowercases and trims the given words. Empty words are rejected
// because an empty substring matches every report.
func NewKeywordSet(words []string) (KeywordSet, error) {
	set := make(KeywordSet, 0, len(words))
	for i, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			return nil, fmt.Errorf("%w at index %d", ErrEmptyKeyword, i)
		}
		set = append(set, w)
	}
	return set, nil
}

// MatchIn reports the first keyword contained in text, case-insensitively.
func (k KeywordSet) MatchIn(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range k {
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}

// RegionalHazardIndex maps a region name to free text describing the hazards
// it is historically exposed to. Only used for substring containment.
type RegionalHazardIndex map[string]string

// Describes reports whether the region's hazard history mentions the disaster
// type. A missing region or empty disaster type never matches.
func (r RegionalHazardIndex) Describes(region, disasterType string) bool {
	if disasterType == "" {
		return false
	}
	info := strings.ToLower(r[region])
	return strings.Contains(info, strings.ToLower(disasterType))
}

// ReferenceData bundles the static tables the engine resolves against.
type ReferenceData struct {
	Taxonomy        Taxonomy
	Resources       ResourceRegistry
	Keywords        KeywordSet
	RegionalHazards RegionalHazardIndex
	LoadedAt        time.Time
}

// Validate checks the required tables. The regional hazard index is optional.
func (d ReferenceData) Validate() error {
	if err := d.Taxonomy.Validate(); err != nil {
		return fmt.Errorf("taxonomy: %w", err)
	}
	if len(d.Resources) == 0 {
		return fmt.Errorf("%w: resource registry is empty", ErrMissingReferenceData)
	}
	if len(d.Keywords) == 0 {
		return fmt.Errorf("%w: vulnerability keyword set is empty", ErrMissingReferenceData)
	}
	for i, w := range d.Keywords {
		if w == "" {
			return fmt.Errorf("%w at index %d", ErrEmptyKeyword, i)
		}
		if w != strings.ToLower(w) {
			return fmt.Errorf("vulnerability keyword %q is not lowercase", w)
		}
	}
	return nil
}
