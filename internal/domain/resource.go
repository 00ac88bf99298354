package domain

import "strings"

const (
	// DefaultUnit replaces a missing recommended unit.
	DefaultUnit = "SDRF Alpha Team"
	// StandbyStatus is reported for units the registry does not know.
	StandbyStatus = "Units on Standby"
)

type resourceResolution struct {
	unit            string
	status          string
	unitDefaulted   bool
	statusDefaulted bool
}

// ResolveResource returns a concrete unit name and its status. Neither
// return value is ever empty.
func ResolveResource(recommendedUnit string, registry ResourceRegistry) (unit, status string) {
	r := resolveResource(recommendedUnit, registry)
	return r.unit, r.status
}

func resolveResource(recommendedUnit string, registry ResourceRegistry) resourceResolution {
	r := resourceResolution{unit: recommendedUnit}
	if strings.TrimSpace(r.unit) == "" {
		r.unit = DefaultUnit
		r.unitDefaulted = true
	}

	// An empty status in the registry would leave the operator with nothing.
	if status, ok := registry[r.unit]; ok && status != "" {
		r.status = status
	} else {
		r.status = StandbyStatus
		r.statusDefaulted = true
	}
	return r
}
