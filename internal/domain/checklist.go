package domain

// baselineChecklist is what an operator confirms when the disaster type is
// unknown. It must never be empty.
var baselineChecklist = []string{"Area Secured", "People Evacuated"}

// BaselineChecklist returns a copy of the fallback checklist.
func BaselineChecklist() []string {
	return append([]string(nil), baselineChecklist...)
}

// Lookup finds a disaster type by exact, case-sensitive name, walking
// categories in order. The first match wins.
func (t Taxonomy) Lookup(name string) (Category, DisasterType, bool) {
	if name == "" {
		return Category{}, DisasterType{}, false
	}
	for _, cat := range t {
		for _, dt := range cat.Types {
			if dt.Name == name {
				return cat, dt, true
			}
		}
	}
	return Category{}, DisasterType{}, false
}

// ResolveChecklist returns the verification checklist for a disaster type,
// or the baseline checklist when the type is empty or unknown.
func ResolveChecklist(disasterType string, taxonomy Taxonomy) []string {
	items, _ := lookupChecklist(disasterType, taxonomy)
	return items
}

// lookupChecklist is ResolveChecklist that also reports whether the
// taxonomy had a match. The returned slice is always a fresh copy.
func lookupChecklist(disasterType string, taxonomy Taxonomy) ([]string, bool) {
	_, dt, ok := taxonomy.Lookup(disasterType)
	if !ok || len(dt.Checklist) == 0 {
		return BaselineChecklist(), false
	}
	return append([]string(nil), dt.Checklist...), true
}
