package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

const (
	// unknownDistrict and generalDisasterType stand in for missing classifier
	// fields when computing severity. They are not written to the record.
	unknownDistrict     = "Unknown"
	generalDisasterType = "General"
)

// Resolution is a dispatch record together with the fallbacks and boosts
// that shaped it.
type Resolution struct {
	Record             DispatchRecord
	Severity           SeverityBreakdown
	SeverityDefaulted  bool
	ChecklistDefaulted bool
	UnitDefaulted      bool
	StatusDefaulted    bool
	LocationOverridden bool
}

// Engine resolves classifications into dispatch records against a fixed set
// of reference data. It is safe for concurrent use.
type Engine struct {
	ref ReferenceData
}

// NewEngine validates the reference data and takes a private copy of it, so
// later changes to the caller's tables do not leak into resolution.
func NewEngine(ref ReferenceData) (*Engine, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return &Engine{ref: cloneReferenceData(ref)}, nil
}

// BuildDispatch resolves one classification. A non-blank manualLocation
// overrides the classifier's location.
func (e *Engine) BuildDispatch(c IncidentClassification, manualLocation string) DispatchRecord {
	return e.Resolve(c, manualLocation).Record
}

// Resolve is BuildDispatch with the resolution details exposed.
func (e *Engine) Resolve(c IncidentClassification, manualLocation string) Resolution {
	var res Resolution

	rec := DispatchRecord{IncidentClassification: c}
	rec.Severity = copyFloat(c.Severity)

	manualLocation = strings.TrimSpace(manualLocation)
	rec.ManualLocation = manualLocation
	if manualLocation != "" {
		rec.Location = manualLocation
		res.LocationOverridden = true
	}

	raw := DefaultSeverity
	if c.Severity != nil {
		raw = *c.Severity
	} else {
		res.SeverityDefaulted = true
	}
	res.Severity = ExplainSeverity(
		raw,
		c.ReportText,
		orDefault(c.District, unknownDistrict),
		orDefault(c.DisasterType, generalDisasterType),
		e.ref.Keywords,
		e.ref.RegionalHazards,
	)
	rec.FinalSeverity = res.Severity.Final

	checklist, matched := lookupChecklist(c.DisasterType, e.ref.Taxonomy)
	rec.Checklist = checklist
	res.ChecklistDefaulted = !matched

	rr := resolveResource(c.RecommendedUnit, e.ref.Resources)
	rec.RecommendedUnit = rr.unit
	rec.ResourceStatus = rr.status
	res.UnitDefaulted = rr.unitDefaulted
	res.StatusDefaulted = rr.statusDefaulted

	rec.ID = generateID(rec.IncidentClassification)
	res.Record = rec
	return res
}

// DisasterTypes lists every disaster type the engine recognizes, in lookup order.
func (e *Engine) DisasterTypes() []string {
	return e.ref.Taxonomy.DisasterTypes()
}

// Units lists the registered resource units, sorted.
func (e *Engine) Units() []string {
	return e.ref.Resources.Units()
}

// LoadedAt reports when the engine's reference data was loaded.
func (e *Engine) LoadedAt() time.Time {
	return e.ref.LoadedAt
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneReferenceData(ref ReferenceData) ReferenceData {
	taxonomy := make(Taxonomy, len(ref.Taxonomy))
	for i, cat := range ref.Taxonomy {
		types := make([]DisasterType, len(cat.Types))
		for j, dt := range cat.Types {
			types[j] = DisasterType{Name: dt.Name, Checklist: slices.Clone(dt.Checklist)}
		}
		taxonomy[i] = Category{Name: cat.Name, Types: types}
	}

	hazards := maps.Clone(ref.RegionalHazards)
	if hazards == nil {
		hazards = RegionalHazardIndex{}
	}

	return ReferenceData{
		Taxonomy:        taxonomy,
		Resources:       maps.Clone(ref.Resources),
		Keywords:        slices.Clone(ref.Keywords),
		RegionalHazards: hazards,
		LoadedAt:        ref.LoadedAt,
	}
}
