// Package domain models disaster-incident triage: classifier output goes in,
// a fully resolved dispatch record comes out.
//
// # Input
//
// An upstream classifier reads a free-text incident report and emits a flat
// JSON object per report. Any subset of fields may be missing and the
// vocabulary is not validated against the taxonomy:
//
//	{"report_text": "child trapped under debris", "district": "Kodagu",
//	 "disaster_type": "Landslide", "severity": 6, "recommended_unit": "SDRF Squad"}
//
// Severity arrives as a JSON number or a numeric string, nominally 1-10.
// Anything else is treated as unknown and replaced by [DefaultSeverity].
//
// # Severity refinement
//
// The classifier's number is the starting score. Two rule-based boosts are
// added on top of it:
//
//	Life threat:     +2.5 when any vulnerability keyword appears in the
//	                 report text (case-insensitive substring, applied once)
//	Regional hazard: +1.0 when the disaster type appears in the district's
//	                 hazard history (case-insensitive substring)
//
// The result is clamped to at most 10.0 and rounded to one decimal place,
// half away from zero. There is no lower clamp.
//
// # Fallbacks
//
// Triage degrades rather than blocks. Unknown disaster types get the
// baseline checklist ("Area Secured", "People Evacuated"), a missing unit
// becomes "SDRF Alpha Team", and a unit absent from the registry reports
// "Units on Standby". Only an empty report text is rejected, and that check
// happens before the engine runs (see [IncidentClassification.Validate]).
//
// # Reference data
//
// The taxonomy, resource registry, and keyword set are required; an engine
// cannot be built without them. The regional hazard index is optional and
// may be empty. All reference data is immutable once an [Engine] exists,
// so a single engine can serve any number of goroutines.
package domain
