package domain

import "math"

const (
	// LifeThreatBoost is added once when the report mentions a vulnerable or
	// critically injured person.
	LifeThreatBoost = 2.5
	// RegionalHazardBoost is added when the district has a history of the
	// reported disaster type.
	RegionalHazardBoost = 1.0
	// MaxSeverity caps the refined score. There is no lower bound.
	MaxSeverity = 10.0
	// DefaultSeverity stands in for a missing or non-numeric classifier score.
	DefaultSeverity = 5.0
)

// SeverityBreakdown records how a final severity was reached.
type SeverityBreakdown struct {
	Raw            float64
	LifeThreat     bool
	Keyword        string
	RegionalHazard bool
	Clamped        bool
	Final          float64
}

// ResolveSeverity refines a classifier severity with keyword and regional
// hazard boosts, clamps it to MaxSeverity, and rounds to one decimal place.
func ResolveSeverity(raw float64, reportText, district, disasterType string, keywords KeywordSet, hazards RegionalHazardIndex) float64 {
	return ExplainSeverity(raw, reportText, district, disasterType, keywords, hazards).Final
}

// ExplainSeverity is ResolveSeverity with the intermediate decisions exposed.
func ExplainSeverity(raw float64, reportText, district, disasterType string, keywords KeywordSet, hazards RegionalHazardIndex) SeverityBreakdown {
	b := SeverityBreakdown{Raw: raw}
	score := raw

	if kw, ok := keywords.MatchIn(reportText); ok {
		score += LifeThreatBoost
		b.LifeThreat = true
		b.Keyword = kw
	}

	if hazards.Describes(district, disasterType) {
		score += RegionalHazardBoost
		b.RegionalHazard = true
	}

	if score > MaxSeverity {
		score = MaxSeverity
		b.Clamped = true
	}

	b.Final = roundTenth(score)
	return b
}

// roundTenth rounds to one decimal place, half away from zero: 6.25 -> 6.3,
// -1.25 -> -1.3.
func roundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}
