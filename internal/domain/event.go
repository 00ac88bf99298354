package domain

import (
	"errors"
	"time"
)

// ErrMissingReportText rejects a classification that carries no report text.
var ErrMissingReportText = errors.New("no report text provided")

// RawEvent is one unparsed classifier record read from an input source.
type RawEvent struct {
	Value     []byte
	Source    string
	Line      int
	Timestamp time.Time
}

// IncidentClassification is the classifier's view of one incident report.
// Any field may be empty; Severity is nil when absent or not numeric.
type IncidentClassification struct {
	ReportText      string   `json:"report_text"`
	ManualLocation  string   `json:"manual_location,omitempty"`
	District        string   `json:"district,omitempty"`
	DisasterType    string   `json:"disaster_type,omitempty"`
	Location        string   `json:"location,omitempty"`
	Severity        *float64 `json:"severity,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	RecommendedUnit string   `json:"recommended_unit,omitempty"`
}

// Validate rejects input the engine must never see. Everything else is
// absorbed by defaults during resolution.
func (c IncidentClassification) Validate() error {
	if c.ReportText == "" {
		return ErrMissingReportText
	}
	return nil
}

// DispatchRecord is the resolved, actionable form of a classification.
// Location and RecommendedUnit hold the resolved values, not the classifier's.
type DispatchRecord struct {
	ID string `json:"id"`
	IncidentClassification

	FinalSeverity  float64  `json:"final_severity"`
	Checklist      []string `json:"checklist"`
	ResourceStatus string   `json:"resource_status"`
}

// OutputEvent is the serialized form destined for the output sink.
type OutputEvent struct {
	Key   []byte
	Value []byte
}
