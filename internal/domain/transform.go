package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// rawClassification is the loosely-typed JSON emitted by the classifier.
// The original request field "text" is accepted as an alias for report_text.
type rawClassification struct {
	ReportText      string          `json:"report_text"`
	Text            string          `json:"text"`
	ManualLocation  string          `json:"manual_location"`
	District        string          `json:"district"`
	DisasterType    string          `json:"disaster_type"`
	Location        string          `json:"location"`
	Severity        json.RawMessage `json:"severity"`
	Summary         string          `json:"summary"`
	RecommendedUnit string          `json:"recommended_unit"`
}

// ParseClassification deserializes a RawEvent's value into an
// IncidentClassification. Only malformed JSON is an error; a malformed
// severity is dropped so the orchestrator can apply its default.
func ParseClassification(raw RawEvent) (IncidentClassification, error) {
	var rec rawClassification
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return IncidentClassification{}, fmt.Errorf("parse classification: %w", err)
	}

	text := rec.ReportText
	if text == "" {
		text = rec.Text
	}

	return IncidentClassification{
		ReportText:      text,
		ManualLocation:  strings.TrimSpace(rec.ManualLocation),
		District:        rec.District,
		DisasterType:    rec.DisasterType,
		Location:        rec.Location,
		Severity:        parseSeverity(rec.Severity),
		Summary:         rec.Summary,
		RecommendedUnit: rec.RecommendedUnit,
	}, nil
}

// parseSeverity accepts a JSON number or a numeric string. Anything else,
// including NaN and infinities, yields nil.
func parseSeverity(data json.RawMessage) *float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// SerializeDispatch marshals a DispatchRecord into an OutputEvent keyed by its ID.
func SerializeDispatch(rec DispatchRecord) (OutputEvent, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize dispatch record: %w", err)
	}
	return OutputEvent{Key: []byte(rec.ID), Value: data}, nil
}

// generateID produces a deterministic ID from the incident's identifying
// fields, so replaying the same classification yields the same record.
func generateID(c IncidentClassification) string {
	input := strings.Join([]string{c.ReportText, c.ManualLocation, c.District, c.DisasterType}, "|")
	hash := sha256.Sum256([]byte(input))
	return "inc-" + hex.EncodeToString(hash[:8])
}
