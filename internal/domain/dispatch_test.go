package domain

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testReference(t))
	require.NoError(t, err)
	return e
}

func severity(v float64) *float64 { return &v }

func TestBuildDispatch(t *testing.T) {
	e := newTestEngine(t)

	c := IncidentClassification{
		ReportText:      "child trapped under debris after hillside gave way",
		District:        "Kodagu",
		DisasterType:    "Landslide",
		Location:        "Madikeri",
		Severity:        severity(6),
		Summary:         "Landslide with a trapped child.",
		RecommendedUnit: "SDRF Squad",
	}

	rec := e.BuildDispatch(c, "")

	assert.True(t, strings.HasPrefix(rec.ID, "inc-"))
	assert.Equal(t, c.ReportText, rec.ReportText)
	assert.Equal(t, "Kodagu", rec.District)
	assert.Equal(t, "Landslide", rec.DisasterType)
	assert.Equal(t, "Madikeri", rec.Location)
	assert.Empty(t, rec.ManualLocation)
	require.NotNil(t, rec.Severity)
	assert.Equal(t, 6.0, *rec.Severity)
	assert.Equal(t, "Landslide with a trapped child.", rec.Summary)
	assert.InDelta(t, 9.5, rec.FinalSeverity, 1e-9)
	assert.Equal(t, []string{"Hill slope collapse", "Road blockage", "House burial"}, rec.Checklist)
	assert.Equal(t, "SDRF Squad", rec.RecommendedUnit)
	assert.Equal(t, "2 Rapid Response Teams", rec.ResourceStatus)
}

func TestBuildDispatch_ManualLocationOverrides(t *testing.T) {
	e := newTestEngine(t)
	c := IncidentClassification{ReportText: "flooding", Location: "Mangaluru"}

	rec := e.BuildDispatch(c, "  Near KSRTC bus stand, Udupi ")
	assert.Equal(t, "Near KSRTC bus stand, Udupi", rec.Location)
	assert.Equal(t, "Near KSRTC bus stand, Udupi", rec.ManualLocation)

	rec = e.BuildDispatch(c, "   ")
	assert.Equal(t, "Mangaluru", rec.Location, "blank override is ignored")
	assert.Empty(t, rec.ManualLocation)

	rec = e.BuildDispatch(IncidentClassification{ReportText: "flooding"}, "Udupi")
	assert.Equal(t, "Udupi", rec.Location)
}

func TestBuildDispatch_Defaults(t *testing.T) {
	e := newTestEngine(t)

	res := e.Resolve(IncidentClassification{ReportText: "something happened"}, "")

	assert.True(t, res.SeverityDefaulted)
	assert.True(t, res.ChecklistDefaulted)
	assert.True(t, res.UnitDefaulted)
	assert.True(t, res.StatusDefaulted)
	assert.False(t, res.LocationOverridden)

	rec := res.Record
	assert.Nil(t, rec.Severity)
	assert.InDelta(t, DefaultSeverity, rec.FinalSeverity, 1e-9)
	assert.Equal(t, []string{"Area Secured", "People Evacuated"}, rec.Checklist)
	assert.Equal(t, "SDRF Alpha Team", rec.RecommendedUnit)
	assert.Equal(t, "Units on Standby", rec.ResourceStatus)
	assert.Empty(t, rec.District, "district default only feeds severity")
	assert.Empty(t, rec.DisasterType, "disaster type default only feeds severity")
}

func TestBuildDispatch_DefaultSeverityStillBoosted(t *testing.T) {
	e := newTestEngine(t)

	rec := e.BuildDispatch(IncidentClassification{
		ReportText:   "elderly couple stranded",
		District:     "Kodagu",
		DisasterType: "Flood",
	}, "")
	assert.InDelta(t, 8.5, rec.FinalSeverity, 1e-9)
}

func TestBuildDispatch_UnknownValuesNeverFail(t *testing.T) {
	e := newTestEngine(t)

	res := e.Resolve(IncidentClassification{
		ReportText:      "horde approaching",
		District:        "Atlantis",
		DisasterType:    "Zombie Outbreak",
		Severity:        severity(7),
		RecommendedUnit: "Ghostbusters",
	}, "")

	assert.False(t, res.SeverityDefaulted)
	assert.True(t, res.ChecklistDefaulted)
	assert.False(t, res.UnitDefaulted)
	assert.True(t, res.StatusDefaulted)
	assert.InDelta(t, 7.0, res.Record.FinalSeverity, 1e-9)
	assert.Equal(t, []string{"Area Secured", "People Evacuated"}, res.Record.Checklist)
	assert.Equal(t, "Ghostbusters", res.Record.RecommendedUnit)
	assert.Equal(t, "Units on Standby", res.Record.ResourceStatus)
}

func TestBuildDispatch_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	c := IncidentClassification{
		ReportText:      "injured workers after bridge gave way",
		District:        "Bengaluru",
		DisasterType:    "Building Collapse",
		Severity:        severity(8),
		RecommendedUnit: "Medical Team",
	}

	first := e.BuildDispatch(c, "MG Road")
	second := e.BuildDispatch(c, "MG Road")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("dispatch not idempotent (-first +second):\n%s", diff)
	}

	other := e.BuildDispatch(c, "Brigade Road")
	assert.NotEqual(t, first.ID, other.ID)
}

func TestBuildDispatch_DoesNotAliasInput(t *testing.T) {
	e := newTestEngine(t)
	c := IncidentClassification{ReportText: "flood", DisasterType: "Flood", Severity: severity(4)}

	rec := e.BuildDispatch(c, "")
	*rec.Severity = 1
	rec.Checklist[0] = "tampered"

	assert.Equal(t, 4.0, *c.Severity)
	assert.Equal(t, "River flooding", e.BuildDispatch(c, "").Checklist[0])
}

func TestBuildDispatch_Concurrent(t *testing.T) {
	e := newTestEngine(t)
	c := IncidentClassification{
		ReportText:   "unconscious driver",
		District:     "Kodagu",
		DisasterType: "Landslide",
		Severity:     severity(5),
	}
	want := e.BuildDispatch(c, "")

	var wg sync.WaitGroup
	results := make([]DispatchRecord, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.BuildDispatch(c, "")
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestNewEngine_RejectsInvalidReference(t *testing.T) {
	ref := testReference(t)
	ref.Taxonomy = append(ref.Taxonomy, Category{
		Name:  "Duplicate",
		Types: []DisasterType{{Name: "Landslide", Checklist: []string{"x"}}},
	})
	_, err := NewEngine(ref)
	assert.ErrorIs(t, err, ErrDuplicateDisasterType)

	_, err = NewEngine(ReferenceData{})
	assert.ErrorIs(t, err, ErrMissingReferenceData)
}

func TestNewEngine_IsolatedFromCallerTables(t *testing.T) {
	ref := testReference(t)
	e, err := NewEngine(ref)
	require.NoError(t, err)

	ref.Taxonomy[0].Types[0].Checklist[0] = "tampered"
	ref.Resources["SDRF Squad"] = "tampered"
	ref.RegionalHazards["Kodagu"] = ""
	ref.Keywords[1] = "zzz"

	rec := e.BuildDispatch(IncidentClassification{
		ReportText:      "child missing",
		District:        "Kodagu",
		DisasterType:    "Flood",
		Severity:        severity(2),
		RecommendedUnit: "SDRF Squad",
	}, "")
	assert.Equal(t, "River flooding", rec.Checklist[0])
	assert.Equal(t, "2 Rapid Response Teams", rec.ResourceStatus)
	assert.InDelta(t, 5.5, rec.FinalSeverity, 1e-9)
}

func TestEngineListings(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, []string{"Flood", "Landslide", "Building Collapse", "Road Damage", "Medical"}, e.DisasterTypes())
	assert.Equal(t, []string{"Medical Team", "Rescue Boat", "SDRF Squad"}, e.Units())
	assert.True(t, e.LoadedAt().IsZero())
}
