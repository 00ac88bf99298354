package refdata

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/incident-triage/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loadTime = time.Date(2026, time.July, 14, 6, 30, 0, 0, time.UTC)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseReference_Defaults(t *testing.T) {
	ref, err := ParseReference(DefaultDocument())
	require.NoError(t, err)

	require.Len(t, ref.Taxonomy, 3)
	assert.Equal(t, "Natural", ref.Taxonomy[0].Name)
	assert.Equal(t, "Infrastructure", ref.Taxonomy[1].Name)
	assert.Equal(t, "Medical_Human", ref.Taxonomy[2].Name)
	assert.Len(t, ref.Taxonomy.DisasterTypes(), 15)
	assert.Equal(t, "Flood", ref.Taxonomy.DisasterTypes()[0])
	assert.Equal(t, "Accident", ref.Taxonomy.DisasterTypes()[14])

	assert.Equal(t, []string{"Hill slope collapse", "Road blockage", "House burial"}, domain.ResolveChecklist("Landslide", ref.Taxonomy))
	assert.Equal(t, []string{"Injury (Bleeding)", "Unconscious", "Chronic patient risk"}, domain.ResolveChecklist("Medical", ref.Taxonomy))

	assert.Len(t, ref.Resources, 5)
	assert.Equal(t, "3 Units Active (Coastal Command)", ref.Resources["Rescue Boat"])
	_, hasDefault := ref.Resources[domain.DefaultUnit]
	assert.False(t, hasDefault)

	assert.Equal(t, domain.KeywordSet{
		"elderly", "child", "pregnant", "disabled", "infant",
		"injured", "trapped", "bleeding", "unconscious", "oxygen",
	}, ref.Keywords)

	assert.Empty(t, ref.RegionalHazards)
	assert.True(t, ref.LoadedAt.IsZero())
}

func TestParseReference_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "invalid yaml",
			doc:  "categories: [",
			want: "decode reference data",
		},
		{
			name: "duplicate disaster type",
			doc: `
categories:
  - name: Natural
    disaster_types:
      - {name: Flood, checklist: [a]}
  - name: Urban
    disaster_types:
      - {name: Flood, checklist: [b]}
resources: [{unit: Boat, status: ready}]
vulnerability_keywords: [child]
`,
			want: "duplicate disaster type",
		},
		{
			name: "duplicate unit",
			doc: `
categories:
  - name: Natural
    disaster_types:
      - {name: Flood, checklist: [a]}
resources:
  - {unit: Boat, status: ready}
  - {unit: Boat, status: busy}
vulnerability_keywords: [child]
`,
			want: "duplicate resource unit",
		},
		{
			name: "empty keyword",
			doc: `
categories:
  - name: Natural
    disaster_types:
      - {name: Flood, checklist: [a]}
resources: [{unit: Boat, status: ready}]
vulnerability_keywords: [child, ""]
`,
			want: "empty vulnerability keyword",
		},
		{
			name: "missing registry",
			doc: `
categories:
  - name: Natural
    disaster_types:
      - {name: Flood, checklist: [a]}
vulnerability_keywords: [child]
`,
			want: "resource registry is empty",
		},
		{
			name: "empty status",
			doc: `
categories:
  - name: Natural
    disaster_types:
      - {name: Flood, checklist: [a]}
resources: [{unit: Boat}]
vulnerability_keywords: [child]
`,
			want: "empty status",
		},
		{
			name: "missing taxonomy",
			doc: `
resources: [{unit: Boat, status: ready}]
vulnerability_keywords: [child]
`,
			want: "taxonomy has no categories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReference([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseReference_NormalizesKeywords(t *testing.T) {
	doc := `
categories:
  - name: Natural
    disaster_types:
      - {name: Flood, checklist: [a]}
resources: [{unit: Boat, status: ready}]
vulnerability_keywords: [" Child ", ELDERLY]
`
	ref, err := ParseReference([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, domain.KeywordSet{"child", "elderly"}, ref.Keywords)
}

func TestParseRegionalHazards(t *testing.T) {
	idx, err := ParseRegionalHazards([]byte(`{"Kodagu":"landslide flood prone"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.RegionalHazardIndex{"Kodagu": "landslide flood prone"}, idx)

	idx, err = ParseRegionalHazards([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, idx)
	assert.Empty(t, idx)

	_, err = ParseRegionalHazards([]byte(`["Kodagu"]`))
	assert.Error(t, err)

	_, err = ParseRegionalHazards([]byte(`{"Kodagu": 3}`))
	assert.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	clock := clockwork.NewFakeClockAt(loadTime)
	loader := NewLoader(clock, slog.Default())
	hazards := writeFile(t, "district_risk.json", `{"Kodagu":"landslide flood prone"}`)

	ref, err := loader.Load("", hazards)
	require.NoError(t, err)

	assert.Equal(t, loadTime, ref.LoadedAt)
	assert.Equal(t, "landslide flood prone", ref.RegionalHazards["Kodagu"])
	assert.Len(t, ref.Taxonomy.DisasterTypes(), 15)
}

func TestLoader_Load_CustomReference(t *testing.T) {
	path := writeFile(t, "reference.yaml", `
categories:
  - name: Coastal
    disaster_types:
      - {name: Tsunami, checklist: [Sirens sounded, High ground reached]}
resources: [{unit: Coast Guard, status: 1 Cutter Ready}]
vulnerability_keywords: [stranded]
`)
	loader := NewLoader(nil, slog.Default())

	ref, err := loader.Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tsunami"}, ref.Taxonomy.DisasterTypes())
	assert.Equal(t, "1 Cutter Ready", ref.Resources["Coast Guard"])
	assert.Empty(t, ref.RegionalHazards)
	assert.False(t, ref.LoadedAt.IsZero())
}

func TestLoader_Load_ReferenceErrorsAreFatal(t *testing.T) {
	loader := NewLoader(nil, slog.Default())

	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read reference data")

	bad := writeFile(t, "bad.yaml", "categories: [")
	_, err = loader.Load(bad, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestLoader_LoadRegionalHazards_Degrades(t *testing.T) {
	loader := NewLoader(nil, slog.Default())

	t.Run("missing file", func(t *testing.T) {
		idx := loader.LoadRegionalHazards(filepath.Join(t.TempDir(), "nope.json"))
		assert.NotNil(t, idx)
		assert.Empty(t, idx)
	})

	t.Run("malformed file", func(t *testing.T) {
		idx := loader.LoadRegionalHazards(writeFile(t, "bad.json", "{not json"))
		assert.NotNil(t, idx)
		assert.Empty(t, idx)
	})

	t.Run("disabled", func(t *testing.T) {
		assert.Empty(t, loader.LoadRegionalHazards(""))
	})

	t.Run("reference still loads", func(t *testing.T) {
		ref, err := loader.Load("", writeFile(t, "bad.json", "[1,2"))
		require.NoError(t, err)
		assert.Empty(t, ref.RegionalHazards)
	})
}

func TestSampleHazardIndex(t *testing.T) {
	path := filepath.Join("..", "..", "..", "data", "district_risk.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	idx, err := ParseRegionalHazards(data)
	require.NoError(t, err)
	assert.True(t, idx.Describes("Kodagu", "Landslide"))
	assert.True(t, idx.Describes("Bengaluru Urban", "Urban Fire"))
}
