// Package refdata loads the triage reference tables: the hazard taxonomy,
// resource registry, and vulnerability keywords from YAML, and the regional
// hazard index from JSON.
package refdata

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/incident-triage/internal/domain"
	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultDocument []byte

// DefaultDocument returns the embedded reference data YAML.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultDocument...)
}

// document is the YAML layout of a reference data file. Lists rather than
// maps keep category and type order stable.
type document struct {
	Categories []struct {
		Name          string `yaml:"name"`
		DisasterTypes []struct {
			Name      string   `yaml:"name"`
			Checklist []string `yaml:"checklist"`
		} `yaml:"disaster_types"`
	} `yaml:"categories"`
	Resources []struct {
		Unit   string `yaml:"unit"`
		Status string `yaml:"status"`
	} `yaml:"resources"`
	VulnerabilityKeywords []string `yaml:"vulnerability_keywords"`
}

// ParseReference decodes and validates a reference data document. The
// returned data has no regional hazards and a zero LoadedAt.
func ParseReference(data []byte) (domain.ReferenceData, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.ReferenceData{}, fmt.Errorf("decode reference data: %w", err)
	}

	taxonomy := make(domain.Taxonomy, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		cat := domain.Category{Name: c.Name}
		for _, dt := range c.DisasterTypes {
			cat.Types = append(cat.Types, domain.DisasterType{Name: dt.Name, Checklist: dt.Checklist})
		}
		taxonomy = append(taxonomy, cat)
	}

	resources := make(domain.ResourceRegistry, len(doc.Resources))
	for _, r := range doc.Resources {
		if r.Unit == "" {
			return domain.ReferenceData{}, errors.New("resource with empty unit name")
		}
		if r.Status == "" {
			return domain.ReferenceData{}, fmt.Errorf("resource %q has an empty status", r.Unit)
		}
		if _, dup := resources[r.Unit]; dup {
			return domain.ReferenceData{}, fmt.Errorf("%w: %q", domain.ErrDuplicateUnit, r.Unit)
		}
		resources[r.Unit] = r.Status
	}

	keywords, err := domain.NewKeywordSet(doc.VulnerabilityKeywords)
	if err != nil {
		return domain.ReferenceData{}, err
	}

	ref := domain.ReferenceData{
		Taxonomy:  taxonomy,
		Resources: resources,
		Keywords:  keywords,
	}
	if err := ref.Validate(); err != nil {
		return domain.ReferenceData{}, err
	}
	return ref, nil
}

// ParseRegionalHazards decodes a JSON object mapping region name to a hazard
// description.
func ParseRegionalHazards(data []byte) (domain.RegionalHazardIndex, error) {
	var idx map[string]string
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode regional hazards: %w", err)
	}
	if idx == nil {
		idx = map[string]string{}
	}
	return domain.RegionalHazardIndex(idx), nil
}

// Loader reads reference data from disk once at startup.
type Loader struct {
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil clock uses real time.
func NewLoader(clock clockwork.Clock, logger *slog.Logger) *Loader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loader{clock: clock, logger: logger}
}

// Load reads the reference tables from referencePath, or the embedded
// defaults when it is empty, and the regional hazard index from hazardPath.
// Reference table errors are fatal; hazard index errors are logged and
// yield an empty index.
func (l *Loader) Load(referencePath, hazardPath string) (domain.ReferenceData, error) {
	data := defaultDocument
	source := "embedded"
	if referencePath != "" {
		b, err := os.ReadFile(referencePath)
		if err != nil {
			return domain.ReferenceData{}, fmt.Errorf("read reference data: %w", err)
		}
		data = b
		source = referencePath
	}

	ref, err := ParseReference(data)
	if err != nil {
		return domain.ReferenceData{}, fmt.Errorf("load reference data from %s: %w", source, err)
	}

	ref.RegionalHazards = l.LoadRegionalHazards(hazardPath)
	ref.LoadedAt = l.clock.Now()

	l.logger.Info("reference data loaded",
		"source", source,
		"disaster_types", len(ref.Taxonomy.DisasterTypes()),
		"units", len(ref.Resources),
		"keywords", len(ref.Keywords),
		"regions", len(ref.RegionalHazards),
	)
	return ref, nil
}

// LoadRegionalHazards reads the regional hazard index. It never fails: a
// missing or malformed file degrades to an empty index.
func (l *Loader) LoadRegionalHazards(path string) domain.RegionalHazardIndex {
	if path == "" {
		l.logger.Info("regional hazard index disabled")
		return domain.RegionalHazardIndex{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("could not read regional hazard index, using empty index", "path", path, "error", err)
		return domain.RegionalHazardIndex{}
	}

	idx, err := ParseRegionalHazards(data)
	if err != nil {
		l.logger.Warn("could not parse regional hazard index, using empty index", "path", path, "error", err)
		return domain.RegionalHazardIndex{}
	}
	return idx
}
