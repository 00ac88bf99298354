package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/incident-triage/internal/adapter/refdata"
	"github.com/couchcryptid/incident-triage/internal/domain"
	"github.com/spf13/cobra"
)

// errCheckFailed is returned when any check phase reports an error.
var errCheckFailed = errors.New("reference data check failed")

// phase tracks pass/fail for one check.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &referenceFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate reference data and the regional hazard index",
		Long: `Check loads the reference tables and the regional hazard index the same
way resolve does, but treats an unreadable or malformed hazard index as an
error instead of degrading to an empty index. It lists the disaster types and
units dispatch records can carry, and notes regions whose hazard description
names no known disaster type.

Example:
  triage check
  triage check --reference refdata.yaml --hazards data/district_risk.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root, opts)
			if err != nil {
				return err
			}
			return runCheck(cmd.OutOrStdout(), cfg.ReferenceDataPath, cfg.RegionalHazardPath)
		},
	}

	opts.register(cmd)
	return cmd
}

func runCheck(w io.Writer, referencePath, hazardPath string) error {
	fmt.Fprintln(w, "=== Reference Data Check ===")
	fmt.Fprintln(w)

	tables := &phase{name: "Reference tables"}
	ref := checkReference(tables, referencePath)

	hazards := &phase{name: "Regional hazard index"}
	if hazardPath == "" {
		hazards.notef("disabled")
	} else {
		ref.RegionalHazards = checkHazards(hazards, hazardPath)
	}

	coverage := &phase{name: "Hazard coverage"}
	var engine *domain.Engine
	if tables.passed() && hazards.passed() {
		var err error
		engine, err = domain.NewEngine(ref)
		if err != nil {
			coverage.errorf("%v", err)
		} else {
			checkCoverage(coverage, ref.RegionalHazards, engine.DisasterTypes())
		}
	}

	phases := []*phase{tables, hazards, coverage}
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-28s %s\n", p.name, status)
	}

	if engine != nil {
		types := engine.DisasterTypes()
		units := engine.Units()
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Disaster types (%d): %s\n", len(types), strings.Join(types, ", "))
		fmt.Fprintf(w, "Units (%d): %s\n", len(units), strings.Join(units, ", "))
		fmt.Fprintf(w, "Vulnerability keywords: %d\n", len(ref.Keywords))
		fmt.Fprintf(w, "Regions: %d\n", len(ref.RegionalHazards))
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(w, "  note: %s\n", n)
		}
	}

	if !allPassed {
		fmt.Fprintln(w, "\nCheck FAILED.")
		return errCheckFailed
	}
	fmt.Fprintln(w, "\nAll checks passed.")
	return nil
}

func checkReference(p *phase, path string) domain.ReferenceData {
	data := refdata.DefaultDocument()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			p.errorf("read %s: %v", path, err)
			return domain.ReferenceData{}
		}
		data = b
	} else {
		p.notef("using embedded defaults")
	}

	ref, err := refdata.ParseReference(data)
	if err != nil {
		p.errorf("%v", err)
	}
	return ref
}

func checkHazards(p *phase, path string) domain.RegionalHazardIndex {
	data, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read %s: %v", path, err)
		return nil
	}
	idx, err := refdata.ParseRegionalHazards(data)
	if err != nil {
		p.errorf("%v", err)
		return nil
	}
	if len(idx) == 0 {
		p.notef("%s has no regions", path)
	}
	return idx
}

// checkCoverage notes regions whose description cannot boost any disaster type.
func checkCoverage(p *phase, idx domain.RegionalHazardIndex, types []string) {
	regions := make([]string, 0, len(idx))
	for region := range idx {
		regions = append(regions, region)
	}
	slices.Sort(regions)

	for _, region := range regions {
		if !slices.ContainsFunc(types, func(t string) bool { return idx.Describes(region, t) }) {
			p.notef("region %q names no known disaster type", region)
		}
	}
}
