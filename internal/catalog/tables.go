// Package catalog holds the chemistry and installation-environment lookup
// tables used by the sizing calculator.
//
// Lookups never fail: an unknown chemistry resolves to the LiFePO4 row and an
// unknown environment resolves to the indoor reference condition, so a new
// chemistry offered to users without matching environment rows still sizes.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"battery_sizer/internal/model"
)

// Tables is an immutable set of chemistry profiles and environment deratings.
type Tables struct {
	Chemistries  map[model.Chemistry]model.ChemistryProfile                        `json:"chemistries" yaml:"chemistries"`
	Environments map[model.Chemistry]map[model.Environment]model.EnvironmentFactor `json:"environments" yaml:"environments"`
}

// Default returns the built-in tables.
func Default() *Tables {
	return &Tables{
		Chemistries: map[model.Chemistry]model.ChemistryProfile{
			model.ChemistryLiFePO4: {
				Name:                "LiFePO4",
				Family:              model.FamilyLithium,
				DepthOfDischarge:    0.95,
				CycleLife:           6000,
				RoundTripEfficiency: 0.98,
				CostPerKWh:          500,
				MaxChargeC:          0.5,
				MaxDischargeC:       1.0,
				Description:         "Lithium iron phosphate. Safest lithium chemistry, long cycle life, no thermal runaway at normal temperatures.",
			},
			model.ChemistryNMC: {
				Name:                "Lithium NMC",
				Family:              model.FamilyLithium,
				DepthOfDischarge:    0.90,
				CycleLife:           4000,
				RoundTripEfficiency: 0.95,
				CostPerKWh:          450,
				MaxChargeC:          0.7,
				MaxDischargeC:       1.0,
				Description:         "Nickel manganese cobalt. Higher energy density, needs stricter thermal management.",
			},
			model.ChemistryAGM: {
				Name:                "AGM",
				Family:              model.FamilyLeadAcid,
				DepthOfDischarge:    0.60,
				CycleLife:           1500,
				RoundTripEfficiency: 0.85,
				CostPerKWh:          250,
				MaxChargeC:          0.2,
				MaxDischargeC:       0.3,
				Description:         "Absorbent glass mat sealed lead-acid. Maintenance free, moderate cycle life.",
			},
			model.ChemistryGel: {
				Name:                "Gel",
				Family:              model.FamilyLeadAcid,
				DepthOfDischarge:    0.60,
				CycleLife:           1800,
				RoundTripEfficiency: 0.85,
				CostPerKWh:          280,
				MaxChargeC:          0.15,
				MaxDischargeC:       0.2,
				Description:         "Gel sealed lead-acid. Tolerates deep discharge better than AGM, slow to charge.",
			},
			model.ChemistryFlooded: {
				Name:                "Flooded Lead-Acid",
				Family:              model.FamilyLeadAcid,
				DepthOfDischarge:    0.50,
				CycleLife:           1200,
				RoundTripEfficiency: 0.80,
				CostPerKWh:          180,
				MaxChargeC:          0.1,
				MaxDischargeC:       0.15,
				Description:         "Vented lead-acid. Lowest cost, needs topping up and a ventilated battery room.",
			},
		},
		Environments: map[model.Chemistry]map[model.Environment]model.EnvironmentFactor{
			model.ChemistryLiFePO4: environmentRow(0.95, 0.92, 0.90),
			model.ChemistryNMC:     environmentRow(0.93, 0.90, 0.85),
			model.ChemistryAGM:     environmentRow(0.90, 0.85, 0.80),
			model.ChemistryGel:     environmentRow(0.92, 0.88, 0.85),
			model.ChemistryFlooded: environmentRow(0.88, 0.85, 0.75),
		},
	}
}

func environmentRow(garage, loft, outdoor float64) map[model.Environment]model.EnvironmentFactor {
	return map[model.Environment]model.EnvironmentFactor{
		model.EnvironmentIndoor:  {TempFactor: 1.0, Label: "Indoor (heated)"},
		model.EnvironmentGarage:  {TempFactor: garage, Label: "Garage / outbuilding"},
		model.EnvironmentLoft:    {TempFactor: loft, Label: "Loft space"},
		model.EnvironmentOutdoor: {TempFactor: outdoor, Label: "Outdoor enclosure"},
	}
}

// Resolve returns c when it has a profile row, otherwise the default
// chemistry.
func (t *Tables) Resolve(c model.Chemistry) model.Chemistry {
	if _, ok := t.Chemistries[c]; ok {
		return c
	}
	return model.DefaultChemistry
}

// Profile returns the profile for c, or the default chemistry's profile when
// c has no row.
func (t *Tables) Profile(c model.Chemistry) model.ChemistryProfile {
	if p, ok := t.Chemistries[c]; ok {
		return p
	}
	return t.Chemistries[model.DefaultChemistry]
}

// Factor returns the derating for c at env. A chemistry without environment
// rows uses the default chemistry's rows; an environment missing from the row
// uses the row's indoor entry.
func (t *Tables) Factor(c model.Chemistry, env model.Environment) model.EnvironmentFactor {
	row, ok := t.Environments[c]
	if !ok {
		row = t.Environments[model.DefaultChemistry]
	}
	if f, ok := row[env]; ok {
		return f
	}
	if f, ok := row[model.DefaultEnvironment]; ok {
		return f
	}
	return model.EnvironmentFactor{TempFactor: 1.0, Label: "Indoor (heated)"}
}

// ChemistryKeys returns the known chemistries: built-in ones first in display
// order, then any extra keys sorted.
func (t *Tables) ChemistryKeys() []model.Chemistry {
	keys := make([]model.Chemistry, 0, len(t.Chemistries))
	seen := make(map[model.Chemistry]bool)
	for _, c := range model.Chemistries {
		if _, ok := t.Chemistries[c]; ok {
			keys = append(keys, c)
			seen[c] = true
		}
	}
	var extra []model.Chemistry
	for c := range t.Chemistries {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}

// EnvironmentKeys returns the environments present in the default
// chemistry's row, in display order.
func (t *Tables) EnvironmentKeys() []model.Environment {
	row := t.Environments[model.DefaultChemistry]
	keys := make([]model.Environment, 0, len(row))
	seen := make(map[model.Environment]bool)
	for _, e := range model.Environments {
		if _, ok := row[e]; ok {
			keys = append(keys, e)
			seen[e] = true
		}
	}
	var extra []model.Environment
	for e := range row {
		if !seen[e] {
			extra = append(extra, e)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}

// Validate checks the table invariants.
func (t *Tables) Validate() error {
	var errs []error
	if _, ok := t.Chemistries[model.DefaultChemistry]; !ok {
		errs = append(errs, fmt.Errorf("missing default chemistry %q", model.DefaultChemistry))
	}
	for c, p := range t.Chemistries {
		if err := validateProfile(p); err != nil {
			errs = append(errs, fmt.Errorf("chemistry %q: %w", c, err))
		}
	}
	for c, row := range t.Environments {
		for env, f := range row {
			switch {
			case env == model.DefaultEnvironment && f.TempFactor != 1.0:
				errs = append(errs, fmt.Errorf("environment %q/%q: reference factor must be 1.0, got %v", c, env, f.TempFactor))
			case !inUnitInterval(f.TempFactor):
				errs = append(errs, fmt.Errorf("environment %q/%q: factor %v outside (0,1]", c, env, f.TempFactor))
			}
		}
	}
	return errors.Join(errs...)
}

func validateProfile(p model.ChemistryProfile) error {
	var errs []error
	if p.Family != model.FamilyLithium && p.Family != model.FamilyLeadAcid {
		errs = append(errs, fmt.Errorf("unknown family %q", p.Family))
	}
	if !inUnitInterval(p.DepthOfDischarge) {
		errs = append(errs, fmt.Errorf("depth of discharge %v outside (0,1]", p.DepthOfDischarge))
	}
	if !inUnitInterval(p.RoundTripEfficiency) {
		errs = append(errs, fmt.Errorf("round-trip efficiency %v outside (0,1]", p.RoundTripEfficiency))
	}
	if p.CycleLife <= 0 {
		errs = append(errs, fmt.Errorf("cycle life must be positive, got %d", p.CycleLife))
	}
	if p.CostPerKWh <= 0 {
		errs = append(errs, fmt.Errorf("cost per kWh must be positive, got %v", p.CostPerKWh))
	}
	if p.MaxChargeC <= 0 || p.MaxDischargeC <= 0 {
		errs = append(errs, fmt.Errorf("C-rates must be positive, got charge %v discharge %v", p.MaxChargeC, p.MaxDischargeC))
	}
	return errors.Join(errs...)
}

func inUnitInterval(v float64) bool {
	return v > 0 && v <= 1
}

// clone returns a deep copy so overrides never mutate a shared table.
func (t *Tables) clone() *Tables {
	out := &Tables{
		Chemistries:  make(map[model.Chemistry]model.ChemistryProfile, len(t.Chemistries)),
		Environments: make(map[model.Chemistry]map[model.Environment]model.EnvironmentFactor, len(t.Environments)),
	}
	for c, p := range t.Chemistries {
		out.Chemistries[c] = p
	}
	for c, row := range t.Environments {
		r := make(map[model.Environment]model.EnvironmentFactor, len(row))
		for e, f := range row {
			r[e] = f
		}
		out.Environments[c] = r
	}
	return out
}
