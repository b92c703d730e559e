package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery_sizer/internal/model"
)

func TestLoad_Empty(t *testing.T) {
	tables, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), tables)
}

func TestLoad_Overrides(t *testing.T) {
	doc := `
chemistries:
  agm:
    name: AGM (trade price)
    family: lead-acid
    depth_of_discharge: 0.6
    cycle_life: 1500
    round_trip_efficiency: 0.85
    cost_per_kwh: 210
    max_charge_c: 0.2
    max_discharge_c: 0.3
    description: Trade-priced AGM
  sodium-ion:
    name: Sodium-ion
    family: lithium
    depth_of_discharge: 0.9
    cycle_life: 3000
    round_trip_efficiency: 0.92
    cost_per_kwh: 400
    max_charge_c: 0.5
    max_discharge_c: 1.0
environments:
  lithium:
    outdoor: {temp_factor: 0.85, label: Exposed outdoor}
  sodium-ion:
    indoor: {temp_factor: 1.0, label: Indoor}
    outdoor: {temp_factor: 0.8, label: Outdoor}
`
	tables, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 210.0, tables.Profile(model.ChemistryAGM).CostPerKWh)
	assert.Equal(t, "Sodium-ion", tables.Profile("sodium-ion").Name)

	// Merged per location: garage survives, outdoor replaced.
	assert.Equal(t, 0.95, tables.Factor(model.ChemistryLiFePO4, model.EnvironmentGarage).TempFactor)
	assert.Equal(t, 0.85, tables.Factor(model.ChemistryLiFePO4, model.EnvironmentOutdoor).TempFactor)
	assert.Equal(t, 0.8, tables.Factor("sodium-ion", model.EnvironmentOutdoor).TempFactor)
	// New row without a loft entry falls back to its own indoor entry.
	assert.Equal(t, 1.0, tables.Factor("sodium-ion", model.EnvironmentLoft).TempFactor)

	// Defaults are not mutated by an override.
	assert.Equal(t, 250.0, Default().Profile(model.ChemistryAGM).CostPerKWh)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(strings.NewReader("chemistry:\n  agm: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing tables YAML")
}

func TestLoad_Invalid(t *testing.T) {
	doc := `
environments:
  lithium:
    indoor: {temp_factor: 0.9, label: Cold}
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tables")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environments:\n  gel:\n    loft: {temp_factor: 0.7, label: Loft}\n"), 0o644))

	tables, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.7, tables.Factor(model.ChemistryGel, model.EnvironmentLoft).TempFactor)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
