package model

type Chemistry string

const (
	ChemistryLiFePO4 Chemistry = "lithium"
	ChemistryNMC     Chemistry = "lithium-nmc"
	ChemistryAGM     Chemistry = "agm"
	ChemistryGel     Chemistry = "gel"
	ChemistryFlooded Chemistry = "flooded"

	// DefaultChemistry is used whenever a key has no table row.
	DefaultChemistry = ChemistryLiFePO4
)

// Chemistries lists every known chemistry in display order.
var Chemistries = []Chemistry{
	ChemistryLiFePO4,
	ChemistryNMC,
	ChemistryAGM,
	ChemistryGel,
	ChemistryFlooded,
}

// Family groups chemistries that share BMS, warranty and ageing behaviour.
type Family string

const (
	FamilyLithium  Family = "lithium"
	FamilyLeadAcid Family = "lead-acid"
)

type Environment string

const (
	EnvironmentIndoor  Environment = "indoor"
	EnvironmentGarage  Environment = "garage"
	EnvironmentLoft    Environment = "loft"
	EnvironmentOutdoor Environment = "outdoor"

	// DefaultEnvironment is the reference condition; its derating is always 1.0.
	DefaultEnvironment = EnvironmentIndoor
)

// Environments lists every known installation location in display order.
var Environments = []Environment{
	EnvironmentIndoor,
	EnvironmentGarage,
	EnvironmentLoft,
	EnvironmentOutdoor,
}

// ChemistryProfile holds the static characteristics of one battery chemistry.
// Fractions are in (0,1].
type ChemistryProfile struct {
	Name                string  `json:"name" yaml:"name"`
	Family              Family  `json:"family" yaml:"family"`
	DepthOfDischarge    float64 `json:"depth_of_discharge" yaml:"depth_of_discharge"`
	CycleLife           int     `json:"cycle_life" yaml:"cycle_life"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency" yaml:"round_trip_efficiency"`
	CostPerKWh          float64 `json:"cost_per_kwh" yaml:"cost_per_kwh"`
	MaxChargeC          float64 `json:"max_charge_c" yaml:"max_charge_c"`
	MaxDischargeC       float64 `json:"max_discharge_c" yaml:"max_discharge_c"`
	Description         string  `json:"description" yaml:"description"`
}

// IsLithium reports whether the profile belongs to the lithium family.
func (p ChemistryProfile) IsLithium() bool {
	return p.Family == FamilyLithium
}

// EnvironmentFactor is the temperature derating for a chemistry at a location.
type EnvironmentFactor struct {
	TempFactor float64 `json:"temp_factor" yaml:"temp_factor"`
	Label      string  `json:"label" yaml:"label"`
}
