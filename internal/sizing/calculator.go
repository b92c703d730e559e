// Package sizing sizes a battery bank for a given load, autonomy and
// chemistry.
//
// Inputs are validated before any arithmetic runs, so a returned result is
// always computed from positive, finite values. Invalid inputs yield a
// *ValidationError that matches ErrNotCalculated.
package sizing

import (
	"fmt"
	"math"

	"battery_sizer/internal/model"
	"battery_sizer/internal/narrative"
)

// Fixed design constants.
const (
	inverterHeadroom     = 1.25
	inverterCostPerKW    = 150.0
	lithiumBMSCost       = 45.0
	leadAcidBMSCost      = 15.0
	wiringCostPerBattery = 35.0
	minWiringCost        = 200.0
	installationRate     = 0.12
	daysPerYear          = 365

	lithiumWarrantyYears  = 10
	leadAcidWarrantyYears = 5

	lithiumDegradationRate  = 0.015
	leadAcidDegradationRate = 0.05

	// Ceiling on series and parallel counts. Inputs within their own bounds
	// can still combine into a bank nobody could build.
	maxStringCount = math.MaxInt32
)

// DegradationYears are the horizons reported in the degradation projection.
var DegradationYears = []int{1, 5, 10, 15}

// Lookup resolves chemistry profiles and environment deratings. All three
// must fall back to defaults for unknown keys rather than fail.
type Lookup interface {
	Resolve(model.Chemistry) model.Chemistry
	Profile(model.Chemistry) model.ChemistryProfile
	Factor(model.Chemistry, model.Environment) model.EnvironmentFactor
}

// Tariff is the time-of-use spread used for the arbitrage estimate, in £/kWh.
type Tariff struct {
	PeakRate    float64 `json:"peak_rate" validate:"finite,gte=0"`
	OffPeakRate float64 `json:"off_peak_rate" validate:"finite,gte=0"`
}

// DefaultTariff is a typical UK time-of-use spread.
func DefaultTariff() Tariff {
	return Tariff{PeakRate: 0.30, OffPeakRate: 0.075}
}

// Calculator sizes banks against a lookup, a tariff and a regulatory note set.
// It holds no per-calculation state and is safe for concurrent use.
type Calculator struct {
	lookup Lookup
	tariff Tariff
	notes  narrative.NoteSet
}

type Option func(*Calculator)

func WithTariff(t Tariff) Option {
	return func(c *Calculator) { c.tariff = t }
}

func WithNotes(n narrative.NoteSet) Option {
	return func(c *Calculator) { c.notes = n }
}

func NewCalculator(lookup Lookup, opts ...Option) *Calculator {
	c := &Calculator{
		lookup: lookup,
		tariff: DefaultTariff(),
		notes:  narrative.BS7671(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tariff returns the calculator's tariff.
func (c *Calculator) Tariff() Tariff {
	return c.tariff
}

// WithTariff returns a copy of the calculator using t.
func (c *Calculator) WithTariff(t Tariff) *Calculator {
	cp := *c
	cp.tariff = t
	return &cp
}

// Calculate sizes a bank with the default tariff and BS 7671 notes.
func Calculate(in model.SizingInput, lookup Lookup) (model.SizingResult, error) {
	return NewCalculator(lookup).Calculate(in)
}

// Calculate validates in and sizes the bank.
func (c *Calculator) Calculate(in model.SizingInput) (model.SizingResult, error) {
	if err := ValidateInput(in); err != nil {
		return model.SizingResult{}, err
	}
	if err := defaultValidator.Struct(c.tariff); err != nil {
		return model.SizingResult{}, err
	}

	chemistry := c.lookup.Resolve(in.Chemistry)
	profile := c.lookup.Profile(chemistry)
	env := c.lookup.Factor(chemistry, in.Environment)

	// Energy the bank must deliver, grossed up for losses and temperature.
	requiredEnergy := in.DailyConsumptionKWh * in.AutonomyDays * (1 + in.ReserveFraction)
	usableTarget := requiredEnergy / profile.RoundTripEfficiency / env.TempFactor
	totalTarget := usableTarget / profile.DepthOfDischarge

	// Series count is left fractional; mismatched voltages are the caller's problem.
	series := in.SystemVoltage / in.UnitVoltage
	if !withinStringCount(series) {
		return model.SizingResult{}, rangeError("unit_voltage", in.UnitVoltage)
	}
	bankAh := totalTarget * 1000 / in.SystemVoltage
	stringCount := math.Ceil(bankAh / in.UnitCapacityAh)
	if !withinStringCount(stringCount) {
		return model.SizingResult{}, rangeError("unit_capacity_ah", in.UnitCapacityAh)
	}
	parallel := int(stringCount)
	batteries := series * float64(parallel)

	// Report the installed bank, including the surplus from rounding up strings.
	actualBank := batteries * in.UnitCapacityAh * in.UnitVoltage / 1000
	actualUsable := actualBank * profile.DepthOfDischarge

	peak := in.EffectivePeakLoadKW()
	inverter := math.Max(peak, in.CriticalLoadKW*inverterHeadroom)

	maxBatteryPower := actualBank * profile.MaxDischargeC
	sufficient := maxBatteryPower >= in.CriticalLoadKW
	var warning string
	if !sufficient {
		warning = fmt.Sprintf(
			"Battery bank can only sustain %.1f kW continuously, below the %s kW critical load. Add more parallel strings.",
			maxBatteryPower, model.FormatCount(in.CriticalLoadKW))
	}

	backup := actualUsable / in.CriticalLoadKW

	// With no charger rating the intrinsic C-rate applies to the whole bank,
	// not the usable part.
	var charging float64
	if in.ChargerPowerKW > 0 {
		charging = actualUsable / in.ChargerPowerKW
	} else {
		charging = actualBank / profile.MaxChargeC
	}

	costs := costBreakdown(profile, actualBank, inverter, batteries)

	result := model.SizingResult{
		Chemistry:         chemistry,
		RequiredAh:        bankAh,
		UsableCapacityKWh: actualUsable,
		TotalCapacityKWh:  actualBank,
		TotalBatteries:    batteries,
		SeriesCount:       series,
		ParallelCount:     parallel,
		ContinuousPowerKW: in.CriticalLoadKW,
		PeakPowerKW:       peak,
		InverterRatingKW:  inverter,
		MaxBatteryPowerKW: maxBatteryPower,
		PowerSufficient:   sufficient,
		PowerWarning:      warning,
		BackupHours:       backup,
		ChargingHours:     charging,
		CycleLife:         profile.CycleLife,
		WarrantyYears:     warrantyYears(profile),
		Costs:             costs,
		CostPerKWh:        costs.Total / actualUsable,
		Tariff:            c.tariffSavings(actualUsable, profile),
		Degradation:       degradation(actualUsable, profile),
	}

	result.Summary = narrative.Summary(result, in)
	result.Recommendations = narrative.Recommendations(result)
	result.RegulatoryNotes = narrative.RegulatoryNotes(in, c.notes)
	return result, nil
}

func withinStringCount(n float64) bool {
	return !math.IsNaN(n) && n <= maxStringCount
}

func rangeError(field string, value float64) error {
	return &ValidationError{Fields: []FieldError{{
		Field:   field,
		Rule:    "range",
		Value:   fmt.Sprint(value),
		Message: ruleMessage("range", ""),
	}}}
}

func costBreakdown(p model.ChemistryProfile, bankKWh, inverterKW, batteries float64) model.CostBreakdown {
	bmsPerBattery := leadAcidBMSCost
	if p.IsLithium() {
		bmsPerBattery = lithiumBMSCost
	}

	c := model.CostBreakdown{
		Battery:  bankKWh * p.CostPerKWh,
		Inverter: inverterKW * inverterCostPerKW,
		BMS:      batteries * bmsPerBattery,
		Wiring:   math.Max(minWiringCost, batteries*wiringCostPerBattery),
	}
	c.Installation = (c.Battery + c.Inverter) * installationRate
	c.Total = c.Battery + c.Inverter + c.BMS + c.Wiring + c.Installation
	return c
}

func (c *Calculator) tariffSavings(usableKWh float64, p model.ChemistryProfile) model.TariffSavings {
	cycled := usableKWh * p.RoundTripEfficiency
	daily := cycled * (c.tariff.PeakRate - c.tariff.OffPeakRate)
	return model.TariffSavings{
		Daily:       daily,
		Annual:      daily * daysPerYear,
		PeakRate:    c.tariff.PeakRate,
		OffPeakRate: c.tariff.OffPeakRate,
	}
}

func degradation(usableKWh float64, p model.ChemistryProfile) []model.DegradationPoint {
	rate := leadAcidDegradationRate
	if p.IsLithium() {
		rate = lithiumDegradationRate
	}

	points := make([]model.DegradationPoint, 0, len(DegradationYears))
	for _, year := range DegradationYears {
		remaining := math.Pow(1-rate, float64(year))
		points = append(points, model.DegradationPoint{
			Year:        year,
			CapacityPct: math.Round(remaining * 100),
			UsableKWh:   math.Round(usableKWh*remaining*10) / 10,
		})
	}
	return points
}

func warrantyYears(p model.ChemistryProfile) int {
	if p.IsLithium() {
		return lithiumWarrantyYears
	}
	return leadAcidWarrantyYears
}
