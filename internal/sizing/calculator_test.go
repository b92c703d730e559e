package sizing

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery_sizer/internal/catalog"
	"battery_sizer/internal/model"
	"battery_sizer/internal/narrative"
)

// scenarioInput is a 25 kWh/day household with a 3.5 kW critical load on a
// 48V bank of 12V 100Ah LiFePO4 batteries.
func scenarioInput() model.SizingInput {
	return model.SizingInput{
		DailyConsumptionKWh: 25,
		CriticalLoadKW:      3.5,
		AutonomyDays:        1,
		Chemistry:           model.ChemistryLiFePO4,
		SystemVoltage:       48,
		UnitVoltage:         12,
		UnitCapacityAh:      100,
		Environment:         model.EnvironmentIndoor,
		ReserveFraction:     0.20,
	}
}

func calculate(t *testing.T, in model.SizingInput) model.SizingResult {
	t.Helper()
	r, err := Calculate(in, catalog.Default())
	require.NoError(t, err)
	return r
}

func TestCalculate_LithiumIndoor(t *testing.T) {
	r := calculate(t, scenarioInput())

	// 25 * 1 * 1.2 = 30 kWh, / 0.98 / 1.0 = 30.61 usable, / 0.95 = 32.22 total
	assert.InDelta(t, 32.2234*1000/48, r.RequiredAh, 0.01)
	assert.Equal(t, 4.0, r.SeriesCount)
	assert.Equal(t, 7, r.ParallelCount)
	assert.Equal(t, 28.0, r.TotalBatteries)
	assert.InDelta(t, 33.6, r.TotalCapacityKWh, 1e-9)
	assert.InDelta(t, 31.92, r.UsableCapacityKWh, 1e-9)

	assert.InDelta(t, 5.25, r.PeakPowerKW, 1e-9)
	assert.InDelta(t, 5.25, r.InverterRatingKW, 1e-9)
	assert.InDelta(t, 33.6, r.MaxBatteryPowerKW, 1e-9)
	assert.True(t, r.PowerSufficient)
	assert.Empty(t, r.PowerWarning)

	assert.InDelta(t, 31.92/3.5, r.BackupHours, 1e-9)
	// No charger: whole bank over the 0.5C charge rate.
	assert.InDelta(t, 33.6/0.5, r.ChargingHours, 1e-9)
	assert.Equal(t, 6000, r.CycleLife)
	assert.Equal(t, 10, r.WarrantyYears)

	assert.InDelta(t, 16800, r.Costs.Battery, 1e-6)
	assert.InDelta(t, 787.5, r.Costs.Inverter, 1e-6)
	assert.InDelta(t, 1260, r.Costs.BMS, 1e-6)
	assert.InDelta(t, 980, r.Costs.Wiring, 1e-6)
	assert.InDelta(t, 2110.5, r.Costs.Installation, 1e-6)
	assert.InDelta(t, 21938, r.Costs.Total, 1e-6)
	assert.InDelta(t, 21938/31.92, r.CostPerKWh, 1e-6)

	assert.InDelta(t, 31.92*0.98*0.225, r.Tariff.Daily, 1e-9)
	assert.InDelta(t, r.Tariff.Daily*365, r.Tariff.Annual, 1e-9)
	assert.Equal(t, 0.30, r.Tariff.PeakRate)
	assert.Equal(t, 0.075, r.Tariff.OffPeakRate)

	assert.Contains(t, r.Summary, "4S7P")
	assert.Contains(t, r.Summary, "9 hours")
	assert.Len(t, r.RegulatoryNotes, 3)
}

func TestCalculate_OutdoorDeratesUp(t *testing.T) {
	indoor := calculate(t, scenarioInput())

	in := scenarioInput()
	in.Environment = model.EnvironmentOutdoor
	outdoor := calculate(t, in)

	assert.Greater(t, outdoor.TotalCapacityKWh, indoor.TotalCapacityKWh)
	assert.Greater(t, outdoor.TotalBatteries, indoor.TotalBatteries)
	assert.Greater(t, outdoor.Costs.Total, indoor.Costs.Total)
	assert.Equal(t, 8, outdoor.ParallelCount)

	require.Len(t, outdoor.RegulatoryNotes, 4)
	assert.Contains(t, outdoor.RegulatoryNotes[3], "IP65")
}

func TestCalculate_FloodedLeadAcid(t *testing.T) {
	in := scenarioInput()
	in.Chemistry = model.ChemistryFlooded
	r := calculate(t, in)

	// 30 / 0.8 = 37.5 usable, / 0.5 = 75 kWh -> 1562.5Ah -> 16 strings
	assert.Equal(t, 16, r.ParallelCount)
	assert.Equal(t, 64.0, r.TotalBatteries)
	assert.InDelta(t, 76.8, r.TotalCapacityKWh, 1e-9)
	assert.Equal(t, 1200, r.CycleLife)
	assert.Equal(t, 5, r.WarrantyYears)
	assert.InDelta(t, 64*15.0, r.Costs.BMS, 1e-9)

	assert.Contains(t, strings.Join(r.Recommendations, "\n"), "plan for replacement every 3–5 years")

	require.Len(t, r.Degradation, 4)
	assert.Equal(t, []float64{95, 77, 60, 46}, []float64{
		r.Degradation[0].CapacityPct,
		r.Degradation[1].CapacityPct,
		r.Degradation[2].CapacityPct,
		r.Degradation[3].CapacityPct,
	})
	assert.InDelta(t, math.Round(38.4*0.95*10)/10, r.Degradation[0].UsableKWh, 1e-9)
}

func TestCalculate_LithiumDegradesSlower(t *testing.T) {
	li := calculate(t, scenarioInput())

	in := scenarioInput()
	in.Chemistry = model.ChemistryAGM
	agm := calculate(t, in)

	// 0.985^15 = 79.7%, 0.95^15 = 46.3%
	assert.Equal(t, 80.0, li.Degradation[3].CapacityPct)
	assert.Equal(t, 46.0, agm.Degradation[3].CapacityPct)
}

func TestCalculate_ExplicitPeakAndCharger(t *testing.T) {
	in := scenarioInput()
	in.PeakLoadKW = 8
	in.ChargerPowerKW = 5
	r := calculate(t, in)

	assert.InDelta(t, 8, r.InverterRatingKW, 1e-9)
	assert.InDelta(t, 8*150.0, r.Costs.Inverter, 1e-9)
	// Charger path uses usable capacity.
	assert.InDelta(t, 31.92/5, r.ChargingHours, 1e-9)
}

func TestCalculate_HeadroomBeatsLowPeak(t *testing.T) {
	in := scenarioInput()
	in.PeakLoadKW = 4 // below 3.5 * 1.25
	r := calculate(t, in)
	assert.InDelta(t, 4.375, r.InverterRatingKW, 1e-9)
}

func TestCalculate_InsufficientPower(t *testing.T) {
	in := model.SizingInput{
		DailyConsumptionKWh: 2,
		CriticalLoadKW:      5,
		AutonomyDays:        1,
		Chemistry:           model.ChemistryFlooded,
		SystemVoltage:       12,
		UnitVoltage:         12,
		UnitCapacityAh:      100,
		Environment:         model.EnvironmentIndoor,
		ReserveFraction:     0.2,
	}
	r := calculate(t, in)

	assert.Equal(t, 5.0, r.TotalBatteries)
	assert.InDelta(t, 0.9, r.MaxBatteryPowerKW, 1e-9)
	assert.False(t, r.PowerSufficient)
	assert.Contains(t, r.PowerWarning, "0.9 kW")
	assert.Contains(t, r.PowerWarning, "parallel strings")
	assert.Contains(t, strings.Join(r.Recommendations, "\n"), "parallel strings")
}

func TestCalculate_BatteryCountBoundaries(t *testing.T) {
	base := model.SizingInput{
		CriticalLoadKW:  0.5,
		AutonomyDays:    1,
		Chemistry:       model.ChemistryLiFePO4,
		SystemVoltage:   12,
		UnitVoltage:     12,
		UnitCapacityAh:  100,
		Environment:     model.EnvironmentIndoor,
		ChargerPowerKW:  1,
		ReserveFraction: 0,
	}

	tests := []struct {
		daily      float64
		batteries  float64
		redundancy bool
		largeBank  bool
	}{
		{1, 1, true, false},
		{8.5, 8, false, false},
		{10, 9, false, true},
	}

	for _, tt := range tests {
		in := base
		in.DailyConsumptionKWh = tt.daily
		r := calculate(t, in)
		recs := strings.Join(r.Recommendations, "\n")

		assert.Equal(t, tt.batteries, r.TotalBatteries, "daily %v", tt.daily)
		assert.Equal(t, tt.redundancy, strings.Contains(recs, "redundancy"), "daily %v", tt.daily)
		assert.Equal(t, tt.largeBank, strings.Contains(recs, "BMS"), "daily %v", tt.daily)
	}
}

func TestCalculate_FractionalSeriesNotRounded(t *testing.T) {
	in := scenarioInput()
	in.SystemVoltage = 48
	in.UnitVoltage = 36
	r := calculate(t, in)

	assert.InDelta(t, 48.0/36.0, r.SeriesCount, 1e-12)
	assert.InDelta(t, r.SeriesCount*float64(r.ParallelCount), r.TotalBatteries, 1e-12)
}

func TestCalculate_UnknownKeysFallBack(t *testing.T) {
	in := scenarioInput()
	ref := calculate(t, in)

	in.Chemistry = "sodium-ion"
	in.Environment = "basement"
	got := calculate(t, in)

	assert.Equal(t, ref.TotalBatteries, got.TotalBatteries)
	assert.Equal(t, ref.Costs, got.Costs)
	assert.Equal(t, model.ChemistryLiFePO4, got.Chemistry)
}

func TestCalculate_ReportsResolvedChemistry(t *testing.T) {
	in := scenarioInput()
	in.Chemistry = model.ChemistryAGM
	assert.Equal(t, model.ChemistryAGM, calculate(t, in).Chemistry)
}

func TestCalculate_Properties(t *testing.T) {
	tables := catalog.Default()
	voltages := [][2]float64{{12, 12}, {24, 12}, {48, 12}, {48, 24}, {48, 48}}

	for _, chem := range model.Chemistries {
		for _, env := range model.Environments {
			for _, v := range voltages {
				for _, daily := range []float64{0.5, 7.3, 25, 61} {
					in := model.SizingInput{
						DailyConsumptionKWh: daily,
						CriticalLoadKW:      2.2,
						AutonomyDays:        1.5,
						Chemistry:           chem,
						SystemVoltage:       v[0],
						UnitVoltage:         v[1],
						UnitCapacityAh:      200,
						Environment:         env,
						ReserveFraction:     0.1,
					}
					r, err := Calculate(in, tables)
					require.NoError(t, err)

					p := tables.Profile(chem)
					f := tables.Factor(chem, env)
					target := daily * 1.5 * 1.1 / p.RoundTripEfficiency / f.TempFactor / p.DepthOfDischarge

					assert.Equal(t, r.SeriesCount*float64(r.ParallelCount), r.TotalBatteries)
					assert.Equal(t, int(math.Ceil(r.RequiredAh/200)), r.ParallelCount)
					assert.GreaterOrEqual(t, r.TotalCapacityKWh+1e-9, target)

					c := r.Costs
					assert.Equal(t, c.Battery+c.Inverter+c.BMS+c.Wiring+c.Installation, c.Total)
					assert.Equal(t, math.Max(in.EffectivePeakLoadKW(), in.CriticalLoadKW*1.25), r.InverterRatingKW)

					for i := 1; i < len(r.Degradation); i++ {
						assert.LessOrEqual(t, r.Degradation[i].CapacityPct, r.Degradation[i-1].CapacityPct)
					}
				}
			}
		}
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	in := scenarioInput()
	a := calculate(t, in)
	b := calculate(t, in)
	assert.Equal(t, a, b)
}

func TestCalculate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.SizingInput)
		field  string
		rule   string
	}{
		{"zero consumption", func(in *model.SizingInput) { in.DailyConsumptionKWh = 0 }, "daily_consumption_kwh", "gt"},
		{"negative critical load", func(in *model.SizingInput) { in.CriticalLoadKW = -1 }, "critical_load_kw", "gt"},
		{"zero autonomy", func(in *model.SizingInput) { in.AutonomyDays = 0 }, "autonomy_days", "gt"},
		{"zero system voltage", func(in *model.SizingInput) { in.SystemVoltage = 0 }, "system_voltage", "gt"},
		{"zero unit voltage", func(in *model.SizingInput) { in.UnitVoltage = 0 }, "unit_voltage", "gt"},
		{"zero unit capacity", func(in *model.SizingInput) { in.UnitCapacityAh = 0 }, "unit_capacity_ah", "gt"},
		{"NaN consumption", func(in *model.SizingInput) { in.DailyConsumptionKWh = math.NaN() }, "daily_consumption_kwh", "finite"},
		{"infinite capacity", func(in *model.SizingInput) { in.UnitCapacityAh = math.Inf(1) }, "unit_capacity_ah", "finite"},
		{"negative charger", func(in *model.SizingInput) { in.ChargerPowerKW = -2 }, "charger_power_kw", "gte"},
		{"negative reserve", func(in *model.SizingInput) { in.ReserveFraction = -0.1 }, "reserve_fraction", "gte"},
		{"huge consumption", func(in *model.SizingInput) { in.DailyConsumptionKWh = 1e308 }, "daily_consumption_kwh", "lte"},
		{"huge critical load", func(in *model.SizingInput) { in.CriticalLoadKW = 1e6 }, "critical_load_kw", "lte"},
		{"huge peak load", func(in *model.SizingInput) { in.PeakLoadKW = 1e6 }, "peak_load_kw", "lte"},
		{"autonomy over a year", func(in *model.SizingInput) { in.AutonomyDays = 366 }, "autonomy_days", "lte"},
		{"huge system voltage", func(in *model.SizingInput) { in.SystemVoltage = 2001 }, "system_voltage", "lte"},
		{"huge unit voltage", func(in *model.SizingInput) { in.UnitVoltage = 2001 }, "unit_voltage", "lte"},
		{"huge unit capacity", func(in *model.SizingInput) { in.UnitCapacityAh = 1e6 }, "unit_capacity_ah", "lte"},
		{"huge charger", func(in *model.SizingInput) { in.ChargerPowerKW = 1e6 }, "charger_power_kw", "lte"},
		{"huge reserve", func(in *model.SizingInput) { in.ReserveFraction = 11 }, "reserve_fraction", "lte"},
		{"subnormal unit capacity", func(in *model.SizingInput) { in.UnitCapacityAh = 1e-320 }, "unit_capacity_ah", "range"},
		{"tiny unit capacity", func(in *model.SizingInput) { in.UnitCapacityAh = 1e-9 }, "unit_capacity_ah", "range"},
		{"tiny system voltage", func(in *model.SizingInput) { in.SystemVoltage = 1e-300 }, "unit_capacity_ah", "range"},
		{"subnormal unit voltage", func(in *model.SizingInput) { in.UnitVoltage = 1e-320 }, "unit_voltage", "range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := scenarioInput()
			tt.mutate(&in)

			r, err := Calculate(in, catalog.Default())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotCalculated))
			assert.Equal(t, model.SizingResult{}, r)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, tt.rule, verr.Fields[0].Rule)
		})
	}
}

func TestCalculate_LargestBankStaysPositive(t *testing.T) {
	in := scenarioInput()
	in.DailyConsumptionKWh = 1e6
	in.AutonomyDays = 365
	in.ReserveFraction = 10
	in.SystemVoltage = 1
	in.UnitVoltage = 1
	in.UnitCapacityAh = 1

	_, err := Calculate(in, catalog.Default())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "range", verr.Fields[0].Rule)

	in.SystemVoltage = 2000
	in.UnitCapacityAh = 100000
	r, err := Calculate(in, catalog.Default())
	require.NoError(t, err)
	assert.Greater(t, r.ParallelCount, 0)
	assert.Greater(t, r.TotalBatteries, 0.0)
	assert.Greater(t, r.Costs.Total, 0.0)
}

func TestCalculate_ReportsEveryField(t *testing.T) {
	_, err := Calculate(model.SizingInput{}, catalog.Default())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 6)
	assert.Contains(t, err.Error(), "daily_consumption_kwh must be greater than 0")
}

func TestCalculator_Tariff(t *testing.T) {
	calc := NewCalculator(catalog.Default(), WithTariff(Tariff{PeakRate: 0.40, OffPeakRate: 0.10}))
	r, err := calc.Calculate(scenarioInput())
	require.NoError(t, err)
	assert.InDelta(t, 31.92*0.98*0.30, r.Tariff.Daily, 1e-9)

	// WithTariff copies; the original keeps its rates.
	other := calc.WithTariff(DefaultTariff())
	assert.Equal(t, 0.40, calc.Tariff().PeakRate)
	assert.Equal(t, 0.30, other.Tariff().PeakRate)

	_, err = calc.WithTariff(Tariff{PeakRate: -1}).Calculate(scenarioInput())
	assert.ErrorIs(t, err, ErrNotCalculated)
}

func TestCalculator_Notes(t *testing.T) {
	notes := narrative.BS7671()
	notes.Earthing = "Local earthing rule."
	calc := NewCalculator(catalog.Default(), WithNotes(notes))

	r, err := calc.Calculate(scenarioInput())
	require.NoError(t, err)
	assert.Equal(t, "Local earthing rule.", r.RegulatoryNotes[2])
}

func TestCalculator_UsesStore(t *testing.T) {
	store := catalog.NewStore(catalog.Default())
	calc := NewCalculator(store)

	before, err := calc.Calculate(scenarioInput())
	require.NoError(t, err)

	next := catalog.Default()
	p := next.Chemistries[model.ChemistryLiFePO4]
	p.CostPerKWh = 400
	next.Chemistries[model.ChemistryLiFePO4] = p
	require.NoError(t, store.Replace(next))

	after, err := calc.Calculate(scenarioInput())
	require.NoError(t, err)
	assert.InDelta(t, 16800, before.Costs.Battery, 1e-6)
	assert.InDelta(t, 13440, after.Costs.Battery, 1e-6)
}
