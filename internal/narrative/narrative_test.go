package narrative

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery_sizer/internal/model"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		hours    float64
		expected string
	}{
		{0, "less than 1 hour"},
		{0.4, "less than 1 hour"},
		{0.6, "1 hour"},
		{9.12, "9 hours"},
		{24, "1 day"},
		{48.2, "2 days"},
		{25, "1 day and 1 hour"},
		{31, "1 day and 7 hours"},
		{55.6, "2 days and 8 hours"},
		{47.7, "2 days"}, // rounds up into a whole day
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Duration(tt.hours))
		})
	}
}

func TestSummary(t *testing.T) {
	r := model.SizingResult{
		SeriesCount:       4,
		ParallelCount:     7,
		TotalBatteries:    28,
		UsableCapacityKWh: 31.92,
		BackupHours:       9.12,
	}
	in := model.SizingInput{CriticalLoadKW: 3.5}

	assert.Equal(t,
		"Your 3.5 kW critical load can be supported for 9 hours using a 4S7P configuration (28 batteries) providing 31.9 kWh of usable capacity.",
		Summary(r, in))
}

func baseResult() model.SizingResult {
	return model.SizingResult{
		TotalBatteries:  4,
		PowerSufficient: true,
		ChargingHours:   8,
		CycleLife:       6000,
	}
}

func TestRecommendations_LongLifeOnly(t *testing.T) {
	recs := Recommendations(baseResult())
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "10+ year")
}

func TestRecommendations_BatteryCountBoundaries(t *testing.T) {
	tests := []struct {
		count      float64
		redundancy bool
		bms        bool
	}{
		{1, true, false},
		{2, false, false},
		{8, false, false},
		{9, false, true},
		{28, false, true},
	}

	for _, tt := range tests {
		r := baseResult()
		r.TotalBatteries = tt.count
		recs := strings.Join(Recommendations(r), "\n")
		assert.Equal(t, tt.redundancy, strings.Contains(recs, "redundancy"), "count %v", tt.count)
		assert.Equal(t, tt.bms, strings.Contains(recs, "BMS"), "count %v", tt.count)
	}
}

func TestRecommendations_Independent(t *testing.T) {
	r := model.SizingResult{
		TotalBatteries:  1,
		PowerSufficient: false,
		ChargingHours:   20,
		CycleLife:       1200,
	}
	recs := Recommendations(r)
	require.Len(t, recs, 4)
	assert.Contains(t, recs[0], "redundancy")
	assert.Contains(t, recs[1], "parallel strings")
	assert.Contains(t, recs[2], "larger charger")
	assert.Contains(t, recs[3], "plan for replacement every 3–5 years")
}

func TestRecommendations_Charging(t *testing.T) {
	r := baseResult()

	r.ChargingHours = 3.9
	assert.Contains(t, strings.Join(Recommendations(r), "\n"), "ventilation")

	r.ChargingHours = 4
	assert.NotContains(t, strings.Join(Recommendations(r), "\n"), "ventilation")

	r.ChargingHours = 12
	assert.NotContains(t, strings.Join(Recommendations(r), "\n"), "larger charger")

	r.ChargingHours = 12.1
	assert.Contains(t, strings.Join(Recommendations(r), "\n"), "larger charger")
}

func TestRegulatoryNotes(t *testing.T) {
	notes := BS7671()

	t.Run("48V indoor", func(t *testing.T) {
		got := RegulatoryNotes(model.SizingInput{SystemVoltage: 48, Environment: model.EnvironmentIndoor}, notes)
		require.Len(t, got, 3)
		assert.True(t, strings.HasPrefix(got[0], "48V DC system"))
		assert.Contains(t, got[1], "isolation")
		assert.Contains(t, got[2], "Earthing")
	})

	t.Run("12V", func(t *testing.T) {
		got := RegulatoryNotes(model.SizingInput{SystemVoltage: 12, Environment: model.EnvironmentGarage}, notes)
		require.Len(t, got, 3)
		assert.True(t, strings.HasPrefix(got[0], "12V extra-low voltage"))
	})

	t.Run("outdoor adds IP rating", func(t *testing.T) {
		got := RegulatoryNotes(model.SizingInput{SystemVoltage: 24, Environment: model.EnvironmentOutdoor}, notes)
		require.Len(t, got, 4)
		assert.Contains(t, got[3], "IP65")
	})
}

func TestClipboard(t *testing.T) {
	r := model.SizingResult{
		SeriesCount:       4,
		ParallelCount:     7,
		TotalBatteries:    28,
		TotalCapacityKWh:  33.6,
		UsableCapacityKWh: 31.92,
		BackupHours:       9.12,
		InverterRatingKW:  5.26,
		Costs:             model.CostBreakdown{Total: 21523.4},
		CostPerKWh:        674.29,
	}

	expected := strings.Join([]string{
		"Battery Storage Sizing",
		"Configuration: 4S7P (28 batteries)",
		"Total Capacity: 33.6 kWh",
		"Usable Capacity: 31.9 kWh",
		"Backup Duration: 9.1 hours",
		"Inverter Size: 5.3 kW",
		"Total Cost: £21523",
		"Cost per kWh: £674",
	}, "\n")
	assert.Equal(t, expected, Clipboard(r))
}
