package model

import "strconv"

// SizingInput is built fresh from user-entered values for every calculation.
type SizingInput struct {
	DailyConsumptionKWh float64     `json:"daily_consumption_kwh" validate:"finite,gt=0,lte=1000000"`
	CriticalLoadKW      float64     `json:"critical_load_kw" validate:"finite,gt=0,lte=100000"`
	PeakLoadKW          float64     `json:"peak_load_kw" validate:"finite,gte=0,lte=100000"`
	AutonomyDays        float64     `json:"autonomy_days" validate:"finite,gt=0,lte=365"`
	Chemistry           Chemistry   `json:"chemistry"`
	SystemVoltage       float64     `json:"system_voltage" validate:"finite,gt=0,lte=2000"`
	UnitVoltage         float64     `json:"unit_voltage" validate:"finite,gt=0,lte=2000"`
	UnitCapacityAh      float64     `json:"unit_capacity_ah" validate:"finite,gt=0,lte=100000"`
	Environment         Environment `json:"environment"`
	ChargerPowerKW      float64     `json:"charger_power_kw" validate:"finite,gte=0,lte=100000"`
	ReserveFraction     float64     `json:"reserve_fraction" validate:"finite,gte=0,lte=10"`
}

// EffectivePeakLoadKW returns the peak load, defaulting to 1.5x the critical
// load when none was given.
func (in SizingInput) EffectivePeakLoadKW() float64 {
	if in.PeakLoadKW > 0 {
		return in.PeakLoadKW
	}
	return in.CriticalLoadKW * 1.5
}

// CostBreakdown itemises the installed cost. Total is the sum of the five items.
type CostBreakdown struct {
	Battery      float64 `json:"battery"`
	Inverter     float64 `json:"inverter"`
	BMS          float64 `json:"bms"`
	Wiring       float64 `json:"wiring"`
	Installation float64 `json:"installation"`
	Total        float64 `json:"total"`
}

type TariffSavings struct {
	Daily       float64 `json:"daily"`
	Annual      float64 `json:"annual"`
	PeakRate    float64 `json:"peak_rate"`
	OffPeakRate float64 `json:"off_peak_rate"`
}

type DegradationPoint struct {
	Year        int     `json:"year"`
	CapacityPct float64 `json:"capacity_pct"`
	UsableKWh   float64 `json:"usable_kwh"`
}

// SizingResult is the complete output of one calculation.
type SizingResult struct {
	// Chemistry is the key the bank was sized with, after fallback.
	Chemistry Chemistry `json:"chemistry"`

	RequiredAh        float64 `json:"required_ah"`
	UsableCapacityKWh float64 `json:"usable_capacity_kwh"`
	TotalCapacityKWh  float64 `json:"total_capacity_kwh"`
	TotalBatteries    float64 `json:"total_batteries"`
	SeriesCount       float64 `json:"series_count"`
	ParallelCount     int     `json:"parallel_count"`

	ContinuousPowerKW float64 `json:"continuous_power_kw"`
	PeakPowerKW       float64 `json:"peak_power_kw"`
	InverterRatingKW  float64 `json:"inverter_rating_kw"`
	MaxBatteryPowerKW float64 `json:"max_battery_power_kw"`
	PowerSufficient   bool    `json:"power_sufficient"`
	PowerWarning      string  `json:"power_warning,omitempty"`

	BackupHours   float64 `json:"backup_hours"`
	ChargingHours float64 `json:"charging_hours"`
	CycleLife     int     `json:"cycle_life"`
	WarrantyYears int     `json:"warranty_years"`

	Costs      CostBreakdown `json:"costs"`
	CostPerKWh float64       `json:"cost_per_kwh"`

	Tariff      TariffSavings      `json:"tariff"`
	Degradation []DegradationPoint `json:"degradation"`

	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	RegulatoryNotes []string `json:"regulatory_notes"`
}

// Configuration returns the bank layout as "<series>S<parallel>P".
func (r SizingResult) Configuration() string {
	return FormatCount(r.SeriesCount) + "S" + strconv.Itoa(r.ParallelCount) + "P"
}

// FormatCount prints a count or rating without trailing zeros.
func FormatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
