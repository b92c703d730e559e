// Package narrative turns a sizing result into the text shown to the
// installer: a summary sentence, advisory recommendations, regulatory notes
// and the plain-text block copied to the clipboard.
package narrative

import (
	"fmt"
	"math"
	"strings"

	"battery_sizer/internal/model"
)

// Thresholds for the advisory recommendations.
const (
	largeBankBatteries = 8
	slowChargeHours    = 12
	fastChargeHours    = 4
	shortCycleLife     = 2000
)

// Duration phrases a backup time as whole days and remaining hours.
func Duration(hours float64) string {
	total := int(math.Round(hours))
	days := total / 24
	rem := total % 24

	switch {
	case days == 0 && rem == 0:
		return "less than 1 hour"
	case days == 0:
		return plural(rem, "hour")
	case rem == 0:
		return plural(days, "day")
	default:
		return plural(days, "day") + " and " + plural(rem, "hour")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Summary is the one-sentence description of the sized bank.
func Summary(r model.SizingResult, in model.SizingInput) string {
	return fmt.Sprintf(
		"Your %s kW critical load can be supported for %s using a %s configuration (%s batteries) providing %.1f kWh of usable capacity.",
		model.FormatCount(in.CriticalLoadKW),
		Duration(r.BackupHours),
		r.Configuration(),
		model.FormatCount(r.TotalBatteries),
		r.UsableCapacityKWh,
	)
}

// Recommendations evaluates each advisory independently; any number of them
// may apply to one result.
func Recommendations(r model.SizingResult) []string {
	recs := []string{}

	if r.TotalBatteries == 1 {
		recs = append(recs, "Single battery system: consider adding a second battery for redundancy on critical loads.")
	}
	if r.TotalBatteries > largeBankBatteries {
		recs = append(recs, fmt.Sprintf("Large battery bank (%s batteries): fit a BMS with cell monitoring and string balancing.", model.FormatCount(r.TotalBatteries)))
	}
	if !r.PowerSufficient {
		recs = append(recs, "Battery bank cannot sustain the continuous load: add more parallel strings or choose a higher C-rate chemistry.")
	}
	if r.ChargingHours > slowChargeHours {
		recs = append(recs, fmt.Sprintf("Charging takes %.1f hours: consider a larger charger to recover the bank within a day.", r.ChargingHours))
	}
	if r.ChargingHours < fastChargeHours {
		recs = append(recs, "Fast charging rate: ensure adequate ventilation and thermal management around the bank.")
	}
	if r.CycleLife < shortCycleLife {
		recs = append(recs, fmt.Sprintf("Rated for %d cycles: plan for replacement every 3–5 years with daily cycling.", r.CycleLife))
	} else {
		recs = append(recs, fmt.Sprintf("Rated for %d cycles: expect a 10+ year service life with daily cycling.", r.CycleLife))
	}

	return recs
}

// RegulatoryNotes returns the wiring-regulation notes that apply to the
// installation, worded by the given note set.
func RegulatoryNotes(in model.SizingInput, notes NoteSet) []string {
	voltage := model.FormatCount(in.SystemVoltage)

	out := make([]string, 0, 4)
	if in.SystemVoltage >= notes.VoltageThreshold {
		out = append(out, expand(notes.HighVoltage, voltage))
	} else {
		out = append(out, expand(notes.LowVoltage, voltage))
	}
	out = append(out, expand(notes.Isolation, voltage), expand(notes.Earthing, voltage))
	if in.Environment == model.EnvironmentOutdoor {
		out = append(out, expand(notes.Outdoor, voltage))
	}
	return out
}

func expand(note, voltage string) string {
	return strings.ReplaceAll(note, "{voltage}", voltage)
}

// Clipboard is the plain-text summary copied by the installer. Field order
// and rounding are fixed.
func Clipboard(r model.SizingResult) string {
	var b strings.Builder
	fmt.Fprintln(&b, "Battery Storage Sizing")
	fmt.Fprintf(&b, "Configuration: %s (%s batteries)\n", r.Configuration(), model.FormatCount(r.TotalBatteries))
	fmt.Fprintf(&b, "Total Capacity: %.1f kWh\n", r.TotalCapacityKWh)
	fmt.Fprintf(&b, "Usable Capacity: %.1f kWh\n", r.UsableCapacityKWh)
	fmt.Fprintf(&b, "Backup Duration: %.1f hours\n", r.BackupHours)
	fmt.Fprintf(&b, "Inverter Size: %.1f kW\n", r.InverterRatingKW)
	fmt.Fprintf(&b, "Total Cost: £%.0f\n", r.Costs.Total)
	fmt.Fprintf(&b, "Cost per kWh: £%.0f", r.CostPerKWh)
	return b.String()
}
