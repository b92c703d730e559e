package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"battery_sizer/internal/model"
	"battery_sizer/internal/narrative"
)

func calculateCmd(a *app) *cobra.Command {
	var (
		input     inputFlags
		asJSON    bool
		clipboard bool
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Size a battery bank for one set of inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := input.resolve(a)
			if err != nil {
				return err
			}
			result, err := a.calculator(a.tables).Calculate(in)
			if err != nil {
				return err
			}
			a.logger.Debug("sizing calculated",
				zap.String("chemistry", string(in.Chemistry)),
				zap.String("configuration", result.Configuration()))

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			case clipboard:
				_, err := fmt.Fprintln(out, narrative.Clipboard(result))
				return err
			default:
				printReport(out, in, result)
				return nil
			}
		},
	}

	input.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&clipboard, "clipboard", false, "print the short plain-text summary only")
	cmd.MarkFlagsMutuallyExclusive("json", "clipboard")
	return cmd
}

func printReport(w io.Writer, in model.SizingInput, r model.SizingResult) {
	fmt.Fprintln(w, "Battery Bank Sizing")
	fmt.Fprintln(w, "===================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Configuration:      %s (%s batteries of %sV %sAh)\n",
		r.Configuration(), model.FormatCount(r.TotalBatteries), model.FormatCount(in.UnitVoltage), model.FormatCount(in.UnitCapacityAh))
	fmt.Fprintf(w, "  Required capacity:  %.0f Ah at %sV\n", r.RequiredAh, model.FormatCount(in.SystemVoltage))
	fmt.Fprintf(w, "  Total capacity:     %.1f kWh\n", r.TotalCapacityKWh)
	fmt.Fprintf(w, "  Usable capacity:    %.1f kWh\n", r.UsableCapacityKWh)
	fmt.Fprintf(w, "  Backup duration:    %s (%.1f hours)\n", narrative.Duration(r.BackupHours), r.BackupHours)
	fmt.Fprintf(w, "  Charging time:      %.1f hours\n", r.ChargingHours)
	fmt.Fprintf(w, "  Inverter size:      %.1f kW\n", r.InverterRatingKW)
	fmt.Fprintf(w, "  Battery power:      %.1f kW continuous\n", r.MaxBatteryPowerKW)
	fmt.Fprintf(w, "  Cycle life:         %d cycles, %d year warranty\n", r.CycleLife, r.WarrantyYears)
	if !r.PowerSufficient {
		fmt.Fprintf(w, "  WARNING: %s\n", r.PowerWarning)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Costs")
	fmt.Fprintln(w, "-----")
	fmt.Fprintf(w, "  Batteries:          £%.0f\n", r.Costs.Battery)
	fmt.Fprintf(w, "  Inverter:           £%.0f\n", r.Costs.Inverter)
	fmt.Fprintf(w, "  BMS:                £%.0f\n", r.Costs.BMS)
	fmt.Fprintf(w, "  Wiring:             £%.0f\n", r.Costs.Wiring)
	fmt.Fprintf(w, "  Installation:       £%.0f\n", r.Costs.Installation)
	fmt.Fprintf(w, "  Total:              £%.0f (£%.0f per usable kWh)\n", r.Costs.Total, r.CostPerKWh)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Tariff arbitrage (£%.3f peak, £%.3f off-peak)\n", r.Tariff.PeakRate, r.Tariff.OffPeakRate)
	fmt.Fprintf(w, "  Daily £%.2f, annual £%.0f\n", r.Tariff.Daily, r.Tariff.Annual)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capacity over time")
	for _, p := range r.Degradation {
		fmt.Fprintf(w, "  Year %2d: %3.0f%% (%.1f kWh usable)\n", p.Year, p.CapacityPct, p.UsableKWh)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Summary)
	printList(w, "Recommendations", r.Recommendations)
	printList(w, "Regulatory notes", r.RegulatoryNotes)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
	for _, item := range items {
		fmt.Fprintf(w, "  * %s\n", item)
	}
}
