package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"battery_sizer/internal/model"
	"battery_sizer/internal/sizing"
)

type comparison struct {
	Chemistry     model.Chemistry    `json:"chemistry"`
	SystemVoltage float64            `json:"system_voltage"`
	Result        model.SizingResult `json:"result"`
}

func compareCmd(a *app) *cobra.Command {
	var (
		input     inputFlags
		chemsFlag string
		voltsFlag string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Size the same load across chemistries and bank voltages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := input.resolve(a)
			if err != nil {
				return err
			}

			chems := a.tables.ChemistryKeys()
			if chemsFlag != "" {
				if chems, err = parseChemistries(chemsFlag); err != nil {
					return fmt.Errorf("invalid chemistries %q: %w", chemsFlag, err)
				}
			}
			volts := []float64{in.SystemVoltage}
			if voltsFlag != "" {
				if volts, err = parseVoltages(voltsFlag); err != nil {
					return fmt.Errorf("invalid system voltages %q: %w", voltsFlag, err)
				}
				sort.Float64s(volts)
			}

			rows, err := sweep(a.calculator(a.tables), in, chems, volts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			printComparison(out, in, rows)
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().StringVar(&chemsFlag, "chemistries", "", "comma-separated chemistries to compare (default all)")
	cmd.Flags().StringVar(&voltsFlag, "system-voltages", "", "comma-separated bank voltages to compare (default --system-voltage)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	return cmd
}

func sweep(calc *sizing.Calculator, in model.SizingInput, chems []model.Chemistry, volts []float64) ([]comparison, error) {
	rows := make([]comparison, 0, len(chems)*len(volts))
	for _, v := range volts {
		for _, c := range chems {
			run := in
			run.SystemVoltage = v
			run.Chemistry = c
			r, err := calc.Calculate(run)
			if err != nil {
				return nil, fmt.Errorf("sizing %s at %sV: %w", c, model.FormatCount(v), err)
			}
			rows = append(rows, comparison{Chemistry: c, SystemVoltage: v, Result: r})
		}
	}
	return rows, nil
}

// cheapest returns the index of the row with the lowest cost per usable kWh.
func cheapest(rows []comparison) int {
	if len(rows) == 0 {
		return -1
	}
	costs := make([]float64, len(rows))
	for i, r := range rows {
		costs[i] = r.Result.CostPerKWh
	}
	return floats.MinIdx(costs)
}

func printComparison(w io.Writer, in model.SizingInput, rows []comparison) {
	if len(rows) == 0 {
		return
	}
	best := cheapest(rows)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Battery Chemistry Comparison")
	fmt.Fprintf(w, "  Load: %s kWh/day, %s kW critical, %s day(s) autonomy, %s\n",
		model.FormatCount(in.DailyConsumptionKWh), model.FormatCount(in.CriticalLoadKW),
		model.FormatCount(in.AutonomyDays), in.Environment)
	fmt.Fprintf(w, "  Units: %sV %sAh\n", model.FormatCount(in.UnitVoltage), model.FormatCount(in.UnitCapacityAh))
	fmt.Fprintln(w)

	fmt.Fprintf(w, " %-12s │ %7s │ %8s │ %9s │ %10s │ %8s │ %9s │ %7s │ %6s\n",
		"Chemistry", "Voltage", "Config", "Batteries", "Usable", "Backup", "Total", "£/kWh", "Cycles")
	fmt.Fprintf(w, "──────────────┼─────────┼──────────┼───────────┼────────────┼──────────┼───────────┼─────────┼────────\n")

	for i, row := range rows {
		r := row.Result
		mark := " "
		if i == best {
			mark = "*"
		}
		power := ""
		if !r.PowerSufficient {
			power = " !"
		}
		fmt.Fprintf(w, " %-12s │ %6sV │ %8s │ %9s │ %6.1f kWh │ %6.1f h │ £%8.0f │ %6.0f%s │ %6d%s\n",
			row.Chemistry,
			model.FormatCount(row.SystemVoltage),
			r.Configuration(),
			model.FormatCount(r.TotalBatteries),
			r.UsableCapacityKWh,
			r.BackupHours,
			r.Costs.Total,
			r.CostPerKWh,
			mark,
			r.CycleLife,
			power,
		)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  * lowest cost per usable kWh   ! bank cannot sustain the critical load")
	fmt.Fprintln(w)
}

func parseVoltages(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	volts := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("voltage must be positive, got %v", v)
		}
		volts = append(volts, v)
	}
	if len(volts) == 0 {
		return nil, fmt.Errorf("no voltages specified")
	}
	return volts, nil
}

func parseChemistries(s string) ([]model.Chemistry, error) {
	var chems []model.Chemistry
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chems = append(chems, model.Chemistry(p))
	}
	if len(chems) == 0 {
		return nil, fmt.Errorf("no chemistries specified")
	}
	return chems, nil
}
