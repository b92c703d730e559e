package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"battery_sizer/internal/catalog"
	"battery_sizer/internal/model"
)

func catalogCmd(a *app) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the chemistry and environment tables in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(a.tables); err != nil {
					return fmt.Errorf("encoding tables: %w", err)
				}
				return enc.Close()
			}
			printCatalog(out, a.tables)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the tables as YAML, usable as a --tables file")
	return cmd
}

func printCatalog(w io.Writer, t *catalog.Tables) {
	chems := t.ChemistryKeys()
	envs := t.EnvironmentKeys()

	fmt.Fprintln(w, "Chemistries")
	fmt.Fprintf(w, " %-12s │ %-18s │ %-9s │ %4s │ %6s │ %4s │ %5s │ %6s │ %9s\n",
		"Key", "Name", "Family", "DoD", "Cycles", "Eff", "£/kWh", "Charge", "Discharge")
	fmt.Fprintf(w, "──────────────┼────────────────────┼───────────┼──────┼────────┼──────┼───────┼────────┼───────────\n")
	for _, c := range chems {
		p := t.Profile(c)
		fmt.Fprintf(w, " %-12s │ %-18s │ %-9s │ %4.2f │ %6d │ %4.2f │ %5.0f │ %5.2fC │ %8.2fC\n",
			c, p.Name, p.Family, p.DepthOfDischarge, p.CycleLife, p.RoundTripEfficiency,
			p.CostPerKWh, p.MaxChargeC, p.MaxDischargeC)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment deratings")
	fmt.Fprintf(w, " %-12s", "Chemistry")
	for _, e := range envs {
		fmt.Fprintf(w, " │ %7s", e)
	}
	fmt.Fprintln(w)
	for _, c := range chems {
		fmt.Fprintf(w, " %-12s", c)
		for _, e := range envs {
			fmt.Fprintf(w, " │ %7.2f", t.Factor(c, e).TempFactor)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	for _, e := range envs {
		fmt.Fprintf(w, "  %-8s %s\n", e, t.Factor(model.DefaultChemistry, e).Label)
	}
}
