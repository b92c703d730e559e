package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"battery_sizer/internal/loadprofile"
	"battery_sizer/internal/model"
	"battery_sizer/internal/sizing"
)

// inputFlags holds the sizing inputs as text so they go through the same
// parsing and validation as the web form.
type inputFlags struct {
	form          sizing.FormValues
	history       string
	historyEntity string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.form.DailyConsumption, "daily", "", "daily consumption in kWh (required unless --history is set)")
	fl.StringVar(&f.form.CriticalLoad, "critical-load", "", "continuous critical load in kW (required unless --history is set)")
	fl.StringVar(&f.form.PeakLoad, "peak-load", "", "peak load in kW (default 1.5x critical load)")
	fl.StringVar(&f.form.AutonomyDays, "autonomy", "1", "days of autonomy")
	fl.StringVar(&f.form.Chemistry, "chemistry", string(model.DefaultChemistry), "battery chemistry")
	fl.StringVar(&f.form.SystemVoltage, "system-voltage", "48", "bank voltage in V")
	fl.StringVar(&f.form.UnitVoltage, "unit-voltage", "12", "voltage of one battery in V")
	fl.StringVar(&f.form.UnitCapacity, "unit-capacity", "100", "capacity of one battery in Ah")
	fl.StringVar(&f.form.Environment, "environment", string(model.DefaultEnvironment), "installation environment")
	fl.StringVar(&f.form.ChargerPower, "charger", "", "charger power in kW (default: chemistry charge rate)")
	fl.StringVar(&f.form.ReservePercent, "reserve", "", "reserve margin in percent (default 20)")
	fl.StringVar(&f.history, "history", "", "Home Assistant power history CSV used to fill empty load flags")
	fl.StringVar(&f.historyEntity, "history-entity", "", "sensor to read from a history holding several")
}

// resolve parses the inputs. With --history set, empty load fields are
// estimated from the recorded power history first.
func (f *inputFlags) resolve(a *app) (model.SizingInput, error) {
	form := f.form
	if f.history != "" {
		readings, err := loadprofile.ParseFile(f.history, f.historyEntity)
		if err != nil {
			return model.SizingInput{}, err
		}
		p, err := loadprofile.Estimate(readings)
		if err != nil {
			return model.SizingInput{}, fmt.Errorf("estimating load from %s: %w", f.history, err)
		}
		a.logger.Info("load profile estimated",
			zap.String("file", f.history),
			zap.Int("samples", p.Samples),
			zap.Float64("days", p.Days),
			zap.Float64("daily_kwh", p.DailyKWh),
			zap.Float64("critical_kw", p.CriticalKW),
			zap.Float64("peak_kw", p.PeakKW))
		form = applyProfile(form, p)
	}
	return sizing.ParseForm(form)
}

func applyProfile(form sizing.FormValues, p loadprofile.Profile) sizing.FormValues {
	fill := func(field *string, v float64) {
		if *field == "" {
			*field = strconv.FormatFloat(v, 'f', 2, 64)
		}
	}
	fill(&form.DailyConsumption, p.DailyKWh)
	fill(&form.CriticalLoad, p.CriticalKW)
	fill(&form.PeakLoad, p.PeakKW)
	return form
}
