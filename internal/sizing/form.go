package sizing

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"battery_sizer/internal/model"
)

// DefaultReservePercent applies when the reserve field is left empty.
const DefaultReservePercent = 20

// FormValues are the raw, free-text values of the sizing form.
type FormValues struct {
	DailyConsumption string
	CriticalLoad     string
	PeakLoad         string
	AutonomyDays     string
	Chemistry        string
	SystemVoltage    string
	UnitVoltage      string
	UnitCapacity     string
	Environment      string
	ChargerPower     string
	ReservePercent   string
}

// FormFromValues reads form fields keyed by the JSON names of SizingInput.
// The reserve is given as a percentage.
func FormFromValues(v url.Values) FormValues {
	return FormValues{
		DailyConsumption: v.Get("daily_consumption_kwh"),
		CriticalLoad:     v.Get("critical_load_kw"),
		PeakLoad:         v.Get("peak_load_kw"),
		AutonomyDays:     v.Get("autonomy_days"),
		Chemistry:        v.Get("chemistry"),
		SystemVoltage:    v.Get("system_voltage"),
		UnitVoltage:      v.Get("unit_voltage"),
		UnitCapacity:     v.Get("unit_capacity_ah"),
		Environment:      v.Get("environment"),
		ChargerPower:     v.Get("charger_power_kw"),
		ReservePercent:   v.Get("reserve_percent"),
	}
}

// ParseForm converts form values into a validated SizingInput. Mandatory
// fields that are empty or unparsable are reported together with any range
// failures; empty optional fields take their defaults.
func ParseForm(f FormValues) (model.SizingInput, error) {
	p := formParser{}

	in := model.SizingInput{
		DailyConsumptionKWh: p.required("daily_consumption_kwh", f.DailyConsumption),
		CriticalLoadKW:      p.required("critical_load_kw", f.CriticalLoad),
		PeakLoadKW:          p.optional("peak_load_kw", f.PeakLoad, 0),
		AutonomyDays:        p.required("autonomy_days", f.AutonomyDays),
		Chemistry:           model.Chemistry(strings.TrimSpace(f.Chemistry)),
		SystemVoltage:       p.required("system_voltage", f.SystemVoltage),
		UnitVoltage:         p.required("unit_voltage", f.UnitVoltage),
		UnitCapacityAh:      p.required("unit_capacity_ah", f.UnitCapacity),
		Environment:         model.Environment(strings.TrimSpace(f.Environment)),
		ChargerPowerKW:      p.optional("charger_power_kw", f.ChargerPower, 0),
		ReserveFraction:     p.optional("reserve_percent", f.ReservePercent, DefaultReservePercent) / 100,
	}
	in = FillDefaults(in)

	if err := ValidateInput(in); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return model.SizingInput{}, err
		}
		fields := make([]FieldError, len(verr.Fields))
		for i, fe := range verr.Fields {
			fields[i] = asFormField(fe, f)
		}
		p.errs = append(p.errs, skipParsed(fields, p.errs)...)
	}
	if len(p.errs) > 0 {
		return model.SizingInput{}, &ValidationError{Fields: p.errs}
	}
	return in, nil
}

// FillDefaults sets an empty chemistry or environment to its default.
func FillDefaults(in model.SizingInput) model.SizingInput {
	if in.Chemistry == "" {
		in.Chemistry = model.DefaultChemistry
	}
	if in.Environment == "" {
		in.Environment = model.DefaultEnvironment
	}
	return in
}

// asFormField reports a reserve failure under the percentage field the form
// carries, with the bounds scaled to match.
func asFormField(fe FieldError, f FormValues) FieldError {
	if fe.Field != "reserve_fraction" {
		return fe
	}
	fe.Field = "reserve_percent"
	fe.Value = strings.TrimSpace(f.ReservePercent)
	switch fe.Rule {
	case "gte":
		fe.Message = ruleMessage("gte", "0")
	case "lte":
		fe.Message = ruleMessage("lte", "1000")
	}
	return fe
}

type formParser struct {
	errs []FieldError
}

func (p *formParser) required(field, raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		p.errs = append(p.errs, FieldError{Field: field, Rule: "required", Message: ruleMessage("required", "")})
		return 0
	}
	return p.parse(field, raw)
}

func (p *formParser) optional(field, raw string, def float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	return p.parse(field, raw)
}

func (p *formParser) parse(field, raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, FieldError{Field: field, Rule: "number", Value: raw, Message: ruleMessage("number", "")})
		return 0
	}
	return v
}

// skipParsed drops range failures for fields already reported as missing or
// unparsable.
func skipParsed(fields, parsed []FieldError) []FieldError {
	seen := make(map[string]bool, len(parsed))
	for _, f := range parsed {
		seen[f.Field] = true
	}
	out := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		if !seen[f.Field] {
			out = append(out, f)
		}
	}
	return out
}
