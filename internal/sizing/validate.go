package sizing

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"battery_sizer/internal/model"
)

// ErrNotCalculated matches every validation failure: the inputs were not
// complete enough to size a bank and nothing was computed.
var ErrNotCalculated = errors.New("sizing inputs incomplete, nothing calculated")

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of one calculation request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "invalid sizing input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrNotCalculated
}

// ValidationRule registers a custom rule on the underlying validator.
type ValidationRule struct {
	Tag  string
	Func validator.Func
}

var finiteRule = ValidationRule{
	Tag: "finite",
	Func: func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
			return true
		}
		v := f.Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	},
}

// Validator wraps go-playground/validator, reporting fields by their JSON
// names.
type Validator struct {
	validate *validator.Validate
}

func NewValidator(rules ...ValidationRule) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	for _, r := range append([]ValidationRule{finiteRule}, rules...) {
		// Tags are static and the funcs non-nil, so registration cannot fail.
		_ = v.RegisterValidation(r.Tag, r.Func)
	}
	return &Validator{validate: v}
}

// Struct validates s and converts failures into a *ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating input: %w", err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Value:   fmt.Sprint(fe.Value()),
			Message: ruleMessage(fe.Tag(), fe.Param()),
		})
	}
	return out
}

func ruleMessage(rule, param string) string {
	switch rule {
	case "finite":
		return "must be a finite number"
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	case "lte":
		return "must be at most " + param
	case "range":
		return "gives a bank too large to build"
	case "required":
		return "is required"
	case "number":
		return "must be a number"
	default:
		return "failed " + rule + " check"
	}
}

var defaultValidator = NewValidator()

// ValidateInput checks that every mandatory field is a positive finite number
// and the optional ones are not negative. All fields have an upper bound.
func ValidateInput(in model.SizingInput) error {
	return defaultValidator.Struct(in)
}
