package attrkind

import (
	"fmt"
	"math"
	"strings"

	"attrschema/internal/domain/entity"
	"attrschema/internal/errors"
)

// measure implements body measurements stored in a canonical metric unit.
// Accepted inputs are a bare number in the canonical unit, or an object with
// value and unit. Height also accepts feet and inches.
type measure struct {
	desc      Descriptor
	canonical string
	// factors converts each accepted unit into the canonical unit.
	factors    map[string]float64
	defaultMin float64
	defaultMax float64
}

func newHeight() Kind {
	return &measure{
		desc: Descriptor{
			Name:           "height",
			Label:          "Height",
			Description:    "Body height, stored in centimeters.",
			Category:       CategoryDomain,
			Capabilities:   []Capability{CapMinMax, CapOptions, CapComposite},
			ValidationKeys: []string{"required", "min_value", "max_value"},
			DefaultOptions: func() *entity.Document {
				return entity.NewDocument("display_unit", "cm", "min", int64(90), "max", int64(250))
			},
		},
		canonical:  "cm",
		factors:    map[string]float64{"cm": 1, "m": 100, "in": 2.54, "ft": 30.48},
		defaultMin: 90,
		defaultMax: 250,
	}
}

func newWeight() Kind {
	return &measure{
		desc: Descriptor{
			Name:           "weight",
			Label:          "Weight",
			Description:    "Body weight, stored in kilograms.",
			Category:       CategoryDomain,
			Capabilities:   []Capability{CapMinMax, CapOptions, CapComposite},
			ValidationKeys: []string{"required", "min_value", "max_value"},
			DefaultOptions: func() *entity.Document {
				return entity.NewDocument("display_unit", "kg", "min", int64(30), "max", int64(300))
			},
		},
		canonical:  "kg",
		factors:    map[string]float64{"kg": 1, "lb": 0.45359237, "st": 6.35029318},
		defaultMin: 30,
		defaultMax: 300,
	}
}

func (k *measure) Descriptor() Descriptor { return k.desc }

// canonicalValue converts the input into the canonical unit.
func (k *measure) canonicalValue(value any) (float64, error) {
	if f, ok := entity.ToFloat(value); ok {
		return f, nil
	}
	m, ok := asMap(value)
	if !ok {
		return 0, errors.New("expected a number or an object with value and unit")
	}

	if k.canonical == "cm" {
		feet, hasFeet := entity.ToFloat(m["feet"])
		inches, hasInches := entity.ToFloat(m["inches"])
		if hasFeet || hasInches {
			return feet*k.factors["ft"] + inches*k.factors["in"], nil
		}
	}

	f, ok := entity.ToFloat(m["value"])
	if !ok {
		return 0, errors.New("value must be a number")
	}
	unit, _ := m["unit"].(string)
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit == "" {
		unit = k.canonical
	}
	factor, ok := k.factors[unit]
	if !ok {
		return 0, errors.Errorf("unit %q is not supported", unit)
	}

	return f * factor, nil
}

func (k *measure) bounds(def *entity.AttributeDefinition) (float64, float64) {
	rules := def.EffectiveRules()
	minValue := optionFloat(def, "min", k.defaultMin)
	maxValue := optionFloat(def, "max", k.defaultMax)
	if rules.MinValue != nil {
		minValue = *rules.MinValue
	}
	if rules.MaxValue != nil {
		maxValue = *rules.MaxValue
	}

	return minValue, maxValue
}

func (k *measure) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	unit := def.Options.String("display_unit")
	factor, ok := k.factors[unit]
	if !ok {
		unit, factor = k.canonical, 1
	}

	current := ""
	if f, err := k.canonicalValue(value); err == nil && !IsEmpty(value) {
		current = formatFloat(math.Round(f/factor*10) / 10)
	}

	minValue, maxValue := k.bounds(def)
	control := tag("input", append(controlAttrs(def, args, subfieldName(def, args, "value"), elementID(def, args)),
		attr{"type", "number"},
		attr{"value", current},
		attr{"step", "0.1"},
		attr{"min", formatFloat(math.Floor(minValue / factor))},
		attr{"max", formatFloat(math.Ceil(maxValue / factor))},
	), "", true)
	control += tag("input", []attr{{"type", "hidden"}, {"name", subfieldName(def, args, "unit")}, {"value", unit}}, "", true)
	control += tag("span", []attr{{"class", "attr-unit"}}, escape(unit), false)

	return wrapField(def, args, control), nil
}

func (k *measure) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	f, err := k.canonicalValue(value)
	if err != nil {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s: %s", displayName(def), err))

		return res
	}
	minValue, maxValue := k.bounds(def)
	name := fmt.Sprintf("%s (%s)", displayName(def), k.canonical)
	checkRange(def.Name, name, math.Round(f*10)/10, &minValue, &maxValue, &res)

	return res
}

// Sanitize returns {"value": <canonical, one decimal>, "unit": <canonical>}.
func (k *measure) Sanitize(_ *entity.AttributeDefinition, value any) any {
	if IsEmpty(value) {
		return nil
	}
	f, err := k.canonicalValue(value)
	if err != nil {
		return nil
	}

	return entity.NewDocument("value", math.Round(f*10)/10, "unit", k.canonical)
}

func (k *measure) Project(_ *entity.AttributeDefinition, value any) Projection {
	if IsEmpty(value) {
		return Projection{}
	}
	f, err := k.canonicalValue(value)
	if err != nil {
		return Projection{}
	}
	f = math.Round(f*10) / 10

	return Projection{Numeric: &f}
}
