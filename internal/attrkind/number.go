package attrkind

import (
	"fmt"
	"math"

	"attrschema/internal/domain/entity"
)

// numeric implements the number and range kinds.
type numeric struct {
	desc   Descriptor
	slider bool
}

func newNumber() Kind {
	return &numeric{desc: Descriptor{
		Name:           "number",
		Label:          "Number",
		Description:    "A numeric value with optional bounds.",
		Category:       CategoryInput,
		Capabilities:   []Capability{CapPlaceholder, CapMinMax},
		ValidationKeys: []string{"required", "min_value", "max_value"},
		DefaultOptions: func() *entity.Document {
			return entity.NewDocument("step", int64(1), "integer_only", false, "unit", "")
		},
	}}
}

func newRange() Kind {
	return &numeric{
		desc: Descriptor{
			Name:           "range",
			Label:          "Slider",
			Description:    "A bounded number picked with a slider.",
			Category:       CategoryInput,
			Capabilities:   []Capability{CapMinMax},
			ValidationKeys: []string{"required", "min_value", "max_value"},
			DefaultOptions: func() *entity.Document {
				return entity.NewDocument("min", int64(0), "max", int64(100), "step", int64(1))
			},
		},
		slider: true,
	}
}

func (k *numeric) Descriptor() Descriptor { return k.desc }

// bounds returns the effective min and max. Range kinds fall back to their
// option bounds when the definition sets none.
func (k *numeric) bounds(def *entity.AttributeDefinition) (*float64, *float64) {
	rules := def.EffectiveRules()
	minValue, maxValue := rules.MinValue, rules.MaxValue
	if k.slider {
		if minValue == nil {
			minValue = floatPtr(optionFloat(def, "min", 0))
		}
		if maxValue == nil {
			maxValue = floatPtr(optionFloat(def, "max", 100))
		}
	}

	return minValue, maxValue
}

func (k *numeric) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	current := ""
	if f, ok := entity.ToFloat(value); ok {
		current = formatFloat(f)
	} else if value == nil {
		current = def.DefaultValue
	}

	minValue, maxValue := k.bounds(def)
	var extra []attr
	if minValue != nil {
		extra = append(extra, attr{"min", formatFloat(*minValue)})
	}
	if maxValue != nil {
		extra = append(extra, attr{"max", formatFloat(*maxValue)})
	}
	if step, ok := def.Options.Float("step"); ok && step > 0 {
		extra = append(extra, attr{"step", formatFloat(step)})
	}

	inputType := "number"
	if k.slider {
		inputType = "range"
	}
	control := renderInput(def, args, inputType, current, extra...)
	if k.slider {
		control += tag("output", []attr{{"for", elementID(def, args)}}, escape(current), false)
	}
	if unit := def.Options.String("unit"); unit != "" {
		control += tag("span", []attr{{"class", "attr-unit"}}, escape(unit), false)
	}

	return wrapField(def, args, control), nil
}

func (k *numeric) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	f, ok := entity.ToFloat(value)
	if !ok {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be a number", displayName(def)))

		return res
	}
	if def.Options.Bool("integer_only") && f != math.Trunc(f) {
		res.Add(def.Name, CodeInvalidFormat, fmt.Sprintf("%s must be a whole number", displayName(def)))
	}
	minValue, maxValue := k.bounds(def)
	checkRange(def.Name, displayName(def), f, minValue, maxValue, &res)

	return res
}

func (k *numeric) Sanitize(def *entity.AttributeDefinition, value any) any {
	f, ok := entity.ToFloat(value)
	if !ok {
		return nil
	}
	if def.Options.Bool("integer_only") {
		return int64(math.Round(f))
	}
	if decimals, ok := def.Options.Int("decimals"); ok && decimals >= 0 {
		pow := math.Pow(10, float64(decimals))
		f = math.Round(f*pow) / pow
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}

	return f
}

func (k *numeric) Project(_ *entity.AttributeDefinition, value any) Projection {
	if f, ok := entity.ToFloat(value); ok {
		return Projection{Numeric: &f}
	}

	return Projection{}
}
