package attrkind

import (
	"fmt"

	"attrschema/internal/domain/entity"
)

const (
	defaultMinAge = 18
	defaultMaxAge = 99
)

// ageRange is a preferred partner age span, stored as {"min": n, "max": n}.
type ageRange struct{}

func newAgeRange() Kind { return ageRange{} }

func (ageRange) Descriptor() Descriptor {
	return Descriptor{
		Name:           "age_range",
		Label:          "Age range",
		Description:    "A minimum and maximum age.",
		Category:       CategoryDomain,
		Capabilities:   []Capability{CapMinMax, CapOptions, CapComposite},
		ValidationKeys: []string{"required", "min_value", "max_value"},
		DefaultOptions: func() *entity.Document {
			return entity.NewDocument("min_age", int64(defaultMinAge), "max_age", int64(defaultMaxAge))
		},
	}
}

func ageBounds(def *entity.AttributeDefinition) (int, int) {
	lo := optionInt(def, "min_age", defaultMinAge)
	hi := optionInt(def, "max_age", defaultMaxAge)
	rules := def.EffectiveRules()
	if rules.MinValue != nil {
		lo = int(*rules.MinValue)
	}
	if rules.MaxValue != nil {
		hi = int(*rules.MaxValue)
	}

	return lo, hi
}

// agePair reads the two ends of the range. A missing end is reported as absent.
func agePair(value any) (lo, hi float64, hasLo, hasHi, ok bool) {
	if list, isList := value.([]any); isList && len(list) == 2 {
		lo, hasLo = entity.ToFloat(list[0])
		hi, hasHi = entity.ToFloat(list[1])

		return lo, hi, hasLo, hasHi, true
	}
	m, isMap := asMap(value)
	if !isMap {
		return 0, 0, false, false, false
	}
	lo, hasLo = entity.ToFloat(m["min"])
	hi, hasHi = entity.ToFloat(m["max"])

	return lo, hi, hasLo, hasHi, true
}

func (ageRange) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	lo, hi := ageBounds(def)
	curLo, curHi, hasLo, hasHi, _ := agePair(value)

	input := func(sub string, current float64, has bool) string {
		v := ""
		if has {
			v = formatFloat(current)
		}
		attrs := append(controlAttrs(def, args, subfieldName(def, args, sub), subfieldID(def, args, sub)),
			attr{"type", "number"}, attr{"value", v}, attr{"min", fmt.Sprint(lo)}, attr{"max", fmt.Sprint(hi)}, attr{"step", "1"})

		return tag("input", attrs, "", true)
	}
	control := input("min", curLo, hasLo) + tag("span", []attr{{"class", "attr-range-sep"}}, "–", false) + input("max", curHi, hasHi)

	return wrapField(def, args, tag("div", []attr{{"class", "attr-age-range"}}, control, false)), nil
}

func (ageRange) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	name := displayName(def)
	lo, hi, hasLo, hasHi, ok := agePair(value)
	if !ok {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must have a min and a max age", name))

		return res
	}
	if !hasLo {
		res.Add(def.Name+".min", CodeRequired, fmt.Sprintf("%s needs a minimum age", name))
	}
	if !hasHi {
		res.Add(def.Name+".max", CodeRequired, fmt.Sprintf("%s needs a maximum age", name))
	}
	if !hasLo || !hasHi {
		return res
	}

	minAge, maxAge := ageBounds(def)
	bottom, top := float64(minAge), float64(maxAge)
	checkRange(def.Name+".min", name, lo, &bottom, &top, &res)
	checkRange(def.Name+".max", name, hi, &bottom, &top, &res)
	if lo > hi {
		res.Add(def.Name, CodeInvalidFormat, fmt.Sprintf("%s minimum must not exceed the maximum", name))
	}

	return res
}

// Sanitize orders and clamps the ends and returns {"min", "max"}.
func (ageRange) Sanitize(def *entity.AttributeDefinition, value any) any {
	lo, hi, hasLo, hasHi, ok := agePair(value)
	if !ok || (!hasLo && !hasHi) {
		return nil
	}
	minAge, maxAge := ageBounds(def)
	if !hasLo {
		lo = float64(minAge)
	}
	if !hasHi {
		hi = float64(maxAge)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	clamp := func(f float64) int64 {
		return int64(max(float64(minAge), min(float64(maxAge), f)))
	}

	return entity.NewDocument("min", clamp(lo), "max", clamp(hi))
}

// Project indexes the lower bound.
func (ageRange) Project(_ *entity.AttributeDefinition, value any) Projection {
	lo, _, hasLo, _, _ := agePair(value)
	if !hasLo {
		return Projection{}
	}

	return Projection{Numeric: &lo}
}
