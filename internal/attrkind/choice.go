package attrkind

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"attrschema/internal/domain/entity"
)

const (
	widgetSelect   = "select"
	widgetRadio    = "radio"
	widgetCheckbox = "checkbox"

	maxCustomLength = 100
)

// choiceKind implements every kind whose value is picked from a choice list.
// Domain kinds ship default choices that a definition may override.
type choiceKind struct {
	desc     Descriptor
	widget   string
	multiple bool
	defaults entity.Choices
	// derive maps a raw value onto a choice value before it is checked.
	derive func(value any) (string, bool)
}

func choiceDescriptor(name, label, description, category string, multiple bool, defaults entity.Choices) Descriptor {
	caps := []Capability{CapOptions}
	keys := []string{"required"}
	if multiple {
		caps = append(caps, CapMultiple)
		keys = append(keys, "max_selections", "min_selections")
	}

	return Descriptor{
		Name:           name,
		Label:          label,
		Description:    description,
		Category:       category,
		Capabilities:   caps,
		ValidationKeys: keys,
		DefaultOptions: func() *entity.Document {
			return entity.NewDocument("choices", entity.ChoicesDocument(defaults))
		},
	}
}

func newSelect() Kind {
	desc := choiceDescriptor("select", "Dropdown", "Pick one value from a list.", CategoryChoice, false, nil)
	desc.RequiresChoices = true

	return &choiceKind{desc: desc, widget: widgetSelect}
}

func newMultiselect() Kind {
	desc := choiceDescriptor("multiselect", "Multi select", "Pick several values from a list.", CategoryChoice, true, nil)
	desc.RequiresChoices = true

	return &choiceKind{desc: desc, widget: widgetSelect, multiple: true}
}

func newRadio() Kind {
	desc := choiceDescriptor("radio", "Radio buttons", "Pick one value from a visible list.", CategoryChoice, false, nil)
	desc.RequiresChoices = true

	return &choiceKind{desc: desc, widget: widgetRadio}
}

// newCheckbox is a checkbox list when choices are configured, and a single
// consent style boolean checkbox otherwise.
func newCheckbox() Kind {
	desc := choiceDescriptor("checkbox", "Checkboxes", "A single yes/no box, or several boxes when choices are set.", CategoryChoice, true, nil)
	desc.DefaultOptions = func() *entity.Document { return entity.NewDocument("choices", &entity.Document{}) }

	return &choiceKind{desc: desc, widget: widgetCheckbox, multiple: true}
}

func (k *choiceKind) Descriptor() Descriptor { return k.desc }

func (k *choiceKind) choices(def *entity.AttributeDefinition) entity.Choices {
	if cs := def.Choices(); len(cs) > 0 {
		return cs
	}

	return k.defaults
}

func (k *choiceKind) boolean(def *entity.AttributeDefinition) bool {
	return k.widget == widgetCheckbox && len(k.choices(def)) == 0
}

func (k *choiceKind) allowCustom(def *entity.AttributeDefinition) bool {
	return !k.multiple && def.Options.Bool("allow_custom")
}

func (k *choiceKind) maxSelections(def *entity.AttributeDefinition) (int, bool) {
	if rules := def.EffectiveRules(); rules.MaxSelections != nil {
		return *rules.MaxSelections, true
	}

	return def.Options.Int("max_selections")
}

func (k *choiceKind) single(value any) (string, bool) {
	if k.derive != nil {
		if s, ok := k.derive(value); ok {
			return s, true
		}
	}
	s, ok := asString(value)

	return strings.TrimSpace(s), ok
}

func (k *choiceKind) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	if k.boolean(def) {
		checked, _ := parseBool(value)
		if value == nil {
			checked, _ = parseBool(def.DefaultValue)
		}
		attrs := append([]attr{{"type", "checkbox"}}, controlAttrs(def, args, inputName(def, args), elementID(def, args))...)
		attrs = append(attrs, attr{"value", "1"})
		if checked {
			attrs = append(attrs, attr{key: "!checked"})
		}

		return wrapField(def, args, tag("input", attrs, "", true)), nil
	}

	var selected []string
	if k.multiple {
		selected, _ = asStrings(value)
	} else if s, ok := k.single(value); ok && s != "" {
		selected = []string{s}
	}
	if value == nil && def.DefaultValue != "" {
		selected = strings.Split(def.DefaultValue, ",")
	}

	choices := k.choices(def)
	var control string
	switch k.widget {
	case widgetRadio:
		control = renderChoiceList(def, args, "radio", choices, selected)
	case widgetCheckbox:
		control = renderChoiceList(def, args, "checkbox", choices, selected)
	default:
		name := inputName(def, args)
		if k.multiple {
			name += "[]"
		}
		control = renderSelect(def, args, name, elementID(def, args), choices, selected, k.multiple)
	}

	return wrapField(def, args, control), nil
}

func (k *choiceKind) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if k.boolean(def) {
		checked, ok := parseBool(value)
		if !ok && !IsEmpty(value) {
			res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be checked or unchecked", displayName(def)))
		} else if !checked && def.EffectiveRules().Required {
			res.Add(def.Name, CodeRequired, fmt.Sprintf("%s must be checked", displayName(def)))
		}

		return res
	}
	if checkRequired(def, value, &res) {
		return res
	}

	choices := k.choices(def)
	name := displayName(def)
	if !k.multiple {
		s, ok := k.single(value)
		if !ok {
			res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be a single value", name))

			return res
		}
		if choices.Contains(s) {
			return res
		}
		if k.allowCustom(def) {
			if utf8.RuneCountInString(s) > maxCustomLength {
				res.Add(def.Name, CodeTooLong, fmt.Sprintf("%s must be at most %d characters", name, maxCustomLength))
			}

			return res
		}
		res.Add(def.Name, CodeInvalidChoice, fmt.Sprintf("%q is not a valid choice for %s", s, name))

		return res
	}

	values, ok := asStrings(value)
	if !ok {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be a list of values", name))

		return res
	}
	values = dedupe(values, identity)
	for _, v := range values {
		if !choices.Contains(v) {
			res.Add(def.Name, CodeInvalidChoice, fmt.Sprintf("%q is not a valid choice for %s", v, name))
		}
	}
	if limit, ok := k.maxSelections(def); ok && limit > 0 && len(values) > limit {
		res.Add(def.Name, CodeTooMany, fmt.Sprintf("%s allows at most %d selections", name, limit))
	}
	if least, ok := def.Options.Int("min_selections"); ok && len(values) < least {
		res.Add(def.Name, CodeTooShort, fmt.Sprintf("%s needs at least %d selections", name, least))
	}

	return res
}

func (k *choiceKind) Sanitize(def *entity.AttributeDefinition, value any) any {
	if k.boolean(def) {
		checked, _ := parseBool(value)

		return checked
	}

	choices := k.choices(def)
	if !k.multiple {
		s, ok := k.single(value)
		if !ok {
			return ""
		}
		if choices.Contains(s) {
			return s
		}
		if k.allowCustom(def) {
			s = sanitizeLine(s)
			if utf8.RuneCountInString(s) > maxCustomLength {
				s = string([]rune(s)[:maxCustomLength])
			}

			return s
		}

		return ""
	}

	values, _ := asStrings(value)
	out := make([]string, 0, len(values))
	for _, v := range dedupe(values, strings.TrimSpace) {
		v = strings.TrimSpace(v)
		if choices.Contains(v) {
			out = append(out, v)
		}
	}

	return out
}

// parseBool reads the boolean shapes submitted by forms and JSON clients.
func parseBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, true
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "off", "no":
			return false, true
		case "1", "true", "on", "yes":
			return true, true
		}
		b, err := strconv.ParseBool(v)

		return b, err == nil
	default:
		if f, ok := entity.ToFloat(v); ok {
			return f != 0, true
		}

		return false, false
	}
}
