package attrkind

import (
	"fmt"
	"slices"

	"attrschema/internal/domain/entity"
)

type lifestyleAspect struct {
	key     string
	label   string
	choices entity.Choices
}

var lifestyleAspects = []lifestyleAspect{
	{"smoking", "Smoking", choicesOf("never", "Never", "socially", "Socially", "regularly", "Regularly", "trying_to_quit", "Trying to quit")},
	{"drinking", "Drinking", choicesOf("never", "Never", "socially", "Socially", "regularly", "Regularly")},
	{"diet", "Diet", choicesOf("omnivore", "Omnivore", "vegetarian", "Vegetarian", "vegan", "Vegan", "pescatarian", "Pescatarian", "other", "Other")},
	{"exercise", "Exercise", choicesOf("never", "Never", "sometimes", "Sometimes", "regularly", "Regularly", "daily", "Daily")},
	{"pets", "Pets", choicesOf("none", "None", "cat", "Cat", "dog", "Dog", "other", "Other", "several", "Several")},
	{"children", "Children", choicesOf("none", "None", "have", "Have children", "want", "Want children", "dont_want", "Don't want children", "open", "Open to children")},
}

// lifestyle is a set of independent single-choice aspects stored as one
// object keyed by aspect. Options may restrict the aspects ("aspects") and
// override their choice lists ("aspect_choices").
type lifestyle struct{}

func newLifestyle() Kind { return lifestyle{} }

func (lifestyle) Descriptor() Descriptor {
	return Descriptor{
		Name:           "lifestyle",
		Label:          "Lifestyle",
		Description:    "Habits such as smoking, drinking, diet and exercise.",
		Category:       CategoryDomain,
		Capabilities:   []Capability{CapOptions, CapComposite},
		ValidationKeys: []string{"required"},
		DefaultOptions: func() *entity.Document {
			keys := make([]any, len(lifestyleAspects))
			for i, a := range lifestyleAspects {
				keys[i] = a.key
			}

			return entity.NewDocument("aspects", keys, "aspect_choices", &entity.Document{})
		},
	}
}

// aspects returns the aspects enabled for a definition with their effective choices.
func (lifestyle) aspects(def *entity.AttributeDefinition) []lifestyleAspect {
	enabled := def.Options.Strings("aspects")
	overrides := def.Options.Doc("aspect_choices")

	out := make([]lifestyleAspect, 0, len(lifestyleAspects))
	for _, a := range lifestyleAspects {
		if len(enabled) > 0 && !slices.Contains(enabled, a.key) {
			continue
		}
		if cs := entity.ChoicesFrom(overrides, a.key); len(cs) > 0 {
			a.choices = cs
		}
		out = append(out, a)
	}

	return out
}

func (k lifestyle) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	current, _ := asMap(value)

	var control string
	for _, a := range k.aspects(def) {
		var selected []string
		if s, ok := asString(current[a.key]); ok && s != "" {
			selected = []string{s}
		}
		id := subfieldID(def, args, a.key)
		control += tag("label", []attr{{"for", id}}, escape(a.label), false)
		control += renderSelect(def, args, subfieldName(def, args, a.key), id, a.choices, selected, false)
	}

	return wrapField(def, args, tag("div", []attr{{"class", "attr-lifestyle"}}, control, false)), nil
}

func (k lifestyle) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	m, ok := asMap(value)
	if !ok {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be an object keyed by aspect", displayName(def)))

		return res
	}

	aspects := k.aspects(def)
	for _, key := range sortedKeys(m) {
		idx := slices.IndexFunc(aspects, func(a lifestyleAspect) bool { return a.key == key })
		if idx < 0 {
			res.Add(def.Name+"."+key, CodeInvalidFormat, fmt.Sprintf("%q is not a lifestyle aspect", key))

			continue
		}
		if IsEmpty(m[key]) {
			continue
		}
		s, ok := asString(m[key])
		if !ok || !aspects[idx].choices.Contains(s) {
			res.Add(def.Name+"."+key, CodeInvalidChoice, fmt.Sprintf("%v is not a valid choice for %s", m[key], aspects[idx].label))
		}
	}

	return res
}

// Sanitize keeps the known aspects with valid choices, in aspect order.
func (k lifestyle) Sanitize(def *entity.AttributeDefinition, value any) any {
	m, ok := asMap(value)
	if !ok {
		return nil
	}

	out := &entity.Document{}
	for _, a := range k.aspects(def) {
		if s, ok := asString(m[a.key]); ok && a.choices.Contains(s) {
			out.Set(a.key, s)
		}
	}
	if out.Len() == 0 {
		return nil
	}

	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
